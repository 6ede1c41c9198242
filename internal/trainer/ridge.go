package trainer

import (
	"fmt"
	"math"

	"github.com/quantlab/signalcore/internal/core"
)

// Ridge is a closed-form L2-regularized linear model.
type Ridge struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// FitRidge solves the weighted normal equations (X'WX + λI)β = X'Wy with the
// intercept left unpenalized. The solve is exact, so refitting the same
// window reproduces the same model bit for bit.
func FitRidge(x [][]float64, y, w []float64, lambda float64) (*Ridge, error) {
	n := len(x)
	if n == 0 || n != len(y) || n != len(w) {
		return nil, core.WrapError(core.ErrTraining,
			fmt.Errorf("ridge fit: %d rows, %d targets, %d weights", n, len(y), len(w)))
	}
	d := len(x[0]) + 1 // trailing intercept column

	// Accumulate the d×d normal matrix and the d-vector right-hand side.
	a := make([][]float64, d)
	for i := range a {
		a[i] = make([]float64, d)
	}
	b := make([]float64, d)
	for r := 0; r < n; r++ {
		row := x[r]
		for i := 0; i < d; i++ {
			xi := 1.0
			if i < d-1 {
				xi = row[i]
			}
			b[i] += w[r] * xi * y[r]
			for j := i; j < d; j++ {
				xj := 1.0
				if j < d-1 {
					xj = row[j]
				}
				a[i][j] += w[r] * xi * xj
			}
		}
	}
	for i := 0; i < d; i++ {
		for j := 0; j < i; j++ {
			a[i][j] = a[j][i]
		}
	}
	for i := 0; i < d-1; i++ {
		a[i][i] += lambda
	}

	beta, err := solveLinear(a, b)
	if err != nil {
		return nil, err
	}
	return &Ridge{Weights: beta[:d-1], Intercept: beta[d-1]}, nil
}

// Predict returns the linear response for one feature row.
func (r *Ridge) Predict(x []float64) float64 {
	out := r.Intercept
	for i, w := range r.Weights {
		out += w * x[i]
	}
	return out
}

// solveLinear solves a·x = b in place with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	d := len(b)
	for col := 0; col < d; col++ {
		pivot := col
		for r := col + 1; r < d; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, core.WrapError(core.ErrTraining,
				fmt.Errorf("degenerate feature matrix: singular at column %d", col))
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < d; r++ {
			f := a[r][col] / a[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < d; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]float64, d)
	for r := d - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < d; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
