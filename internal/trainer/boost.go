package trainer

import (
	"fmt"
	"sort"

	"github.com/quantlab/signalcore/internal/core"
)

// Stump is a depth-one regression tree: one feature, one threshold, and a
// constant response on each side.
type Stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      float64 `json:"left"`  // value <= threshold
	Right     float64 `json:"right"` // value > threshold
}

func (s Stump) response(x []float64) float64 {
	if x[s.Feature] <= s.Threshold {
		return s.Left
	}
	return s.Right
}

// Boost is a gradient-boosted ensemble of regression stumps over squared
// loss. Features are scanned in a fixed order with ties broken toward the
// earlier candidate, so the fit is deterministic.
type Boost struct {
	Base         float64 `json:"base"`
	LearningRate float64 `json:"learning_rate"`
	Stumps       []Stump `json:"stumps"`
}

// FitBoost fits up to rounds stumps against the weighted residuals. Fitting
// stops early once no split reduces the loss.
func FitBoost(x [][]float64, y, w []float64, rounds int, learningRate float64) (*Boost, error) {
	n := len(x)
	if n == 0 || n != len(y) || n != len(w) {
		return nil, core.WrapError(core.ErrTraining,
			fmt.Errorf("boost fit: %d rows, %d targets, %d weights", n, len(y), len(w)))
	}
	if rounds < 1 || learningRate <= 0 || learningRate > 1 {
		return nil, core.WrapError(core.ErrTraining,
			fmt.Errorf("boost fit: invalid rounds=%d learning_rate=%f", rounds, learningRate))
	}

	var sumW, sumWY float64
	for i := range y {
		sumW += w[i]
		sumWY += w[i] * y[i]
	}
	if sumW <= 0 {
		return nil, core.WrapError(core.ErrTraining, fmt.Errorf("boost fit: zero total weight"))
	}

	model := &Boost{Base: sumWY / sumW, LearningRate: learningRate}

	residual := make([]float64, n)
	for i := range y {
		residual[i] = y[i] - model.Base
	}

	// Per-feature sort orders are fixed for the whole fit.
	dims := len(x[0])
	order := make([][]int, dims)
	for j := 0; j < dims; j++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]][j] < x[idx[b]][j] })
		order[j] = idx
	}

	for round := 0; round < rounds; round++ {
		best, ok := bestStump(x, residual, w, order)
		if !ok {
			break
		}
		model.Stumps = append(model.Stumps, best)
		for i := range residual {
			residual[i] -= learningRate * best.response(x[i])
		}
	}
	return model, nil
}

// Predict returns the ensemble response for one feature row.
func (b *Boost) Predict(x []float64) float64 {
	out := b.Base
	for _, s := range b.Stumps {
		out += b.LearningRate * s.response(x)
	}
	return out
}

// bestStump scans every feature and split point for the largest weighted
// squared-error reduction against the residuals.
func bestStump(x [][]float64, residual, w []float64, order [][]int) (Stump, bool) {
	var totalW, totalWR float64
	for i := range residual {
		totalW += w[i]
		totalWR += w[i] * residual[i]
	}

	var best Stump
	bestGain := 1e-12
	found := false

	for j, idx := range order {
		var leftW, leftWR float64
		for pos := 0; pos < len(idx)-1; pos++ {
			i := idx[pos]
			leftW += w[i]
			leftWR += w[i] * residual[i]

			v, next := x[i][j], x[idx[pos+1]][j]
			if v == next {
				continue // not a valid split point
			}
			rightW := totalW - leftW
			rightWR := totalWR - leftWR
			if leftW <= 0 || rightW <= 0 {
				continue
			}
			// Reduction in weighted SSE from splitting here.
			gain := leftWR*leftWR/leftW + rightWR*rightWR/rightW - totalWR*totalWR/totalW
			if gain > bestGain {
				bestGain = gain
				best = Stump{
					Feature:   j,
					Threshold: (v + next) / 2,
					Left:      leftWR / leftW,
					Right:     rightWR / rightW,
				}
				found = true
			}
		}
	}
	return best, found
}
