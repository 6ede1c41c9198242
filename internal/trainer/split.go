package trainer

import (
	"math"
	"time"
)

// SplitIndex returns the walk-forward boundary for n time-ordered rows: rows
// [0, idx) train, rows [idx, n) validate. Validation is always strictly after
// training and both sides are non-empty.
func SplitIndex(n int, validationRatio float64) int {
	idx := n - int(math.Floor(float64(n)*validationRatio))
	if idx >= n {
		idx = n - 1
	}
	if idx < 1 {
		idx = 1
	}
	return idx
}

// UniformWeights returns n equal sample weights.
func UniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// DecayWeights returns exponential time-decay weights: the newest row weighs
// 1 and a row halfLifeDays older weighs half that.
func DecayWeights(dates []time.Time, halfLifeDays float64) []float64 {
	w := make([]float64, len(dates))
	if len(dates) == 0 {
		return w
	}
	newest := dates[len(dates)-1]
	for i, d := range dates {
		ageDays := newest.Sub(d).Hours() / 24
		w[i] = math.Pow(0.5, ageDays/halfLifeDays)
	}
	return w
}
