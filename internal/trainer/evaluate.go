package trainer

import (
	"math"

	"github.com/quantlab/signalcore/internal/core"
)

// Evaluate computes R², RMSE and MAE for predictions against actuals.
func Evaluate(actual, predicted []float64) core.EvalMetrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return core.EvalMetrics{}
	}

	var mean float64
	for _, y := range actual {
		mean += y
	}
	mean /= float64(n)

	var ssRes, ssTot, absErr float64
	for i, y := range actual {
		diff := y - predicted[i]
		ssRes += diff * diff
		ssTot += (y - mean) * (y - mean)
		absErr += math.Abs(diff)
	}

	m := core.EvalMetrics{
		RMSE: math.Sqrt(ssRes / float64(n)),
		MAE:  absErr / float64(n),
	}
	if ssTot > 0 {
		m.R2 = 1 - ssRes/ssTot
	}
	return m
}
