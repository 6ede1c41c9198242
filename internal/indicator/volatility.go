package indicator

import "math"

// StdDev calculates the rolling population standard deviation.
// Returns slice of length: len(prices) - period + 1
func StdDev(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		window := prices[i-period+1 : i+1]

		var sum float64
		for _, p := range window {
			sum += p
		}
		mean := sum / float64(period)

		var variance float64
		for _, p := range window {
			variance += (p - mean) * (p - mean)
		}
		result = append(result, math.Sqrt(variance/float64(period)))
	}

	return result
}

// Bollinger calculates Bollinger Bands (upper, middle, lower).
// All slices have length: len(prices) - period + 1
func Bollinger(prices []float64, period int, width float64) (upper, middle, lower []float64) {
	middle = SMA(prices, period)
	sd := StdDev(prices, period)

	upper = make([]float64, len(middle))
	lower = make([]float64, len(middle))
	for i := range middle {
		upper[i] = middle[i] + width*sd[i]
		lower[i] = middle[i] - width*sd[i]
	}
	return upper, middle, lower
}

// ATR calculates the Average True Range over OHLC series using Wilder smoothing.
// Returns slice of length: len(highs) - period
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(highs)
	if period <= 0 || n != len(lows) || n != len(closes) || n < period+1 {
		return []float64{}
	}

	// True range needs the previous close, so it starts at index 1
	tr := make([]float64, n-1)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i-1] = math.Max(hl, math.Max(hc, lc))
	}

	result := make([]float64, 0, len(tr)-period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	result = append(result, atr)

	for i := period; i < len(tr); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		result = append(result, atr)
	}

	return result
}
