package indicator

// Returns calculates trailing returns over the given horizon:
// (p[i] / p[i-horizon]) - 1. Returns slice of length: len(prices) - horizon
func Returns(prices []float64, horizon int) []float64 {
	if horizon <= 0 || len(prices) <= horizon {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-horizon)
	for i := horizon; i < len(prices); i++ {
		if prices[i-horizon] == 0 {
			result = append(result, 0)
			continue
		}
		result = append(result, prices[i]/prices[i-horizon]-1)
	}
	return result
}

// VolumeRatio calculates volume relative to its trailing moving average.
// Returns slice of length: len(volumes) - period + 1
func VolumeRatio(volumes []float64, period int) []float64 {
	avg := SMA(volumes, period)
	result := make([]float64, len(avg))
	for i := range avg {
		v := volumes[i+period-1]
		if avg[i] == 0 {
			result[i] = 1
			continue
		}
		result[i] = v / avg[i]
	}
	return result
}
