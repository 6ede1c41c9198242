package indicator

// RSI calculates the Relative Strength Index with Wilder smoothing.
// Returns slice of length: len(prices) - period
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period)

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	result = append(result, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result = append(result, rsiValue(avgGain, avgLoss))
	}

	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD calculates the MACD line and its signal line.
// Both slices have length: len(prices) - slow - signal + 2
func MACD(prices []float64, fast, slow, signal int) (macd, signalLine []float64) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(prices) < slow+signal-1 {
		return []float64{}, []float64{}
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	// Align: slowEMA starts (slow - fast) elements later
	offset := slow - fast
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine = EMA(line, signal)
	macd = line[len(line)-len(signalLine):]
	return macd, signalLine
}
