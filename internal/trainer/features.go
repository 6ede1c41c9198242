// Package trainer builds versioned batch price models: an indicator feature
// matrix over daily bars, closed-form ridge regression for the fast mode and
// gradient-boosted regression stumps for the robust mode. Both fits are
// deterministic for a given input window.
package trainer

import (
	"fmt"
	"time"

	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/indicator"
)

// IndicatorConfig is the canonical description of the feature set below. It
// feeds the config hash, so any change here versions the models it produces.
const IndicatorConfig = "sma:5,10,20|ema:12,26|rsi:14|macd:12,26,9|boll:20,2.0|atr:14|volr:20|ret:1,3,5"

// minTrainRows is the fewest target rows a matrix must yield to be trainable.
const minTrainRows = 30

var featureNames = []string{
	"close",
	"sma_5", "sma_10", "sma_20",
	"ema_12", "ema_26",
	"rsi_14",
	"macd", "macd_signal",
	"boll_upper", "boll_middle", "boll_lower",
	"atr_14",
	"volume_ratio_20",
	"return_1", "return_3", "return_5",
}

// Matrix is a tail-aligned feature matrix over daily bars. Row i describes
// one session; Y[i] is the next session's close. The last row has no target
// yet and is the prediction input for the next session.
type Matrix struct {
	Names []string
	X     [][]float64
	Y     []float64 // len(X) - 1
	Dates []time.Time
}

// BuildMatrix derives the indicator matrix from ascending daily bars. Each
// indicator series ends at the last bar, so rows are aligned by trimming all
// series to the shortest one.
func BuildMatrix(bars []core.DailyBar) (*Matrix, error) {
	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	dates := make([]time.Time, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = float64(b.Volume)
		dates[i] = b.Date
	}

	macd, macdSignal := indicator.MACD(closes, 12, 26, 9)
	bollUpper, bollMiddle, bollLower := indicator.Bollinger(closes, 20, 2.0)

	columns := [][]float64{
		closes,
		indicator.SMA(closes, 5),
		indicator.SMA(closes, 10),
		indicator.SMA(closes, 20),
		indicator.EMA(closes, 12),
		indicator.EMA(closes, 26),
		indicator.RSI(closes, 14),
		macd,
		macdSignal,
		bollUpper,
		bollMiddle,
		bollLower,
		indicator.ATR(highs, lows, closes, 14),
		indicator.VolumeRatio(volumes, 20),
		indicator.Returns(closes, 1),
		indicator.Returns(closes, 3),
		indicator.Returns(closes, 5),
	}

	rows := n
	for _, col := range columns {
		if len(col) < rows {
			rows = len(col)
		}
	}
	if rows < minTrainRows+1 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("only %d aligned rows from %d bars, need at least %d", rows, n, minTrainRows+1))
	}

	m := &Matrix{
		Names: featureNames,
		X:     make([][]float64, rows),
		Y:     make([]float64, rows-1),
		Dates: dates[n-rows:],
	}
	for i := 0; i < rows; i++ {
		row := make([]float64, len(columns))
		for j, col := range columns {
			row[j] = col[len(col)-rows+i]
		}
		m.X[i] = row
		if i < rows-1 {
			m.Y[i] = closes[n-rows+i+1]
		}
	}
	return m, nil
}

// Latest returns the most recent feature row, the one without a target.
func (m *Matrix) Latest() []float64 {
	return m.X[len(m.X)-1]
}

// Snapshot returns the latest feature row keyed by feature name.
func (m *Matrix) Snapshot() map[string]float64 {
	latest := m.Latest()
	out := make(map[string]float64, len(m.Names))
	for i, name := range m.Names {
		out[name] = latest[i]
	}
	return out
}
