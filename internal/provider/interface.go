// Package provider supplies historical price data to the labeling job and
// the batch trainer. Implementations must bound every call with a timeout;
// a missing bar is reported as DATA_UNAVAILABLE, never by blocking.
package provider

import (
	"context"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// PriceProvider exposes daily price history.
type PriceProvider interface {
	// GetClose returns the closing price for symbol on the given date.
	// Returns DATA_UNAVAILABLE if the market did not trade that day or the
	// provider has no bar for it.
	GetClose(ctx context.Context, symbol string, date time.Time) (float64, error)

	// GetOHLCV returns daily bars for the closed range [start, end],
	// ordered ascending by date.
	GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error)
}
