// Package history stores raw OHLCV rows used as batch trainer input. The
// data is explicitly ephemeral: after a training run the retention policy
// reduces it to its configured residue and the store reclaims space.
package history

import (
	"context"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// Store defines the interface for the historical price window.
type Store interface {
	// Upsert inserts or refreshes daily bars.
	Upsert(ctx context.Context, bars []core.DailyBar) error

	// Load returns bars for the symbol within [from, to], ascending.
	Load(ctx context.Context, symbol string, from, to time.Time) ([]core.DailyBar, error)

	// Count returns the number of stored rows for the symbol.
	Count(ctx context.Context, symbol string) (int, error)

	// DeleteAll removes every row for the symbol and reports how many.
	DeleteAll(ctx context.Context, symbol string) (int64, error)

	// DeleteBefore removes rows strictly older than cutoff and reports how many.
	DeleteBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error)

	// Reclaim asks the underlying store to release space freed by deletes.
	Reclaim(ctx context.Context) error
}
