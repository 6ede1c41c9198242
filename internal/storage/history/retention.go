package history

import (
	"context"
	"fmt"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// PolicyKind enumerates retention strategies for raw training data.
type PolicyKind string

const (
	// DeleteAll removes every raw row after training.
	DeleteAll PolicyKind = "none"
	// RetainWindow keeps only a trailing window of days.
	RetainWindow PolicyKind = "window"
	// RetainAll leaves the raw data unchanged.
	RetainAll PolicyKind = "all"
)

// Policy is the post-training retention strategy. It is applied as a
// separate step after artifacts are persisted and registered, never
// interleaved with training.
type Policy struct {
	Kind       PolicyKind
	WindowDays int
}

// ParsePolicy builds a Policy from config strings.
func ParsePolicy(kind string, windowDays int) (Policy, error) {
	switch PolicyKind(kind) {
	case DeleteAll, RetainAll:
		return Policy{Kind: PolicyKind(kind)}, nil
	case RetainWindow:
		if windowDays < 1 {
			return Policy{}, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("window retention requires positive days, got %d", windowDays))
		}
		return Policy{Kind: RetainWindow, WindowDays: windowDays}, nil
	default:
		return Policy{}, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown retention policy %q", kind))
	}
}

// Apply prunes the symbol's raw rows per the policy and reclaims space.
// Returns the number of rows removed.
func (p Policy) Apply(ctx context.Context, store Store, symbol string, now time.Time) (int64, error) {
	var (
		pruned int64
		err    error
	)

	switch p.Kind {
	case DeleteAll:
		pruned, err = store.DeleteAll(ctx, symbol)
	case RetainWindow:
		cutoff := now.AddDate(0, 0, -p.WindowDays)
		pruned, err = store.DeleteBefore(ctx, symbol, cutoff)
	case RetainAll:
		return 0, nil
	default:
		return 0, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown retention policy %q", p.Kind))
	}
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		if err := store.Reclaim(ctx); err != nil {
			return pruned, err
		}
	}
	return pruned, nil
}
