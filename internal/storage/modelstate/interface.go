// Package modelstate persists the online classifier's serialized state blob,
// versioned by a monotonically increasing counter. The classifier saves after
// every update so a crash loses at most one unsaved update.
package modelstate

import "context"

// Store defines the interface for online model state persistence.
type Store interface {
	// Save persists the state blob at the given version. Saving a version
	// not greater than the stored one is a PERSISTENCE error; the version
	// counter only moves forward.
	Save(ctx context.Context, state []byte, version int64) error

	// Load returns the latest state blob and its version, or NOT_FOUND if
	// no state was ever saved.
	Load(ctx context.Context) ([]byte, int64, error)

	// Reset removes the persisted state. Only an explicit reset deletes
	// model state.
	Reset(ctx context.Context) error
}
