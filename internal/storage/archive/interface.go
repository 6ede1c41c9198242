// Package archive stores model artifacts as durable objects, on the local
// filesystem or an S3-compatible bucket. Artifacts are written once at
// registration time and read back for batch serving; unlike the raw price
// history they are never pruned.
package archive

import "context"

// Storage is an object store keyed by slash-separated paths.
type Storage interface {
	// Write stores data at path, overwriting any previous object.
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the object at path, or NOT_FOUND.
	Read(ctx context.Context, path string) ([]byte, error)
}
