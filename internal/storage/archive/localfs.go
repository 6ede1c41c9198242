package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantlab/signalcore/internal/core"
)

// LocalFS stores objects as files under a base directory.
type LocalFS struct {
	basePath string
}

// NewLocalFS creates the base directory if needed.
func NewLocalFS(basePath string) (*LocalFS, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, core.WrapError(core.ErrPersistence,
			fmt.Errorf("creating archive directory: %w", err))
	}
	return &LocalFS{basePath: basePath}, nil
}

func (l *LocalFS) Write(ctx context.Context, path string, data []byte) error {
	full := filepath.Join(l.basePath, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}

func (l *LocalFS) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, path))
	if os.IsNotExist(err) {
		return nil, core.WrapError(core.ErrNotFound,
			fmt.Errorf("no artifact at %s", path))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	return data, nil
}
