package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/core"
)

// WriteJSON marshals v and stores it at path.
func WriteJSON(ctx context.Context, s Storage, path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}
	return s.Write(ctx, path, data)
}

// ReadJSON retrieves the object at path and unmarshals it into v.
func ReadJSON(ctx context.Context, s Storage, path string, v any) error {
	data, err := s.Read(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling artifact: %w", err)
	}
	return nil
}

// FromConfig builds the configured archive backend.
func FromConfig(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %q", cfg.Type))
	}
}
