package archive

import (
	"context"
	"testing"

	"github.com/quantlab/signalcore/internal/config"
)

type sample struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func TestWriteReadJSON(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	in := sample{Name: "ridge", Values: []float64{0.1, -0.2}}
	if err := WriteJSON(ctx, fs, "models/xyz/fast.json", in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out sample
	if err := ReadJSON(ctx, fs, "models/xyz/fast.json", &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out.Name != in.Name || len(out.Values) != 2 {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestReadJSON_Missing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	var out sample
	if err := ReadJSON(context.Background(), fs, "missing.json", &out); err == nil {
		t.Error("expected error for missing artifact")
	}
}

func TestFromConfig_LocalFS(t *testing.T) {
	s, err := FromConfig(config.ArchiveConfig{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := s.(*LocalFS); !ok {
		t.Errorf("expected LocalFS, got %T", s)
	}
}

func TestFromConfig_Unknown(t *testing.T) {
	if _, err := FromConfig(config.ArchiveConfig{Type: "tape"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
