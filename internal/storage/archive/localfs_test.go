package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantlab/signalcore/internal/core"
)

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	ctx := context.Background()

	data := []byte(`{"model_id":"m1"}`)
	if err := fs.Write(ctx, "models/AAPL/fast/m1.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "models/AAPL/fast/m1.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_MissingIsNotFound(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	_, err := fs.Read(context.Background(), "models/AAPL/fast/gone.json")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestLocalFS_OverwriteReplacesObject(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "a.json", []byte("v1"))
	if err := fs.Write(ctx, "a.json", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ := fs.Read(ctx, "a.json")
	if string(got) != "v2" {
		t.Errorf("got %q, want v2", got)
	}
}

func TestWriteReadJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	in := map[string]float64{"r2": 0.91}
	if err := WriteJSON(ctx, fs, "models/AAPL/fast/m1.json", in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	// The object lands on disk under the given path.
	if _, err := os.Stat(filepath.Join(dir, "models/AAPL/fast/m1.json")); err != nil {
		t.Fatalf("artifact not on disk: %v", err)
	}

	var out map[string]float64
	if err := ReadJSON(ctx, fs, "models/AAPL/fast/m1.json", &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out["r2"] != 0.91 {
		t.Errorf("round trip lost data: %v", out)
	}
}
