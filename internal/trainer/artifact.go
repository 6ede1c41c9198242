package trainer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/storage/archive"
)

// ArtifactSchemaVersion guards artifact decoding across releases.
const ArtifactSchemaVersion = 1

// Artifact is the serialized form of one trained model, written to archive
// storage as JSON and loaded back for serving.
type Artifact struct {
	SchemaVersion   int               `json:"schema_version"`
	ModelID         string            `json:"model_id"`
	Ticker          string            `json:"ticker"`
	Mode            core.TrainingMode `json:"mode"`
	FeatureNames    []string          `json:"feature_names"`
	Ridge           *Ridge            `json:"ridge,omitempty"`
	Boost           *Boost            `json:"boost,omitempty"`
	TrainedAt       time.Time         `json:"trained_at"`
	From            time.Time         `json:"from"`
	To              time.Time         `json:"to"`
	IndicatorConfig string            `json:"indicator_config"`
}

// Predict applies the artifact's model to one feature row.
func (a *Artifact) Predict(x []float64) (float64, error) {
	if len(x) != len(a.FeatureNames) {
		return 0, core.WrapError(core.ErrValidation,
			fmt.Errorf("artifact %s expects %d features, got %d", a.ModelID, len(a.FeatureNames), len(x)))
	}
	switch {
	case a.Ridge != nil:
		return a.Ridge.Predict(x), nil
	case a.Boost != nil:
		return a.Boost.Predict(x), nil
	default:
		return 0, core.WrapError(core.ErrIntegrity,
			fmt.Errorf("artifact %s carries no model", a.ModelID))
	}
}

// ArtifactPath is the archive key for a model artifact.
func ArtifactPath(ticker string, mode core.TrainingMode, modelID string) string {
	return fmt.Sprintf("models/%s/%s/%s.json", strings.ToUpper(ticker), mode, modelID)
}

// LoadArtifact reads an artifact back from archive storage.
func LoadArtifact(ctx context.Context, store archive.Storage, path string) (*Artifact, error) {
	var a Artifact
	if err := archive.ReadJSON(ctx, store, path, &a); err != nil {
		return nil, err
	}
	if a.SchemaVersion != ArtifactSchemaVersion {
		return nil, core.WrapError(core.ErrIntegrity,
			fmt.Errorf("artifact %s has schema %d, want %d", path, a.SchemaVersion, ArtifactSchemaVersion))
	}
	return &a, nil
}
