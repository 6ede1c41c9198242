package online

import (
	"encoding/json"

	"github.com/quantlab/signalcore/internal/feature"
)

// state is the classifier's serializable internal state. Every mutation bumps
// Version; the blob is persisted through the modelstate store.
type state struct {
	VectorVersion int       `json:"vector_version"`
	Weights       []float64 `json:"weights"`
	Bias          float64   `json:"bias"`

	// Online standardization (Welford) over everything learned so far.
	Mean []float64 `json:"mean"`
	M2   []float64 `json:"m2"`

	SampleCount int64   `json:"sample_count"`
	RunningLoss float64 `json:"running_loss"`
	Version     int64   `json:"version"`
}

func newState() *state {
	size := feature.VectorSize()
	return &state{
		VectorVersion: feature.VectorVersion,
		Weights:       make([]float64, size),
		Mean:          make([]float64, size),
		M2:            make([]float64, size),
	}
}

func (s *state) clone() *state {
	out := *s
	out.Weights = append([]float64(nil), s.Weights...)
	out.Mean = append([]float64(nil), s.Mean...)
	out.M2 = append([]float64(nil), s.M2...)
	return &out
}

func (s *state) marshal() ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalState(data []byte) (*state, error) {
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
