// Package online implements the incrementally-updatable binary probability
// model: logistic regression trained one (features, label) pair at a time,
// with state persisted after every update so a crash loses at most one
// unsaved step.
package online

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/feature"
	"github.com/quantlab/signalcore/internal/logger"
	"github.com/quantlab/signalcore/internal/storage/modelstate"
	"go.uber.org/zap"
)

// NeutralProbability is returned before any training has happened.
const NeutralProbability = 0.5

// lossDecay is the EWMA factor for the running log-loss estimate.
const lossDecay = 0.02

// Metrics is the classifier's observable state.
type Metrics struct {
	SampleCount  int64
	RunningLoss  float64
	ModelVersion int64
}

// Classifier is a thread-safe online logistic regression model. Learn calls
// are serialized against each other and against Predict; readers never
// observe a half-written state.
type Classifier struct {
	mu    sync.RWMutex
	store modelstate.Store
	log   *zap.Logger

	learningRate float64
	flushEvery   int

	state   *state
	pending int // learn calls applied since the last flush
}

// Options configures the classifier.
type Options struct {
	LearningRate float64
	// FlushEvery batches N updates per persistence flush. 1 persists after
	// every update and is the durable default.
	FlushEvery int
	Logger     *zap.Logger
}

// New creates a classifier, restoring persisted state when present. State
// saved under a different feature vector layout is discarded.
func New(ctx context.Context, store modelstate.Store, opts Options) (*Classifier, error) {
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.05
	}
	if opts.FlushEvery < 1 {
		opts.FlushEvery = 1
	}
	c := &Classifier{
		store:        store,
		log:          logger.Component(opts.Logger, "online"),
		learningRate: opts.LearningRate,
		flushEvery:   opts.FlushEvery,
		state:        newState(),
	}

	blob, version, err := store.Load(ctx)
	switch {
	case err == nil:
		restored, uerr := unmarshalState(blob)
		if uerr != nil {
			return nil, core.WrapError(core.ErrPersistence, uerr)
		}
		if restored.VectorVersion != feature.VectorVersion {
			c.log.Warn("discarding model state with stale vector layout",
				zap.Int("stored", restored.VectorVersion),
				zap.Int("current", feature.VectorVersion),
			)
			c.state.Version = version
		} else {
			c.state = restored
			c.log.Info("restored online model state",
				zap.Int64("version", version),
				zap.Int64("samples", restored.SampleCount),
			)
		}
	case core.ErrNotFound.Is(err):
		// First boot: empty model, neutral predictions
	default:
		return nil, err
	}

	return c, nil
}

// Predict returns the probability that the article's symbol rises more than
// the labeling threshold over the horizon. Before any training it returns
// the neutral default with model version 0.
func (c *Classifier) Predict(rec core.FeatureRecord) (probability float64, modelVersion int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state.SampleCount == 0 {
		return NeutralProbability, 0
	}

	vec := c.state.standardize(feature.Vectorize(rec))
	return sigmoid(dot(c.state.Weights, vec) + c.state.Bias), c.state.Version
}

// Learn applies one labeled example. The update and its persistence are
// atomic: on a save failure the in-memory model is left exactly as before,
// and the caller gets a PERSISTENCE error to retry.
func (c *Classifier) Learn(ctx context.Context, rec core.FeatureRecord, label int) error {
	if label != 0 && label != 1 {
		return core.WrapError(core.ErrValidation, fmt.Errorf("label must be 0 or 1, got %d", label))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Work on a copy; swap only once the new state is safe.
	next := c.state.clone()
	next.update(feature.Vectorize(rec), label, c.learningRate)
	next.Version++

	if c.pending+1 >= c.flushEvery {
		blob, err := next.marshal()
		if err != nil {
			return core.WrapError(core.ErrPersistence, err)
		}
		if err := c.store.Save(ctx, blob, next.Version); err != nil {
			if core.ErrPersistence.Is(err) {
				return err
			}
			return core.WrapError(core.ErrPersistence, err)
		}
		c.pending = 0
	} else {
		c.pending++
	}

	c.state = next
	return nil
}

// Metrics returns sample count, running log-loss and model version.
func (c *Classifier) Metrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Metrics{
		SampleCount:  c.state.SampleCount,
		RunningLoss:  c.state.RunningLoss,
		ModelVersion: c.state.Version,
	}
}

// Reset wipes persisted and in-memory state. Only an explicit reset deletes
// the model.
func (c *Classifier) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Reset(ctx); err != nil {
		return err
	}
	c.state = newState()
	c.pending = 0
	return nil
}

// update applies one SGD step with online standardization.
func (s *state) update(vec []float64, label int, learningRate float64) {
	// Fold the example into the running feature statistics first, so the
	// very first example standardizes to zeros instead of raw magnitudes.
	s.SampleCount++
	n := float64(s.SampleCount)
	for i, x := range vec {
		delta := x - s.Mean[i]
		s.Mean[i] += delta / n
		s.M2[i] += delta * (x - s.Mean[i])
	}

	std := s.standardize(vec)
	p := sigmoid(dot(s.Weights, std) + s.Bias)

	y := float64(label)
	grad := p - y
	for i, x := range std {
		s.Weights[i] -= learningRate * grad * x
	}
	s.Bias -= learningRate * grad

	loss := logLoss(p, y)
	if s.SampleCount == 1 {
		s.RunningLoss = loss
	} else {
		s.RunningLoss = (1-lossDecay)*s.RunningLoss + lossDecay*loss
	}
}

// standardize scales a raw vector by the running mean and deviation. Features
// with no observed variance pass through centered only.
func (s *state) standardize(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for i, x := range vec {
		if i >= len(s.Mean) {
			break
		}
		centered := x - s.Mean[i]
		if s.SampleCount > 1 {
			variance := s.M2[i] / float64(s.SampleCount-1)
			if variance > 1e-12 {
				out[i] = centered / math.Sqrt(variance)
				continue
			}
		}
		out[i] = centered
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		sum += a[i] * b[i]
	}
	return sum
}

func logLoss(p, y float64) float64 {
	const eps = 1e-12
	p = math.Min(math.Max(p, eps), 1-eps)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}
