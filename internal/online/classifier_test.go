package online

import (
	"context"
	"sync"
	"testing"

	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/storage/modelstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bullish() core.FeatureRecord {
	return core.FeatureRecord{
		Numeric: map[string]float64{
			"confidence": 0.9, "trust": 0.8, "novelty": 0.7,
			"momentum": 0.05, "volatility": 0.01,
		},
		Categorical: map[string]string{
			"catalyst": "EARNINGS", "stance": "BULLISH", "sector": "TECH",
		},
	}
}

func bearish() core.FeatureRecord {
	return core.FeatureRecord{
		Numeric: map[string]float64{
			"confidence": 0.9, "trust": 0.8, "novelty": 0.7,
			"momentum": -0.05, "volatility": 0.04,
		},
		Categorical: map[string]string{
			"catalyst": "REGULATORY", "stance": "BEARISH", "sector": "ENERGY",
		},
	}
}

func newClassifier(t *testing.T, store modelstate.Store) *Classifier {
	t.Helper()
	c, err := New(context.Background(), store, Options{LearningRate: 0.1})
	require.NoError(t, err)
	return c
}

func TestPredict_UntrainedNeutral(t *testing.T) {
	c := newClassifier(t, modelstate.NewMemoryStore())

	p, version := c.Predict(bullish())
	assert.Equal(t, NeutralProbability, p)
	assert.Equal(t, int64(0), version)
}

func TestLearn_IncrementsSampleCount(t *testing.T) {
	c := newClassifier(t, modelstate.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.Learn(ctx, bullish(), 1))

	m := c.Metrics()
	assert.Equal(t, int64(1), m.SampleCount)
	assert.Equal(t, int64(1), m.ModelVersion)
}

func TestLearn_SeparatesClasses(t *testing.T) {
	c := newClassifier(t, modelstate.NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		require.NoError(t, c.Learn(ctx, bullish(), 1))
		require.NoError(t, c.Learn(ctx, bearish(), 0))
	}

	pUp, _ := c.Predict(bullish())
	pDown, _ := c.Predict(bearish())
	assert.Greater(t, pUp, 0.6, "bullish pattern should predict high probability")
	assert.Less(t, pDown, 0.4, "bearish pattern should predict low probability")
}

func TestLearn_InvalidLabel(t *testing.T) {
	c := newClassifier(t, modelstate.NewMemoryStore())

	err := c.Learn(context.Background(), bullish(), 2)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestLearn_PersistFailureLeavesStateUntouched(t *testing.T) {
	store := modelstate.NewMemoryStore()
	c := newClassifier(t, store)
	ctx := context.Background()

	require.NoError(t, c.Learn(ctx, bullish(), 1))
	before := c.Metrics()
	pBefore, _ := c.Predict(bullish())

	// Simulated crash: the save fails after the in-memory update was computed
	store.FailNext = true
	err := c.Learn(ctx, bearish(), 0)
	require.ErrorIs(t, err, core.ErrPersistence)

	// Neither the update nor the save is observably applied
	after := c.Metrics()
	assert.Equal(t, before.SampleCount, after.SampleCount)
	assert.Equal(t, before.ModelVersion, after.ModelVersion)
	pAfter, _ := c.Predict(bullish())
	assert.Equal(t, pBefore, pAfter)

	// Retry succeeds
	require.NoError(t, c.Learn(ctx, bearish(), 0))
	assert.Equal(t, before.SampleCount+1, c.Metrics().SampleCount)
}

func TestRestart_RestoresState(t *testing.T) {
	store := modelstate.NewMemoryStore()
	ctx := context.Background()

	c := newClassifier(t, store)
	for i := 0; i < 50; i++ {
		require.NoError(t, c.Learn(ctx, bullish(), 1))
		require.NoError(t, c.Learn(ctx, bearish(), 0))
	}
	wantP, wantVersion := c.Predict(bullish())
	wantMetrics := c.Metrics()

	// New process, same store
	restored := newClassifier(t, store)
	gotP, gotVersion := restored.Predict(bullish())

	assert.Equal(t, wantP, gotP)
	assert.Equal(t, wantVersion, gotVersion)
	assert.Equal(t, wantMetrics.SampleCount, restored.Metrics().SampleCount)
}

func TestReset(t *testing.T) {
	store := modelstate.NewMemoryStore()
	c := newClassifier(t, store)
	ctx := context.Background()

	require.NoError(t, c.Learn(ctx, bullish(), 1))
	require.NoError(t, c.Reset(ctx))

	p, version := c.Predict(bullish())
	assert.Equal(t, NeutralProbability, p)
	assert.Equal(t, int64(0), version)
	assert.Equal(t, int64(0), c.Metrics().SampleCount)
}

func TestConcurrentPredictAndLearn(t *testing.T) {
	c := newClassifier(t, modelstate.NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p, _ := c.Predict(bullish())
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			label := j % 2
			_ = c.Learn(ctx, bullish(), label)
		}
	}()
	wg.Wait()

	assert.Equal(t, int64(100), c.Metrics().SampleCount)
}

func TestRunningLoss_Tracked(t *testing.T) {
	c := newClassifier(t, modelstate.NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, c.Learn(ctx, bullish(), 1))
	}

	m := c.Metrics()
	assert.Greater(t, m.RunningLoss, 0.0)
	// Learning a constant class should drive loss below the coin-flip bound
	assert.Less(t, m.RunningLoss, 0.6931)
}

func TestFlushEvery_BatchesPersistence(t *testing.T) {
	store := modelstate.NewMemoryStore()
	c, err := New(context.Background(), store, Options{LearningRate: 0.1, FlushEvery: 3})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Learn(ctx, bullish(), 1))
	require.NoError(t, c.Learn(ctx, bullish(), 1))
	_, _, loadErr := store.Load(ctx)
	assert.ErrorIs(t, loadErr, core.ErrNotFound, "nothing flushed before the batch fills")

	require.NoError(t, c.Learn(ctx, bullish(), 1))
	_, version, loadErr := store.Load(ctx)
	require.NoError(t, loadErr)
	assert.Equal(t, int64(3), version)
}
