package trainer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/provider"
	"github.com/quantlab/signalcore/internal/storage/archive"
	"github.com/quantlab/signalcore/internal/storage/history"
	"github.com/quantlab/signalcore/internal/storage/registry"
)

type trainerFixture struct {
	history  *history.MemoryStore
	registry *registry.MemoryStore
	prices   *provider.Memory
	archive  archive.Storage
	trainer  *Trainer
}

func newTrainerFixture(t *testing.T, cfg config.TrainerConfig) *trainerFixture {
	t.Helper()

	arch, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	f := &trainerFixture{
		history:  history.NewMemoryStore(),
		registry: registry.NewMemoryStore(),
		prices:   provider.NewMemory(),
		archive:  arch,
	}
	f.trainer = New(f.history, f.registry, f.prices, f.archive, cfg, Options{})
	f.trainer.now = func() time.Time { return time.Date(2026, time.February, 2, 15, 0, 0, 0, time.UTC) }
	return f
}

func testTrainerConfig() config.TrainerConfig {
	return config.TrainerConfig{
		HistoryDays:       365,
		HalfLifeDays:      90,
		ValidationRatio:   0.2,
		Ridge:             1.0,
		BoostRounds:       50,
		BoostLearningRate: 0.1,
		Retention:         "all",
	}
}

// seedHistory seeds the provider with weekday bars covering the training window.
func (f *trainerFixture) seedHistory(symbol string, days int) {
	start := f.trainer.now().Truncate(24 * time.Hour).AddDate(0, 0, -days)
	f.prices.Seed(symbol, syntheticBars(symbol, start, days*5/7)...)
}

func TestTrain_FastMode(t *testing.T) {
	f := newTrainerFixture(t, testTrainerConfig())
	f.seedHistory("AAPL", 365)

	md, err := f.trainer.Train(context.Background(), "aapl", core.ModeFast, "")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", md.Ticker)
	assert.Equal(t, core.ModeFast, md.Mode)
	assert.NotEmpty(t, md.ID)
	assert.NotEmpty(t, md.ConfigHash)
	assert.Greater(t, md.Observations, minTrainRows)
	assert.Greater(t, md.Metrics.R2, 0.5)
	assert.Greater(t, md.Metrics.RMSE, 0.0)
	assert.Contains(t, md.Runtime, "go")

	// Metadata is retrievable as the latest model.
	got, err := f.registry.Get(context.Background(), "AAPL", core.ModeFast)
	require.NoError(t, err)
	assert.Equal(t, md.ID, got.ID)

	// The artifact round-trips from archive storage.
	art, err := LoadArtifact(context.Background(), f.archive, md.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, md.ID, art.ModelID)
	require.NotNil(t, art.Ridge)
	assert.Nil(t, art.Boost)
	assert.Equal(t, featureNames, art.FeatureNames)
}

func TestTrain_RobustMode(t *testing.T) {
	f := newTrainerFixture(t, testTrainerConfig())
	f.seedHistory("AAPL", 365)

	md, err := f.trainer.Train(context.Background(), "AAPL", core.ModeRobust, "")
	require.NoError(t, err)

	art, err := LoadArtifact(context.Background(), f.archive, md.ArtifactPath)
	require.NoError(t, err)
	require.NotNil(t, art.Boost)
	assert.Nil(t, art.Ridge)
	assert.NotEmpty(t, art.Boost.Stumps)
}

func TestTrain_ConfigHashCacheHit(t *testing.T) {
	f := newTrainerFixture(t, testTrainerConfig())
	f.seedHistory("AAPL", 365)

	first, err := f.trainer.Train(context.Background(), "AAPL", core.ModeFast, "")
	require.NoError(t, err)

	second, err := f.trainer.Train(context.Background(), "AAPL", core.ModeFast, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := f.registry.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTrain_ModesHashSeparately(t *testing.T) {
	f := newTrainerFixture(t, testTrainerConfig())
	f.seedHistory("AAPL", 365)

	fast, err := f.trainer.Train(context.Background(), "AAPL", core.ModeFast, "")
	require.NoError(t, err)
	robust, err := f.trainer.Train(context.Background(), "AAPL", core.ModeRobust, "")
	require.NoError(t, err)

	assert.NotEqual(t, fast.ConfigHash, robust.ConfigHash)
	assert.NotEqual(t, fast.ID, robust.ID)
}

func TestTrain_InsufficientDataLeavesRegistryUntouched(t *testing.T) {
	f := newTrainerFixture(t, testTrainerConfig())
	f.seedHistory("AAPL", 30)

	_, err := f.trainer.Train(context.Background(), "AAPL", core.ModeFast, "")
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	all, err := f.registry.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTrain_InvalidInput(t *testing.T) {
	f := newTrainerFixture(t, testTrainerConfig())

	_, err := f.trainer.Train(context.Background(), "", core.ModeFast, "")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.trainer.Train(context.Background(), "AAPL", core.TrainingMode("fancy"), "")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.trainer.Train(context.Background(), "AAPL", core.ModeFast, "forever")
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestTrain_RetentionPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("none deletes the window", func(t *testing.T) {
		f := newTrainerFixture(t, testTrainerConfig())
		f.seedHistory("AAPL", 365)

		_, err := f.trainer.Train(ctx, "AAPL", core.ModeFast, "none")
		require.NoError(t, err)

		n, err := f.history.Count(ctx, "AAPL")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("window keeps recent rows", func(t *testing.T) {
		cfg := testTrainerConfig()
		cfg.RetentionDays = 30
		f := newTrainerFixture(t, cfg)
		f.seedHistory("AAPL", 365)

		_, err := f.trainer.Train(ctx, "AAPL", core.ModeFast, "window")
		require.NoError(t, err)

		n, err := f.history.Count(ctx, "AAPL")
		require.NoError(t, err)
		assert.Greater(t, n, 0)
		assert.Less(t, n, 40) // roughly a month of weekdays
	})

	t.Run("all keeps everything", func(t *testing.T) {
		f := newTrainerFixture(t, testTrainerConfig())
		f.seedHistory("AAPL", 365)

		_, err := f.trainer.Train(ctx, "AAPL", core.ModeFast, "all")
		require.NoError(t, err)

		before, err := f.history.Count(ctx, "AAPL")
		require.NoError(t, err)
		assert.Greater(t, before, 200)
	})
}

func TestTrain_SameTickerIsBusy(t *testing.T) {
	f := newTrainerFixture(t, testTrainerConfig())
	f.seedHistory("AAPL", 365)

	blocking := &blockingPrices{
		inner:   f.prices,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	f.trainer.prices = blocking

	done := make(chan error, 1)
	go func() {
		_, err := f.trainer.Train(context.Background(), "AAPL", core.ModeFast, "")
		done <- err
	}()

	<-blocking.entered
	_, err := f.trainer.Train(context.Background(), "AAPL", core.ModeFast, "")
	assert.ErrorIs(t, err, core.ErrJobBusy)

	close(blocking.release)
	require.NoError(t, <-done)
}

type blockingPrices struct {
	inner   provider.PriceProvider
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPrices) GetClose(ctx context.Context, symbol string, day time.Time) (float64, error) {
	return b.inner.GetClose(ctx, symbol, day)
}

func (b *blockingPrices) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.inner.GetOHLCV(ctx, symbol, start, end)
}
