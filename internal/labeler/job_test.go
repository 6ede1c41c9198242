package labeler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/online"
	"github.com/quantlab/signalcore/internal/provider"
	"github.com/quantlab/signalcore/internal/storage/label"
	"github.com/quantlab/signalcore/internal/storage/modelstate"
	"github.com/quantlab/signalcore/internal/storage/snapshot"
)

type fixture struct {
	snaps      *snapshot.MemoryStore
	labels     *label.MemoryStore
	states     *modelstate.MemoryStore
	classifier *online.Classifier
	prices     *provider.Memory
	job        *Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	labels := label.NewMemoryStore()
	states := modelstate.NewMemoryStore()
	classifier, err := online.New(context.Background(), states, online.Options{})
	require.NoError(t, err)

	f := &fixture{
		snaps:      snapshot.NewMemoryStore(labels),
		labels:     labels,
		states:     states,
		classifier: classifier,
		prices:     provider.NewMemory(),
	}
	f.job = New(f.snaps, f.labels, f.classifier, f.prices, config.LabelingConfig{
		Threshold:       0.01,
		MinWaitDays:     7,
		HorizonSessions: 3,
		MaxArticles:     500,
	}, Options{})
	// Fixed clock so the min-wait window is deterministic.
	f.job.now = func() time.Time { return date(2026, time.January, 20, 12, 0) }
	return f
}

func testFeatures() core.FeatureRecord {
	return core.FeatureRecord{
		Numeric: map[string]float64{
			"confidence": 0.8,
			"trust":      0.7,
			"novelty":    0.5,
			"momentum":   0.2,
			"volatility": 0.3,
		},
		Categorical: map[string]string{
			"catalyst": "EARNINGS",
			"stance":   "BULLISH",
			"sector":   "TECH",
		},
	}
}

func (f *fixture) addSnapshot(t *testing.T, id, symbol string, published time.Time) {
	t.Helper()
	err := f.snaps.Store(context.Background(), core.FeatureSnapshot{
		ArticleID:   id,
		Symbol:      symbol,
		PublishedAt: published,
		Features:    testFeatures(),
	})
	require.NoError(t, err)
}

// seedWeek seeds Monday Jan 12 through Friday Jan 16 with the given opens.
func (f *fixture) seedWeek(symbol string, opens ...float64) {
	for i, open := range opens {
		d := AddSessions(date(2026, time.January, 12, 0, 0), i)
		f.prices.Seed(symbol, core.DailyBar{
			Symbol: symbol,
			Date:   d,
			Open:   open,
			High:   open + 1,
			Low:    open - 1,
			Close:  open + 0.5,
			Volume: 1000,
		})
	}
}

func TestRun_FridayEveningArticleEntersMonday(t *testing.T) {
	f := newFixture(t)
	// Published Friday Jan 9 after hours; entry is Monday Jan 12's open.
	f.addSnapshot(t, "a1", "AAPL", date(2026, time.January, 9, 18, 0))
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	res, err := f.job.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1, Labeled: 1}, res)

	lab, err := f.labels.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, lab.Outcome)
	assert.InDelta(t, 0.03, lab.RealizedReturn, 1e-9) // exit open 103 / entry open 100
	assert.Equal(t, 0.01, lab.Threshold)
	assert.True(t, lab.EntryDate.Equal(date(2026, time.January, 12, 0, 0)))

	assert.Equal(t, int64(1), f.classifier.Metrics().SampleCount)
}

func TestRun_AheadOfUTCArticleEntersNextSession(t *testing.T) {
	f := newFixture(t)
	// Published Thursday Jan 8 20:00 in UTC+10; the entry session is Friday
	// Jan 9's open in that zone, so the first bar used must be Friday's even
	// though the absolute instant is still Thursday in UTC.
	aest := time.FixedZone("UTC+10", 10*3600)
	f.addSnapshot(t, "a1", "AAPL", time.Date(2026, time.January, 8, 20, 0, 0, 0, aest))

	opens := map[time.Time]float64{
		date(2026, time.January, 8, 0, 0):  100, // publication day, must not be entered
		date(2026, time.January, 9, 0, 0):  200,
		date(2026, time.January, 12, 0, 0): 202,
		date(2026, time.January, 13, 0, 0): 204,
		date(2026, time.January, 14, 0, 0): 206,
	}
	for d, open := range opens {
		f.prices.Seed("AAPL", core.DailyBar{
			Symbol: "AAPL", Date: d,
			Open: open, High: open + 1, Low: open - 1, Close: open + 0.5,
			Volume: 1000,
		})
	}

	res, err := f.job.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1, Labeled: 1}, res)

	lab, err := f.labels.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, lab.EntryDate.Equal(date(2026, time.January, 9, 0, 0)),
		"entered %v, want the session after publication", lab.EntryDate)
	assert.InDelta(t, 0.03, lab.RealizedReturn, 1e-9) // exit open 206 / entry open 200
	assert.Equal(t, 1, lab.Outcome)
}

func TestRun_FlatMoveLabelsNegative(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "a1", "AAPL", date(2026, time.January, 9, 18, 0))
	f.seedWeek("AAPL", 100, 100.2, 100.1, 100.5, 100.3)

	res, err := f.job.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Labeled)

	lab, err := f.labels.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, lab.Outcome) // +0.5% is under the 1% threshold
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "a1", "AAPL", date(2026, time.January, 9, 18, 0))
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	_, err := f.job.Run(context.Background(), 0)
	require.NoError(t, err)

	res, err := f.job.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, int64(1), f.classifier.Metrics().SampleCount)
}

func TestRun_RespectsMinWait(t *testing.T) {
	f := newFixture(t)
	// Published 2 days before the fixed clock; still inside the wait window.
	f.addSnapshot(t, "a1", "AAPL", date(2026, time.January, 18, 10, 0))
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	res, err := f.job.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRun_MissingDataCountsErrorAndContinues(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "a1", "NOPE", date(2026, time.January, 9, 18, 0))
	f.addSnapshot(t, "a2", "AAPL", date(2026, time.January, 9, 18, 0))
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	res, err := f.job.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 2, Labeled: 1, Errors: 1}, res)

	_, err = f.labels.Get(context.Background(), "a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRun_MaxArticlesCapsRun(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a1", "a2", "a3"} {
		f.addSnapshot(t, id, "AAPL", date(2026, time.January, 9, 18, 0))
	}
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	res, err := f.job.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Labeled)
}

func TestRun_ConcurrentRunIsBusy(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "a1", "AAPL", date(2026, time.January, 9, 18, 0))
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	blocking := &blockingProvider{
		inner:   f.prices,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	f.job.prices = blocking

	done := make(chan error, 1)
	go func() {
		_, err := f.job.Run(context.Background(), 0)
		done <- err
	}()

	<-blocking.entered
	_, err := f.job.Run(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrJobBusy)

	close(blocking.release)
	require.NoError(t, <-done)

	// The lock is released once the first run finishes.
	_, err = f.job.Run(context.Background(), 0)
	require.NoError(t, err)
}

func TestRun_PersistFailureAbortsRun(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "a1", "AAPL", date(2026, time.January, 9, 18, 0))
	f.addSnapshot(t, "a2", "AAPL", date(2026, time.January, 9, 18, 0))
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	f.states.FailNext = true

	res, err := f.job.Run(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Labeled)

	n, err := f.labels.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRun_CancellationBetweenArticles(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "a1", "AAPL", date(2026, time.January, 9, 18, 0))
	f.addSnapshot(t, "a2", "AAPL", date(2026, time.January, 9, 18, 0))
	f.seedWeek("AAPL", 100, 101, 102, 103, 104)

	ctx, cancel := context.WithCancel(context.Background())
	f.job.prices = &cancelAfterFirst{inner: f.prices, cancel: cancel}

	res, err := f.job.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	// The first article committed; the second was never started.
	assert.Equal(t, Result{Processed: 1, Labeled: 1}, res)

	exists, err := f.labels.Exists(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, exists)
}

// blockingProvider parks GetOHLCV until released.
type blockingProvider struct {
	inner   provider.PriceProvider
	entered chan struct{}
	release chan struct{}
}

func (b *blockingProvider) GetClose(ctx context.Context, symbol string, day time.Time) (float64, error) {
	return b.inner.GetClose(ctx, symbol, day)
}

func (b *blockingProvider) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.inner.GetOHLCV(ctx, symbol, start, end)
}

// cancelAfterFirst cancels the run's context after the first price fetch
// returns, simulating shutdown mid-run.
type cancelAfterFirst struct {
	inner  provider.PriceProvider
	cancel context.CancelFunc
	calls  int
}

func (c *cancelAfterFirst) GetClose(ctx context.Context, symbol string, day time.Time) (float64, error) {
	return c.inner.GetClose(ctx, symbol, day)
}

func (c *cancelAfterFirst) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error) {
	bars, err := c.inner.GetOHLCV(ctx, symbol, start, end)
	c.calls++
	if c.calls == 1 {
		c.cancel()
	}
	return bars, err
}
