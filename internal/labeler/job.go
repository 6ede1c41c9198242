// Package labeler turns aged feature snapshots into realized labels. The job
// aligns each article to its entry session, fetches the realized price move
// and feeds the outcome to the online classifier before persisting the label.
package labeler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/logger"
	"github.com/quantlab/signalcore/internal/metrics"
	"github.com/quantlab/signalcore/internal/online"
	"github.com/quantlab/signalcore/internal/provider"
	"github.com/quantlab/signalcore/internal/storage/label"
	"github.com/quantlab/signalcore/internal/storage/snapshot"
)

const pageSize = 100

// Result summarizes one labeling run.
type Result struct {
	Processed int
	Labeled   int
	Skipped   int
	Errors    int
}

// Job is the auto-labeling batch job. At most one run is active at a time.
type Job struct {
	snapshots    snapshot.Store
	labels       label.Store
	classifier   *online.Classifier
	prices       provider.PriceProvider
	cfg          config.LabelingConfig
	fetchTimeout time.Duration
	log          *zap.Logger
	metrics      *metrics.Registry

	mu      sync.Mutex
	running bool

	// now is swappable for tests.
	now func() time.Time
}

// Options holds optional Job dependencies.
type Options struct {
	FetchTimeout time.Duration
	Logger       *zap.Logger
	Metrics      *metrics.Registry
}

// New creates a labeling job over the given stores and price provider.
func New(snapshots snapshot.Store, labels label.Store, classifier *online.Classifier, prices provider.PriceProvider, cfg config.LabelingConfig, opts Options) *Job {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	return &Job{
		snapshots:    snapshots,
		labels:       labels,
		classifier:   classifier,
		prices:       prices,
		cfg:          cfg,
		fetchTimeout: opts.FetchTimeout,
		log:          logger.Component(opts.Logger, "labeler"),
		metrics:      opts.Metrics,
		now:          time.Now,
	}
}

// Run labels up to maxArticles aged snapshots. A second concurrent call
// returns JOB_BUSY. maxArticles <= 0 falls back to the configured cap.
//
// Each article commits independently: cancellation between articles or a
// per-article data failure never leaves partial state behind. A persistence
// failure is cross-cutting and aborts the run with the partial Result.
func (j *Job) Run(ctx context.Context, maxArticles int) (Result, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return Result{}, core.ErrJobBusy
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	if maxArticles <= 0 {
		maxArticles = j.cfg.MaxArticles
	}

	started := j.now()
	olderThan := started.AddDate(0, 0, -j.cfg.MinWaitDays)

	var res Result
	afterID := ""
	for res.Processed < maxArticles {
		limit := pageSize
		if remaining := maxArticles - res.Processed; remaining < limit {
			limit = remaining
		}
		snaps, err := j.snapshots.ListUnlabeled(ctx, olderThan, limit, afterID)
		if err != nil {
			return res, err
		}
		if len(snaps) == 0 {
			break
		}
		for _, snap := range snaps {
			if err := ctx.Err(); err != nil {
				j.finish(started, res)
				return res, err
			}
			afterID = snap.ArticleID
			res.Processed++

			if err := j.labelOne(ctx, snap, &res); err != nil {
				j.finish(started, res)
				return res, err
			}
		}
		if len(snaps) < limit {
			break
		}
	}

	j.finish(started, res)
	j.log.Info("labeling run finished",
		zap.Int("processed", res.Processed),
		zap.Int("labeled", res.Labeled),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", res.Errors))
	return res, nil
}

// labelOne commits one article. Per-article data problems are counted and
// return nil; only persistence failures propagate.
func (j *Job) labelOne(ctx context.Context, snap core.FeatureSnapshot, res *Result) error {
	exists, err := j.labels.Exists(ctx, snap.ArticleID)
	if err != nil {
		return err
	}
	if exists {
		res.Skipped++
		return nil
	}

	entryOpen := EntrySession(snap.PublishedAt)
	entryDate := SessionDate(entryOpen)
	// Fetch a padded window so holidays in the middle of the horizon still
	// leave enough bars to find the exit session.
	end := entryDate.AddDate(0, 0, j.cfg.HorizonSessions*2+7)

	fetchCtx, cancel := context.WithTimeout(ctx, j.fetchTimeout)
	bars, err := j.prices.GetOHLCV(fetchCtx, snap.Symbol, entryDate, end)
	cancel()
	if err != nil {
		if errors.Is(err, core.ErrPersistence) {
			return err
		}
		j.log.Warn("price fetch failed",
			zap.String("article_id", snap.ArticleID),
			zap.String("symbol", snap.Symbol),
			zap.Error(err))
		res.Errors++
		return nil
	}
	if len(bars) <= j.cfg.HorizonSessions {
		j.log.Warn("not enough bars to realize outcome",
			zap.String("article_id", snap.ArticleID),
			zap.String("symbol", snap.Symbol),
			zap.Int("bars", len(bars)))
		res.Errors++
		return nil
	}

	entry := bars[0]
	exit := bars[j.cfg.HorizonSessions]
	if entry.Open <= 0 {
		res.Errors++
		return nil
	}
	realized := exit.Open/entry.Open - 1

	outcome := 0
	if realized > j.cfg.Threshold {
		outcome = 1
	}

	if err := j.classifier.Learn(ctx, snap.Features, outcome); err != nil {
		if errors.Is(err, core.ErrPersistence) {
			return err
		}
		res.Errors++
		return nil
	}

	lab := core.Label{
		ArticleID:      snap.ArticleID,
		Outcome:        outcome,
		RealizedReturn: realized,
		Threshold:      j.cfg.Threshold,
		EntryDate:      entry.Date,
		CreatedAt:      j.now(),
	}
	if err := j.labels.Create(ctx, lab); err != nil {
		if errors.Is(err, core.ErrIntegrity) {
			res.Skipped++
			return nil
		}
		return err
	}

	res.Labeled++
	j.metrics.LabelCreated(outcome)
	j.log.Debug("article labeled",
		zap.String("article_id", snap.ArticleID),
		zap.Int("outcome", outcome),
		zap.Float64("realized_return", realized),
		zap.Time("entry_date", entry.Date))
	return nil
}

func (j *Job) finish(started time.Time, res Result) {
	j.metrics.LabelRunFinished(j.now().Sub(started).Seconds(), res.Errors)
}
