// Package service is the exposed surface of the learning core: online
// prediction and feedback, batch training and prediction, labeling runs and
// registry listing, wired over the storage and model packages.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantlab/signalcore/internal/cache"
	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/feature"
	"github.com/quantlab/signalcore/internal/labeler"
	"github.com/quantlab/signalcore/internal/logger"
	"github.com/quantlab/signalcore/internal/metrics"
	"github.com/quantlab/signalcore/internal/online"
	"github.com/quantlab/signalcore/internal/provider"
	"github.com/quantlab/signalcore/internal/storage/archive"
	"github.com/quantlab/signalcore/internal/storage/registry"
	"github.com/quantlab/signalcore/internal/storage/snapshot"
	"github.com/quantlab/signalcore/internal/trainer"
)

// minConfidenceBand is the narrowest band a fully warmed-up classifier
// reports. A fresh model starts at the full 0.5 width and narrows with the
// square root of its sample count, staged trust rather than a binary flag.
const minConfidenceBand = 0.02

// Deps are the collaborators a Service is built from.
type Deps struct {
	Classifier *online.Classifier
	Snapshots  snapshot.Store
	Labeler    *labeler.Job
	Trainer    *trainer.Trainer
	Registry   registry.Store
	Prices     provider.PriceProvider
	Archive    archive.Storage
	Cache      cache.Cache

	CacheTTL    time.Duration
	HistoryDays int

	Logger  *zap.Logger
	Metrics *metrics.Registry
}

// Service is the facade over the signal-learning core.
type Service struct {
	deps Deps
	log  *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates the service facade.
func New(deps Deps) *Service {
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}
	if deps.HistoryDays <= 0 {
		deps.HistoryDays = 730
	}
	return &Service{
		deps: deps,
		log:  logger.Component(deps.Logger, "service"),
		now:  time.Now,
	}
}

// IngestSnapshot validates a raw feature payload and freezes it for the
// article. The stored record never changes afterwards.
func (s *Service) IngestSnapshot(ctx context.Context, articleID, symbol string, publishedAt time.Time, raw map[string]any) error {
	if articleID == "" || symbol == "" {
		return core.WrapError(core.ErrValidation, fmt.Errorf("article id and symbol are required"))
	}
	rec, err := feature.Encode(raw)
	if err != nil {
		return err
	}
	return s.deps.Snapshots.Store(ctx, core.FeatureSnapshot{
		ArticleID:   articleID,
		Symbol:      strings.ToUpper(symbol),
		PublishedAt: publishedAt,
		Features:    rec,
	})
}

// PredictOnline scores a feature record with the online classifier. An
// untrained model answers neutral with the widest band.
func (s *Service) PredictOnline(rec core.FeatureRecord) core.OnlinePrediction {
	prob, version := s.deps.Classifier.Predict(rec)
	samples := s.deps.Classifier.Metrics().SampleCount
	s.deps.Metrics.OnlinePredicted()
	return core.OnlinePrediction{
		Probability:    prob,
		ModelVersion:   version,
		ConfidenceBand: confidenceBand(samples),
	}
}

// SubmitFeedback applies an externally observed outcome to the classifier.
func (s *Service) SubmitFeedback(ctx context.Context, rec core.FeatureRecord, label int) error {
	if err := s.deps.Classifier.Learn(ctx, rec, label); err != nil {
		return err
	}
	m := s.deps.Classifier.Metrics()
	s.deps.Metrics.LearnApplied(m.SampleCount, m.RunningLoss)
	return nil
}

// RunLabeling executes one auto-labeling pass.
func (s *Service) RunLabeling(ctx context.Context, maxArticles int) (labeler.Result, error) {
	return s.deps.Labeler.Run(ctx, maxArticles)
}

// Train runs batch training for (ticker, mode) and invalidates any cached
// prediction the new model supersedes.
func (s *Service) Train(ctx context.Context, ticker string, mode core.TrainingMode, retention string) (core.ModelMetadata, error) {
	md, err := s.deps.Trainer.Train(ctx, ticker, mode, retention)
	if err != nil {
		return core.ModelMetadata{}, err
	}
	if err := s.deps.Cache.Invalidate(ctx, cache.Key(md.Ticker, mode)); err != nil {
		s.log.Warn("cache invalidation failed", zap.String("ticker", md.Ticker), zap.Error(err))
	}
	return md, nil
}

// PredictBatch predicts the next close for (ticker, mode) using the latest
// registered model. Results are cached for the configured TTL.
func (s *Service) PredictBatch(ctx context.Context, ticker string, mode core.TrainingMode) (core.BatchPrediction, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return core.BatchPrediction{}, core.WrapError(core.ErrValidation, fmt.Errorf("ticker is required"))
	}
	if !mode.Valid() {
		return core.BatchPrediction{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("unknown training mode: %q", mode))
	}

	key := cache.Key(ticker, mode)
	if cached, err := s.deps.Cache.Get(ctx, key); err == nil {
		s.deps.Metrics.BatchPredicted()
		return *cached, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	md, err := s.deps.Registry.Get(ctx, ticker, mode)
	if err != nil {
		return core.BatchPrediction{}, err
	}
	artifact, err := trainer.LoadArtifact(ctx, s.deps.Archive, md.ArtifactPath)
	if err != nil {
		return core.BatchPrediction{}, err
	}

	now := s.now().Truncate(24 * time.Hour)
	bars, err := s.deps.Prices.GetOHLCV(ctx, ticker, now.AddDate(0, 0, -s.deps.HistoryDays), now)
	if err != nil {
		return core.BatchPrediction{}, err
	}
	matrix, err := trainer.BuildMatrix(bars)
	if err != nil {
		return core.BatchPrediction{}, err
	}

	latest := matrix.Latest()
	predicted, err := artifact.Predict(latest)
	if err != nil {
		return core.BatchPrediction{}, err
	}
	current := latest[0] // close is the first feature column

	pred := core.BatchPrediction{
		Ticker:             ticker,
		Mode:               mode,
		PredictedNextClose: predicted,
		CurrentClose:       current,
		PredictedChangePct: (predicted/current - 1) * 100,
		FeatureSnapshot:    matrix.Snapshot(),
		ModelID:            md.ID,
	}
	if err := s.deps.Cache.Set(ctx, key, pred, s.deps.CacheTTL); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	s.deps.Metrics.BatchPredicted()
	return pred, nil
}

// ListModels returns every registered model, newest first.
func (s *Service) ListModels(ctx context.Context) ([]core.ModelMetadata, error) {
	return s.deps.Registry.List(ctx)
}

// OnlineMetrics exposes the classifier's observable state.
func (s *Service) OnlineMetrics() online.Metrics {
	return s.deps.Classifier.Metrics()
}

// ResetOnline clears the online model and its persisted state.
func (s *Service) ResetOnline(ctx context.Context) error {
	return s.deps.Classifier.Reset(ctx)
}

// confidenceBand widens the online prediction interval while the model is
// still warming up; it narrows with the square root of the sample count.
func confidenceBand(samples int64) float64 {
	if samples <= 0 {
		return 0.5
	}
	band := 0.5 / math.Sqrt(float64(samples))
	if band < minConfidenceBand {
		band = minConfidenceBand
	}
	return band
}
