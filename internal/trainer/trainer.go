package trainer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/logger"
	"github.com/quantlab/signalcore/internal/metrics"
	"github.com/quantlab/signalcore/internal/provider"
	"github.com/quantlab/signalcore/internal/storage/archive"
	"github.com/quantlab/signalcore/internal/storage/history"
	"github.com/quantlab/signalcore/internal/storage/registry"
)

// Trainer runs batch training for one ticker at a time per ticker. Training
// is idempotent per configuration: an identical config hash returns the
// already-registered model without refitting.
type Trainer struct {
	history  history.Store
	registry registry.Store
	prices   provider.PriceProvider
	archive  archive.Storage
	cfg      config.TrainerConfig
	log      *zap.Logger
	metrics  *metrics.Registry

	mu   sync.Mutex
	busy map[string]bool

	// now is swappable for tests.
	now func() time.Time
}

// Options holds optional Trainer dependencies.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Registry
}

// New creates a trainer over the given stores, price provider and archive.
func New(hist history.Store, reg registry.Store, prices provider.PriceProvider, arch archive.Storage, cfg config.TrainerConfig, opts Options) *Trainer {
	return &Trainer{
		history:  hist,
		registry: reg,
		prices:   prices,
		archive:  arch,
		cfg:      cfg,
		log:      logger.Component(opts.Logger, "trainer"),
		metrics:  opts.Metrics,
		busy:     make(map[string]bool),
		now:      time.Now,
	}
}

// Train fits, evaluates and registers a model for (ticker, mode), then
// applies the retention policy to the raw history window. retention may be
// empty to use the configured default. The ordering is fixed: artifact
// persisted, then registered, then history pruned — a failure at any point
// leaves everything before it intact and everything after it untouched.
func (t *Trainer) Train(ctx context.Context, ticker string, mode core.TrainingMode, retention string) (core.ModelMetadata, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return core.ModelMetadata{}, core.WrapError(core.ErrValidation, fmt.Errorf("ticker is required"))
	}
	if !mode.Valid() {
		return core.ModelMetadata{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("unknown training mode: %q", mode))
	}
	if retention == "" {
		retention = t.cfg.Retention
	}
	policy, err := history.ParsePolicy(retention, t.cfg.RetentionDays)
	if err != nil {
		return core.ModelMetadata{}, err
	}

	t.mu.Lock()
	if t.busy[ticker] {
		t.mu.Unlock()
		return core.ModelMetadata{}, core.WrapError(core.ErrJobBusy,
			fmt.Errorf("training already running for %s", ticker))
	}
	t.busy[ticker] = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.busy, ticker)
		t.mu.Unlock()
	}()

	started := t.now()
	now := started.Truncate(24 * time.Hour)
	rng := core.DateRange{From: now.AddDate(0, 0, -t.cfg.HistoryDays), To: now}
	hash := registry.ComputeConfigHash(ticker, mode, rng, IndicatorConfig)

	existing, err := t.registry.GetByHash(ctx, ticker, mode, hash)
	if err == nil {
		t.log.Info("configuration already trained, skipping",
			zap.String("ticker", ticker),
			zap.String("mode", string(mode)),
			zap.String("model_id", existing.ID))
		t.metrics.TrainingFinished(string(mode), "cached", t.now().Sub(started).Seconds())
		return *existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.ModelMetadata{}, err
	}

	md, err := t.train(ctx, ticker, mode, rng, hash, policy)
	status := "success"
	if err != nil {
		status = "failed"
	}
	t.metrics.TrainingFinished(string(mode), status, t.now().Sub(started).Seconds())
	return md, err
}

func (t *Trainer) train(ctx context.Context, ticker string, mode core.TrainingMode, rng core.DateRange, hash string, policy history.Policy) (core.ModelMetadata, error) {
	bars, err := t.prices.GetOHLCV(ctx, ticker, rng.From, rng.To)
	if err != nil {
		return core.ModelMetadata{}, err
	}
	if err := t.history.Upsert(ctx, bars); err != nil {
		return core.ModelMetadata{}, err
	}
	bars, err = t.history.Load(ctx, ticker, rng.From, rng.To)
	if err != nil {
		return core.ModelMetadata{}, err
	}

	matrix, err := BuildMatrix(bars)
	if err != nil {
		return core.ModelMetadata{}, err
	}

	// Rows with a known next close; the final row is the serving input.
	n := len(matrix.Y)
	xt := matrix.X[:n]
	dates := matrix.Dates[:n]

	var weights []float64
	if mode == core.ModeRobust {
		weights = DecayWeights(dates, t.cfg.HalfLifeDays)
	} else {
		weights = UniformWeights(n)
	}

	splitAt := SplitIndex(n, t.cfg.ValidationRatio)
	trainX, trainY, trainW := xt[:splitAt], matrix.Y[:splitAt], weights[:splitAt]
	validX, validY := xt[splitAt:], matrix.Y[splitAt:]

	artifact := &Artifact{
		SchemaVersion:   ArtifactSchemaVersion,
		ModelID:         uuid.NewString(),
		Ticker:          ticker,
		Mode:            mode,
		FeatureNames:    matrix.Names,
		TrainedAt:       t.now(),
		From:            rng.From,
		To:              rng.To,
		IndicatorConfig: IndicatorConfig,
	}
	switch mode {
	case core.ModeFast:
		artifact.Ridge, err = FitRidge(trainX, trainY, trainW, t.cfg.Ridge)
	case core.ModeRobust:
		artifact.Boost, err = FitBoost(trainX, trainY, trainW, t.cfg.BoostRounds, t.cfg.BoostLearningRate)
	}
	if err != nil {
		return core.ModelMetadata{}, err
	}

	predicted := make([]float64, len(validY))
	for i, row := range validX {
		predicted[i], err = artifact.Predict(row)
		if err != nil {
			return core.ModelMetadata{}, err
		}
	}
	eval := Evaluate(validY, predicted)

	path := ArtifactPath(ticker, mode, artifact.ModelID)
	if err := archive.WriteJSON(ctx, t.archive, path, artifact); err != nil {
		return core.ModelMetadata{}, core.WrapError(core.ErrPersistence, err)
	}

	md := core.ModelMetadata{
		ID:              artifact.ModelID,
		Ticker:          ticker,
		Mode:            mode,
		ConfigHash:      hash,
		Metrics:         eval,
		Observations:    n,
		TrainedAt:       artifact.TrainedAt,
		ArtifactPath:    path,
		Runtime:         runtimeFingerprint(),
		Range:           rng,
		IndicatorConfig: IndicatorConfig,
		ArchivePath:     path,
	}
	if err := t.registry.Add(ctx, md); err != nil {
		return core.ModelMetadata{}, err
	}

	pruned, err := policy.Apply(ctx, t.history, ticker, t.now())
	if err != nil {
		// The model is trained and registered; a failed prune only delays
		// space reclamation.
		t.log.Warn("retention prune failed",
			zap.String("ticker", ticker),
			zap.Error(err))
	} else {
		t.metrics.RetentionPruned(pruned)
	}

	t.log.Info("model trained",
		zap.String("ticker", ticker),
		zap.String("mode", string(mode)),
		zap.String("model_id", md.ID),
		zap.Int("observations", md.Observations),
		zap.Float64("r2", eval.R2),
		zap.Float64("rmse", eval.RMSE),
		zap.Int64("history_rows_pruned", pruned))
	return md, nil
}

func runtimeFingerprint() string {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
