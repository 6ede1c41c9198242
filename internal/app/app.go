// Package app wires the learning core together from configuration: storage
// backends, price provider, online classifier, labeling job, batch trainer
// and the service facade on top of them.
package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/quantlab/signalcore/internal/cache"
	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/labeler"
	"github.com/quantlab/signalcore/internal/metrics"
	"github.com/quantlab/signalcore/internal/online"
	"github.com/quantlab/signalcore/internal/provider"
	"github.com/quantlab/signalcore/internal/service"
	"github.com/quantlab/signalcore/internal/storage/archive"
	"github.com/quantlab/signalcore/internal/storage/history"
	"github.com/quantlab/signalcore/internal/storage/label"
	"github.com/quantlab/signalcore/internal/storage/modelstate"
	"github.com/quantlab/signalcore/internal/storage/postgres"
	"github.com/quantlab/signalcore/internal/storage/registry"
	"github.com/quantlab/signalcore/internal/storage/snapshot"
	"github.com/quantlab/signalcore/internal/trainer"
)

// App owns the wired component graph and its shared resources.
type App struct {
	Service *service.Service
	Metrics *metrics.Registry

	cfg *config.Config
	log *zap.Logger
	db  *sql.DB
}

// New builds the full component graph. With an empty storage DSN everything
// runs on in-memory stores, which is the development setup; a DSN switches
// all five stores to Postgres.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	reg := metrics.NewRegistry()

	var (
		db          *sql.DB
		snapshots   snapshot.Store
		labels      label.Store
		states      modelstate.Store
		modelReg    registry.Store
		priceWindow history.Store
	)
	if cfg.Storage.DSN != "" {
		var err error
		db, err = postgres.Open(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		snapshots = snapshot.NewPostgresStore(db)
		labels = label.NewPostgresStore(db)
		states = modelstate.NewPostgresStore(db)
		modelReg = registry.NewPostgresStore(db)
		priceWindow = history.NewPostgresStore(db)
		log.Info("using postgres storage")
	} else {
		labelMem := label.NewMemoryStore()
		labels = labelMem
		snapshots = snapshot.NewMemoryStore(labelMem)
		states = modelstate.NewMemoryStore()
		modelReg = registry.NewMemoryStore()
		priceWindow = history.NewMemoryStore()
		log.Warn("no storage dsn configured, state will not survive restarts")
	}

	arch, err := archive.FromConfig(cfg.Storage.Archive)
	if err != nil {
		return nil, err
	}
	predCache, err := cache.FromConfig(cfg.Cache)
	if err != nil {
		return nil, err
	}

	prices := provider.NewYahoo(cfg.Provider.Timeout, cfg.Provider.MaxRetries)

	classifier, err := online.New(ctx, states, online.Options{
		LearningRate: cfg.Online.LearningRate,
		FlushEvery:   cfg.Online.FlushEvery,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	job := labeler.New(snapshots, labels, classifier, prices, cfg.Labeling, labeler.Options{
		FetchTimeout: cfg.Provider.Timeout,
		Logger:       log,
		Metrics:      reg,
	})

	batch := trainer.New(priceWindow, modelReg, prices, arch, cfg.Trainer, trainer.Options{
		Logger:  log,
		Metrics: reg,
	})

	svc := service.New(service.Deps{
		Classifier:  classifier,
		Snapshots:   snapshots,
		Labeler:     job,
		Trainer:     batch,
		Registry:    modelReg,
		Prices:      prices,
		Archive:     arch,
		Cache:       predCache,
		CacheTTL:    cfg.Cache.TTL,
		HistoryDays: cfg.Trainer.HistoryDays,
		Logger:      log,
		Metrics:     reg,
	})

	return &App{
		Service: svc,
		Metrics: reg,
		cfg:     cfg,
		log:     log,
		db:      db,
	}, nil
}

// Close releases shared resources.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
