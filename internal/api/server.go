// Package api exposes the service facade over HTTP for operational use:
// snapshot ingestion, online and batch prediction, feedback, labeling runs,
// training and the Prometheus scrape endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quantlab/signalcore/internal/core"
	"github.com/quantlab/signalcore/internal/feature"
	"github.com/quantlab/signalcore/internal/metrics"
	"github.com/quantlab/signalcore/internal/service"
)

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	MetricsPath string
}

// Server is the HTTP server over the learning core.
type Server struct {
	httpServer *http.Server
	svc        *service.Service
	logger     *zap.Logger
	mux        *http.ServeMux
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg Config, svc *service.Service, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second, // training requests are slow
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
		mux:    mux,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/snapshots", s.handleIngestSnapshot)
	mux.HandleFunc("POST /v1/predict/online", s.handlePredictOnline)
	mux.HandleFunc("POST /v1/feedback", s.handleFeedback)
	mux.HandleFunc("GET /v1/predict/batch", s.handlePredictBatch)
	mux.HandleFunc("GET /v1/models", s.handleListModels)
	mux.HandleFunc("POST /v1/train", s.handleTrain)
	mux.HandleFunc("POST /v1/labeling/run", s.handleLabelingRun)

	if reg != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return s
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type snapshotRequest struct {
	ArticleID   string         `json:"article_id"`
	Symbol      string         `json:"symbol"`
	PublishedAt time.Time      `json:"published_at"`
	Features    map[string]any `json:"features"`
}

func (s *Server) handleIngestSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, core.WrapError(core.ErrValidation, err))
		return
	}
	if err := s.svc.IngestSnapshot(r.Context(), req.ArticleID, req.Symbol, req.PublishedAt, req.Features); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"article_id": req.ArticleID})
}

type predictOnlineRequest struct {
	Features map[string]any `json:"features"`
}

func (s *Server) handlePredictOnline(w http.ResponseWriter, r *http.Request) {
	var req predictOnlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, core.WrapError(core.ErrValidation, err))
		return
	}
	rec, err := feature.Encode(req.Features)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pred := s.svc.PredictOnline(rec)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"probability":     pred.Probability,
		"model_version":   pred.ModelVersion,
		"confidence_band": pred.ConfidenceBand,
	})
}

type feedbackRequest struct {
	Features map[string]any `json:"features"`
	Label    int            `json:"label"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, core.WrapError(core.ErrValidation, err))
		return
	}
	rec, err := feature.Encode(req.Features)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.SubmitFeedback(r.Context(), rec, req.Label); err != nil {
		s.writeError(w, err)
		return
	}
	m := s.svc.OnlineMetrics()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sample_count":  m.SampleCount,
		"model_version": m.ModelVersion,
	})
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	mode := core.TrainingMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = core.ModeFast
	}
	pred, err := s.svc.PredictBatch(r.Context(), ticker, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.svc.ListModels(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, models)
}

type trainRequest struct {
	Ticker    string `json:"ticker"`
	Mode      string `json:"mode"`
	Retention string `json:"retention"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, core.WrapError(core.ErrValidation, err))
		return
	}
	if req.Mode == "" {
		req.Mode = string(core.ModeFast)
	}
	md, err := s.svc.Train(r.Context(), req.Ticker, core.TrainingMode(req.Mode), req.Retention)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, md)
}

type labelingRunRequest struct {
	MaxArticles int `json:"max_articles"`
}

func (s *Server) handleLabelingRun(w http.ResponseWriter, r *http.Request) {
	var req labelingRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, core.WrapError(core.ErrValidation, err))
		return
	}
	res, err := s.svc.RunLabeling(r.Context(), req.MaxArticles)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		code = coreErr.Code
		switch {
		case errors.Is(err, core.ErrValidation),
			errors.Is(err, core.ErrConfigInvalid),
			errors.Is(err, core.ErrConfigMissing):
			status = http.StatusBadRequest
		case errors.Is(err, core.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, core.ErrJobBusy), errors.Is(err, core.ErrIntegrity):
			status = http.StatusConflict
		case errors.Is(err, core.ErrDataUnavailable), errors.Is(err, core.ErrInsufficientData):
			status = http.StatusBadGateway
		case errors.Is(err, core.ErrProviderTimeout):
			status = http.StatusGatewayTimeout
		}
	}

	s.writeJSON(w, status, map[string]string{"code": code, "error": err.Error()})
}
