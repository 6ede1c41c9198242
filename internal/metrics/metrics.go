// Package metrics exposes Prometheus instrumentation for the learning core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Labeling metrics
	labelsCreated    *prometheus.CounterVec
	labelRunDuration prometheus.Histogram
	labelRunErrors   prometheus.Counter

	// Online model metrics
	learnUpdates      prometheus.Counter
	onlinePredictions prometheus.Counter
	onlineSamples     prometheus.Gauge
	onlineLoss        prometheus.Gauge

	// Batch trainer metrics
	trainingRuns     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	batchPredictions prometheus.Counter
	retentionPruned  prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		labelsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalcore_labels_created_total",
				Help: "Total number of labels written by the labeling job",
			},
			[]string{"outcome"},
		),
		labelRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signalcore_label_run_duration_seconds",
				Help:    "Labeling job run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		labelRunErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalcore_label_run_errors_total",
				Help: "Total per-article errors during labeling runs",
			},
		),

		learnUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalcore_online_learn_updates_total",
				Help: "Total learn calls applied to the online classifier",
			},
		),
		onlinePredictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalcore_online_predictions_total",
				Help: "Total online prediction calls",
			},
		),
		onlineSamples: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalcore_online_samples",
				Help: "Samples the online classifier has learned from",
			},
		),
		onlineLoss: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalcore_online_running_loss",
				Help: "Running log-loss estimate of the online classifier",
			},
		),

		trainingRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalcore_training_runs_total",
				Help: "Total batch training runs",
			},
			[]string{"mode", "status"},
		),
		trainingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signalcore_training_duration_seconds",
				Help:    "Batch training duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		batchPredictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalcore_batch_predictions_total",
				Help: "Total batch model prediction calls",
			},
		),
		retentionPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalcore_retention_rows_pruned_total",
				Help: "Raw history rows removed by retention policies",
			},
		),
	}

	reg.MustRegister(r.labelsCreated)
	reg.MustRegister(r.labelRunDuration)
	reg.MustRegister(r.labelRunErrors)
	reg.MustRegister(r.learnUpdates)
	reg.MustRegister(r.onlinePredictions)
	reg.MustRegister(r.onlineSamples)
	reg.MustRegister(r.onlineLoss)
	reg.MustRegister(r.trainingRuns)
	reg.MustRegister(r.trainingDuration)
	reg.MustRegister(r.batchPredictions)
	reg.MustRegister(r.retentionPruned)

	return r
}

// LabelCreated records one written label.
func (r *Registry) LabelCreated(outcome int) {
	if r == nil {
		return
	}
	bucket := "negative"
	if outcome == 1 {
		bucket = "positive"
	}
	r.labelsCreated.WithLabelValues(bucket).Inc()
}

// LabelRunFinished records a completed labeling run.
func (r *Registry) LabelRunFinished(seconds float64, errored int) {
	if r == nil {
		return
	}
	r.labelRunDuration.Observe(seconds)
	r.labelRunErrors.Add(float64(errored))
}

// LearnApplied records one online model update and its resulting state.
func (r *Registry) LearnApplied(samples int64, runningLoss float64) {
	if r == nil {
		return
	}
	r.learnUpdates.Inc()
	r.onlineSamples.Set(float64(samples))
	r.onlineLoss.Set(runningLoss)
}

// OnlinePredicted records one online prediction call.
func (r *Registry) OnlinePredicted() {
	if r == nil {
		return
	}
	r.onlinePredictions.Inc()
}

// TrainingFinished records one batch training run.
func (r *Registry) TrainingFinished(mode, status string, seconds float64) {
	if r == nil {
		return
	}
	r.trainingRuns.WithLabelValues(mode, status).Inc()
	r.trainingDuration.Observe(seconds)
}

// BatchPredicted records one batch prediction call.
func (r *Registry) BatchPredicted() {
	if r == nil {
		return
	}
	r.batchPredictions.Inc()
}

// RetentionPruned records rows removed by a retention policy.
func (r *Registry) RetentionPruned(rows int64) {
	if r == nil {
		return
	}
	r.retentionPruned.Add(float64(rows))
}
