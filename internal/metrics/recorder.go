// Package metrics records run statistics in a Prometheus registry and
// exports them as a node-exporter textfile when the run ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder is a Prometheus implementation of sweep.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	evaluations       *prometheus.CounterVec
	evaluationSeconds *prometheus.HistogramVec
	failures          *prometheus.CounterVec
	missingSamples    *prometheus.CounterVec
	runInfo           *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	r := &Recorder{
		registry: registry,
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haspr_evaluations_total",
			Help: "Site evaluations completed, by generation model.",
		}, []string{"model"}),
		evaluationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "haspr_evaluation_duration_seconds",
			Help:    "Duration of one site evaluation at one orientation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"model"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haspr_site_failures_total",
			Help: "Sites skipped because a dataset did not cover them.",
		}, []string{"model"}),
		missingSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haspr_missing_samples_total",
			Help: "Invalid dataset samples replaced by zero, by source.",
		}, []string{"model", "source"}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "haspr_run_info",
			Help: "Identifies the run that wrote these metrics.",
		}, []string{"run_id", "model", "version"}),
	}

	registry.MustRegister(r.evaluations, r.evaluationSeconds, r.failures, r.missingSamples, r.runInfo)
	return r
}

// SetRunInfo labels the export with the run it came from.
func (r *Recorder) SetRunInfo(runID, model, version string) {
	r.runInfo.WithLabelValues(runID, model, version).Set(1)
}

func (r *Recorder) ObserveEvaluation(model string, d time.Duration, missing generation.Missing) {
	r.evaluations.WithLabelValues(model).Inc()
	r.evaluationSeconds.WithLabelValues(model).Observe(d.Seconds())
	r.missingSamples.WithLabelValues(model, "irradiance").Add(float64(missing.Irradiance))
	r.missingSamples.WithLabelValues(model, "albedo").Add(float64(missing.Albedo))
}

func (r *Recorder) ObserveFailure(model string) {
	r.failures.WithLabelValues(model).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes every metric in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
