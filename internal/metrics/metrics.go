// Package metrics records run outcomes and pushes them to a Prometheus
// Pushgateway, the usual sink for batch jobs that do not live long enough
// to be scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run holds the metrics for one launch.
type Run struct {
	registry *prometheus.Registry
	labels   prometheus.Labels

	duration    *prometheus.GaugeVec
	exitCode    *prometheus.GaugeVec
	completion  *prometheus.GaugeVec
	checkpoints *prometheus.CounterVec
}

// NewRun creates the metrics for a run of algoHandle on datasetHandle.
func NewRun(algoHandle, datasetHandle string) *Run {
	names := []string{"algo_handle", "dataset_handle"}
	r := &Run{
		registry: prometheus.NewRegistry(),
		labels: prometheus.Labels{
			"algo_handle":    algoHandle,
			"dataset_handle": datasetHandle,
		},
		duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trainlaunch_run_duration_seconds",
				Help: "Wall time of the training program in seconds",
			},
			names,
		),
		exitCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trainlaunch_run_exit_code",
				Help: "Exit status of the training program",
			},
			names,
		),
		completion: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trainlaunch_run_last_completion_timestamp_seconds",
				Help: "Unix time the training program last exited",
			},
			names,
		),
		checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainlaunch_checkpoints_total",
				Help: "Checkpoints written by the training program",
			},
			names,
		),
	}
	r.registry.MustRegister(r.duration, r.exitCode, r.completion, r.checkpoints)
	return r
}

// Registry exposes the collectors, mainly for tests.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// RecordCheckpoint counts one saved checkpoint.
func (r *Run) RecordCheckpoint() {
	r.checkpoints.With(r.labels).Inc()
}

// RecordExit records the outcome of the run.
func (r *Run) RecordExit(exitCode int, duration time.Duration, at time.Time) {
	r.duration.With(r.labels).Set(duration.Seconds())
	r.exitCode.With(r.labels).Set(float64(exitCode))
	r.completion.With(r.labels).Set(float64(at.Unix()))
}

// Push sends the metrics to the Pushgateway at url under job, grouped by run id.
func (r *Run) Push(ctx context.Context, url, job, runID string) error {
	err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
