// Package metrics exposes Prometheus metrics describing a benchmark run.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/report"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
)

const MetricsPrefix = "benchsuite_"

var probesCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "probes",
		Help: "Number of probes issued, grouped by target host and result",
	},
	[]string{"host", "result"},
)

var probesInFlightGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: MetricsPrefix + "probes_in_flight",
		Help: "Number of probes currently in flight",
	},
)

var probeDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    MetricsPrefix + "probe_duration_seconds",
		Help:    "Latency of successful probes in seconds",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"host"},
)

var stageDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    MetricsPrefix + "workflow_stage_duration_seconds",
		Help:    "Duration of workflow pipeline stages in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"stage"},
)

var suiteFailuresCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "suite_failures",
		Help: "Number of failed load tests and workflow runs, grouped by benchmark",
	},
	[]string{"benchmark"},
)

type Metrics struct{}

var m = &Metrics{}

func Get() *Metrics {
	return m
}

func (m *Metrics) RecordProbe(host string, outcome probe.Outcome) {
	result := "ok"
	if !outcome.Succeeded {
		result = string(outcome.FailureReason)
	}
	probesCounter.With(map[string]string{"host": host, "result": result}).Inc()
	if outcome.Succeeded {
		probeDurationHist.With(map[string]string{"host": host}).Observe(outcome.Elapsed.Seconds())
	}
}

func (m *Metrics) RecordStageDuration(stage report.StageName, elapsed time.Duration) {
	stageDurationHist.With(map[string]string{"stage": string(stage)}).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordSuiteFailures(benchmark string, failures int) {
	suiteFailuresCounter.With(map[string]string{"benchmark": benchmark}).Add(float64(failures))
}

// RecordReport records the stage durations and failure totals of a finalized
// report.
func (m *Metrics) RecordReport(r *report.BenchmarkReport) {
	for _, run := range r.Workflows {
		for _, stage := range run.Stages {
			m.RecordStageDuration(stage.Name, stage.Elapsed)
		}
	}
	m.RecordSuiteFailures(r.Name, r.FailedLoadTests()+r.FailedWorkflows())
}

// InstrumentedProber wraps a Prober, recording every probe into the package
// metrics labelled by target host.
type InstrumentedProber struct {
	Inner probe.Prober
}

func (p *InstrumentedProber) Probe(ctx *benchcontext.Context, target probe.Target) probe.Outcome {
	probesInFlightGauge.Inc()
	outcome := p.Inner.Probe(ctx, target)
	probesInFlightGauge.Dec()
	Get().RecordProbe(target.URL.Host, outcome)
	return outcome
}

// ServeMetrics exposes the Prometheus metrics endpoint on the given port for
// the duration of the run. A zero port disables serving. The returned function
// shuts the server down.
func ServeMetrics(port uint16) (shutdown func()) {
	if port == 0 {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return func() {
		_ = srv.Shutdown(context.Background())
	}
}
