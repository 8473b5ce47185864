// Package telemetry holds the Prometheus instruments of the research engine. A nil *Metrics
// is valid and records nothing.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deepsearch"

type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	iterations  prometheus.Histogram
	modelCalls  *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	fallbacks   prometheus.Counter
	confidence  prometheus.Histogram
	activeRuns  prometheus.Gauge
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Research runs by outcome.",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a research run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Execution rounds used per run.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Language model calls by agent and outcome.",
		}, []string{"agent", "outcome"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executor_fallback_searches_total",
			Help:      "Searches forced by the executor when the model made no progress.",
		}),
		confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "review_confidence",
			Help:      "Reviewer confidence scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		activeRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs currently in progress.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

func (m *Metrics) RunFinished(outcome string, iterations int, took time.Duration) {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
	m.runs.WithLabelValues(outcome).Inc()
	m.iterations.Observe(float64(iterations))
	m.runDuration.Observe(took.Seconds())
}

func (m *Metrics) ModelCall(agent string, err error) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(agent, outcome(err == nil)).Inc()
}

func (m *Metrics) ToolCall(tool string, ok bool) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome(ok)).Inc()
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) Confidence(score int) {
	if m == nil {
		return
	}
	m.confidence.Observe(float64(score))
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
