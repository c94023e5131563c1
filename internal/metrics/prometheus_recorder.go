package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagehooks"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	hookDuration    *prom.HistogramVec
	hookResults     *prom.CounterVec
	requestDuration *prom.HistogramVec
	pagesRendered   *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	timings         *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		hookDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "hook_duration_seconds",
			Help:      "Duration of individual hook runs",
			Buckets:   prom.DefBuckets,
		}, []string{"stage", "hook"}),
		hookResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hook_results_total",
			Help:      "Hook results by outcome",
		}, []string{"stage", "hook", "result"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of a full page render",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		pagesRendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_rendered_total",
			Help:      "Rendered pages by success/failure",
		}, []string{"success"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		timings: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "timing_seconds",
			Help:      "Named timings reported by the performance hooks",
			Buckets:   prom.DefBuckets,
		}, []string{"name"}),
	}
	reg.MustRegister(pr.hookDuration, pr.hookResults, pr.requestDuration, pr.pagesRendered,
		pr.buildDuration, pr.buildOutcome, pr.timings)
	return pr
}

func (p *PrometheusRecorder) ObserveHookDuration(stage, hook string, d time.Duration) {
	if p == nil {
		return
	}
	p.hookDuration.WithLabelValues(stage, hook).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncHookResult(stage, hook string, result ResultLabel) {
	if p == nil {
		return
	}
	p.hookResults.WithLabelValues(stage, hook, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRequestDuration(route string, d time.Duration) {
	if p == nil {
		return
	}
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageRendered(success bool) {
	if p == nil {
		return
	}
	p.pagesRendered.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveTiming(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.timings.WithLabelValues(name).Observe(d.Seconds())
}
