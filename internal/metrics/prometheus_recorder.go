package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "postforge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	passDuration     *prom.HistogramVec
	stageDuration    *prom.HistogramVec
	passOutcomes     *prom.CounterVec
	items            *prom.CounterVec
	watchEvents      prom.Counter
	collapsedEvents  prom.Counter
	generation       prom.Gauge
	liveReloadClient prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A
// nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		passDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of build passes by mode",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pass stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		passOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pass_outcomes_total",
			Help:      "Build passes by final status",
		}, []string{"outcome"}),
		items: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Units, aggregates and assets processed by result",
		}, []string{"kind", "result"}),
		watchEvents: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "File system events accepted by the watch loop",
		}),
		collapsedEvents: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_collapsed_events_total",
			Help:      "Events folded into a pass triggered by an earlier event",
		}),
		generation: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "generation",
			Help:      "Successful pass counter of the running watch loop",
		}),
		liveReloadClient: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live-reload clients",
		}),
	}
	reg.MustRegister(pr.passDuration, pr.stageDuration, pr.passOutcomes, pr.items,
		pr.watchEvents, pr.collapsedEvents, pr.generation, pr.liveReloadClient)
	return pr
}

func (p *PrometheusRecorder) ObservePassDuration(mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.passDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPassOutcome(outcome PassOutcome) {
	if p == nil {
		return
	}
	p.passOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddItems(kind string, result ResultLabel, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.items.WithLabelValues(kind, string(result)).Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvents(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.watchEvents.Add(float64(n))
}

func (p *PrometheusRecorder) IncCollapsedEvents(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.collapsedEvents.Add(float64(n))
}

func (p *PrometheusRecorder) SetGeneration(g uint64) {
	if p == nil {
		return
	}
	p.generation.Set(float64(g))
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.liveReloadClient.Set(float64(n))
}
