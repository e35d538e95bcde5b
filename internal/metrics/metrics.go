// Package metrics exposes transition and frame counters in Prometheus form.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Faultbox/gamey/internal/event"
	"github.com/Faultbox/gamey/internal/states"
)

const namespace = "gamey"

// Collector owns a private registry so several apps can coexist in one
// process without colliding on the default registerer.
type Collector struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	current     *prometheus.GaugeVec
	frames      prometheus.Histogram
	updateables prometheus.Gauge
}

// New creates a collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Completed state changes by source and target state.",
		}, []string{"from", "to"}),
		current: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_state",
			Help:      "1 for the active run-state, 0 otherwise.",
		}, []string{"state"}),
		frames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent redrawing and updating one frame.",
			Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .033, .066},
		}),
		updateables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "updateables",
			Help:      "Objects registered for per-frame updates.",
		}),
	}
	c.registry.MustRegister(c.transitions, c.current, c.frames, c.updateables)

	for _, s := range append([]states.State{states.Incept}, states.Managed...) {
		c.current.WithLabelValues(s.String()).Set(0)
	}
	c.current.WithLabelValues(states.Incept.String()).Set(1)
	return c
}

// Observe records a stateChange event. Other events are ignored.
func (c *Collector) Observe(e event.Event) {
	ch, ok := e.Data.(states.Change)
	if e.Type != event.StateChange || !ok {
		return
	}
	c.transitions.WithLabelValues(ch.From.String(), ch.To.String()).Inc()
	c.current.WithLabelValues(ch.From.String()).Set(0)
	c.current.WithLabelValues(ch.To.String()).Set(1)
}

// ObserveFrame records one frame of duration d over n updateables.
func (c *Collector) ObserveFrame(d time.Duration, n int) {
	c.frames.Observe(d.Seconds())
	c.updateables.Set(float64(n))
}

// SetUpdateables records the registry size after an add or remove.
func (c *Collector) SetUpdateables(n int) {
	c.updateables.Set(float64(n))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the text exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
