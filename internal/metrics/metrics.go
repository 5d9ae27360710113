// Package metrics exposes Prometheus counters and gauges for dispatcher
// activity. None of it is required for correct dispatch; every
// method is nil-safe so callers that don't want metrics can pass a nil
// *Dispatcher, the same nil-safe convention the teacher's event
// bus used for Publish on a nil *Bus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Dispatcher holds the counters and gauge the dispatch loop updates on
// every command it processes.
type Dispatcher struct {
	eventsForwarded     prometheus.Counter
	eventsDropped       *prometheus.CounterVec
	subscriptionsReaped prometheus.Counter
	subscriptionsActive prometheus.Gauge
}

// NewDispatcher registers the dispatcher's metric family with reg and
// returns the handle. A nil reg disables registration, leaving the
// returned *Dispatcher fully functional but unobserved (useful in tests).
func NewDispatcher(reg prometheus.Registerer) *Dispatcher {
	d := &Dispatcher{
		eventsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fabric_events_forwarded_total",
			Help: "Events delivered to a matching subscriber.",
		}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fabric_events_dropped_total",
			Help: "Events dropped for a matching subscriber, by reason.",
		}, []string{"reason"}),
		subscriptionsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fabric_subscriptions_reaped_total",
			Help: "Subscriptions removed from the dispatcher's table because their consumer was dropped.",
		}),
		subscriptionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fabric_subscriptions_active",
			Help: "Subscriptions currently held in the dispatcher's table.",
		}),
	}
	if reg != nil {
		reg.MustRegister(d.eventsForwarded, d.eventsDropped, d.subscriptionsReaped, d.subscriptionsActive)
	}
	return d
}

// IncEventsForwarded records one successful delivery. Safe on a nil *Dispatcher.
func (d *Dispatcher) IncEventsForwarded() {
	if d == nil {
		return
	}
	d.eventsForwarded.Inc()
}

// IncEventsDropped records one dropped delivery for the given reason
// ("full" or "closed"). Safe on a nil *Dispatcher.
func (d *Dispatcher) IncEventsDropped(reason string) {
	if d == nil {
		return
	}
	d.eventsDropped.WithLabelValues(reason).Inc()
}

// AddSubscriptionsReaped records n subscriptions removed in a single
// dispatch pass. Safe on a nil *Dispatcher.
func (d *Dispatcher) AddSubscriptionsReaped(n int) {
	if d == nil {
		return
	}
	d.subscriptionsReaped.Add(float64(n))
}

// SetActiveSubscriptions records the current table size. Safe on a nil *Dispatcher.
func (d *Dispatcher) SetActiveSubscriptions(n int) {
	if d == nil {
		return
	}
	d.subscriptionsActive.Set(float64(n))
}

// ActiveSubscriptions reports the current value of the subscriptions-active
// gauge. It exists for tests that need to observe table size without the
// dispatcher exposing its internal slice; safe on a nil *Dispatcher, which
// reports zero.
func (d *Dispatcher) ActiveSubscriptions() float64 {
	if d == nil {
		return 0
	}
	return testutil.ToFloat64(d.subscriptionsActive)
}

// Serve builds an HTTP server that exposes reg's metrics at /metrics. It
// does not start the server: the caller runs ListenAndServe (typically in
// its own goroutine) and calls Shutdown when done.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
