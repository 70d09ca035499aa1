// ABOUTME: Prometheus instrumentation for the admin page gate
// ABOUTME: Registry implements gate.Observer and serves the scrape endpoint

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/labeldesk/internal/gate"
)

const namespace = "labeldesk"

// Registry holds the gate collectors on a private prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	decisions    *prometheus.CounterVec
	tabSelects   *prometheus.CounterVec
	redirects    *prometheus.CounterVec
	activeMounts prometheus.Gauge
}

var _ gate.Observer = (*Registry)(nil)

// New creates a Registry with Go runtime and process collectors attached.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Admin page view decisions by resulting view.",
		}, []string{"view"}),
		tabSelects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tab_selections_total",
			Help:      "Admin tab changes by selected tab.",
		}, []string{"tab"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Login redirects by outcome.",
		}, []string{"outcome"}),
		activeMounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_mounts",
			Help:      "Admin pages currently mounted over a stream.",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.decisions,
		r.tabSelects,
		r.redirects,
		r.activeMounts,
	)
	return r
}

// ObserveDecision implements gate.Observer.
func (r *Registry) ObserveDecision(v gate.View) {
	r.decisions.WithLabelValues(v.String()).Inc()
}

// ObserveTabSelected implements gate.Observer.
func (r *Registry) ObserveTabSelected(t gate.Tab) {
	r.tabSelects.WithLabelValues(string(t)).Inc()
}

// ObserveRedirect implements gate.Observer.
func (r *Registry) ObserveRedirect(o gate.RedirectOutcome) {
	r.redirects.WithLabelValues(string(o)).Inc()
}

// MountOpened records a new mounted page.
func (r *Registry) MountOpened() { r.activeMounts.Inc() }

// MountClosed records an unmounted page.
func (r *Registry) MountClosed() { r.activeMounts.Dec() }

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
