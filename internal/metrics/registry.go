// Package metrics exposes simulation state as Prometheus metrics.
package metrics

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Registry holds all metrics for one simulation session.
type Registry struct {
	// Economy
	Money      prometheus.Gauge
	Reputation prometheus.Gauge

	// Graph
	AverageTechDebt  *prometheus.GaugeVec
	TotalComplexity  *prometheus.GaugeVec
	NodeHealth       *prometheus.GaugeVec
	NodeTechDebt     *prometheus.GaugeVec
	DegradedCritical *prometheus.GaugeVec

	// Ticks
	TicksTotal        prometheus.Counter
	TicksSkipped      prometheus.Counter
	TickDuration      prometheus.Histogram
	DebtSpreadTotal   prometheus.Counter
	ContagionSteps    prometheus.Counter
	DefectsGenerated  *prometheus.CounterVec
	HistorySampleErrs prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialised. Each call
// returns an independent prometheus registry, so tests and concurrent
// sessions never collide.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initEconomyMetrics()
	r.initGraphMetrics()
	r.initTickMetrics()
	return r
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteText writes every metric family in the text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
