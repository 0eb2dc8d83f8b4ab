package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEconomyMetrics() {
	r.Money = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "archsim_money",
			Help: "Remaining budget",
		},
	)

	r.Reputation = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "archsim_reputation",
			Help: "System reputation from 0 to 100",
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.AverageTechDebt = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archsim_average_tech_debt",
			Help: "Mean tech debt across the nodes of a graph",
		},
		[]string{"graph"},
	)

	r.TotalComplexity = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archsim_total_complexity",
			Help: "Sum of node complexity in a graph",
		},
		[]string{"graph"},
	)

	r.NodeHealth = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archsim_node_health",
			Help: "Node health from 0 to 100",
		},
		[]string{"graph", "node"},
	)

	r.NodeTechDebt = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archsim_node_tech_debt",
			Help: "Node tech debt from 0 to 100",
		},
		[]string{"graph", "node"},
	)

	r.DegradedCritical = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archsim_degraded_critical_nodes",
			Help: "Critical path nodes below the reputation health threshold",
		},
		[]string{"graph"},
	)
}

func (r *Registry) initTickMetrics() {
	r.TicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "archsim_ticks_total",
			Help: "Ticks applied while running",
		},
	)

	r.TicksSkipped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "archsim_ticks_skipped_total",
			Help: "Ticks ignored because the simulation was not running",
		},
	)

	r.TickDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archsim_tick_duration_seconds",
			Help:    "Wall-clock time spent applying one tick",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	r.DebtSpreadTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "archsim_debt_spread_total",
			Help: "Tech debt points moved along edges by continuous spread",
		},
	)

	r.ContagionSteps = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "archsim_contagion_steps_total",
			Help: "Discrete contagion steps applied",
		},
	)

	r.DefectsGenerated = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "archsim_defects_generated_total",
			Help: "Defects generated per node",
		},
		[]string{"graph", "node"},
	)

	r.HistorySampleErrs = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "archsim_history_sample_errors_total",
			Help: "Samples that could not be written to the run history",
		},
	)
}
