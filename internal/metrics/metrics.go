package metrics

import (
	"time"

	"github.com/nvandessel/archsim/internal/graph"
)

// Every Record/Observe method is a no-op on a nil *Registry so callers can
// leave metrics disabled without branching.

// RecordTick records an applied tick and the debt it moved.
func (r *Registry) RecordTick(duration time.Duration, spread float64) {
	if r == nil {
		return
	}
	r.TicksTotal.Inc()
	r.TickDuration.Observe(duration.Seconds())
	if spread > 0 {
		r.DebtSpreadTotal.Add(spread)
	}
}

// RecordSkippedTick records a tick ignored outside the running phase.
func (r *Registry) RecordSkippedTick() {
	if r == nil {
		return
	}
	r.TicksSkipped.Inc()
}

// ObserveEconomy sets the money and reputation gauges.
func (r *Registry) ObserveEconomy(money, reputation float64) {
	if r == nil {
		return
	}
	r.Money.Set(money)
	r.Reputation.Set(reputation)
}

// ObserveGraph sets the graph-level and per-node gauges for g.
func (r *Registry) ObserveGraph(label string, g *graph.SystemGraph) {
	if r == nil || g == nil {
		return
	}
	s := g.Summarize()
	r.AverageTechDebt.WithLabelValues(label).Set(s.AverageTechDebt)
	r.TotalComplexity.WithLabelValues(label).Set(float64(s.TotalComplexity))
	r.DegradedCritical.WithLabelValues(label).Set(float64(s.DegradedCritical))

	for _, n := range g.Nodes() {
		r.NodeHealth.WithLabelValues(label, n.Name).Set(n.Health)
		r.NodeTechDebt.WithLabelValues(label, n.Name).Set(n.TechDebt)
	}
}

// RecordContagionStep counts one discrete contagion step.
func (r *Registry) RecordContagionStep() {
	if r == nil {
		return
	}
	r.ContagionSteps.Inc()
}

// RecordDefects adds generated defects to the per-node counters.
func (r *Registry) RecordDefects(label string, defects []graph.Defect) {
	if r == nil {
		return
	}
	for _, d := range defects {
		r.DefectsGenerated.WithLabelValues(label, d.Node).Add(float64(d.Count))
	}
}

// RecordHistoryError counts a sample the history store rejected.
func (r *Registry) RecordHistoryError() {
	if r == nil {
		return
	}
	r.HistorySampleErrs.Inc()
}
