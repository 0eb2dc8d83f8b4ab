package simulation

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/logging"
	"github.com/nvandessel/archsim/internal/metrics"
	"github.com/nvandessel/archsim/internal/models"
)

// Driver applies simulated time to a set of graphs and the shared economy.
// A Driver is not safe for concurrent use.
type Driver struct {
	phase   Phase
	logger  *slog.Logger
	trace   *logging.TickTrace
	metrics *metrics.Registry
	ticks   uint64
	now     func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithPhase sets the initial phase. The default is PhaseRunning.
func WithPhase(p Phase) Option {
	return func(d *Driver) { d.phase = p }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTrace sets the per-node event trace. A nil trace disables tracing.
func WithTrace(t *logging.TickTrace) Option {
	return func(d *Driver) { d.trace = t }
}

// WithMetrics sets the metrics registry. A nil registry disables metrics.
func WithMetrics(m *metrics.Registry) Option {
	return func(d *Driver) { d.metrics = m }
}

// NewDriver creates a driver in the running phase.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		phase:  PhaseRunning,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Phase returns the current phase.
func (d *Driver) Phase() Phase { return d.phase }

// SetPhase sets the current phase.
func (d *Driver) SetPhase(p Phase) { d.phase = p }

// Ticks returns the number of ticks applied so far. Skipped ticks do not count.
func (d *Driver) Ticks() uint64 { return d.ticks }

// Metrics returns the registry, which may be nil.
func (d *Driver) Metrics() *metrics.Registry { return d.metrics }

// TickReport summarises one call to Tick.
type TickReport struct {
	Tick             uint64  `json:"tick"`
	Skipped          bool    `json:"skipped"`
	Delta            float64 `json:"delta"`
	HealthLost       float64 `json:"health_lost"`
	OperatingCost    float64 `json:"operating_cost"`
	ReputationLost   float64 `json:"reputation_lost"`
	DebtSpread       float64 `json:"debt_spread"`
	MoneyBefore      float64 `json:"money_before"`
	MoneyAfter       float64 `json:"money_after"`
	ReputationBefore float64 `json:"reputation_before"`
	ReputationAfter  float64 `json:"reputation_after"`
	DegradedCritical int     `json:"degraded_critical"`
}

// Tick applies delta seconds of simulated time to every graph and to res.
//
// Per node, in insertion order:
//
//	health     -= debt * 0.1 * delta                 (floored at 0)
//	money      -= cost * (1 + debt/100) * delta
//	reputation -= (50 - health) * 0.1 * delta        (critical nodes below 50)
//
// Then, per graph, debt spreads continuously along every edge from a
// snapshot of source debts: target += source * spread * delta, capped at 100.
// Money and reputation are clamped once all graphs are done.
//
// Outside PhaseRunning Tick does nothing and reports Skipped. A negative or
// non-finite delta is treated as zero.
func (d *Driver) Tick(delta float64, graphs []*graph.SystemGraph, res *Resources) TickReport {
	if d.phase != PhaseRunning || res == nil {
		d.metrics.RecordSkippedTick()
		return TickReport{Skipped: true, Tick: d.ticks}
	}
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		delta = 0
	}

	start := d.now()
	d.ticks++
	report := TickReport{
		Tick:             d.ticks,
		Delta:            delta,
		MoneyBefore:      res.Money,
		ReputationBefore: res.Reputation,
	}

	for gi, g := range graphs {
		if g == nil {
			continue
		}
		d.applyNodeEffects(gi, g, delta, res, &report)
		report.DebtSpread += d.applyContinuousSpread(gi, g, delta)
		report.DegradedCritical += g.Summarize().DegradedCritical
	}

	res.clamp()
	report.MoneyAfter = res.Money
	report.ReputationAfter = res.Reputation

	d.metrics.RecordTick(d.now().Sub(start), report.DebtSpread)
	d.observe(graphs, res)
	d.logger.Debug("tick applied",
		"tick", report.Tick,
		"delta", delta,
		"money", res.Money,
		"reputation", res.Reputation,
		"debt_spread", report.DebtSpread)
	return report
}

func (d *Driver) applyNodeEffects(gi int, g *graph.SystemGraph, delta float64, res *Resources, report *TickReport) {
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)

		decay := n.TechDebt * constants.HealthDecayRate * delta
		before := n.Health
		g.SetHealth(id, math.Max(0, n.Health-decay))
		report.HealthLost += before - n.Health

		cost := n.OperatingCost * (1 + n.TechDebt/constants.MaxPercent) * delta
		res.Money -= cost
		report.OperatingCost += cost

		var penalty float64
		if n.CriticalPath && n.Health < constants.ReputationThreshold {
			penalty = (constants.ReputationThreshold - n.Health) * constants.ReputationPenaltyRate * delta
			res.Reputation -= penalty
			report.ReputationLost += penalty
		}

		if d.trace.Enabled() {
			d.trace.Record(logging.TickEvent{Tick: d.ticks, Kind: logging.EventDecay, Graph: gi, Node: n.Name, Before: before, After: n.Health, Amount: decay})
			d.trace.Record(logging.TickEvent{Tick: d.ticks, Kind: logging.EventCost, Graph: gi, Node: n.Name, Before: res.Money + cost, After: res.Money, Amount: cost})
			if penalty > 0 {
				d.trace.Record(logging.TickEvent{Tick: d.ticks, Kind: logging.EventReputation, Graph: gi, Node: n.Name, Before: res.Reputation + penalty, After: res.Reputation, Amount: penalty})
			}
		}
	}
}

// applyContinuousSpread returns the total debt actually added.
func (d *Driver) applyContinuousSpread(gi int, g *graph.SystemGraph, delta float64) float64 {
	snapshot := g.TechDebtSnapshot()
	incoming := make([]float64, len(snapshot))

	for _, arc := range g.Arcs() {
		amount := snapshot[arc.From] * arc.Edge.TechDebtSpread * delta
		incoming[arc.To] += amount
		if d.trace.Enabled() && amount > 0 {
			d.trace.Record(logging.TickEvent{
				Tick:   d.ticks,
				Kind:   logging.EventSpread,
				Graph:  gi,
				Source: g.Name(arc.From),
				Node:   g.Name(arc.To),
				Amount: amount,
			})
		}
	}

	var total float64
	for i, in := range incoming {
		if in == 0 {
			continue
		}
		id := graph.NodeID(i)
		before := snapshot[i]
		g.SetTechDebt(id, math.Min(constants.MaxPercent, before+in))
		n, _ := g.Node(id)
		total += n.TechDebt - before
	}
	return total
}

// ContagionReport lists the debt changes of one graph's discrete spread step.
type ContagionReport struct {
	Graph   int                `json:"graph"`
	Changes []graph.DebtChange `json:"changes"`
}

// Spread runs one discrete contagion step on every graph. Like Tick it does
// nothing outside PhaseRunning.
func (d *Driver) Spread(graphs []*graph.SystemGraph) []ContagionReport {
	if d.phase != PhaseRunning {
		return nil
	}
	reports := make([]ContagionReport, 0, len(graphs))
	for gi, g := range graphs {
		if g == nil {
			continue
		}
		changes := g.SimulateTechDebtSpread()
		for _, c := range changes {
			d.trace.Record(logging.TickEvent{Tick: d.ticks, Kind: logging.EventContagion, Graph: gi, Node: c.Node, Before: c.Before, After: c.After, Amount: c.After - c.Before})
		}
		reports = append(reports, ContagionReport{Graph: gi, Changes: changes})
		d.metrics.ObserveGraph(label(gi), g)
	}
	d.metrics.RecordContagionStep()
	d.logger.Debug("contagion step", "graphs", len(reports))
	return reports
}

// DefectReport lists one graph's defects for the current tick.
type DefectReport struct {
	Graph   int            `json:"graph"`
	Defects []graph.Defect `json:"defects"`
	Total   uint64         `json:"total"`
}

// Defects generates defects on every graph. It never changes graph state.
func (d *Driver) Defects(graphs []*graph.SystemGraph) []DefectReport {
	reports := make([]DefectReport, 0, len(graphs))
	for gi, g := range graphs {
		if g == nil {
			continue
		}
		defects := g.GenerateDefects()
		for _, df := range defects {
			d.trace.Record(logging.TickEvent{Tick: d.ticks, Kind: logging.EventDefects, Graph: gi, Node: df.Node, Amount: float64(df.Count)})
		}
		d.metrics.RecordDefects(label(gi), defects)
		reports = append(reports, DefectReport{Graph: gi, Defects: defects, Total: graph.TotalDefects(defects)})
	}
	return reports
}

// Observe pushes the current state into the metrics registry.
func (d *Driver) Observe(graphs []*graph.SystemGraph, res *Resources) {
	d.observe(graphs, res)
}

func (d *Driver) observe(graphs []*graph.SystemGraph, res *Resources) {
	if d.metrics == nil {
		return
	}
	if res != nil {
		d.metrics.ObserveEconomy(res.Money, res.Reputation)
	}
	for gi, g := range graphs {
		d.metrics.ObserveGraph(label(gi), g)
	}
}

// LogState writes one line per node at trace level.
func (d *Driver) LogState(ctx context.Context, graphs []*graph.SystemGraph) {
	if !d.logger.Enabled(ctx, logging.LevelTrace) {
		return
	}
	for gi, g := range graphs {
		for _, n := range g.Nodes() {
			d.logger.Log(ctx, logging.LevelTrace, "node state",
				"graph", gi,
				"node", n.Name,
				"health", n.Health,
				"tech_debt", n.TechDebt)
		}
	}
}

// NodeSample is one draw from a node's performance distributions.
type NodeSample struct {
	Node        string  `json:"node"`
	LatencyMS   float64 `json:"latency_ms"`
	FailureRate float64 `json:"failure_rate"`
}

// SampleCharacteristics draws latency and failure rate for every node of g
// from src. A nil src uses the process-wide generator.
func SampleCharacteristics(g *graph.SystemGraph, src models.Source) []NodeSample {
	nodes := g.Nodes()
	out := make([]NodeSample, len(nodes))
	for i, n := range nodes {
		out[i] = NodeSample{
			Node:        n.Name,
			LatencyMS:   math.Max(0, n.Latency.Sample(src)),
			FailureRate: models.ClampUnit(n.FailureRate.Sample(src)),
		}
	}
	return out
}

func label(gi int) string {
	return strconv.Itoa(gi)
}
