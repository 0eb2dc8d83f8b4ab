package graph

import (
	"math"

	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/models"
)

// DebtChange records a node whose tech debt moved during a spread step.
type DebtChange struct {
	Node   string  `json:"node"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// SimulateTechDebtSpread advances tech debt by one discrete contagion step.
//
// Every node absorbs debt from its upstream dependencies:
//
//	contribution = source.debt * edge.spread * target.risk * (1 + source.complexity/10)
//
// and ends at min(100, debt + sum(contributions)). All contributions are
// computed from a snapshot taken before any node is written, so iteration
// order never changes the result. Nodes without incoming edges are untouched.
// The returned changes are in node insertion order.
func (g *SystemGraph) SimulateTechDebtSpread() []DebtChange {
	snapshot := g.techDebtSnapshot()

	var changes []DebtChange
	for i := range g.nodes {
		in := g.incoming[i]
		if len(in) == 0 {
			continue
		}

		risk := g.nodes[i].ContagionRisk
		var incoming float64
		for _, ai := range in {
			arc := g.arcs[ai]
			incoming += snapshot[arc.From] *
				arc.Edge.TechDebtSpread *
				risk *
				complexityAmplifier(g.nodes[arc.From].Complexity)
		}

		after := models.ClampPercent(math.Min(constants.MaxPercent, snapshot[i]+incoming))
		g.nodes[i].TechDebt = after
		if after != snapshot[i] {
			changes = append(changes, DebtChange{Node: g.nodes[i].Name, Before: snapshot[i], After: after})
		}
	}
	return changes
}

// techDebtSnapshot copies every node's current debt, indexed by NodeID.
func (g *SystemGraph) techDebtSnapshot() []float64 {
	snapshot := make([]float64, len(g.nodes))
	for i, n := range g.nodes {
		snapshot[i] = n.TechDebt
	}
	return snapshot
}

// TechDebtSnapshot returns every node's current debt indexed by NodeID.
// Callers computing their own propagation read from it and write afterwards.
func (g *SystemGraph) TechDebtSnapshot() []float64 {
	return g.techDebtSnapshot()
}

func complexityAmplifier(complexity uint32) float64 {
	return 1 + float64(complexity)/constants.ComplexityAmplifierDivisor
}
