package graph

import "github.com/nvandessel/archsim/internal/constants"

// TotalComplexity returns the sum of complexity over all nodes.
func (g *SystemGraph) TotalComplexity() uint64 {
	var total uint64
	for _, n := range g.nodes {
		total += uint64(n.Complexity)
	}
	return total
}

// AverageTechDebt returns the mean tech debt over all nodes, or 0 for an
// empty graph.
func (g *SystemGraph) AverageTechDebt() float64 {
	if len(g.nodes) == 0 {
		return 0
	}
	var sum float64
	for _, n := range g.nodes {
		sum += n.TechDebt
	}
	return sum / float64(len(g.nodes))
}

// AverageHealth returns the mean health over all nodes, or 0 for an empty
// graph.
func (g *SystemGraph) AverageHealth() float64 {
	if len(g.nodes) == 0 {
		return 0
	}
	var sum float64
	for _, n := range g.nodes {
		sum += n.Health
	}
	return sum / float64(len(g.nodes))
}

// Summary is a point-in-time digest of the graph used for status output,
// history samples and metrics.
type Summary struct {
	Nodes             int     `json:"nodes"`
	Edges             int     `json:"edges"`
	TotalComplexity   uint64  `json:"total_complexity"`
	AverageTechDebt   float64 `json:"average_tech_debt"`
	AverageHealth     float64 `json:"average_health"`
	CriticalNodes     int     `json:"critical_nodes"`
	DegradedCritical  int     `json:"degraded_critical"`   // critical nodes below the reputation threshold
	MinCriticalHealth float64 `json:"min_critical_health"` // 100 when there are no critical nodes
}

// Summarize computes a Summary.
func (g *SystemGraph) Summarize() Summary {
	s := Summary{
		Nodes:             len(g.nodes),
		Edges:             len(g.arcs),
		TotalComplexity:   g.TotalComplexity(),
		AverageTechDebt:   g.AverageTechDebt(),
		AverageHealth:     g.AverageHealth(),
		MinCriticalHealth: constants.MaxPercent,
	}
	for _, n := range g.nodes {
		if !n.CriticalPath {
			continue
		}
		s.CriticalNodes++
		if n.Degraded(constants.ReputationThreshold) {
			s.DegradedCritical++
		}
		if n.Health < s.MinCriticalHealth {
			s.MinCriticalHealth = n.Health
		}
	}
	return s
}
