package graph

import (
	"math"

	"github.com/nvandessel/archsim/internal/constants"
)

// Defect is the number of defects a node produced in the current tick.
type Defect struct {
	Node  string `json:"node"`
	Count uint32 `json:"count"`
}

// GenerateDefects derives per-node defect counts from debt and complexity:
//
//	floor(defect_rate * (1 + debt/100)^2 * (1 + complexity/10))
//
// Only nodes with a positive count are returned, in insertion order. The
// graph is not modified.
func (g *SystemGraph) GenerateDefects() []Defect {
	var defects []Defect
	for _, n := range g.nodes {
		count := defectCount(n.DefectRate, n.TechDebt, n.Complexity)
		if count > 0 {
			defects = append(defects, Defect{Node: n.Name, Count: count})
		}
	}
	return defects
}

// TotalDefects sums a defect list.
func TotalDefects(defects []Defect) uint64 {
	var total uint64
	for _, d := range defects {
		total += uint64(d.Count)
	}
	return total
}

func defectCount(rate, techDebt float64, complexity uint32) uint32 {
	debtFactor := 1 + techDebt/constants.MaxPercent
	raw := math.Floor(rate * debtFactor * debtFactor * complexityAmplifier(complexity))
	switch {
	case math.IsNaN(raw) || raw <= 0:
		return 0
	case raw >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(raw)
	}
}
