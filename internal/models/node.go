package models

import (
	"math"
	"strconv"
)

// Node is a component of the simulated system: a service, datastore, cache,
// gateway, message bus and so on.
type Node struct {
	// Identity
	Name     string `json:"name" yaml:"name"`           // unique within a graph
	NodeType string `json:"node_type" yaml:"node_type"` // free-form category

	// Metrics
	Health        float64 `json:"health" yaml:"health"`                 // 0-100, 100 is perfect
	TechDebt      float64 `json:"tech_debt" yaml:"tech_debt"`           // 0-100
	Complexity    uint32  `json:"complexity" yaml:"complexity"`         // unbounded
	ContagionRisk float64 `json:"contagion_risk" yaml:"contagion_risk"` // 0-1, share of incoming debt absorbed
	OperatingCost float64 `json:"operating_cost" yaml:"operating_cost"` // currency per time unit
	DefectRate    float64 `json:"defect_rate" yaml:"defect_rate"`       // 0-1, base defects per tick

	CriticalPath bool     `json:"critical_path" yaml:"critical_path"`
	Attributes   []string `json:"attributes,omitempty" yaml:"attributes,omitempty"` // display only

	// Performance characteristics (display only)
	Latency     Distribution `json:"latency" yaml:"latency"`
	FailureRate Distribution `json:"failure_rate" yaml:"failure_rate"`
}

// Clone returns a copy that shares no slices with n.
func (n Node) Clone() Node {
	c := n
	if n.Attributes != nil {
		c.Attributes = append([]string(nil), n.Attributes...)
	}
	return c
}

// Degraded reports whether a critical node is unhealthy enough to cost
// reputation.
func (n Node) Degraded(threshold float64) bool {
	return n.CriticalPath && n.Health < threshold
}

// ClampPercent clamps v into [0, 100]. NaN collapses to 0.
func ClampPercent(v float64) float64 {
	return clamp(v, 0, 100)
}

// ClampUnit clamps v into [0, 1]. NaN collapses to 0.
func ClampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
