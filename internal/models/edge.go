package models

// Edge is a directed dependency between two nodes. Endpoints are owned by the
// graph; the edge only carries the dependency's characteristics.
type Edge struct {
	Name           string  `json:"name" yaml:"name"`                         // display label, not unique
	Reliability    float64 `json:"reliability" yaml:"reliability"`           // 0-1
	Bandwidth      float64 `json:"bandwidth" yaml:"bandwidth"`               // unitless throughput
	TechDebtSpread float64 `json:"tech_debt_spread" yaml:"tech_debt_spread"` // 0-1, share of source debt transmissible per tick

	Latency     Distribution `json:"latency" yaml:"latency"`
	FailureRate Distribution `json:"failure_rate" yaml:"failure_rate"`
}
