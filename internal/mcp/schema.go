package mcp

import (
	"github.com/nvandessel/archsim/internal/graph"
)

// StatusInput defines the input for archsim_status tool.
type StatusInput struct {
	Nodes bool `json:"nodes,omitempty" jsonschema:"Include per-node health and tech debt (default: false)"`
}

// StatusOutput defines the output for archsim_status tool.
type StatusOutput struct {
	Architecture string        `json:"architecture" jsonschema:"Active architecture or topology name"`
	Phase        string        `json:"phase" jsonschema:"Simulation phase"`
	Tick         uint64        `json:"tick" jsonschema:"Ticks applied since the last reset"`
	Money        float64       `json:"money" jsonschema:"Global money"`
	Reputation   float64       `json:"reputation" jsonschema:"Global reputation (0-100)"`
	Summary      graph.Summary `json:"summary" jsonschema:"Graph aggregates"`
	Nodes        []NodeStatus  `json:"nodes,omitempty" jsonschema:"Per-node state"`
}

// NodeStatus is the per-node view in archsim_status.
type NodeStatus struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Health        float64 `json:"health"`
	TechDebt      float64 `json:"tech_debt"`
	Complexity    uint32  `json:"complexity"`
	OperatingCost float64 `json:"operating_cost"`
	CriticalPath  bool    `json:"critical_path"`
}

// TickInput defines the input for archsim_tick tool.
type TickInput struct {
	Ticks       int     `json:"ticks,omitempty" jsonschema:"Number of ticks to apply (default: 1, max: 10000)"`
	Delta       float64 `json:"delta,omitempty" jsonschema:"Simulated seconds per tick (default: 1/60)"`
	SpreadEvery int     `json:"spread_every,omitempty" jsonschema:"Run a discrete contagion step after every Nth tick (default: never)"`
}

// TickOutput defines the output for archsim_tick tool.
type TickOutput struct {
	Ticks          int           `json:"ticks" jsonschema:"Ticks applied"`
	Skipped        int           `json:"skipped" jsonschema:"Ticks skipped because the session is not running"`
	ContagionSteps int           `json:"contagion_steps" jsonschema:"Discrete contagion steps run"`
	OperatingCost  float64       `json:"operating_cost" jsonschema:"Money spent on operating cost"`
	DebtSpread     float64       `json:"debt_spread" jsonschema:"Tech debt added by continuous spread"`
	Defects        uint64        `json:"defects" jsonschema:"Defects generated"`
	Money          float64       `json:"money"`
	Reputation     float64       `json:"reputation"`
	Summary        graph.Summary `json:"summary"`
}

// SpreadInput defines the input for archsim_spread tool.
type SpreadInput struct{}

// SpreadOutput defines the output for archsim_spread tool.
type SpreadOutput struct {
	Changes []graph.DebtChange `json:"changes" jsonschema:"Nodes whose tech debt changed"`
	Count   int                `json:"count"`
	Message string             `json:"message"`
}

// DefectsInput defines the input for archsim_defects tool.
type DefectsInput struct{}

// DefectsOutput defines the output for archsim_defects tool.
type DefectsOutput struct {
	Defects []graph.Defect `json:"defects" jsonschema:"Nodes with at least one defect"`
	Total   uint64         `json:"total"`
}

// ResetInput defines the input for archsim_reset tool.
type ResetInput struct {
	Architecture string `json:"architecture,omitempty" jsonschema:"monolith, microservices or event-driven (default: current)"`
	Topology     string `json:"topology,omitempty" jsonschema:"Path to a YAML topology file inside the project root; overrides architecture"`
	Phase        string `json:"phase,omitempty" jsonschema:"Phase after reset: running (default) or paused"`
}

// ResetOutput defines the output for archsim_reset tool.
type ResetOutput struct {
	Architecture string  `json:"architecture"`
	Nodes        int     `json:"nodes"`
	Edges        int     `json:"edges"`
	Phase        string  `json:"phase"`
	Money        float64 `json:"money"`
	Reputation   float64 `json:"reputation"`
	Message      string  `json:"message"`
}

// ConnectInput defines the input for archsim_connect tool.
type ConnectInput struct {
	Source string  `json:"source" jsonschema:"Source node name"`
	Target string  `json:"target" jsonschema:"Target node name"`
	Spread float64 `json:"spread,omitempty" jsonschema:"Tech debt spread rate 0-1 (default: 0.1)"`
	Name   string  `json:"name,omitempty" jsonschema:"Edge label"`
}

// ConnectOutput defines the output for archsim_connect tool.
type ConnectOutput struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Spread  float64 `json:"spread"`
	Edges   int     `json:"edges" jsonschema:"Edge count after the connect"`
	Message string  `json:"message"`
}
