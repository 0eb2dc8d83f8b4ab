package simulation

import (
	"testing"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/models"
)

// Harness runs scenarios through the real Driver and Runner.
type Harness struct {
	t *testing.T
}

// NewHarness creates a harness with a sandboxed HOME directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &Harness{t: t}
}

// Run executes the scenario tick by tick and returns every snapshot.
func (h *Harness) Run(sc Scenario) SimulationResult {
	h.t.Helper()

	g := h.buildGraph(sc)
	res := DefaultResources()
	if sc.Resources != nil {
		res = *sc.Resources
	}

	phase := PhaseRunning
	if sc.Paused {
		phase = PhasePaused
	} else if sc.Phase != PhaseLoading {
		phase = sc.Phase
	}
	driver := NewDriver(WithPhase(phase))
	runner := NewRunner([]*graph.SystemGraph{g}, res, driver, nil)

	result := SimulationResult{
		Name:    sc.Name,
		Initial: snapshot(0, StepResult{}, runner.Resources(), g),
		Graph:   g,
	}

	for i := 1; i <= sc.Ticks; i++ {
		if sc.BeforeTick != nil {
			sc.BeforeTick(i, g, driver)
		}
		spread := sc.SpreadEvery > 0 && i%sc.SpreadEvery == 0
		step := runner.Step(sc.Delta, spread)
		result.Snapshots = append(result.Snapshots, snapshot(i, step, runner.Resources(), g))
	}

	result.Final = runner.Resources()
	return result
}

func (h *Harness) buildGraph(sc Scenario) *graph.SystemGraph {
	h.t.Helper()

	g := graph.New()
	if sc.Archetype != nil {
		g = archetype.Build(*sc.Archetype)
	}
	for _, ns := range sc.Nodes {
		if _, err := g.AddNodeUnique(ns.ToNode()); err != nil {
			h.t.Fatalf("scenario %s: AddNode(%s): %v", sc.Name, ns.Name, err)
		}
	}
	for _, es := range sc.Edges {
		if err := g.AddEdge(es.From, es.To, es.ToEdge()); err != nil {
			h.t.Fatalf("scenario %s: AddEdge(%s->%s): %v", sc.Name, es.From, es.To, err)
		}
	}
	return g
}

func snapshot(tick int, step StepResult, res Resources, g *graph.SystemGraph) Snapshot {
	nodes := make(map[string]models.Node, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes[n.Name] = n
	}
	return Snapshot{Tick: tick, Step: step, Resources: res, Nodes: nodes}
}

// Ptr returns a pointer to v, for optional scenario fields.
func Ptr[T any](v T) *T {
	return &v
}

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name string

	// Archetype, when non-nil, seeds the graph from the catalog before
	// Nodes and Edges are added.
	Archetype *archetype.ArchitectureType
	Nodes     []NodeSpec
	Edges     []EdgeSpec

	// Resources overrides DefaultResources.
	Resources *Resources
	Phase     Phase // zero value is PhaseLoading, so the harness treats it as running unless Paused is set
	Paused    bool

	Ticks       int
	Delta       float64
	SpreadEvery int // 0 = never run the discrete contagion step

	// BeforeTick, when non-nil, is called before each tick executes. Use it
	// to change the graph or the phase between ticks.
	BeforeTick func(tick int, g *graph.SystemGraph, d *Driver)
}

// NodeSpec is a flat builder for nodes in tests.
type NodeSpec struct {
	Name          string
	Health        float64 // 0 means 100
	TechDebt      float64
	Complexity    uint32
	ContagionRisk float64
	OperatingCost float64
	DefectRate    float64
	CriticalPath  bool
}

// ToNode converts a NodeSpec into a models.Node, applying defaults.
func (s NodeSpec) ToNode() models.Node {
	health := s.Health
	if health == 0 {
		health = 100
	}
	return models.Node{
		Name:          s.Name,
		NodeType:      "service",
		Health:        health,
		TechDebt:      s.TechDebt,
		Complexity:    s.Complexity,
		ContagionRisk: s.ContagionRisk,
		OperatingCost: s.OperatingCost,
		DefectRate:    s.DefectRate,
		CriticalPath:  s.CriticalPath,
		Latency:       models.Normal(10, 1),
		FailureRate:   models.LogNormal(-4, 0.3),
	}
}

// EdgeSpec defines an edge between two named nodes.
type EdgeSpec struct {
	From   string
	To     string
	Spread float64
}

// ToEdge converts an EdgeSpec to a models.Edge.
func (e EdgeSpec) ToEdge() models.Edge {
	return models.Edge{
		Name:           e.From + "->" + e.To,
		Reliability:    0.999,
		Bandwidth:      1000,
		TechDebtSpread: e.Spread,
		Latency:        models.Normal(10, 2),
		FailureRate:    models.LogNormal(-5, 0.2),
	}
}

// Snapshot captures the state after one tick.
type Snapshot struct {
	Tick      int
	Step      StepResult
	Resources Resources
	Nodes     map[string]models.Node
}

// SimulationResult captures every tick and the final state.
type SimulationResult struct {
	Name      string
	Initial   Snapshot
	Snapshots []Snapshot
	Graph     *graph.SystemGraph
	Final     Resources
}

// Last returns the final snapshot, or the initial one if no tick ran.
func (r SimulationResult) Last() Snapshot {
	if len(r.Snapshots) == 0 {
		return r.Initial
	}
	return r.Snapshots[len(r.Snapshots)-1]
}
