package simulation

import (
	"testing"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/graph"
)

func TestScenario_DebtCascade(t *testing.T) {
	h := NewHarness(t)
	result := h.Run(Scenario{
		Name: "cascade",
		Nodes: []NodeSpec{
			{Name: "legacy", TechDebt: 90, Complexity: 12, ContagionRisk: 0.6, OperatingCost: 200, CriticalPath: true},
			{Name: "api", TechDebt: 5, Complexity: 4, ContagionRisk: 0.4, OperatingCost: 80},
			{Name: "worker", Complexity: 2, ContagionRisk: 0.3, OperatingCost: 40},
		},
		Edges: []EdgeSpec{
			{From: "legacy", To: "api", Spread: 0.2},
			{From: "api", To: "worker", Spread: 0.1},
		},
		Ticks:       120,
		Delta:       1.0 / 60,
		SpreadEvery: 30,
	})

	AssertBounded(t, result)
	AssertMoneyNonIncreasing(t, result)
	AssertDebtNonDecreasing(t, result, "api")
	AssertDebtNonDecreasing(t, result, "worker")
	AssertHealthNonIncreasing(t, result, "legacy")

	if got := result.Last().Nodes["worker"].TechDebt; got == 0 {
		t.Error("debt never reached worker through api")
	}
	var contagion int
	for _, s := range result.Snapshots {
		if s.Step.Contagion != nil {
			contagion++
		}
	}
	if contagion != 4 {
		t.Errorf("contagion steps = %d, want 4", contagion)
	}
}

func TestScenario_SingleTick(t *testing.T) {
	h := NewHarness(t)
	result := h.Run(Scenario{
		Name: "single tick",
		Nodes: []NodeSpec{
			{Name: "A", TechDebt: 50, OperatingCost: 100, CriticalPath: true},
			{Name: "B", OperatingCost: 50},
		},
		Edges: []EdgeSpec{{From: "A", To: "B", Spread: 0.1}},
		Ticks: 1,
		Delta: 1,
	})

	AssertNodeHealth(t, result, "A", 95, 1e-9)
	AssertNodeDebt(t, result, "B", 5, 1e-9)
	if got := result.Initial.Resources.Money - result.Final.Money; got != 200 {
		t.Errorf("money spent = %v, want 200", got)
	}
}

func TestScenario_PausedIsFrozen(t *testing.T) {
	h := NewHarness(t)
	result := h.Run(Scenario{
		Name:      "paused",
		Archetype: Ptr(archetype.Microservices),
		Paused:    true,
		Ticks:     50,
		Delta:     1,
	})
	AssertUnchanged(t, result)
}

func TestScenario_PauseMidRun(t *testing.T) {
	h := NewHarness(t)
	var pausedMoney float64
	result := h.Run(Scenario{
		Name:      "pause at 10",
		Archetype: Ptr(archetype.Monolith),
		Ticks:     20,
		Delta:     1,
		BeforeTick: func(tick int, g *graph.SystemGraph, d *Driver) {
			if tick == 11 {
				d.SetPhase(PhasePaused)
			}
		},
	})
	pausedMoney = result.Snapshots[9].Resources.Money
	for _, s := range result.Snapshots[10:] {
		if !s.Step.Tick.Skipped {
			t.Errorf("tick %d ran while paused", s.Tick)
		}
		if s.Resources.Money != pausedMoney {
			t.Errorf("tick %d: money moved while paused", s.Tick)
		}
	}
}

func TestScenario_ArchetypesBurnDown(t *testing.T) {
	for _, a := range archetype.All() {
		t.Run(a.Slug(), func(t *testing.T) {
			h := NewHarness(t)
			result := h.Run(Scenario{
				Name:        a.Slug(),
				Archetype:   Ptr(a),
				Ticks:       600,
				Delta:       1.0 / 60,
				SpreadEvery: 60,
			})
			AssertBounded(t, result)
			AssertMoneyNonIncreasing(t, result)
			if result.Final.Money >= result.Initial.Resources.Money {
				t.Errorf("money did not decrease: %v", result.Final.Money)
			}
		})
	}
}

func TestScenario_BankruptcyClamps(t *testing.T) {
	h := NewHarness(t)
	result := h.Run(Scenario{
		Name:      "bankrupt",
		Nodes:     []NodeSpec{{Name: "furnace", TechDebt: 100, OperatingCost: 5000, CriticalPath: true, Health: 10}},
		Resources: &Resources{Money: 1000, Reputation: 5},
		Ticks:     5,
		Delta:     1,
	})
	AssertBounded(t, result)
	if result.Final.Money != 0 || result.Final.Reputation != 0 {
		t.Errorf("final = %+v, want money 0 reputation 0", result.Final)
	}
}
