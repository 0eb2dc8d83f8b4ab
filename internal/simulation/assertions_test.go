package simulation

import (
	"math"
	"testing"
)

// AssertBounded asserts that every node's health and tech debt stay within
// [0, 100], money stays non-negative and reputation within [0, 100] in every
// snapshot.
func AssertBounded(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, s := range result.Snapshots {
		if s.Resources.Money < 0 || math.IsNaN(s.Resources.Money) {
			t.Errorf("AssertBounded: tick %d: money %.4f < 0", s.Tick, s.Resources.Money)
		}
		if s.Resources.Reputation < 0 || s.Resources.Reputation > 100 || math.IsNaN(s.Resources.Reputation) {
			t.Errorf("AssertBounded: tick %d: reputation %.4f not in [0, 100]", s.Tick, s.Resources.Reputation)
		}
		for name, n := range s.Nodes {
			if n.Health < 0 || n.Health > 100 || math.IsNaN(n.Health) {
				t.Errorf("AssertBounded: tick %d: node %s health %.4f not in [0, 100]", s.Tick, name, n.Health)
			}
			if n.TechDebt < 0 || n.TechDebt > 100 || math.IsNaN(n.TechDebt) {
				t.Errorf("AssertBounded: tick %d: node %s tech debt %.4f not in [0, 100]", s.Tick, name, n.TechDebt)
			}
		}
	}
}

// AssertMoneyNonIncreasing asserts that money never goes up between ticks.
func AssertMoneyNonIncreasing(t *testing.T, result SimulationResult) {
	t.Helper()
	prev := result.Initial.Resources.Money
	for _, s := range result.Snapshots {
		if s.Resources.Money > prev {
			t.Errorf("AssertMoneyNonIncreasing: tick %d: money rose %.4f -> %.4f", s.Tick, prev, s.Resources.Money)
		}
		prev = s.Resources.Money
	}
}

// AssertDebtNonDecreasing asserts that a node's tech debt never falls.
func AssertDebtNonDecreasing(t *testing.T, result SimulationResult, node string) {
	t.Helper()
	prev, ok := result.Initial.Nodes[node]
	if !ok {
		t.Fatalf("AssertDebtNonDecreasing: node %s not in scenario", node)
	}
	for _, s := range result.Snapshots {
		n := s.Nodes[node]
		if n.TechDebt < prev.TechDebt {
			t.Errorf("AssertDebtNonDecreasing: tick %d: node %s debt fell %.4f -> %.4f", s.Tick, node, prev.TechDebt, n.TechDebt)
		}
		prev = n
	}
}

// AssertHealthNonIncreasing asserts that a node's health never rises.
func AssertHealthNonIncreasing(t *testing.T, result SimulationResult, node string) {
	t.Helper()
	prev, ok := result.Initial.Nodes[node]
	if !ok {
		t.Fatalf("AssertHealthNonIncreasing: node %s not in scenario", node)
	}
	for _, s := range result.Snapshots {
		n := s.Nodes[node]
		if n.Health > prev.Health {
			t.Errorf("AssertHealthNonIncreasing: tick %d: node %s health rose %.4f -> %.4f", s.Tick, node, prev.Health, n.Health)
		}
		prev = n
	}
}

// AssertNodeDebt asserts a node's tech debt after the final tick, within tol.
func AssertNodeDebt(t *testing.T, result SimulationResult, node string, want, tol float64) {
	t.Helper()
	n, ok := result.Last().Nodes[node]
	if !ok {
		t.Fatalf("AssertNodeDebt: node %s not in scenario", node)
	}
	if math.Abs(n.TechDebt-want) > tol {
		t.Errorf("AssertNodeDebt: node %s debt %.6f, want %.6f ± %g", node, n.TechDebt, want, tol)
	}
}

// AssertNodeHealth asserts a node's health after the final tick, within tol.
func AssertNodeHealth(t *testing.T, result SimulationResult, node string, want, tol float64) {
	t.Helper()
	n, ok := result.Last().Nodes[node]
	if !ok {
		t.Fatalf("AssertNodeHealth: node %s not in scenario", node)
	}
	if math.Abs(n.Health-want) > tol {
		t.Errorf("AssertNodeHealth: node %s health %.6f, want %.6f ± %g", node, n.Health, want, tol)
	}
}

// AssertUnchanged asserts that nothing moved: every snapshot equals the
// initial state.
func AssertUnchanged(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, s := range result.Snapshots {
		if s.Resources != result.Initial.Resources {
			t.Errorf("AssertUnchanged: tick %d: resources %+v, want %+v", s.Tick, s.Resources, result.Initial.Resources)
		}
		for name, n := range s.Nodes {
			init := result.Initial.Nodes[name]
			if n.Health != init.Health || n.TechDebt != init.TechDebt {
				t.Errorf("AssertUnchanged: tick %d: node %s moved (health %.4f -> %.4f, debt %.4f -> %.4f)",
					s.Tick, name, init.Health, n.Health, init.TechDebt, n.TechDebt)
			}
		}
	}
}
