// Package simulation advances system graphs through simulated time.
//
// The Driver applies one tick of health decay, operating cost, reputation
// penalties and continuous debt spread to every graph, and on request a
// discrete contagion step and defect generation. The Runner wraps a Driver
// for headless runs and records them to a store.HistoryStore.
//
// The package tests carry a scenario harness (harness_test.go). Scenarios are
// Go builders that construct a graph, run it tick by tick through the real
// Driver and capture per-tick snapshots for property assertions:
//
//	func TestDebtCascade(t *testing.T) {
//	    h := NewHarness(t)
//	    result := h.Run(Scenario{
//	        Name:  "cascade",
//	        Nodes: []NodeSpec{...},
//	        Edges: []EdgeSpec{...},
//	        Ticks: 60,
//	        Delta: 1.0 / 60,
//	    })
//	    AssertBounded(t, result)
//	}
package simulation
