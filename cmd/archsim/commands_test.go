package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/archsim/internal/store"
	"github.com/nvandessel/archsim/internal/topology"
)

func TestArchetypesCmd_JSON(t *testing.T) {
	out, err := execute(t, newArchetypesCmd(), "archetypes", "--json")
	if err != nil {
		t.Fatalf("archetypes failed: %v", err)
	}
	var got struct {
		Archetypes []archetypeInfo `json:"archetypes"`
	}
	decode(t, out, &got)

	want := []struct {
		slug  string
		edges int
		cx    uint64
	}{
		{"monolith", 2, 23},
		{"microservices", 3, 21},
		{"event-driven", 2, 23},
	}
	if len(got.Archetypes) != len(want) {
		t.Fatalf("got %d archetypes, want %d", len(got.Archetypes), len(want))
	}
	for i, w := range want {
		a := got.Archetypes[i]
		if a.Slug != w.slug {
			t.Errorf("[%d] slug = %q, want %q", i, a.Slug, w.slug)
		}
		if a.Summary.Nodes != 3 {
			t.Errorf("%s nodes = %d, want 3", a.Slug, a.Summary.Nodes)
		}
		if a.Summary.Edges != w.edges {
			t.Errorf("%s edges = %d, want %d", a.Slug, a.Summary.Edges, w.edges)
		}
		if a.Summary.TotalComplexity != w.cx {
			t.Errorf("%s complexity = %d, want %d", a.Slug, a.Summary.TotalComplexity, w.cx)
		}
	}
}

func TestArchetypesCmd_Table(t *testing.T) {
	out, err := execute(t, newArchetypesCmd(), "archetypes")
	if err != nil {
		t.Fatalf("archetypes failed: %v", err)
	}
	for _, slug := range []string{"monolith", "microservices", "event-driven"} {
		if !strings.Contains(out, slug) {
			t.Errorf("output missing %s:\n%s", slug, out)
		}
	}
}

func TestArchetypesCmd_Export(t *testing.T) {
	out, err := execute(t, newArchetypesCmd(), "archetypes", "--export", "event-driven")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	doc, err := topology.Parse([]byte(out))
	if err != nil {
		t.Fatalf("exported topology does not parse: %v\n%s", err, out)
	}
	if doc.Architecture != "event-driven" {
		t.Errorf("Architecture = %q, want event-driven", doc.Architecture)
	}
	g, err := doc.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("graph = %d nodes %d edges, want 3/2", g.NodeCount(), g.EdgeCount())
	}

	if _, err := execute(t, newArchetypesCmd(), "archetypes", "--export", "mainframe"); err == nil {
		t.Error("expected error exporting unknown archetype")
	}
}

func TestRunCmd_NoHistory(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newRunCmd(), "run", "--root", tmpDir, "--ticks", "60", "--history=false", "--seed", "7", "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var got runOutput
	decode(t, out, &got)

	if got.Result.Ticks != 60 {
		t.Errorf("Ticks = %d, want 60", got.Result.Ticks)
	}
	if got.Result.RunID != "" {
		t.Errorf("RunID = %q, want empty without history", got.Result.RunID)
	}
	if got.Seed != 7 {
		t.Errorf("Seed = %d, want 7", got.Seed)
	}
	if got.Result.Final.Money >= 10000 {
		t.Errorf("money = %v, want below starting 10000", got.Result.Final.Money)
	}
	if len(got.Performance) != 3 {
		t.Errorf("Performance has %d samples, want 3", len(got.Performance))
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".archsim", store.HistoryFile)); !os.IsNotExist(err) {
		t.Errorf("history database created with --history=false: %v", err)
	}
}

func TestRunCmd_SeedIsReproducible(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	run := func() runOutput {
		out, err := execute(t, newRunCmd(), "run", "--root", tmpDir, "--ticks", "1", "--history=false", "--seed", "42", "--json")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		var got runOutput
		decode(t, out, &got)
		return got
	}
	a, b := run(), run()
	for i := range a.Performance {
		if a.Performance[i] != b.Performance[i] {
			t.Errorf("sample %d differs: %+v vs %+v", i, a.Performance[i], b.Performance[i])
		}
	}
}

func TestRunCmd_RecordsHistory(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newRunCmd(), "run", "--root", tmpDir, "-a", "microservices",
		"--ticks", "20", "--sample-every", "5", "--spread-every", "10", "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var run runOutput
	decode(t, out, &run)
	if run.Result.RunID == "" {
		t.Fatal("expected a run ID with history enabled")
	}
	if run.Result.ContagionSteps != 2 {
		t.Errorf("ContagionSteps = %d, want 2", run.Result.ContagionSteps)
	}

	out, err = execute(t, newHistoryCmd(), "history", "list", "--root", tmpDir, "--json")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	var list struct {
		Runs  []store.RunInfo `json:"runs"`
		Count int             `json:"count"`
	}
	decode(t, out, &list)
	if list.Count != 1 || list.Runs[0].ID != run.Result.RunID {
		t.Fatalf("history list = %+v, want the one run", list)
	}
	if list.Runs[0].Status != store.StatusCompleted {
		t.Errorf("Status = %q, want completed", list.Runs[0].Status)
	}
	if list.Runs[0].Architecture != "microservices" {
		t.Errorf("Architecture = %q", list.Runs[0].Architecture)
	}

	out, err = execute(t, newHistoryCmd(), "history", "show", run.Result.RunID, "--root", tmpDir, "--json")
	if err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	var show struct {
		Run     store.RunInfo  `json:"run"`
		Samples []store.Sample `json:"samples"`
	}
	decode(t, out, &show)
	if len(show.Samples) != 4 {
		t.Fatalf("got %d samples, want 4", len(show.Samples))
	}
	if show.Samples[3].Tick != 20 {
		t.Errorf("last sample tick = %d, want 20", show.Samples[3].Tick)
	}
	if math.Abs(show.Samples[3].Money-run.Result.Final.Money) > 1e-9 {
		t.Errorf("last sample money = %v, want %v", show.Samples[3].Money, run.Result.Final.Money)
	}

	out, err = execute(t, newHistoryCmd(), "history", "show", run.Result.RunID, "--root", tmpDir)
	if err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	if !strings.Contains(out, "microservices") {
		t.Errorf("show output missing architecture:\n%s", out)
	}
}

func TestHistoryCmd_Empty(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newHistoryCmd(), "history", "list", "--root", tmpDir)
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, newHistoryCmd(), "history", "show", "missing", "--root", tmpDir); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestRunCmd_InvalidFlags(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	tests := []struct {
		name string
		args []string
	}{
		{"negative ticks", []string{"run", "--ticks", "-1"}},
		{"negative delta", []string{"run", "--delta", "-0.5"}},
		{"negative spread", []string{"run", "--spread-every", "-3"}},
		{"bad architecture", []string{"run", "-a", "serverless"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--root", tmpDir, "--history=false")
			if _, err := execute(t, newRunCmd(), args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStatusCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newStatusCmd(), "status", "--json")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var fresh statusOutput
	decode(t, out, &fresh)
	if fresh.Resources.Money != 10000 || fresh.Resources.Reputation != 50 {
		t.Errorf("resources = %+v, want 10000/50", fresh.Resources)
	}
	if fresh.Summary.AverageHealth != 100 {
		t.Errorf("AverageHealth = %v, want 100", fresh.Summary.AverageHealth)
	}

	out, err = execute(t, newStatusCmd(), "status", "--ticks", "60", "--json")
	if err != nil {
		t.Fatalf("status --ticks failed: %v", err)
	}
	var later statusOutput
	decode(t, out, &later)
	if later.Ticks != 60 {
		t.Errorf("Ticks = %d, want 60", later.Ticks)
	}
	if later.Resources.Money >= fresh.Resources.Money {
		t.Errorf("money did not drop: %v", later.Resources.Money)
	}
	if later.Summary.AverageHealth >= 100 {
		t.Errorf("health did not decay: %v", later.Summary.AverageHealth)
	}

	out, err = execute(t, newStatusCmd(), "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, name := range []string{"core_service", "database", "cache"} {
		if !strings.Contains(out, name) {
			t.Errorf("table missing %s", name)
		}
	}
}

func TestDefectsCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newDefectsCmd(), "defects", "--json")
	if err != nil {
		t.Fatalf("defects failed: %v", err)
	}
	var got defectsOutput
	decode(t, out, &got)
	if got.Total != 0 || len(got.Defects) != 0 {
		t.Errorf("fresh monolith defects = %+v, want none", got)
	}

	out, err = execute(t, newDefectsCmd(), "defects")
	if err != nil {
		t.Fatalf("defects failed: %v", err)
	}
	if !strings.Contains(out, "No defects.") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, newDefectsCmd(), "defects", "--ticks", "-1"); err == nil {
		t.Error("expected error for negative ticks")
	}
}

func TestSpreadCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newSpreadCmd(), "spread", "--json")
	if err != nil {
		t.Fatalf("spread failed: %v", err)
	}
	var got spreadOutput
	decode(t, out, &got)
	if len(got.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(got.Steps))
	}
	changes := got.Steps[0].Changes
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	// database: 20 + 30*0.3*0.3*(1+15/10)
	if changes[0].Node != "database" || math.Abs(changes[0].After-26.75) > 1e-9 {
		t.Errorf("changes[0] = %+v, want database -> 26.75", changes[0])
	}
	// cache: 10 + 30*0.1*0.2*(1+15/10)
	if changes[1].Node != "cache" || math.Abs(changes[1].After-11.5) > 1e-9 {
		t.Errorf("changes[1] = %+v, want cache -> 11.5", changes[1])
	}

	out, err = execute(t, newSpreadCmd(), "spread", "--steps", "3", "--json")
	if err != nil {
		t.Fatalf("spread --steps failed: %v", err)
	}
	decode(t, out, &got)
	if len(got.Steps) != 3 {
		t.Errorf("got %d steps, want 3", len(got.Steps))
	}

	if _, err := execute(t, newSpreadCmd(), "spread", "--steps", "0"); err == nil {
		t.Error("expected error for zero steps")
	}
}

func TestCompareCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newCompareCmd(), "compare", "--root", tmpDir, "--ticks", "120", "--json")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	var got struct {
		Comparisons []comparison `json:"comparisons"`
	}
	decode(t, out, &got)

	want := []string{"monolith", "microservices", "event-driven"}
	if len(got.Comparisons) != len(want) {
		t.Fatalf("got %d comparisons, want %d", len(got.Comparisons), len(want))
	}
	for i, slug := range want {
		c := got.Comparisons[i]
		if c.Architecture != slug {
			t.Errorf("[%d] = %q, want %q", i, c.Architecture, slug)
		}
		if c.Result.Ticks != 120 {
			t.Errorf("%s ticks = %d, want 120", slug, c.Result.Ticks)
		}
		if c.Result.RunID != "" {
			t.Errorf("%s recorded without --history", slug)
		}
	}
}

func TestCompareCmd_History(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	if _, err := execute(t, newCompareCmd(), "compare", "--root", tmpDir, "--ticks", "10", "--history"); err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	out, err := execute(t, newHistoryCmd(), "history", "list", "--root", tmpDir, "--json")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	var list struct {
		Count int `json:"count"`
	}
	decode(t, out, &list)
	if list.Count != 3 {
		t.Errorf("recorded %d runs, want 3", list.Count)
	}
}

func TestConfigCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newConfigCmd(), "config", "get", "simulation.ticks")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "simulation.ticks = 600" {
		t.Errorf("output = %q", out)
	}

	t.Setenv("ARCHSIM_TICKS", "60")
	out, err = execute(t, newConfigCmd(), "config", "get", "simulation.ticks", "--json")
	if err != nil {
		t.Fatalf("config get --json failed: %v", err)
	}
	var got map[string]any
	decode(t, out, &got)
	if got["value"] != "60" {
		t.Errorf("value = %v, want 60 from env", got["value"])
	}

	out, err = execute(t, newConfigCmd(), "config", "get", "nope.nothing")
	if err != nil {
		t.Fatalf("config get unknown failed: %v", err)
	}
	if !strings.Contains(out, "Unknown configuration key") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, newConfigCmd(), "config", "list")
	if err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	for _, key := range []string{"simulation.architecture:", "economy.starting_money:", "mcp.burst:"} {
		if !strings.Contains(out, key) {
			t.Errorf("list missing %s", key)
		}
	}
}

func TestMetricsCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newMetricsCmd(), "metrics", "--ticks", "10")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	for _, name := range []string{
		"archsim_money",
		"archsim_reputation",
		"archsim_ticks_total 10",
		`archsim_node_health{graph="0",node="core_service"}`,
	} {
		if !strings.Contains(out, name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}

func TestValueOrDefault(t *testing.T) {
	if got := valueOrDefault("", "(not set)"); got != "(not set)" {
		t.Errorf("valueOrDefault empty = %q", got)
	}
	if got := valueOrDefault("x", "(not set)"); got != "x" {
		t.Errorf("valueOrDefault = %q", got)
	}
}

func TestGraphCmd(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newGraphCmd(), "graph")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if !strings.Contains(out, `digraph "monolith"`) || !strings.Contains(out, `"core_service" -> "database"`) {
		t.Errorf("unexpected DOT:\n%s", out)
	}

	outPath := filepath.Join(tmpDir, "g.dot")
	if _, err := execute(t, newGraphCmd(), "graph", "-a", "event-driven", "-o", outPath); err != nil {
		t.Fatalf("graph -o failed: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"producer_service" -> "event_bus"`) {
		t.Errorf("unexpected DOT file:\n%s", data)
	}

	out, err = execute(t, newGraphCmd(), "graph", "--format", "json")
	if err != nil {
		t.Fatalf("graph --format json failed: %v", err)
	}
	var got map[string]any
	decode(t, out, &got)
	if got["edge_count"] != float64(2) {
		t.Errorf("edge_count = %v, want 2", got["edge_count"])
	}

	if _, err := execute(t, newGraphCmd(), "graph", "--format", "svg"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
