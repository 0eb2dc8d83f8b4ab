// Package visualization renders system graphs in various output formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/graph"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat accepts "dot" or "json".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatDOT:
		return FormatDOT, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: dot, json)", s)
}

// healthBands maps a minimum health to a fill color, checked in order.
var healthBands = []struct {
	min   float64
	color string
}{
	{75, "mediumseagreen"},
	{constants.ReputationThreshold, "goldenrod"},
	{25, "darkorange"},
	{0, "tomato"},
}

// HealthColor returns the fill color for a health value.
func HealthColor(health float64) string {
	for _, b := range healthBands {
		if health >= b.min {
			return b.color
		}
	}
	return "tomato"
}

// RenderDOT produces a Graphviz DOT representation of g. Nodes are filled by
// health, critical-path nodes get a bold border and edge width follows the
// tech debt spread factor.
func RenderDOT(name string, g *graph.SystemGraph) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("digraph %q {\n", name))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	for _, n := range g.Nodes() {
		style := "filled"
		if n.CriticalPath {
			style = "\"filled,bold\""
		}
		label := fmt.Sprintf("%s\\nhealth %.0f | debt %.0f", strings.ReplaceAll(truncate(n.Name, 40), `"`, `\"`), n.Health, n.TechDebt)
		b.WriteString(fmt.Sprintf("  %q [label=\"%s\", fillcolor=%q, style=%s, tooltip=\"complexity=%d cost=%.1f\"];\n",
			n.Name, label, HealthColor(n.Health), style, n.Complexity, n.OperatingCost))
	}
	b.WriteString("\n")

	for _, a := range g.Arcs() {
		b.WriteString(fmt.Sprintf("  %q -> %q [label=%q, penwidth=\"%.1f\", tooltip=\"spread=%.2f reliability=%.2f\"];\n",
			g.Name(a.From), g.Name(a.To), a.Edge.Name, 1+a.Edge.TechDebtSpread*4,
			a.Edge.TechDebtSpread, a.Edge.Reliability))
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON graph representation with nodes and edges arrays.
func RenderJSON(name string, g *graph.SystemGraph) map[string]interface{} {
	nodes := g.Nodes()
	jsonNodes := make([]map[string]interface{}, 0, len(nodes))
	for _, n := range nodes {
		jsonNodes = append(jsonNodes, map[string]interface{}{
			"id":            n.Name,
			"type":          n.NodeType,
			"health":        n.Health,
			"tech_debt":     n.TechDebt,
			"complexity":    n.Complexity,
			"critical_path": n.CriticalPath,
			"color":         HealthColor(n.Health),
		})
	}

	arcs := g.Arcs()
	jsonEdges := make([]map[string]interface{}, 0, len(arcs))
	for _, a := range arcs {
		jsonEdges = append(jsonEdges, map[string]interface{}{
			"source":           g.Name(a.From),
			"target":           g.Name(a.To),
			"name":             a.Edge.Name,
			"tech_debt_spread": a.Edge.TechDebtSpread,
			"reliability":      a.Edge.Reliability,
		})
	}

	return map[string]interface{}{
		"name":       name,
		"nodes":      jsonNodes,
		"edges":      jsonEdges,
		"node_count": len(jsonNodes),
		"edge_count": len(jsonEdges),
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
