package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/simulation"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	degradedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)
)

// column is one table column: header, width, and whether values right-align.
type column struct {
	header string
	width  int
	right  bool
}

// renderTable renders rows under styled headers. Cells in highlight rows
// are drawn with degradedStyle.
func renderTable(cols []column, rows [][]string, highlight map[int]bool) string {
	cell := func(c column) lipgloss.Style {
		st := lipgloss.NewStyle().Width(c.width).PaddingRight(1)
		if c.right {
			st = st.Align(lipgloss.Right)
		}
		return st
	}

	var b strings.Builder
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = headerStyle.Inherit(cell(c)).Render(c.header)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")

	for ri, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			var v string
			if i < len(row) {
				v = row[i]
			}
			st := cell(c)
			if highlight[ri] {
				st = st.Inherit(degradedStyle)
			}
			cells[i] = st.Render(v)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

// renderNodes prints every node of g. Critical nodes below the reputation
// threshold are highlighted.
func renderNodes(w io.Writer, g *graph.SystemGraph) {
	cols := []column{
		{header: "NODE", width: 20},
		{header: "TYPE", width: 16},
		{header: "HEALTH", width: 8, right: true},
		{header: "DEBT", width: 8, right: true},
		{header: "CX", width: 5, right: true},
		{header: "COST", width: 8, right: true},
		{header: "CRITICAL", width: 9},
	}

	nodes := g.Nodes()
	rows := make([][]string, len(nodes))
	highlight := make(map[int]bool)
	for i, n := range nodes {
		critical := ""
		if n.CriticalPath {
			critical = "yes"
		}
		rows[i] = []string{
			n.Name,
			n.NodeType,
			fmt.Sprintf("%.1f", n.Health),
			fmt.Sprintf("%.1f", n.TechDebt),
			fmt.Sprintf("%d", n.Complexity),
			fmt.Sprintf("%.1f", n.OperatingCost),
			critical,
		}
		if n.Degraded(constants.ReputationThreshold) {
			highlight[i] = true
		}
	}
	fmt.Fprint(w, renderTable(cols, rows, highlight))
}

// renderEconomy prints the global resources in a box.
func renderEconomy(w io.Writer, res simulation.Resources) {
	body := fmt.Sprintf("money       %10.2f\nreputation  %10.2f\narchitecture %s",
		res.Money, res.Reputation, res.Architecture)
	fmt.Fprintln(w, boxStyle.Render(body))
}

// renderSummary prints a one-line graph digest.
func renderSummary(w io.Writer, s graph.Summary) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(
		"%d nodes, %d edges, complexity %d, avg debt %.1f, avg health %.1f, %d/%d critical degraded",
		s.Nodes, s.Edges, s.TotalComplexity, s.AverageTechDebt, s.AverageHealth,
		s.DegradedCritical, s.CriticalNodes)))
}
