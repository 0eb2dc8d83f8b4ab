package main

import (
	"fmt"

	"github.com/nvandessel/archsim/internal/graph"
	"github.com/spf13/cobra"
)

type spreadStep struct {
	Step    int                `json:"step"`
	Changes []graph.DebtChange `json:"changes"`
}

type spreadOutput struct {
	Name    string        `json:"name"`
	Steps   []spreadStep  `json:"steps"`
	Summary graph.Summary `json:"summary"`
}

func newSpreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spread",
		Short: "Run discrete tech debt contagion steps",
		Long: `Run one or more discrete contagion steps and show which nodes changed.

Each step moves debt along every edge:
  source.debt * edge.spread * target.risk * (1 + source.complexity/10)
computed from a snapshot, capped at 100. Health and money are untouched.

Examples:
  archsim spread
  archsim spread -a event-driven --steps 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("steps must be at least 1, got %d", steps)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sys, err := loadSystem(cmd, cfg)
			if err != nil {
				return err
			}

			out := spreadOutput{Name: sys.name, Steps: make([]spreadStep, 0, steps)}
			for i := 1; i <= steps; i++ {
				changes := sys.graph.SimulateTechDebtSpread()
				if changes == nil {
					changes = []graph.DebtChange{}
				}
				out.Steps = append(out.Steps, spreadStep{Step: i, Changes: changes})
			}
			out.Summary = sys.graph.Summarize()

			if jsonOut {
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s: %d contagion steps", out.Name, steps)))
			cols := []column{
				{header: "STEP", width: 5, right: true},
				{header: "NODE", width: 20},
				{header: "BEFORE", width: 8, right: true},
				{header: "AFTER", width: 8, right: true},
			}
			var rows [][]string
			for _, st := range out.Steps {
				for _, c := range st.Changes {
					rows = append(rows, []string{
						fmt.Sprintf("%d", st.Step),
						c.Node,
						fmt.Sprintf("%.2f", c.Before),
						fmt.Sprintf("%.2f", c.After),
					})
				}
			}
			if len(rows) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("No debt moved."))
			} else {
				fmt.Fprint(w, renderTable(cols, rows, nil))
			}
			renderSummary(w, out.Summary)
			return nil
		},
	}

	addSystemFlags(cmd)
	cmd.Flags().Int("steps", 1, "Number of contagion steps")

	return cmd
}
