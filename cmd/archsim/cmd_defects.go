package main

import (
	"fmt"

	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/spf13/cobra"
)

type defectsOutput struct {
	Name    string         `json:"name"`
	Ticks   int            `json:"ticks"`
	Defects []graph.Defect `json:"defects"`
	Total   uint64         `json:"total"`
}

func newDefectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defects",
		Short: "Show the defects each node produces per tick",
		Long: `Show how many defects each node produces in one tick.

A node's count is floor(defect_rate * (1 + debt/100)^2 * (1 + complexity/10)).
Nodes with zero defects are omitted.

Examples:
  archsim defects
  archsim defects -a microservices --ticks 600 --spread-every 60`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ticks, _ := cmd.Flags().GetInt("ticks")
			spreadEvery, _ := cmd.Flags().GetInt("spread-every")
			if ticks < 0 || spreadEvery < 0 {
				return fmt.Errorf("ticks and spread-every must be non-negative")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sys, err := loadSystem(cmd, cfg)
			if err != nil {
				return err
			}

			runner := simulation.NewRunner(sys.graphs(), sys.resources, nil, newLogger(cmd, cfg))
			for i := 1; i <= ticks; i++ {
				runner.Step(cfg.Simulation.Delta, spreadEvery > 0 && i%spreadEvery == 0)
			}

			defects := sys.graph.GenerateDefects()
			out := defectsOutput{
				Name:    sys.name,
				Ticks:   ticks,
				Defects: defects,
				Total:   graph.TotalDefects(defects),
			}
			if out.Defects == nil {
				out.Defects = []graph.Defect{}
			}
			if jsonOut {
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s defects after %d ticks", out.Name, ticks)))
			if len(defects) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("No defects."))
				return nil
			}
			cols := []column{
				{header: "NODE", width: 20},
				{header: "DEFECTS", width: 8, right: true},
			}
			rows := make([][]string, len(defects))
			for i, d := range defects {
				rows[i] = []string{d.Node, fmt.Sprintf("%d", d.Count)}
			}
			fmt.Fprint(w, renderTable(cols, rows, nil))
			fmt.Fprintf(w, "total: %d\n", out.Total)
			return nil
		},
	}

	addSystemFlags(cmd)
	cmd.Flags().Int("ticks", 0, "Advance this many ticks first")
	cmd.Flags().Int("spread-every", 0, "Discrete contagion step every N ticks while advancing")

	return cmd
}
