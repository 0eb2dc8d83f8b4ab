package main

import (
	"fmt"

	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/models"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/spf13/cobra"
)

type statusOutput struct {
	Name      string               `json:"name"`
	Source    string               `json:"source"`
	Ticks     int                  `json:"ticks"`
	Resources simulation.Resources `json:"resources"`
	Summary   graph.Summary        `json:"summary"`
	Nodes     []models.Node        `json:"nodes"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a system",
		Long: `Show every node of a system together with the global economy.

With --ticks N the system is advanced N ticks first, without discrete
contagion, so you can see where it is heading.

Examples:
  archsim status
  archsim status -a event-driven --ticks 600
  archsim status --topology topologies/shop.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ticks, _ := cmd.Flags().GetInt("ticks")
			if ticks < 0 {
				return fmt.Errorf("ticks must be non-negative, got %d", ticks)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sys, err := loadSystem(cmd, cfg)
			if err != nil {
				return err
			}
			driver := simulation.NewDriver(simulation.WithLogger(newLogger(cmd, cfg)))
			advance(sys, driver, ticks, cfg.Simulation.Delta)

			out := statusOutput{
				Name:      sys.name,
				Source:    sys.source,
				Ticks:     ticks,
				Resources: sys.resources,
				Summary:   sys.graph.Summarize(),
				Nodes:     sys.graph.Nodes(),
			}
			if jsonOut {
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s after %d ticks", out.Name, ticks)))
			fmt.Fprintln(w)
			renderNodes(w, sys.graph)
			fmt.Fprintln(w)
			renderSummary(w, out.Summary)
			renderEconomy(w, out.Resources)
			return nil
		},
	}

	addSystemFlags(cmd)
	cmd.Flags().Int("ticks", 0, "Advance this many ticks before reporting")

	return cmd
}
