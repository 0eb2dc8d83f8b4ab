package main

import (
	"fmt"
	"os"

	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/nvandessel/archsim/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render a system graph as DOT or JSON",
		Long: `Render the system graph. Nodes are colored by health and critical-path
nodes are drawn bold; edge width follows the tech debt spread factor.

Examples:
  archsim graph | dot -Tsvg > monolith.svg
  archsim graph -a microservices --ticks 1200 -o micro.dot
  archsim graph --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			ticks, _ := cmd.Flags().GetInt("ticks")
			if ticks < 0 {
				return fmt.Errorf("ticks must be non-negative, got %d", ticks)
			}

			format, err := visualization.ParseFormat(formatStr)
			if err != nil {
				return err
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				format = visualization.FormatJSON
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sys, err := loadSystem(cmd, cfg)
			if err != nil {
				return err
			}
			advance(sys, simulation.NewDriver(simulation.WithLogger(newLogger(cmd, cfg))), ticks, cfg.Simulation.Delta)

			if format == visualization.FormatJSON {
				return writeJSON(cmd, visualization.RenderJSON(sys.name, sys.graph))
			}

			dot := visualization.RenderDOT(sys.name, sys.graph)
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), dot)
				return nil
			}
			if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Graph written to %s\n", output)
			return nil
		},
	}

	addSystemFlags(cmd)
	cmd.Flags().String("format", "dot", "Output format: dot or json")
	cmd.Flags().StringP("output", "o", "", "Write DOT to this file instead of stdout")
	cmd.Flags().Int("ticks", 0, "Advance this many ticks before rendering")

	return cmd
}
