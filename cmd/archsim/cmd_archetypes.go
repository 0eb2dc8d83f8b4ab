package main

import (
	"fmt"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/topology"
	"github.com/spf13/cobra"
)

// archetypeInfo is the JSON shape of one catalog entry.
type archetypeInfo struct {
	Slug    string        `json:"slug"`
	Name    string        `json:"name"`
	Summary graph.Summary `json:"summary"`
}

func newArchetypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archetypes",
		Short: "List the built-in architectures",
		Long: `List the built-in starting architectures with their size and debt.

Use --export to print one archetype as a YAML topology file, ready to be
edited and passed back with --topology.

Examples:
  archsim archetypes
  archsim archetypes --export microservices > topologies/mine.yaml
  archsim run --topology topologies/mine.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			export, _ := cmd.Flags().GetString("export")

			if export != "" {
				arch, err := archetype.Parse(export)
				if err != nil {
					return err
				}
				doc := topology.FromGraph(arch.Slug(), archetype.Build(arch))
				doc.Architecture = arch.Slug()
				data, err := doc.Marshal()
				if err != nil {
					return fmt.Errorf("failed to export %s: %w", arch.Slug(), err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			infos := make([]archetypeInfo, 0, len(archetype.All()))
			for _, a := range archetype.All() {
				infos = append(infos, archetypeInfo{
					Slug:    a.Slug(),
					Name:    a.String(),
					Summary: archetype.Build(a).Summarize(),
				})
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{"archetypes": infos})
			}

			out := cmd.OutOrStdout()
			cols := []column{
				{header: "SLUG", width: 15},
				{header: "NODES", width: 6, right: true},
				{header: "EDGES", width: 6, right: true},
				{header: "CX", width: 5, right: true},
				{header: "AVG DEBT", width: 9, right: true},
			}
			rows := make([][]string, len(infos))
			for i, info := range infos {
				rows[i] = []string{
					info.Slug,
					fmt.Sprintf("%d", info.Summary.Nodes),
					fmt.Sprintf("%d", info.Summary.Edges),
					fmt.Sprintf("%d", info.Summary.TotalComplexity),
					fmt.Sprintf("%.1f", info.Summary.AverageTechDebt),
				}
			}
			fmt.Fprint(out, renderTable(cols, rows, nil))
			return nil
		},
	}

	cmd.Flags().String("export", "", "Print the named archetype as a YAML topology")

	return cmd
}
