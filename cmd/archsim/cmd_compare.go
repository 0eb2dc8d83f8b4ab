package main

import (
	"context"
	"fmt"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/config"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/nvandessel/archsim/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// comparison is one archetype's outcome in a compare run.
type comparison struct {
	Architecture string               `json:"architecture"`
	Result       simulation.RunResult `json:"result"`
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run every archetype side by side",
		Long: `Run the same simulation against every built-in archetype concurrently
and compare where each one ends up.

Examples:
  archsim compare
  archsim compare --ticks 36000 --spread-every 600
  archsim compare --history --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.History.Enabled = false
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			var history store.HistoryStore
			if cfg.History.Enabled {
				h, err := store.NewSQLiteHistoryStore(dataDir(root, cfg))
				if err != nil {
					return fmt.Errorf("failed to open history: %w", err)
				}
				defer h.Close()
				history = h
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			results, err := compareArchetypes(ctx, cmd, cfg, root, history)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{"comparisons": results})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d ticks of %.4fs", cfg.Simulation.Ticks, cfg.Simulation.Delta)))
			cols := []column{
				{header: "ARCHITECTURE", width: 15},
				{header: "MONEY", width: 11, right: true},
				{header: "REPUTATION", width: 11, right: true},
				{header: "AVG DEBT", width: 9, right: true},
				{header: "AVG HEALTH", width: 11, right: true},
				{header: "DEFECTS", width: 9, right: true},
			}
			rows := make([][]string, len(results))
			highlight := make(map[int]bool)
			for i, c := range results {
				sum := c.Result.Summaries[0]
				rows[i] = []string{
					c.Architecture,
					fmt.Sprintf("%.2f", c.Result.Final.Money),
					fmt.Sprintf("%.2f", c.Result.Final.Reputation),
					fmt.Sprintf("%.1f", sum.AverageTechDebt),
					fmt.Sprintf("%.1f", sum.AverageHealth),
					fmt.Sprintf("%d", c.Result.Defects),
				}
				highlight[i] = sum.DegradedCritical > 0
			}
			fmt.Fprint(w, renderTable(cols, rows, highlight))
			return nil
		},
	}

	cmd.Flags().Int("ticks", 0, "Number of ticks (default from config)")
	cmd.Flags().Float64("delta", 0, "Simulated seconds per tick (default from config)")
	cmd.Flags().Int("spread-every", 0, "Discrete contagion step every N ticks, 0 disables (default from config)")
	cmd.Flags().Int("sample-every", 0, "Record a history sample every N ticks (default from config)")
	cmd.Flags().Uint64("seed", 0, "Seed recorded with each run")
	cmd.Flags().Bool("history", false, "Record each run to .archsim/history.db")

	return cmd
}

// compareArchetypes runs every archetype in its own goroutine. Results are
// returned in archetype.All order.
func compareArchetypes(ctx context.Context, cmd *cobra.Command, cfg *config.Config, root string, history store.HistoryStore) ([]comparison, error) {
	archs := archetype.All()
	results := make([]comparison, len(archs))
	logger := newLogger(cmd, cfg)

	g, gCtx := errgroup.WithContext(ctx)
	for i, arch := range archs {
		g.Go(func() error {
			sys, err := buildSystem(root, arch, "", cfg.Economy)
			if err != nil {
				return err
			}
			runner := simulation.NewRunner(sys.graphs(), sys.resources,
				simulation.NewDriver(simulation.WithLogger(logger)), logger.With("architecture", arch.Slug()))

			res, err := runner.Run(gCtx, simulation.RunConfig{
				Ticks:       cfg.Simulation.Ticks,
				Delta:       cfg.Simulation.Delta,
				SpreadEvery: cfg.Simulation.SpreadEvery,
				SampleEvery: cfg.Simulation.SampleEvery,
				History:     history,
				Run: store.RunInfo{
					Architecture: arch.Slug(),
					Source:       sourceArchetype,
					Seed:         cfg.Simulation.Seed,
				},
			})
			if err != nil {
				return fmt.Errorf("%s: %w", arch.Slug(), err)
			}
			results[i] = comparison{Architecture: arch.Slug(), Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
