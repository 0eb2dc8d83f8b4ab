package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/archsim/internal/config"
	"github.com/nvandessel/archsim/internal/logging"
	"github.com/nvandessel/archsim/internal/metrics"
	"github.com/nvandessel/archsim/internal/models"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/nvandessel/archsim/internal/store"
	"github.com/spf13/cobra"
)

// runOutput is the JSON shape of a finished run.
type runOutput struct {
	Name        string                  `json:"name"`
	Source      string                  `json:"source"`
	Seed        uint64                  `json:"seed"`
	Result      simulation.RunResult    `json:"result"`
	Nodes       []models.Node           `json:"nodes"`
	Performance []simulation.NodeSample `json:"performance"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless simulation",
		Long: `Run a simulation for a fixed number of ticks and print the final state.

Every tick applies health decay, operating cost, reputation loss and
continuous debt spread. With --spread-every N a discrete contagion step
also runs after every Nth tick. Runs are recorded to .archsim/history.db
unless --history=false.

Press Ctrl+C to stop early; the partial run is recorded as cancelled.

Examples:
  archsim run                                   # Monolith, config defaults
  archsim run -a microservices --ticks 3600     # One simulated minute at 60 FPS
  archsim run --topology topologies/shop.yaml --spread-every 0
  archsim run --seed 42 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			sys, err := loadSystem(cmd, cfg)
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg)
			dir := dataDir(root, cfg)
			trace := logging.NewTickTrace(dir, cfg.Logging.Level)
			defer trace.Close()

			driver := simulation.NewDriver(
				simulation.WithLogger(logger),
				simulation.WithTrace(trace),
				simulation.WithMetrics(metrics.NewRegistry()),
			)
			runner := simulation.NewRunner(sys.graphs(), sys.resources, driver, logger)

			seed := cfg.Simulation.Seed
			if seed == 0 {
				seed = rand.Uint64()
			}

			runCfg := simulation.RunConfig{
				Ticks:       cfg.Simulation.Ticks,
				Delta:       cfg.Simulation.Delta,
				SpreadEvery: cfg.Simulation.SpreadEvery,
				SampleEvery: cfg.Simulation.SampleEvery,
				Run: store.RunInfo{
					Architecture: sys.arch.Slug(),
					Source:       sys.source,
					Seed:         seed,
				},
			}
			if cfg.History.Enabled {
				history, err := store.NewSQLiteHistoryStore(dir)
				if err != nil {
					return fmt.Errorf("failed to open history: %w", err)
				}
				defer history.Close()
				runCfg.History = history
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			result, err := runner.Run(ctx, runCfg)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			src := rand.New(rand.NewPCG(seed, seed))
			out := runOutput{
				Name:        sys.name,
				Source:      sys.source,
				Seed:        seed,
				Result:      result,
				Nodes:       sys.graph.Nodes(),
				Performance: simulation.SampleCharacteristics(sys.graph, src),
			}

			if jsonOut {
				return writeJSON(cmd, out)
			}
			printRun(cmd, sys, out)
			return nil
		},
	}

	addSystemFlags(cmd)
	cmd.Flags().Int("ticks", 0, "Number of ticks (default from config)")
	cmd.Flags().Float64("delta", 0, "Simulated seconds per tick (default from config)")
	cmd.Flags().Int("spread-every", 0, "Discrete contagion step every N ticks, 0 disables (default from config)")
	cmd.Flags().Int("sample-every", 0, "Record a history sample every N ticks (default from config)")
	cmd.Flags().Uint64("seed", 0, "Seed for performance sampling, 0 picks one (default from config)")
	cmd.Flags().Bool("history", true, "Record the run to .archsim/history.db")

	return cmd
}

// applyRunFlags copies explicitly set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Simulation.Ticks, _ = flags.GetInt("ticks")
	}
	if flags.Changed("delta") {
		cfg.Simulation.Delta, _ = flags.GetFloat64("delta")
	}
	if flags.Changed("spread-every") {
		cfg.Simulation.SpreadEvery, _ = flags.GetInt("spread-every")
	}
	if flags.Changed("sample-every") {
		cfg.Simulation.SampleEvery, _ = flags.GetInt("sample-every")
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("history") {
		cfg.History.Enabled, _ = flags.GetBool("history")
	}
	return cfg.Validate()
}

func printRun(cmd *cobra.Command, sys *system, out runOutput) {
	w := cmd.OutOrStdout()
	r := out.Result

	status := "completed"
	if r.Cancelled {
		status = "cancelled"
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s: %d ticks %s", out.Name, r.Ticks, status)))
	if r.RunID != "" {
		fmt.Fprintln(w, mutedStyle.Render("run "+r.RunID))
	}
	fmt.Fprintln(w)
	renderNodes(w, sys.graph)
	fmt.Fprintln(w)
	for _, s := range r.Summaries {
		renderSummary(w, s)
	}
	fmt.Fprintf(w, "contagion steps: %d, defects: %d\n\n", r.ContagionSteps, r.Defects)
	renderEconomy(w, r.Final)
}
