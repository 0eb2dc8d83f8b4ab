package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/config"
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/logging"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/nvandessel/archsim/internal/store"
	"github.com/nvandessel/archsim/internal/topology"
	"github.com/spf13/cobra"
)

// sourceArchetype marks a system built from the built-in catalog.
const sourceArchetype = "archetype"

// system is a freshly built graph with its starting economy.
type system struct {
	name      string
	source    string
	arch      archetype.ArchitectureType
	graph     *graph.SystemGraph
	resources simulation.Resources
}

func (s *system) graphs() []*graph.SystemGraph {
	return []*graph.SystemGraph{s.graph}
}

// loadConfig loads the config and applies the --log-level override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger writes operational logs to stderr so stdout stays parseable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// dataDir is where history, traces and the audit log live.
func dataDir(root string, cfg *config.Config) string {
	if cfg.History.Dir != "" {
		return cfg.History.Dir
	}
	return store.LocalDataPath(root)
}

// addSystemFlags registers the flags loadSystem reads.
func addSystemFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("architecture", "a", "", "Archetype: monolith, microservices, event-driven (default from config)")
	cmd.Flags().String("topology", "", "YAML topology file; overrides --architecture")
}

// loadSystem builds the system selected by flags, falling back to config.
func loadSystem(cmd *cobra.Command, cfg *config.Config) (*system, error) {
	root, _ := cmd.Flags().GetString("root")
	archName, _ := cmd.Flags().GetString("architecture")
	topoPath, _ := cmd.Flags().GetString("topology")

	if archName == "" {
		archName = cfg.Simulation.Architecture
	}
	if topoPath == "" {
		topoPath = cfg.Simulation.TopologyFile
	}

	arch, err := archetype.Parse(archName)
	if err != nil {
		return nil, err
	}
	return buildSystem(root, arch, topoPath, cfg.Economy)
}

// buildSystem builds an archetype, or the topology at topoPath when set.
// Relative topology paths resolve against root.
func buildSystem(root string, arch archetype.ArchitectureType, topoPath string, econ config.EconomyConfig) (*system, error) {
	sys := &system{name: arch.Slug(), source: sourceArchetype, arch: arch}

	if topoPath != "" {
		if !filepath.IsAbs(topoPath) {
			topoPath = filepath.Join(root, topoPath)
		}
		doc, err := topology.Load(topoPath)
		if err != nil {
			return nil, err
		}
		g, err := doc.Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", topoPath, err)
		}
		if doc.Architecture != "" {
			a, err := archetype.Parse(doc.Architecture)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", topoPath, err)
			}
			sys.arch = a
		}
		sys.name = doc.Name
		sys.source = topoPath
		sys.graph = g
	} else {
		sys.graph = archetype.Build(arch)
	}

	sys.resources = simulation.DefaultResources()
	sys.resources.Architecture = sys.arch
	sys.resources.Money = econ.StartingMoney
	sys.resources.Reputation = econ.StartingReputation
	return sys, nil
}

// advance applies ticks to sys in place and returns the runner used.
func advance(sys *system, driver *simulation.Driver, ticks int, delta float64) *simulation.Runner {
	runner := simulation.NewRunner(sys.graphs(), sys.resources, driver, nil)
	for i := 0; i < ticks; i++ {
		runner.Step(delta, false)
	}
	sys.resources = runner.Resources()
	return runner
}

// signalContext is cancelled on SIGINT/SIGTERM or when the returned cancel
// function is called.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
