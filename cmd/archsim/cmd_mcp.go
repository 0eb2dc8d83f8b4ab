package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/logging"
	"github.com/nvandessel/archsim/internal/mcp"
	"github.com/nvandessel/archsim/internal/metrics"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run an MCP server over stdio",
		Long: `Run a Model Context Protocol server that lets an agent drive one
simulation: read status, apply ticks, run contagion, list defects, reset
to another architecture and connect nodes.

Logs go to stderr; stdout carries the protocol. Every tool call is
rate limited and appended to .archsim/audit.jsonl.

Example MCP client configuration:
  {"command": "archsim", "args": ["mcp-server", "--root", "/path/to/project"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			topoPath, _ := cmd.Flags().GetString("topology")

			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("failed to resolve root: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if archName, _ := cmd.Flags().GetString("architecture"); archName != "" {
				cfg.Simulation.Architecture = archName
			}
			if topoPath == "" {
				topoPath = cfg.Simulation.TopologyFile
			}
			arch, err := cfg.Architecture()
			if err != nil {
				return err
			}

			trace := logging.NewTickTrace(filepath.Join(absRoot, constants.DefaultDataDir), cfg.Logging.Level)
			defer trace.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:               "archsim",
				Version:            version,
				Root:               absRoot,
				Architecture:       arch,
				Topology:           topoPath,
				StartingMoney:      cfg.Economy.StartingMoney,
				StartingReputation: cfg.Economy.StartingReputation,
				RatePerMinute:      cfg.MCP.RatePerMinute,
				Burst:              cfg.MCP.Burst,
				Logger:             newLogger(cmd, cfg),
				Metrics:            metrics.NewRegistry(),
				Trace:              trace,
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}

			return server.Run(context.Background())
		},
	}

	addSystemFlags(cmd)

	return cmd
}
