package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "archsim",
		Short: "Architecture simulator - tech debt, health and money over time",
		Long: `archsim simulates a software system as a graph of components.

Tech debt erodes component health, spreads along dependencies and burns
money every tick. Critical components that fall below half health cost
reputation. Runs can be recorded, compared and driven by an agent over MCP.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace (default from config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newArchetypesCmd(),
		// Simulation commands
		newRunCmd(),
		newStatusCmd(),
		newDefectsCmd(),
		newSpreadCmd(),
		newCompareCmd(),
		newGraphCmd(),
		// Records and settings
		newHistoryCmd(),
		newConfigCmd(),
		newMetricsCmd(),
		// Agent integration
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
