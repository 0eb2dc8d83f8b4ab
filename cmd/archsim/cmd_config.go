package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show archsim configuration",
		Long: `View the effective archsim configuration.

Settings come from ~/.archsim/config.yaml, then a .env file in the current
directory, then ARCHSIM_* environment variables.

Examples:
  archsim config list                       # Show all settings
  archsim config get simulation.ticks       # Get a specific setting
  ARCHSIM_TICKS=60 archsim config get simulation.ticks`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, cfg)
			}

			flat, err := cfg.Flatten()
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			keys, err := cfg.Keys()
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Configuration (~/.archsim/config.yaml):")
			fmt.Fprintln(w)
			for _, k := range keys {
				fmt.Fprintf(w, "  %-34s %s\n", k+":", valueOrDefault(flat[k], "(not set)"))
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, err := cfg.Get(key)
			if err != nil {
				if jsonOut {
					return writeJSON(cmd, map[string]any{
						"error": "key not found",
						"key":   key,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unknown configuration key: %s\n", key)
				return nil
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
