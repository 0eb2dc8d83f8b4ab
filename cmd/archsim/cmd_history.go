package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nvandessel/archsim/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `List and inspect runs recorded in .archsim/history.db.

Examples:
  archsim history list
  archsim history list --limit 5 --json
  archsim history show <run-id>`,
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
	)

	return cmd
}

// openHistory opens the history database for the --root project.
func openHistory(cmd *cobra.Command) (*store.SQLiteHistoryStore, error) {
	root, _ := cmd.Flags().GetString("root")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	h, err := store.NewSQLiteHistoryStore(dataDir(root, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return h, nil
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			h, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.ListRuns(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{"runs": runs, "count": len(runs)})
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded yet. Start one with: archsim run")
				return nil
			}
			cols := []column{
				{header: "ID", width: 37},
				{header: "ARCHITECTURE", width: 15},
				{header: "TICKS", width: 7, right: true},
				{header: "SAMPLES", width: 8, right: true},
				{header: "STATUS", width: 10},
				{header: "STARTED", width: 20},
			}
			rows := make([][]string, len(runs))
			highlight := make(map[int]bool)
			for i, r := range runs {
				rows[i] = []string{
					r.ID,
					r.Architecture,
					fmt.Sprintf("%d", r.Ticks),
					fmt.Sprintf("%d", r.SampleCount),
					string(r.Status),
					r.StartedAt.Local().Format(time.DateTime),
				}
				highlight[i] = r.Status == store.StatusFailed
			}
			fmt.Fprint(w, renderTable(cols, rows, highlight))
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show, 0 for all")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ctx := context.Background()

			h, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			run, err := h.GetRun(ctx, args[0])
			if errors.Is(err, store.ErrRunNotFound) {
				return fmt.Errorf("no run with id %s", args[0])
			}
			if err != nil {
				return err
			}
			samples, err := h.Samples(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("failed to read samples: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{"run": run, "samples": samples})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s)", run.ID, run.Status)))
			fmt.Fprintf(w, "architecture: %s\nsource:       %s\n", run.Architecture, run.Source)
			fmt.Fprintf(w, "ticks:        %d x %.4fs, spread every %d\n", run.Ticks, run.Delta, run.SpreadEvery)
			fmt.Fprintf(w, "seed:         %d\n", run.Seed)
			fmt.Fprintf(w, "started:      %s\n", run.StartedAt.Local().Format(time.DateTime))
			if run.FinishedAt != nil {
				fmt.Fprintf(w, "finished:     %s\n", run.FinishedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintln(w)

			cols := []column{
				{header: "TICK", width: 7, right: true},
				{header: "MONEY", width: 11, right: true},
				{header: "REPUTATION", width: 11, right: true},
				{header: "AVG DEBT", width: 9, right: true},
				{header: "AVG HEALTH", width: 11, right: true},
				{header: "DEFECTS", width: 8, right: true},
			}
			rows := make([][]string, len(samples))
			highlight := make(map[int]bool)
			for i, s := range samples {
				rows[i] = []string{
					fmt.Sprintf("%d", s.Tick),
					fmt.Sprintf("%.2f", s.Money),
					fmt.Sprintf("%.2f", s.Reputation),
					fmt.Sprintf("%.1f", s.AverageTechDebt),
					fmt.Sprintf("%.1f", s.AverageHealth),
					fmt.Sprintf("%d", s.Defects),
				}
				highlight[i] = s.DegradedCritical > 0
			}
			fmt.Fprint(w, renderTable(cols, rows, highlight))
			return nil
		},
	}
}
