package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nvandessel/archsim/internal/metrics"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print Prometheus metrics for a simulated system",
		Long: `Advance a system and print its metrics in the Prometheus text format.

With --serve the simulation keeps ticking in real time and the metrics are
served on /metrics until interrupted.

Examples:
  archsim metrics --ticks 600
  archsim metrics -a microservices --serve :9464`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks, _ := cmd.Flags().GetInt("ticks")
			serve, _ := cmd.Flags().GetString("serve")
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

			logger := newLogger(cmd, cfg)
			reg := metrics.NewRegistry()
			driver := simulation.NewDriver(
				simulation.WithLogger(logger),
				simulation.WithMetrics(reg),
			)
			runner := simulation.NewRunner(sys.graphs(), sys.resources, driver, logger)
			spreadEvery := cfg.Simulation.SpreadEvery
			for i := 1; i <= ticks; i++ {
				runner.Step(cfg.Simulation.Delta, spreadEvery > 0 && i%spreadEvery == 0)
			}
			res := runner.Resources()
			driver.Observe(runner.Graphs(), &res)

			if serve == "" {
				return reg.WriteText(cmd.OutOrStdout())
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()
			return serveMetrics(ctx, serve, reg, runner, cfg.Simulation.Delta, spreadEvery)
		},
	}

	addSystemFlags(cmd)
	cmd.Flags().Int("ticks", 0, "Advance this many ticks before reporting")
	cmd.Flags().String("serve", "", "Serve /metrics on this address and keep ticking")

	return cmd
}

// serveMetrics ticks runner at wall-clock pace while serving reg on addr.
func serveMetrics(ctx context.Context, addr string, reg *metrics.Registry, runner *simulation.Runner, delta float64, spreadEvery int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	interval := time.Duration(delta * float64(time.Second))
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var tick int
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		case <-ticker.C:
			tick++
			runner.Step(delta, spreadEvery > 0 && tick%spreadEvery == 0)
		}
	}
}
