package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/logging"
	"github.com/nvandessel/archsim/internal/store"
)

// RunConfig controls a headless run.
type RunConfig struct {
	Ticks int
	Delta float64

	// SpreadEvery applies a discrete contagion step after every Nth tick.
	// 0 disables discrete spread; the continuous spread inside Tick always runs.
	SpreadEvery int

	// SampleEvery records a history sample after every Nth tick. Values
	// below 1 record every tick. The final tick is always recorded.
	SampleEvery int

	// History receives the run and its samples. Nil disables recording.
	History store.HistoryStore

	// Run is the template for the recorded run. Ticks, Delta, SpreadEvery
	// and the starting economy are filled in from the run itself.
	Run store.RunInfo
}

// Runner drives a set of graphs for a fixed number of ticks.
type Runner struct {
	graphs    []*graph.SystemGraph
	resources Resources
	driver    *Driver
	logger    *slog.Logger
}

// NewRunner creates a runner. The graphs and resources are owned by the
// runner from here on.
func NewRunner(graphs []*graph.SystemGraph, res Resources, driver *Driver, logger *slog.Logger) *Runner {
	if driver == nil {
		driver = NewDriver()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{graphs: graphs, resources: res, driver: driver, logger: logger}
}

// Graphs returns the graphs being simulated.
func (r *Runner) Graphs() []*graph.SystemGraph { return r.graphs }

// Resources returns the current economy.
func (r *Runner) Resources() Resources { return r.resources }

// Driver returns the tick driver.
func (r *Runner) Driver() *Driver { return r.driver }

// StepResult is the outcome of one runner step.
type StepResult struct {
	Tick      TickReport        `json:"tick"`
	Contagion []ContagionReport `json:"contagion,omitempty"`
	Defects   uint64            `json:"defects"`
}

// RunResult is the outcome of Run.
type RunResult struct {
	RunID          string          `json:"run_id,omitempty"`
	Ticks          int             `json:"ticks"`
	Cancelled      bool            `json:"cancelled"`
	ContagionSteps int             `json:"contagion_steps"`
	Defects        uint64          `json:"defects"`
	Final          Resources       `json:"final"`
	Summaries      []graph.Summary `json:"summaries"`
}

// Step applies one tick plus, when spread is true, a discrete contagion
// step, and generates that tick's defects.
func (r *Runner) Step(delta float64, spread bool) StepResult {
	var res StepResult
	res.Tick = r.driver.Tick(delta, r.graphs, &r.resources)
	if res.Tick.Skipped {
		return res
	}
	if spread {
		res.Contagion = r.driver.Spread(r.graphs)
	}
	for _, d := range r.driver.Defects(r.graphs) {
		res.Defects += d.Total
	}
	return res
}

// Run executes cfg.Ticks ticks. Cancellation is checked between ticks; a
// cancelled run returns the partial result together with ctx.Err().
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (RunResult, error) {
	if cfg.Ticks < 0 {
		return RunResult{}, fmt.Errorf("ticks must be non-negative, got %d", cfg.Ticks)
	}
	sampleEvery := cfg.SampleEvery
	if sampleEvery < 1 {
		sampleEvery = 1
	}

	result := RunResult{}
	if cfg.History != nil {
		info := cfg.Run
		info.Ticks = cfg.Ticks
		info.Delta = cfg.Delta
		info.SpreadEvery = cfg.SpreadEvery
		info.StartingMoney = r.resources.Money
		info.StartingReputation = r.resources.Reputation
		if info.Architecture == "" {
			info.Architecture = r.resources.Architecture.Slug()
		}
		id, err := cfg.History.CreateRun(ctx, info)
		if err != nil {
			return result, fmt.Errorf("failed to create run: %w", err)
		}
		result.RunID = id
	}

	r.logger.Info("run started",
		"run_id", result.RunID,
		"ticks", cfg.Ticks,
		"delta", cfg.Delta,
		"graphs", len(r.graphs))

	var runErr error
	for i := 1; i <= cfg.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			runErr = err
			break
		}

		spread := cfg.SpreadEvery > 0 && i%cfg.SpreadEvery == 0
		step := r.Step(cfg.Delta, spread)
		result.Ticks++
		result.Defects += step.Defects
		if step.Contagion != nil {
			result.ContagionSteps++
		}

		if cfg.History != nil && (i%sampleEvery == 0 || i == cfg.Ticks) {
			if err := cfg.History.RecordSample(ctx, r.sample(result.RunID, uint64(i), step)); err != nil {
				r.driver.Metrics().RecordHistoryError()
				runErr = fmt.Errorf("failed to record tick %d: %w", i, err)
				break
			}
		}
	}
	r.driver.LogState(ctx, r.graphs)

	result.Final = r.resources
	result.Summaries = make([]graph.Summary, len(r.graphs))
	for i, g := range r.graphs {
		result.Summaries[i] = g.Summarize()
	}

	if cfg.History != nil {
		status := store.StatusCompleted
		switch {
		case result.Cancelled:
			status = store.StatusCancelled
		case runErr != nil:
			status = store.StatusFailed
		}
		// The run context may already be cancelled; the ledger still needs closing.
		if err := cfg.History.FinishRun(context.WithoutCancel(ctx), result.RunID, status); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to finish run: %w", err))
		}
	}

	r.logger.Info("run finished",
		"run_id", result.RunID,
		"ticks", result.Ticks,
		"cancelled", result.Cancelled,
		"money", result.Final.Money,
		"reputation", result.Final.Reputation,
		"defects", result.Defects)
	return result, runErr
}

// sample aggregates every graph into one history sample. Averages are
// weighted by node count.
func (r *Runner) sample(runID string, tick uint64, step StepResult) store.Sample {
	s := store.Sample{
		RunID:      runID,
		Tick:       tick,
		Money:      r.resources.Money,
		Reputation: r.resources.Reputation,
		Defects:    step.Defects,
	}
	var nodes int
	for _, g := range r.graphs {
		sum := g.Summarize()
		nodes += sum.Nodes
		s.AverageTechDebt += sum.AverageTechDebt * float64(sum.Nodes)
		s.AverageHealth += sum.AverageHealth * float64(sum.Nodes)
		s.TotalComplexity += sum.TotalComplexity
		s.DegradedCritical += sum.DegradedCritical
	}
	if nodes > 0 {
		s.AverageTechDebt /= float64(nodes)
		s.AverageHealth /= float64(nodes)
	}
	return s
}
