// Package store defines the HistoryStore interface for recording simulation
// runs. History is append-only telemetry: a run's samples describe what
// happened, they are never loaded back into a simulation.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether no further samples may be recorded.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// RunInfo describes one headless simulation run.
type RunInfo struct {
	ID                 string     `json:"id"`
	Architecture       string     `json:"architecture"`
	Source             string     `json:"source"` // "archetype" or a topology file path
	Delta              float64    `json:"delta"`
	Ticks              int        `json:"ticks"`
	SpreadEvery        int        `json:"spread_every"`
	Seed               uint64     `json:"seed"`
	StartingMoney      float64    `json:"starting_money"`
	StartingReputation float64    `json:"starting_reputation"`
	Status             RunStatus  `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	SampleCount        int        `json:"sample_count"` // filled on read
}

// Sample is the aggregate state of a run after one tick.
type Sample struct {
	RunID            string    `json:"run_id"`
	Tick             uint64    `json:"tick"`
	Money            float64   `json:"money"`
	Reputation       float64   `json:"reputation"`
	AverageTechDebt  float64   `json:"average_tech_debt"`
	AverageHealth    float64   `json:"average_health"`
	TotalComplexity  uint64    `json:"total_complexity"`
	Defects          uint64    `json:"defects"`
	DegradedCritical int       `json:"degraded_critical"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// HistoryStore records runs and their per-tick samples.
type HistoryStore interface {
	// CreateRun stores a new run in the running state. An empty ID is
	// replaced by a generated one; the stored ID is returned.
	CreateRun(ctx context.Context, run RunInfo) (string, error)

	// RecordSample appends a sample to a running run.
	RecordSample(ctx context.Context, sample Sample) error

	// FinishRun moves a run to a terminal status.
	FinishRun(ctx context.Context, id string, status RunStatus) error

	// GetRun returns a run with SampleCount filled in.
	GetRun(ctx context.Context, id string) (*RunInfo, error)

	// ListRuns returns runs newest first. limit <= 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)

	// Samples returns a run's samples in tick order.
	Samples(ctx context.Context, runID string) ([]Sample, error)

	Close() error
}
