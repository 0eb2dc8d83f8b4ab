package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryHistoryStore implements HistoryStore for testing and for runs
// started with history disabled.
type InMemoryHistoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*RunInfo
	order   []string
	samples map[string][]Sample
}

// NewInMemoryHistoryStore creates an empty store.
func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{
		runs:    make(map[string]*RunInfo),
		samples: make(map[string][]Sample),
	}
}

// CreateRun stores a run in the running state.
func (s *InMemoryHistoryStore) CreateRun(ctx context.Context, run RunInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if _, exists := s.runs[run.ID]; exists {
		return "", fmt.Errorf("run %s already exists", run.ID)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = StatusRunning
	run.FinishedAt = nil
	run.SampleCount = 0

	s.runs[run.ID] = &run
	s.order = append(s.order, run.ID)
	return run.ID, nil
}

// RecordSample appends a sample to a running run.
func (s *InMemoryHistoryStore) RecordSample(ctx context.Context, sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[sample.RunID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, sample.RunID)
	}
	if run.Status.Terminal() {
		return fmt.Errorf("run %s is %s, cannot record samples", sample.RunID, run.Status)
	}
	for _, existing := range s.samples[sample.RunID] {
		if existing.Tick == sample.Tick {
			return fmt.Errorf("sample %s/%d already recorded", sample.RunID, sample.Tick)
		}
	}
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now()
	}
	s.samples[sample.RunID] = append(s.samples[sample.RunID], sample)
	return nil
}

// FinishRun moves a running run to a terminal status.
func (s *InMemoryHistoryStore) FinishRun(ctx context.Context, id string, status RunStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("cannot finish run with non-terminal status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if run.Status.Terminal() {
		return fmt.Errorf("run %s already finished", id)
	}
	now := time.Now()
	run.Status = status
	run.FinishedAt = &now
	return nil
}

// GetRun returns a copy of the run.
func (s *InMemoryHistoryStore) GetRun(ctx context.Context, id string) (*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	out := s.snapshot(run)
	return &out, nil
}

// ListRuns returns runs newest first.
func (s *InMemoryHistoryStore) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]RunInfo, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		runs = append(runs, s.snapshot(s.runs[s.order[i]]))
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Samples returns a run's samples in tick order.
func (s *InMemoryHistoryStore) Samples(ctx context.Context, runID string) ([]Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	out := append([]Sample{}, s.samples[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}

// Close is a no-op.
func (s *InMemoryHistoryStore) Close() error {
	return nil
}

// snapshot copies run with SampleCount filled. Caller holds s.mu.
func (s *InMemoryHistoryStore) snapshot(run *RunInfo) RunInfo {
	out := *run
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		out.FinishedAt = &t
	}
	out.SampleCount = len(s.samples[run.ID])
	return out
}

var (
	_ HistoryStore = (*InMemoryHistoryStore)(nil)
	_ HistoryStore = (*SQLiteHistoryStore)(nil)
)
