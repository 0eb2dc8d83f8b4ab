package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteHistoryStore implements HistoryStore on a SQLite database.
type SQLiteHistoryStore struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteHistoryStore opens (creating if needed) dataDir/history.db.
func NewSQLiteHistoryStore(dataDir string) (*SQLiteHistoryStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := HistoryPath(dataDir)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteHistoryStore{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteHistoryStore) Path() string {
	return s.dbPath
}

// CreateRun inserts a run in the running state.
func (s *SQLiteHistoryStore) CreateRun(ctx context.Context, run RunInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, architecture, source, delta, ticks, spread_every, seed,
			starting_money, starting_reputation, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Architecture, run.Source, run.Delta, run.Ticks, run.SpreadEvery, int64(run.Seed),
		run.StartingMoney, run.StartingReputation, string(StatusRunning), formatTime(run.StartedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// RecordSample appends a sample. The run must exist and still be running.
func (s *SQLiteHistoryStore) RecordSample(ctx context.Context, sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.status(ctx, sample.RunID)
	if err != nil {
		return err
	}
	if status.Terminal() {
		return fmt.Errorf("run %s is %s, cannot record samples", sample.RunID, status)
	}

	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = s.now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO samples (run_id, tick, money, reputation, average_tech_debt, average_health,
			total_complexity, defects, degraded_critical, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.RunID, int64(sample.Tick), sample.Money, sample.Reputation, sample.AverageTechDebt,
		sample.AverageHealth, int64(sample.TotalComplexity), int64(sample.Defects), sample.DegradedCritical,
		formatTime(sample.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample %s/%d: %w", sample.RunID, sample.Tick, err)
	}
	return nil
}

// FinishRun marks a running run as finished. Finishing an already finished
// run is an error.
func (s *SQLiteHistoryStore) FinishRun(ctx context.Context, id string, status RunStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("cannot finish run with non-terminal status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ? AND status = ?`,
		string(status), formatTime(s.now()), id, string(StatusRunning))
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n == 0 {
		if _, err := s.status(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("run %s already finished", id)
	}
	return nil
}

// GetRun returns one run.
func (s *SQLiteHistoryStore) GetRun(ctx context.Context, id string) (*RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, runSelect+` WHERE r.id = ? GROUP BY r.id`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteHistoryStore) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := runSelect + ` GROUP BY r.id ORDER BY r.started_at DESC, r.rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Samples returns a run's samples in tick order.
func (s *SQLiteHistoryStore) Samples(ctx context.Context, runID string) ([]Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.status(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, money, reputation, average_tech_debt, average_health,
			total_complexity, defects, degraded_critical, recorded_at
		FROM samples WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var (
			sm                        Sample
			tick, complexity, defects int64
			recordedAt                string
		)
		if err := rows.Scan(&tick, &sm.Money, &sm.Reputation, &sm.AverageTechDebt, &sm.AverageHealth,
			&complexity, &defects, &sm.DegradedCritical, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sm.RunID = runID
		sm.Tick = uint64(tick)
		sm.TotalComplexity = uint64(complexity)
		sm.Defects = uint64(defects)
		sm.RecordedAt = parseTime(recordedAt)
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

// Close closes the database.
func (s *SQLiteHistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// status returns the run's status or ErrRunNotFound. Caller holds s.mu.
func (s *SQLiteHistoryStore) status(ctx context.Context, id string) (RunStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM runs WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read run %s: %w", id, err)
	}
	return RunStatus(status), nil
}

const runSelect = `
	SELECT r.id, r.architecture, r.source, r.delta, r.ticks, r.spread_every, r.seed,
		r.starting_money, r.starting_reputation, r.status, r.started_at, r.finished_at,
		COUNT(s.tick)
	FROM runs r LEFT JOIN samples s ON s.run_id = r.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunInfo, error) {
	var (
		run        RunInfo
		seed       int64
		status     string
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Architecture, &run.Source, &run.Delta, &run.Ticks, &run.SpreadEvery,
		&seed, &run.StartingMoney, &run.StartingReputation, &status, &startedAt, &finishedAt,
		&run.SampleCount); err != nil {
		return nil, err
	}
	run.Seed = uint64(seed)
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		run.FinishedAt = &t
	}
	return &run, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
