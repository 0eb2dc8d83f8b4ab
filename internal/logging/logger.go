// Package logging provides leveled logging and tick tracing for archsim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A TickTrace for per-node simulation events (.archsim/ticks.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every node
// update of every tick is logged.
const LevelTrace = slog.LevelDebug - 4

// TraceFile is the name of the tick trace inside the data directory.
const TraceFile = "ticks.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Event kinds written to the tick trace.
const (
	EventDecay      = "decay"
	EventCost       = "cost"
	EventReputation = "reputation"
	EventSpread     = "spread"
	EventContagion  = "contagion"
	EventDefects    = "defects"
)

// TickEvent is one line of the tick trace.
type TickEvent struct {
	Time   string  `json:"time"`
	Tick   uint64  `json:"tick"`
	Kind   string  `json:"kind"`
	Graph  int     `json:"graph"`
	Node   string  `json:"node,omitempty"`
	Source string  `json:"source,omitempty"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Amount float64 `json:"amount,omitempty"`
}

// TickTrace appends TickEvents to a JSONL file. It is safe for concurrent
// use. A nil TickTrace is valid and discards everything.
type TickTrace struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// NewTickTrace opens dir/ticks.jsonl for append when level is debug or
// trace. At info and above it returns nil and creates nothing. It also
// returns nil if the file cannot be opened.
func NewTickTrace(dir string, level string) *TickTrace {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, TraceFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &TickTrace{file: f, enc: json.NewEncoder(f), now: time.Now}
}

// Enabled reports whether Record writes anything. Callers use it to skip
// building events on the hot path.
func (tt *TickTrace) Enabled() bool {
	return tt != nil && tt.file != nil
}

// Record writes ev as one JSONL line, stamping Time if empty.
// Safe to call on nil receiver.
func (tt *TickTrace) Record(ev TickEvent) {
	if tt == nil {
		return
	}

	tt.mu.Lock()
	defer tt.mu.Unlock()

	if tt.file == nil {
		return
	}
	if ev.Time == "" {
		ev.Time = tt.now().UTC().Format(time.RFC3339Nano)
	}
	_ = tt.enc.Encode(ev)
}

// Close closes the underlying file. Safe to call on nil receiver and more
// than once.
func (tt *TickTrace) Close() error {
	if tt == nil {
		return nil
	}

	tt.mu.Lock()
	defer tt.mu.Unlock()

	if tt.file == nil {
		return nil
	}
	err := tt.file.Close()
	tt.file = nil
	return err
}
