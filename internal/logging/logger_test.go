package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"padded trace", " trace ", LevelTrace},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"warn filters info", "warn", false, false},
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(t.Context(), LevelTrace, "node update")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("Discard logger should not be enabled at error")
	}
}

func TestNewTickTrace_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	tr := NewTickTrace(dir, "info")

	if tr != nil {
		t.Error("expected nil TickTrace at info level")
	}
	if tr.Enabled() {
		t.Error("nil TickTrace reports enabled")
	}

	tr.Record(TickEvent{Kind: EventDecay})

	if _, err := os.Stat(filepath.Join(dir, TraceFile)); err == nil {
		t.Errorf("%s should not exist at info level", TraceFile)
	}
}

func readEvents(t *testing.T, path string) []TickEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()

	var events []TickEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev TickEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("parse line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestTickTrace_RecordsEvents(t *testing.T) {
	dir := t.TempDir()
	tr := NewTickTrace(dir, "debug")
	if !tr.Enabled() {
		t.Fatal("expected enabled TickTrace at debug level")
	}

	tr.Record(TickEvent{Tick: 1, Kind: EventDecay, Node: "core_service", Before: 100, After: 95})
	tr.Record(TickEvent{Tick: 1, Kind: EventSpread, Source: "core_service", Node: "database", Before: 20, After: 25, Amount: 5})
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := readEvents(t, filepath.Join(dir, TraceFile))
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != EventDecay || events[0].After != 95 {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Source != "core_service" || events[1].Amount != 5 {
		t.Errorf("events[1] = %+v", events[1])
	}
	if events[0].Time == "" {
		t.Error("expected time to be stamped")
	}
}

func TestTickTrace_KeepsCallerTime(t *testing.T) {
	dir := t.TempDir()
	tr := NewTickTrace(dir, "trace")
	tr.Record(TickEvent{Time: "2026-01-01T00:00:00Z", Kind: EventCost})
	tr.Close()

	events := readEvents(t, filepath.Join(dir, TraceFile))
	if len(events) != 1 || events[0].Time != "2026-01-01T00:00:00Z" {
		t.Errorf("events = %+v", events)
	}
}

func TestTickTrace_NilSafety(t *testing.T) {
	var tr *TickTrace
	tr.Record(TickEvent{Kind: EventDefects})
	if err := tr.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
}

func TestTickTrace_RecordAfterClose(t *testing.T) {
	dir := t.TempDir()
	tr := NewTickTrace(dir, "debug")

	tr.Record(TickEvent{Kind: EventDecay})
	tr.Close()
	tr.Record(TickEvent{Kind: EventDecay})
	if err := tr.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	if got := len(readEvents(t, filepath.Join(dir, TraceFile))); got != 1 {
		t.Errorf("expected 1 event, got %d", got)
	}
}

func TestNewTickTrace_CreatesDirWithPermissions(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "sub", "dir")
	tr := NewTickTrace(nested, "debug")
	if tr == nil {
		t.Fatal("expected non-nil TickTrace when dir needs creation")
	}
	defer tr.Close()
	tr.Record(TickEvent{Kind: EventContagion})

	info, err := os.Stat(filepath.Join(nested, TraceFile))
	if err != nil {
		t.Fatalf("trace should exist after dir creation: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}
