package mcp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestAuditLogger_NilSafety(t *testing.T) {
	var logger *AuditLogger
	logger.Log(AuditEntry{Tool: "test"})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger returned error: %v", err)
	}
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".archsim")
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Log(AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "archsim_tick",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"ticks": "10"},
	})
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	logger.Log(AuditEntry{Tool: "after-close"})

	data, err := os.ReadFile(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	var entry AuditEntry
	if err := json.Unmarshal(data[:len(data)-1], &entry); err != nil {
		t.Fatalf("parsing audit entry: %v", err)
	}
	if entry.Tool != "archsim_tick" || entry.DurationMs != 42 || entry.Params["ticks"] != "10" {
		t.Errorf("entry = %+v", entry)
	}

	info, err := os.Stat(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestAuditLogger_Concurrent(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(AuditEntry{Tool: "archsim_status", Status: "success"})
		}()
	}
	wg.Wait()
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 50 {
		t.Errorf("lines = %d, want 50", lines)
	}
}

func TestSanitizeToolParams(t *testing.T) {
	got := sanitizeToolParams(map[string]interface{}{
		"ticks":    10,
		"delta":    0.5,
		"source":   "core_service",
		"topology": "/home/dev/secret.yaml",
		"spread":   0.0,
		"unknown":  "value",
	})

	want := map[string]string{
		"ticks":        "10",
		"delta":        "0.5",
		"source":       "(set)",
		"topology":     "(set)",
		"_param_count": "5",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}

	if sanitizeToolParams(nil) != nil {
		t.Error("nil params should stay nil")
	}
}
