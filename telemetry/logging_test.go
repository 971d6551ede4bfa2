package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLoggingJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupLogging(&buf, "warn", "json")
	slog.Info("hidden")
	slog.Warn("shown", slog.String("k", "v"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestSetupLoggingUnknownLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupLogging(&buf, "chatty", "")
	if !strings.Contains(buf.String(), "unknown LOG_LEVEL") {
		t.Fatalf("expected warning about level, got %q", buf.String())
	}
	slog.Debug("not at info")
	if strings.Contains(buf.String(), "not at info") {
		t.Fatal("debug output leaked at info level")
	}
}
