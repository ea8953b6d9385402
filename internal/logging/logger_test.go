package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"proctor/internal/services"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONHandlerRemapsKeys(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl))

	logger.Info("session queued", String(FieldSessionID, "sess-1"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["msg"] != "session queued" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Errorf("level = %v, want lowercase info", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Error("expected ts key")
	}
	if record[FieldSessionID] != "sess-1" {
		t.Errorf("session id = %v", record[FieldSessionID])
	}
}

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))
	logger = NewComponentLogger(logger, "pipeline")

	logger.Info("analysis complete", Int("frames", 240), String("note", "all good"))

	line := strings.TrimSuffix(buf.String(), "\n")
	if !strings.Contains(line, " INFO pipeline: analysis complete") {
		t.Errorf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "frames=240") {
		t.Errorf("missing attribute: %q", line)
	}
	if !strings.Contains(line, `note="all good"`) {
		t.Errorf("expected quoting for spaced value: %q", line)
	}
}

func TestConsoleHandlerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info record leaked through warn gate: %q", out)
	}
	if !strings.Contains(out, "WARN kept") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestConsoleHandlerErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Error("extraction failed", Error(errors.New("exit status 1")))

	if !strings.Contains(buf.String(), `error="exit status 1"`) {
		t.Errorf("unexpected line: %q", buf.String())
	}
}

func TestWithContextCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	ctx := services.WithSessionID(context.Background(), "sess-9")
	ctx = services.WithUsername(ctx, "alice")

	WithContext(ctx, logger).Info("processing")

	line := buf.String()
	if !strings.Contains(line, "session_id=sess-9") || !strings.Contains(line, "username=alice") {
		t.Errorf("context fields missing: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
