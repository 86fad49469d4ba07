package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewWithWriter_EmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info")

	logger.Info("appointment confirmed", "appointment_id", "apt-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output: %v", err)
	}
	if entry["msg"] != "appointment confirmed" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["appointment_id"] != "apt-1" {
		t.Errorf("unexpected appointment_id: %v", entry["appointment_id"])
	}
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")

	logger.Debug("hidden")
	logger.Info("also hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	logger.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("expected warn output")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info").WithComponent("admission")

	logger.Info("rule evaluated")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output: %v", err)
	}
	if entry["component"] != "admission" {
		t.Errorf("unexpected component: %v", entry["component"])
	}
}
