package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dualsub/internal/services"
)

func noColor() *bool {
	v := false
	return &v
}

func TestNewConsoleFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Console: &buf, Color: noColor()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", String("file", "movie name.mkv"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN  shown") {
		t.Fatalf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, `file="movie name.mkv"`) {
		t.Fatalf("expected quoted attr, got %q", out)
	}
}

func TestPrettyHandlerPrefixesStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Console: &buf, Color: noColor()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = NewComponentLogger(logger, "pipeline")
	logger.Info("starting")
	logger.With(String(FieldStage, "transcribe")).Info("segment done", Int("index", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "pipeline: starting") {
		t.Fatalf("component prefix missing: %q", lines[0])
	}
	if !strings.Contains(lines[1], "transcribe: segment done index=2") {
		t.Fatalf("stage prefix missing: %q", lines[1])
	}
	if strings.Contains(lines[1], "component=") {
		t.Fatalf("component should not be repeated as attr: %q", lines[1])
	}
}

func TestPrettyHandlerColor(t *testing.T) {
	var buf bytes.Buffer
	on := true
	logger, err := New(Options{Console: &buf, Color: &on})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Error("boom")
	if !strings.Contains(buf.String(), ansiRed+"ERROR"+ansiReset) {
		t.Fatalf("expected coloured level, got %q", buf.String())
	}
}

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", Int("cues", 3))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json: %v (%q)", err, buf.String())
	}
	if payload["msg"] != "hello" || payload["level"] != "info" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %#v", payload)
	}
	if payload["cues"] != float64(3) {
		t.Fatalf("expected cues attr, got %#v", payload["cues"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewTeesToLogFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "dualsub.log")
	logger, err := New(Options{Console: &buf, FilePath: path, Color: noColor()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("written twice")

	if !strings.Contains(buf.String(), "written twice") {
		t.Fatalf("console missing record: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &payload); err != nil {
		t.Fatalf("log file is not json: %v (%q)", err, data)
	}
	if payload["msg"] != "written twice" {
		t.Fatalf("unexpected file payload: %#v", payload)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "translate")
	WithContext(ctx, logger).Info("batch")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if payload[FieldRunID] != "run-1" || payload[FieldStage] != "translate" {
		t.Fatalf("context fields missing: %#v", payload)
	}
	if _, ok := payload[FieldCorrelationID]; ok {
		t.Fatalf("unexpected correlation id: %#v", payload)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	WarnWithContext(logger, "fallback", "translation_fallback",
		String(FieldImpact, "subtitles use secondary engine"),
		Error(errors.New("pair unsupported")),
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if payload[FieldEventType] != "translation_fallback" {
		t.Fatalf("event_type missing: %#v", payload)
	}
	if payload[FieldErrorHint] != "check logs for details" {
		t.Fatalf("error_hint default missing: %#v", payload)
	}
	if payload[FieldImpact] != "subtitles use secondary engine" {
		t.Fatalf("impact should not be overwritten: %#v", payload)
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), 100) {
		t.Fatal("nop logger should not be enabled")
	}
	WarnWithContext(nil, "ignored", "x")
}
