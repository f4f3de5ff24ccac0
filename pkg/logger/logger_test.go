package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("yaml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("info"); err != nil {
		t.Fatal(err)
	}

	Named("pipeline").Warn(context.Background(), "star skipped",
		String("star_id", "757450"), Float64("depth", 0.1), Error(errors.New("no rows")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "star skipped" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["component"] != "pipeline" {
		t.Errorf("unexpected component: %v", entry["component"])
	}
	if entry["star_id"] != "757450" {
		t.Errorf("unexpected star_id: %v", entry["star_id"])
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("unexpected source: %v", entry["source"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatal(err)
	}
	if err := SetLevelString("error"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = SetLevelString("info") }()

	l := Get().With(String("run", "r1"))
	l.Info(context.Background(), "hidden")
	l.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below error level, got %q", buf.String())
	}
	l.Error(context.Background(), "shown")
	if !strings.Contains(buf.String(), "run=r1") {
		t.Errorf("expected bound field in output, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("level %q: %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}
