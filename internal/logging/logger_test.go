package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/services"
)

func TestOpenRunLogLinksCurrent(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	run, err := logging.OpenRunLog(&cfg, "20260101T000000.000Z", "debug", false)
	if err != nil {
		t.Fatalf("OpenRunLog returned error: %v", err)
	}
	if filepath.Base(run.Path) != "shortreel-20260101T000000.000Z.log" {
		t.Fatalf("unexpected run log path %q", run.Path)
	}
	run.Logger.Debug("render started", logging.String(logging.FieldJobID, "job-7"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.CurrentLogName))
	if err != nil {
		t.Fatalf("read current log: %v", err)
	}
	if !strings.Contains(string(content), "render started") || !strings.Contains(string(content), " job_id=job-7") {
		t.Fatalf("expected debug line through current link, got %q", content)
	}
}

func TestConsoleLoggerBindsAttrsAndGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-attrs.log")
	logger, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "render").With(logging.String(logging.FieldJobID, "abc"))
	logger.WithGroup("ffmpeg").Info("attempt failed", logging.Int("attempt", 2), logging.String("reason", "exit status 1"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	for _, fragment := range []string{"INFO render: attempt failed", " job_id=abc", " ffmpeg.attempt=2", ` ffmpeg.reason="exit status 1"`} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in %q", fragment, text)
		}
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller", logging.String(logging.FieldComponent, "queue"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
	if !strings.Contains(text, "queue: message without caller") {
		t.Fatalf("expected component prefix, got %q", text)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:  "json",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("scene skipped", logging.Int(logging.FieldScene, 2))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if payload["msg"] != "scene skipped" {
		t.Fatalf("unexpected msg %v", payload["msg"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload[logging.FieldScene] != float64(2) {
		t.Fatalf("expected scene=2, got %v", payload[logging.FieldScene])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithStage(ctx, "synthesize")
	ctx = services.WithScene(ctx, 3)

	logging.WithContext(ctx, base).Info("scene done")

	out := buf.String()
	for _, fragment := range []string{`"job_id":"job-1"`, `"stage":"synthesize"`, `"scene":3`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %s in %s", fragment, out)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "cleanup failed", "staging_cleanup_failed",
		logging.String(logging.FieldImpact, "temp file remains"))

	out := buf.String()
	if !strings.Contains(out, `"event_type":"staging_cleanup_failed"`) {
		t.Fatalf("expected event_type, got %s", out)
	}
	if !strings.Contains(out, `"error_hint":"check logs for details"`) {
		t.Fatalf("expected default hint, got %s", out)
	}
	if !strings.Contains(out, `"impact":"temp file remains"`) {
		t.Fatalf("expected caller impact to be kept, got %s", out)
	}
}

func TestPruneRunLogs(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "shortreel-old.log")
	freshPath := filepath.Join(dir, "shortreel-fresh.log")
	activePath := filepath.Join(dir, "shortreel-active.log")
	otherPath := filepath.Join(dir, "notes.log")
	for _, path := range []string{oldPath, freshPath, activePath, otherPath} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().Add(-72 * time.Hour)
	for _, path := range []string{oldPath, activePath, otherPath} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 1, activePath); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{freshPath, activePath, otherPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", filepath.Base(path), err)
		}
	}
	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 0, ""); removed != 0 {
		t.Fatalf("expected pruning disabled, got %d", removed)
	}
}
