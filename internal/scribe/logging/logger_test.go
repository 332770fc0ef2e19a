package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, cfg Config) (*FileLogger, string) {
	t.Helper()
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(t.TempDir(), "logs")
	}
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, cfg.LogDir
}

func readLog(t *testing.T, logger *FileLogger) string {
	t.Helper()
	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestNew_CreatesLogFile(t *testing.T) {
	_, logDir := newTestLogger(t, Config{Prefix: "test"})

	today := time.Now().UTC().Format("2006-01-02")
	expectedPath := filepath.Join(logDir, "test-"+today+".log")

	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("expected log file to exist at %s", expectedPath)
	}
}

func TestNew_DefaultsApplied(t *testing.T) {
	_, logDir := newTestLogger(t, Config{})

	today := time.Now().UTC().Format("2006-01-02")
	expectedPath := filepath.Join(logDir, "scribewatch-"+today+".log")

	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("expected log file with default prefix at %s", expectedPath)
	}
}

func TestFileLogger_InfoWithFields(t *testing.T) {
	logger, _ := newTestLogger(t, Config{Prefix: "test", Component: "scanner"})

	logger.Info("scan complete",
		Int("total", 3),
		String("dir", "/audio files"),
		Duration("elapsed", 1500*time.Millisecond),
	)

	got := readLog(t, logger)
	if !strings.Contains(got, "INFO") {
		t.Errorf("missing level: %q", got)
	}
	if !strings.Contains(got, "[scanner]") {
		t.Errorf("missing component: %q", got)
	}
	if !strings.Contains(got, "total=3") {
		t.Errorf("missing int field: %q", got)
	}
	if !strings.Contains(got, `dir="/audio files"`) {
		t.Errorf("value with spaces not quoted: %q", got)
	}
	if !strings.Contains(got, "elapsed=1.5s") {
		t.Errorf("missing duration field: %q", got)
	}
}

func TestFileLogger_Error(t *testing.T) {
	logger, _ := newTestLogger(t, Config{Prefix: "test"})

	logger.Error("transcription failed", errors.New("boom"), String("path", "/a.flac"))

	got := readLog(t, logger)
	if !strings.Contains(got, "ERROR") || !strings.Contains(got, "error=boom") {
		t.Errorf("log line = %q", got)
	}
}

func TestFileLogger_MinLevel(t *testing.T) {
	logger, _ := newTestLogger(t, Config{Prefix: "test"})

	logger.Debug("hidden by default")
	logger.Info("visible")

	got := readLog(t, logger)
	if strings.Contains(got, "hidden by default") {
		t.Errorf("debug line written at default level: %q", got)
	}
	if !strings.Contains(got, "visible") {
		t.Errorf("info line missing: %q", got)
	}
}

func TestFileLogger_ConsoleTee(t *testing.T) {
	var console strings.Builder
	logger, _ := newTestLogger(t, Config{Prefix: "test", Console: &console})

	logger.Info("seen everywhere")

	if !strings.Contains(console.String(), "seen everywhere") {
		t.Errorf("console output = %q", console.String())
	}
	if !strings.Contains(readLog(t, logger), "seen everywhere") {
		t.Error("file output missing line")
	}
}

func TestFileLogger_WithComponent(t *testing.T) {
	logger, _ := newTestLogger(t, Config{Prefix: "test"})

	logger.WithComponent("repair").Info("re-encoding")

	if !strings.Contains(readLog(t, logger), "[repair]") {
		t.Error("component tag missing")
	}
}
