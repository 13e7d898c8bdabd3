package logging_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasjlepore/har-normalizer/logging"
)

func TestConsoleLoggerWritesComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Format: "console", Level: "info"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "kuhar").Info("session read", logging.Int("windows", 4))

	line := buf.String()
	if !strings.Contains(line, "INFO kuhar: session read") {
		t.Fatalf("unexpected line %q", line)
	}
	if !strings.Contains(line, "windows=4") {
		t.Fatalf("expected windows attr, got %q", line)
	}
}

func TestWarnWithContextInjectsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Format: "json", Level: "info"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "session skipped", "session_skipped",
		logging.String(logging.FieldSession, "1001/walk"),
		logging.String(logging.FieldImpact, "walk windows missing"),
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["event_type"] != "session_skipped" {
		t.Fatalf("event_type = %v", payload["event_type"])
	}
	if payload["impact"] != "walk windows missing" {
		t.Fatalf("impact should keep caller value, got %v", payload["impact"])
	}
	if payload["error_hint"] == nil {
		t.Fatal("expected default error_hint")
	}
	if payload["level"] != "warn" {
		t.Fatalf("level = %v", payload["level"])
	}
}

func TestOpenLogFileAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	for _, msg := range []string{"first run", "second run"} {
		file, err := logging.OpenLogFile(dir)
		if err != nil {
			t.Fatalf("OpenLogFile returned error: %v", err)
		}
		logger, err := logging.New(file, logging.Options{Level: "debug"})
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Debug(msg)
		_ = file.Close()
	}

	content, err := os.ReadFile(logging.LogFilePath(dir))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "DEBUG first run\n") || !strings.Contains(string(content), "DEBUG second run\n") {
		t.Fatalf("unexpected log file %q", content)
	}
}

func TestGroupedAttrsArePrefixed(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("quality").Info("window dropped", logging.String("reason", "nan value"))
	if !strings.Contains(buf.String(), `quality.reason="nan value"`) {
		t.Fatalf("unexpected line %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(io.Discard, logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logging.NewComponentLogger(nil, "x").Warn("nothing")
	logging.WarnWithContext(nil, "nothing", "noop")
}
