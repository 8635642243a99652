package clog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestTextHandlerWritesSortedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug, false).With("run", "01J")

	logger.Info("copied tree", "files", 3, Err(errors.New("boom")), "dir", "agents")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "INFO  copied tree boom") {
		t.Fatalf("unexpected header line %q", lines[0])
	}
	if lines[1] != "    dir=agents" || lines[2] != "    files=3" || lines[3] != "    run=01J" {
		t.Fatalf("attributes not sorted: %q", lines[1:])
	}
}

func TestTextHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, false)

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info record should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN  shown") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestGroupQualifiesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, false).WithGroup("install")
	logger.Info("step", "name", "copy")

	if !strings.Contains(buf.String(), "install.name=copy") {
		t.Fatalf("expected grouped key, got %q", buf.String())
	}
}
