package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(nil, "loud"); err == nil {
		t.Error("New() with invalid level should fail")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tempo.log")
	l, closeFn, err := Open(path, "debug")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	l.Debug("hello")
	if err := closeFn(); err != nil {
		t.Errorf("close error = %v", err)
	}
}

func TestWithNil(t *testing.T) {
	if With(nil, "k", "v") == nil {
		t.Error("With(nil) returned nil")
	}
}
