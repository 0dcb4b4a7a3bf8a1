package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesComponentFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, cleanup, err := New("file-server", Options{Dir: dir, Level: "debug"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("hello from test")
	cleanup()

	data, err := os.ReadFile(filepath.Join(dir, "file-server.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "hello from test") || !strings.Contains(out, "component=file-server") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("nonsense"); got != logrus.InfoLevel {
		t.Fatalf("expected info, got %v", got)
	}
	if got := parseLevel("warn"); got != logrus.WarnLevel {
		t.Fatalf("expected warn, got %v", got)
	}
}

func TestNewFailsWhenDirIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, _, err := New("x", Options{Dir: file}); err == nil {
		t.Fatalf("expected error when log dir is a file")
	}
	if Fallback("x", "").Logger.Out != os.Stderr {
		t.Fatalf("fallback should write to stderr")
	}
}
