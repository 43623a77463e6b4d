package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevel(t *testing.T) {
	log, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", log.GetLevel())
	}

	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskboard.log")
	log, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.WithField("table", "meetings").Info("snapshot reloaded")
	if c, ok := log.Out.(interface{ Close() error }); ok {
		c.Close()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(b), `"table":"meetings"`) {
		t.Errorf("Expected JSON entry with field, got %s", b)
	}
}
