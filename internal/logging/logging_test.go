package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "javm.log")
	log, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Info("class loaded", zap.String("class", "Main"))
	log.Debug("hidden")
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "class loaded") || !strings.Contains(out, log.RunID) {
		t.Errorf("Expected message and run id in log, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug message to be filtered at info level")
	}
}

func TestDebugEnvForcesDebug(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	log, err := New(Options{Level: "error", File: filepath.Join(t.TempDir(), "x.log")})
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()
	if !log.IsDebug() {
		t.Errorf("Expected %s to force debug level", DebugEnv)
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := New(Options{Level: "verbose"}); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("ignored")
	if log.IsDebug() {
		t.Error("Expected nop logger to have no enabled levels")
	}
	if err := log.Close(); err != nil {
		t.Errorf("Expected nil error closing nop logger, got %v", err)
	}
}
