package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	logger, err := New("warn", "console", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info to be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("expected warn to be enabled")
	}
}

func TestNewVerboseForcesDebug(t *testing.T) {
	logger, err := New("error", "json", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be enabled in verbose mode")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "console", false); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New("info", "xml", false); err == nil {
		t.Error("expected error for invalid format")
	}
}
