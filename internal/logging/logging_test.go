package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/initiative-sim/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		override  string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "Defaults", wantLevel: zapcore.InfoLevel},
		{name: "Configured console", cfg: config.LoggingConfig{Level: "warn", Format: "console"}, wantLevel: zapcore.WarnLevel},
		{name: "Override wins", cfg: config.LoggingConfig{Level: "error"}, override: "debug", wantLevel: zapcore.DebugLevel},
		{name: "Bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "Bad format", cfg: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !logger.Core().Enabled(tt.wantLevel) {
				t.Errorf("level %s should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("level below %s should be disabled", tt.wantLevel)
			}
		})
	}
}

func TestNewOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sim.log")

	logger, err := New(config.LoggingConfig{Level: "info", OutputFile: path}, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello from the simulator")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "hello from the simulator") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	if level, err := ParseLevel(" WARNING "); err != nil || level != zapcore.WarnLevel {
		t.Errorf("ParseLevel(WARNING) = %v, %v", level, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
