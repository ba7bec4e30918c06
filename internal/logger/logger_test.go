package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_IsNop(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatal("New().Log is nil")
	}
	if l.Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger before Init")
	}
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		dev     bool
		wantErr bool
		enabled zapcore.Level
		off     zapcore.Level
	}{
		{"info production", "Info", false, false, zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn development", "warn", true, false, zapcore.WarnLevel, zapcore.InfoLevel},
		{"bad level", "loud", false, true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			err := l.Init(tt.level, tt.dev)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Init: %v", err)
			}
			if !l.Log.Core().Enabled(tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if l.Log.Core().Enabled(tt.off) {
				t.Errorf("level %v should be disabled", tt.off)
			}
		})
	}
}
