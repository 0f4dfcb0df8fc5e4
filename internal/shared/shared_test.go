package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   int64
		want string
	}{
		{name: "unknown", ms: 0, want: "--:--"},
		{name: "negative", ms: -5, want: "--:--"},
		{name: "seconds", ms: 9_000, want: "0:09"},
		{name: "minutes", ms: 225_500, want: "3:45"},
		{name: "hours", ms: 3_723_000, want: "1:02:03"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.ms, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}

func TestLogger(t *testing.T) {
	t.Run("ApplyLogConfig", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		if err := ApplyLogConfig(logger, LogConfig{Level: "warn"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}

		logger.Info("hidden")
		logger.Warn("shown")
		if strings.Contains(buf.String(), "hidden") {
			t.Error("info message should be filtered at warn level")
		}
		if !strings.Contains(buf.String(), "shown") {
			t.Error("warn message should be written")
		}
	})

	t.Run("ApplyLogConfig invalid level", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})
		if err := ApplyLogConfig(logger, LogConfig{Level: "loud"}); err == nil {
			t.Error("expected error for invalid level")
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		child := WithLogger(NewLogger(&buf), "component", "cache")
		child.Info("hello")
		if !strings.Contains(buf.String(), "component=cache") {
			t.Errorf("expected key-value in output, got %q", buf.String())
		}
	})
}
