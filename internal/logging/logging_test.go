package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	for _, want := range []string{"level=DEBUG", "level=INFO", "level=WARN", "level=ERROR"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}

func TestLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")

	output := buf.String()
	if strings.Contains(output, "level=DEBUG") || strings.Contains(output, "level=INFO") {
		t.Errorf("expected debug and info to be filtered out, got: %s", output)
	}
	if !strings.Contains(output, "level=WARN") {
		t.Error("expected WARN in output")
	}

	logger.SetLevel(LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel should lower the threshold")
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf})

	logger.Info("formatted %s %d", "test", 42)

	if !strings.Contains(buf.String(), `msg="formatted test 42"`) {
		t.Errorf("expected formatted message, got: %s", buf.String())
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf})

	logger.WithComponent("stage").WithField("id", "h1").Info("painted")

	output := buf.String()
	if !strings.Contains(output, "component=stage") {
		t.Errorf("expected component in output, got: %s", output)
	}
	if !strings.Contains(output, "id=h1") {
		t.Errorf("expected field in output, got: %s", output)
	}

	// Derived loggers share the parent's level.
	derived := logger.WithComponent("x")
	logger.SetLevel(LevelError)
	if derived.Enabled(LevelInfo) {
		t.Error("derived logger should follow the parent's level")
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.WithComponent("highlighter").Info("added %d ranges", 3)

	line := buf.Bytes()
	if got := gjson.GetBytes(line, "msg").String(); got != "added 3 ranges" {
		t.Errorf("msg = %q, want %q", got, "added 3 ranges")
	}
	if got := gjson.GetBytes(line, "component").String(); got != "highlighter" {
		t.Errorf("component = %q, want highlighter", got)
	}
	if got := gjson.GetBytes(line, "level").String(); got != "INFO" {
		t.Errorf("level = %q, want INFO", got)
	}
	if !gjson.GetBytes(line, "time").Exists() {
		t.Error("expected a time field")
	}
}

func TestNullAndNil(t *testing.T) {
	null := Null()
	null.Error("dropped")
	if null.Enabled(LevelError) {
		t.Error("Null logger should not be enabled")
	}

	var nilLogger *Logger
	nilLogger.Info("dropped")
	nilLogger.SetLevel(LevelDebug)
	if nilLogger.WithComponent("x") != nil {
		t.Error("WithComponent on nil should return nil")
	}
	if nilLogger.Enabled(LevelError) {
		t.Error("nil logger should not be enabled")
	}

	if ParseFormat("JSON") != FormatJSON || ParseFormat("text") != FormatText {
		t.Error("ParseFormat mismatch")
	}
}
