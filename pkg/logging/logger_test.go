package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"invalid", InfoLevel}, // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		f := String("key", "value")
		if f.Key != "key" || f.Value != "value" {
			t.Errorf("String() = %+v, want {Key:key Value:value}", f)
		}
	})

	t.Run("Duration", func(t *testing.T) {
		f := Duration("timeout", 5*time.Second)
		if f.Key != "timeout" || f.Value != "5s" {
			t.Errorf("Duration() = %+v", f)
		}
	})

	t.Run("Error", func(t *testing.T) {
		f := Error(errors.New("test error"))
		if f.Key != "error" || f.Value != "test error" {
			t.Errorf("Error() = %+v", f)
		}
	})

	t.Run("Error_nil", func(t *testing.T) {
		f := Error(nil)
		if f.Key != "error" || f.Value != nil {
			t.Errorf("Error(nil) = %+v", f)
		}
	})

	t.Run("TokenName", func(t *testing.T) {
		f := TokenName("--color-primary")
		if f.Key != "token" || f.Value != "--color-primary" {
			t.Errorf("TokenName() = %+v", f)
		}
	})

	t.Run("RuleKind", func(t *testing.T) {
		f := RuleKind("contrast")
		if f.Key != "rule_kind" || f.Value != "contrast" {
			t.Errorf("RuleKind() = %+v", f)
		}
	})

	t.Run("Confidence", func(t *testing.T) {
		f := Confidence(0.85)
		if f.Key != "confidence" || f.Value != 0.85 {
			t.Errorf("Confidence() = %+v", f)
		}
	})

	t.Run("CascadeSize", func(t *testing.T) {
		f := CascadeSize(12)
		if f.Key != "cascade_size" || f.Value != 12 {
			t.Errorf("CascadeSize() = %+v", f)
		}
	})
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("rule executed", TokenName("--spacing-lg"), Confidence(1.0))

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Level = %v, want INFO", entry.Level)
	}
	if entry.Message != "rule executed" {
		t.Errorf("Message = %v, want 'rule executed'", entry.Message)
	}
	if entry.Fields["token"] != "--spacing-lg" {
		t.Errorf("Fields[token] = %v, want '--spacing-lg'", entry.Fields["token"])
	}
	if entry.Time == "" {
		t.Error("Time field is empty")
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	// Below the threshold, dropped
	logger.Debug("debug message")
	logger.Info("info message")

	// At or above, kept
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected 2 log entries, got %d", len(lines))
	}

	var warnEntry Entry
	if err := json.Unmarshal([]byte(lines[0]), &warnEntry); err != nil {
		t.Fatalf("Failed to unmarshal WARN entry: %v", err)
	}
	if warnEntry.Level != "WARN" {
		t.Errorf("First entry level = %v, want WARN", warnEntry.Level)
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	childLogger := logger.With(
		Component("analyzer"),
		Operation("predict_cascade_impact"),
	)

	childLogger.Info("prediction complete", CascadeSize(7))

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if entry.Fields["component"] != "analyzer" {
		t.Errorf("component field = %v, want analyzer", entry.Fields["component"])
	}
	if entry.Fields["operation"] != "predict_cascade_impact" {
		t.Errorf("operation field = %v, want predict_cascade_impact", entry.Fields["operation"])
	}
	if entry.Fields["cascade_size"] != float64(7) { // JSON unmarshals numbers as float64
		t.Errorf("cascade_size field = %v, want 7", entry.Fields["cascade_size"])
	}
}

func TestJSONLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	if logger.GetLevel() != InfoLevel {
		t.Errorf("Initial level = %v, want InfoLevel", logger.GetLevel())
	}

	logger.SetLevel(ErrorLevel)

	logger.Debug("debug")
	logger.Info("info")
	if buf.Len() != 0 {
		t.Error("Expected no output for Debug/Info at ErrorLevel")
	}

	logger.Error("error")
	if buf.Len() == 0 {
		t.Error("Expected output for Error at ErrorLevel")
	}
}

func TestGlobalHelperFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))

	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	ErrorLog("error msg")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Errorf("Expected 4 log entries, got %d", len(lines))
	}

	levels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, expectedLevel := range levels {
		var entry Entry
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("Failed to unmarshal entry %d: %v", i, err)
		}
		if entry.Level != expectedLevel {
			t.Errorf("Entry %d level = %v, want %v", i, entry.Level, expectedLevel)
		}
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("message without fields")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if _, exists := entry["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("discarded", TokenName("--x"))
	if child := logger.With(Component("test")); child == nil {
		t.Fatal("With() returned nil")
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "cascade analysis", TokenName("--color-primary"))
	op.End()

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if entry.Fields["token"] != "--color-primary" {
		t.Errorf("token field = %v", entry.Fields["token"])
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("Expected latency field")
	}
}
