package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug allowed at debug", LevelDebug, LevelDebug, true},
		{"info allowed at debug", LevelDebug, LevelInfo, true},
		{"warn allowed at debug", LevelDebug, LevelWarn, true},
		{"error allowed at debug", LevelDebug, LevelError, true},
		{"debug blocked at info", LevelInfo, LevelDebug, false},
		{"info allowed at info", LevelInfo, LevelInfo, true},
		{"warn allowed at info", LevelInfo, LevelWarn, true},
		{"debug blocked at warn", LevelWarn, LevelDebug, false},
		{"info blocked at warn", LevelWarn, LevelInfo, false},
		{"warn allowed at warn", LevelWarn, LevelWarn, true},
		{"error allowed at warn", LevelWarn, LevelError, true},
		{"warn blocked at error", LevelError, LevelWarn, false},
		{"error allowed at error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New()
			logger.SetLevel(tt.minLevel)
			logger.SetOutput(&buf)

			switch tt.logLevel {
			case LevelDebug:
				logger.Debug("test message")
			case LevelInfo:
				logger.Info("test message")
			case LevelWarn:
				logger.Warn("test message")
			case LevelError:
				logger.Error("test message")
			}

			if tt.shouldLog {
				assert.Contains(t, buf.String(), "test message")
				assert.Contains(t, buf.String(), tt.logLevel.String()+":")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(&buf)

	childLogger := logger.With("run", "abc123")
	childLogger.Warn("something happened")

	output := buf.String()
	assert.Contains(t, output, "WARN: something happened")
	assert.Contains(t, output, "run=abc123")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(&buf)

	childLogger := logger.WithFields(map[string]interface{}{
		"run":       "abc123",
		"component": "loop",
	})
	childLogger.Error("error occurred")

	output := buf.String()
	assert.Contains(t, output, "ERROR: error occurred")
	assert.Contains(t, output, "run=abc123")
	assert.Contains(t, output, "component=loop")
}

func TestLoggerInlineKeyVals(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(&buf)

	logger.Warn("dispatch failed", "error", errors.New("timeout"), "attempt", 3)

	output := buf.String()
	assert.Contains(t, output, "WARN: dispatch failed")
	assert.Contains(t, output, "timeout")
	assert.Contains(t, output, "attempt=3")
}

func TestLoggerChainingPreservesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(&buf)

	runLogger := logger.With("run", "abc123")
	opLogger := runLogger.With("operation", "submit")
	opLogger.Info("starting")

	output := buf.String()
	assert.Contains(t, output, "run=abc123")
	assert.Contains(t, output, "operation=submit")
}

func TestLoggerLevelSetOnZerolog(t *testing.T) {
	logger := New()
	assert.Equal(t, zerolog.WarnLevel, logger.output.GetLevel())

	logger.SetLevel(LevelError)
	assert.Equal(t, zerolog.ErrorLevel, logger.output.GetLevel())

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	assert.Equal(t, zerolog.ErrorLevel, logger.output.GetLevel())

	child := logger.With("component", "loop")
	assert.Equal(t, zerolog.ErrorLevel, child.output.GetLevel())
	child.Warn("dropped")
	assert.Empty(t, buf.String())
}

func TestLoggerOriginalUnmodified(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(&buf)

	_ = logger.With("run", "abc123")
	logger.Info("original logger")

	output := buf.String()
	assert.NotContains(t, output, "run=abc123")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"TRACE", LevelDebug, false},
		{"info", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelWarn, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLevel(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)

	// Debug should be filtered out
	Debug("debug message")
	assert.Empty(t, buf.String())

	Warn("warn message")
	assert.Contains(t, buf.String(), "WARN: warn message")

	buf.Reset()

	childLogger := With("component", "test")
	childLogger.Error("error message")
	assert.Contains(t, buf.String(), "component=test")
}

func TestConfigureFromEnv(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)

	t.Setenv(EnvLogLevel, "debug")
	ConfigureFromEnv()
	assert.Equal(t, LevelDebug, Default().Level())

	t.Setenv(EnvLogLevel, "nonsense")
	ConfigureFromEnv()
	assert.Equal(t, LevelDebug, Default().Level())
	assert.Contains(t, buf.String(), "ignoring log level override")

	SetLevel(LevelWarn)
}

func TestLevelNames(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}
