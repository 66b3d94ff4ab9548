package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/keysweep/internal/field"
	"github.com/thruflo/keysweep/internal/logging"
	"github.com/thruflo/keysweep/internal/testutil"
)

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultMin, cfg.Keyspace.Min)
	assert.Equal(t, DefaultMax, cfg.Keyspace.Max)
	assert.Equal(t, DefaultMaxAttempts, cfg.Limits.MaxAttempts)
	assert.Equal(t, DefaultInterval, cfg.Timing.Interval.Std())
	assert.Equal(t, DefaultSettleDelay, cfg.Timing.SettleDelay.Std())
	assert.Equal(t, DefaultPausePoll, cfg.Timing.PausePoll.Std())
	assert.Equal(t, DefaultSelector, cfg.Field.Selector)
	assert.Equal(t, field.DefaultLabels, cfg.Field.Labels)
	assert.Equal(t, DefaultDevToolsURL, cfg.Host.DevToolsURL)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := testutil.WriteTestFile(t, t.TempDir(), "keysweep.yaml", testutil.SampleConfigYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assertSample(t, cfg)
}

func TestLoadConfig_TOML(t *testing.T) {
	path := testutil.WriteTestFile(t, t.TempDir(), "keysweep.toml", testutil.SampleConfigTOML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assertSample(t, cfg)
}

func assertSample(t *testing.T, cfg *Config) {
	t.Helper()
	assert.Equal(t, Keyspace{Min: 1000, Max: 9999}, cfg.Keyspace)
	assert.Equal(t, 2500, cfg.Limits.MaxAttempts)
	assert.Equal(t, 75*time.Millisecond, cfg.Timing.Interval.Std())
	assert.Equal(t, 10*time.Millisecond, cfg.Timing.SettleDelay.Std())
	assert.Equal(t, 200*time.Millisecond, cfg.Timing.PausePoll.Std())
	assert.Equal(t, `input[name="code"]`, cfg.Field.Selector)
	assert.Equal(t, []string{"Go", "Join"}, cfg.Field.Labels)
	assert.Equal(t, 1, cfg.Field.FuzzyDistance)
	assert.Equal(t, "http://127.0.0.1:9333", cfg.Host.DevToolsURL)
	assert.Equal(t, "example.com/lobby", cfg.Host.PageMatch)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "partial.yaml", "limits:\n  max_attempts: 25\n"},
		{"toml", "partial.toml", "[limits]\nmax_attempts = 25\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteTestFile(t, t.TempDir(), tt.file, tt.content)

			cfg, err := LoadConfig(path)
			require.NoError(t, err)

			assert.Equal(t, 25, cfg.Limits.MaxAttempts)
			assert.Equal(t, DefaultMin, cfg.Keyspace.Min)
			assert.Equal(t, DefaultInterval, cfg.Timing.Interval.Std())
			assert.Equal(t, field.DefaultLabels, cfg.Field.Labels)
		})
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	path := testutil.WriteTestFile(t, t.TempDir(), "empty.yaml", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfig_NotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := testutil.WriteTestFile(t, t.TempDir(), "bad.yaml", "keyspace: [unclosed")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_UnknownKeys(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(testutil.WriteTestFile(t, dir, "a.yaml", "limits:\n  max_iterations: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_iterations")

	_, err = LoadConfig(testutil.WriteTestFile(t, dir, "b.toml", "[limits]\nmax_iterations = 3\n"))
	require.Error(t, err)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "limits.max_iterations", ve.Field)
}

func TestLoadConfig_BadDuration(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(testutil.WriteTestFile(t, dir, "a.yaml", "timing:\n  interval: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid duration "soon"`)

	_, err = LoadConfig(testutil.WriteTestFile(t, dir, "b.toml", "[timing]\ninterval = \"soon\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid duration "soon"`)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "inverted range",
			content: testutil.SampleInvalidConfigYAML,
			field:   "keyspace.max",
		},
		{
			name:    "negative min",
			content: "keyspace:\n  min: -1\n",
			field:   "keyspace.min",
		},
		{
			name:    "zero max_attempts",
			content: "limits:\n  max_attempts: 0\n",
			field:   "limits.max_attempts",
		},
		{
			name:    "negative interval",
			content: "timing:\n  interval: -5ms\n",
			field:   "timing.interval",
		},
		{
			name:    "negative settle delay",
			content: "timing:\n  settle_delay: -1s\n",
			field:   "timing.settle_delay",
		},
		{
			name:    "zero pause poll",
			content: "timing:\n  pause_poll: 0s\n",
			field:   "timing.pause_poll",
		},
		{
			name:    "empty selector",
			content: "field:\n  selector: \"  \"\n",
			field:   "field.selector",
		},
		{
			name:    "no labels",
			content: "field:\n  labels: []\n",
			field:   "field.labels",
		},
		{
			name:    "blank label",
			content: "field:\n  labels: [Join, \"\"]\n",
			field:   "field.labels",
		},
		{
			name:    "negative fuzzy distance",
			content: "field:\n  fuzzy_distance: -2\n",
			field:   "field.fuzzy_distance",
		},
		{
			name:    "unknown log level",
			content: "log:\n  level: chatty\n",
			field:   "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteTestFile(t, t.TempDir(), "config.yaml", tt.content)

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv(logging.EnvLogLevel, "info")

	path := testutil.WriteTestFile(t, t.TempDir(), "config.yaml", "log:\n  level: error\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_EnvOverrideInvalid(t *testing.T) {
	t.Setenv(logging.EnvLogLevel, "loud")

	_, err := LoadConfig("")
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "log.level", ve.Field)
}

func TestField_Matcher(t *testing.T) {
	exact := Field{Labels: []string{"Join"}}.Matcher()
	assert.True(t, exact.Match("join now"))
	assert.False(t, exact.Match("Jion"))

	fuzzy := Field{Labels: []string{"Join"}, FuzzyDistance: 1}.Matcher()
	assert.True(t, fuzzy.Match("Jion"))
}

func TestValidationError_Error(t *testing.T) {
	ve := ValidationError{Field: "test.field", Message: "must be valid"}
	assert.Equal(t, "validation error: test.field: must be valid", ve.Error())
}

func TestIsValidationError(t *testing.T) {
	ve := ValidationError{Field: "test", Message: "test"}
	assert.True(t, IsValidationError(ve))
	assert.False(t, IsValidationError(os.ErrNotExist))
}
