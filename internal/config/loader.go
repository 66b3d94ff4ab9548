package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/thruflo/keysweep/internal/field"
	"github.com/thruflo/keysweep/internal/logging"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultMin           = 100
	DefaultMax           = 999999
	DefaultMaxAttempts   = 500000
	DefaultInterval      = 50 * time.Millisecond
	DefaultSettleDelay   = 20 * time.Millisecond
	DefaultPausePoll     = 100 * time.Millisecond
	DefaultSelector      = `input[name="gameId"]`
	DefaultDevToolsURL   = "http://127.0.0.1:9222"
	DefaultLogLevel      = "warn"
	DefaultFuzzyDistance = 0
)

// DefaultConfig returns a Config with the default values.
func DefaultConfig() Config {
	return Config{
		Keyspace: Keyspace{Min: DefaultMin, Max: DefaultMax},
		Limits:   Limits{MaxAttempts: DefaultMaxAttempts},
		Timing: Timing{
			Interval:    Duration(DefaultInterval),
			SettleDelay: Duration(DefaultSettleDelay),
			PausePoll:   Duration(DefaultPausePoll),
		},
		Field: Field{
			Selector:      DefaultSelector,
			Labels:        append([]string(nil), field.DefaultLabels...),
			FuzzyDistance: DefaultFuzzyDistance,
		},
		Host: Host{DevToolsURL: DefaultDevToolsURL},
		Log:  Log{Level: DefaultLogLevel},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses the configuration file at path. An empty path
// yields the default config. Files ending in .toml are parsed as TOML,
// anything else as YAML. Missing fields keep their defaults, and the
// KEYSWEEP_LOG_LEVEL environment variable overrides log.level.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return nil, err
		}
	}

	ApplyEnv(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return ValidationError{Field: keys[0], Message: "unknown key"}
		}
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv applies environment overrides to cfg.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(logging.EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.Keyspace.Min < 0 {
		return ValidationError{Field: "keyspace.min", Message: "must not be negative"}
	}
	if cfg.Keyspace.Min > cfg.Keyspace.Max {
		return ValidationError{Field: "keyspace.max", Message: "must not be less than keyspace.min"}
	}
	if cfg.Limits.MaxAttempts <= 0 {
		return ValidationError{Field: "limits.max_attempts", Message: "must be positive"}
	}
	if cfg.Timing.Interval < 0 {
		return ValidationError{Field: "timing.interval", Message: "must not be negative"}
	}
	if cfg.Timing.SettleDelay < 0 {
		return ValidationError{Field: "timing.settle_delay", Message: "must not be negative"}
	}
	if cfg.Timing.PausePoll <= 0 {
		return ValidationError{Field: "timing.pause_poll", Message: "must be positive"}
	}
	if strings.TrimSpace(cfg.Field.Selector) == "" {
		return ValidationError{Field: "field.selector", Message: "required field is empty"}
	}
	if len(cfg.Field.Labels) == 0 {
		return ValidationError{Field: "field.labels", Message: "must list at least one label"}
	}
	for _, l := range cfg.Field.Labels {
		if strings.TrimSpace(l) == "" {
			return ValidationError{Field: "field.labels", Message: "labels must not be blank"}
		}
	}
	if cfg.Field.FuzzyDistance < 0 {
		return ValidationError{Field: "field.fuzzy_distance", Message: "must not be negative"}
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return ValidationError{Field: "log.level", Message: err.Error()}
	}
	return nil
}

// Matcher builds the submit-control matcher described by the field section.
func (f Field) Matcher() field.Matcher {
	if f.FuzzyDistance > 0 {
		return field.NewLabelMatcher(f.Labels, field.WithinDistance(f.FuzzyDistance))
	}
	return field.NewLabelMatcher(f.Labels, field.WholeWord)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
