package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Keyspace is the closed range of values to enumerate.
type Keyspace struct {
	Min int `yaml:"min" toml:"min"`
	Max int `yaml:"max" toml:"max"`
}

// Limits defines operational boundaries for one run.
type Limits struct {
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts"`
}

// Timing holds the loop's suspension intervals.
type Timing struct {
	Interval    Duration `yaml:"interval" toml:"interval"`
	SettleDelay Duration `yaml:"settle_delay" toml:"settle_delay"`
	PausePoll   Duration `yaml:"pause_poll" toml:"pause_poll"`
}

// Field identifies the target input and its submit control.
type Field struct {
	Selector      string   `yaml:"selector" toml:"selector"`
	Labels        []string `yaml:"labels" toml:"labels"`
	FuzzyDistance int      `yaml:"fuzzy_distance" toml:"fuzzy_distance"` // 0 means whole-word matching
}

// Host locates the browser page to drive.
type Host struct {
	DevToolsURL string `yaml:"devtools_url" toml:"devtools_url"`
	PageMatch   string `yaml:"page_match" toml:"page_match"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level" toml:"level"`
}

// Config represents a keysweep configuration file.
type Config struct {
	Keyspace Keyspace `yaml:"keyspace" toml:"keyspace"`
	Limits   Limits   `yaml:"limits" toml:"limits"`
	Timing   Timing   `yaml:"timing" toml:"timing"`
	Field    Field    `yaml:"field" toml:"field"`
	Host     Host     `yaml:"host" toml:"host"`
	Log      Log      `yaml:"log" toml:"log"`
}

// Duration is a time.Duration written as a string such as "50ms".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It is used by the
// TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}
