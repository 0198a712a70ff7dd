package config

import (
	"fmt"
	"time"
)

// Config represents a stockpipe.yaml configuration file.
// All values are optional and act as defaults for stockpipe run flags.
// CLI flags always override config values.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Adapter  AdapterConfig  `yaml:"adapter"`
}

// PipelineConfig holds pipeline defaults from the config file.
type PipelineConfig struct {
	Name         string   `yaml:"name"`
	Symbols      []string `yaml:"symbols"`
	LookbackDays int      `yaml:"lookback_days"`
	Mode         string   `yaml:"mode"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds notification defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
