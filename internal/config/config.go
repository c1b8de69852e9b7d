// Package config handles run configuration: YAML parsing, defaults and
// pre-run validation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dbpulse/internal/core"
	"dbpulse/internal/workload"
)

// ConfigError is a fatal pre-run configuration problem. Nothing starts
// when validation fails; it is the only error class that aborts the
// harness.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config is the full configuration for one run. It is validated once
// before the run starts and never mutated afterwards.
type Config struct {
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`

	Concurrency         int `yaml:"concurrency"`
	OperationsPerWorker int `yaml:"operationsPerWorker"`

	// Mix is either a preset name resolved via MixName, or explicit
	// per-kind weights. Explicit weights win when both are set.
	MixName string             `yaml:"mix"`
	Weights map[string]float64 `yaml:"weights"`

	SampleInterval time.Duration `yaml:"sampleInterval"`
	SampleDuration time.Duration `yaml:"sampleDuration"`

	// Rate caps aggregate operations/sec across all workers. 0 disables
	// pacing.
	Rate float64 `yaml:"rate"`

	ResultsDir string `yaml:"resultsDir"`
}

// Default returns the configuration the original harness shipped with:
// 20 connections x 100 operations of mixed load, sampled every 5s for
// two minutes.
func Default() *Config {
	return &Config{
		Database:            "bookservice",
		Concurrency:         20,
		OperationsPerWorker: 100,
		MixName:             "mixed",
		SampleInterval:      5 * time.Second,
		SampleDuration:      120 * time.Second,
		ResultsDir:          "database_test_results",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks every pre-run invariant. It returns a *ConfigError on
// the first violation.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return &ConfigError{Field: "dsn", Reason: "must be set"}
	}
	if c.Concurrency <= 0 {
		return &ConfigError{Field: "concurrency", Reason: "must be positive"}
	}
	if c.OperationsPerWorker <= 0 {
		return &ConfigError{Field: "operationsPerWorker", Reason: "must be positive"}
	}
	if c.SampleInterval <= 0 {
		return &ConfigError{Field: "sampleInterval", Reason: "must be positive"}
	}
	if c.SampleDuration <= 0 {
		return &ConfigError{Field: "sampleDuration", Reason: "must be positive"}
	}
	if c.Rate < 0 {
		return &ConfigError{Field: "rate", Reason: "must not be negative"}
	}
	if _, err := c.MixPolicy(); err != nil {
		return &ConfigError{Field: "mix", Reason: err.Error()}
	}
	return nil
}

// MixPolicy resolves the configured mix into a workload policy.
func (c *Config) MixPolicy() (workload.MixPolicy, error) {
	if len(c.Weights) > 0 {
		policy := make(workload.MixPolicy, len(c.Weights))
		for name, w := range c.Weights {
			kind, err := core.ParseKind(name)
			if err != nil {
				return nil, err
			}
			policy[kind] = w
		}
		if err := policy.Validate(); err != nil {
			return nil, err
		}
		return policy, nil
	}

	name := c.MixName
	if name == "" {
		name = "mixed"
	}
	policy, ok := workload.Preset(name)
	if !ok {
		return nil, fmt.Errorf("unknown mix preset %q", name)
	}
	return policy, nil
}
