// Package config provides configuration loading for nmcheck.
// It supports loading from YAML files and environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/db47h/nmcheck"
	"github.com/db47h/nmcheck/internal/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config contains all nmcheck settings.
type Config struct {
	// Params are the hardware parameters of the circuit under test.
	Params nmcheck.Primitives `json:"params" yaml:"params"`

	// Sim configures the simulation kernel hosting the circuit.
	Sim SimConfig `json:"sim" yaml:"sim"`

	// Run selects and schedules scenarios.
	Run RunConfig `json:"run" yaml:"run"`

	// Logging configures the operational log.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimConfig configures the simulation kernel.
type SimConfig struct {
	// Workers is the number of goroutines updating a circuit. 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`

	// StepsPerCycle is the number of simulation steps per clock cycle,
	// rounded up to a power of two.
	StepsPerCycle uint `json:"steps_per_cycle" yaml:"steps_per_cycle"`
}

// RunConfig selects and schedules scenarios.
type RunConfig struct {
	// Scenarios lists the scenarios to run. Empty runs all of them.
	Scenarios []string `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`

	// Parallel is the maximum number of scenarios running at once, each on
	// its own circuit.
	Parallel int `json:"parallel" yaml:"parallel"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default),
	// "debug" or "trace". "trace" logs every driven value and sample.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with the reference circuit parameters.
func Default() *Config {
	return &Config{
		Params: nmcheck.DefaultPrimitives(),
		Sim: SimConfig{
			Workers:       1,
			StepsPerCycle: 4,
		},
		Run: RunConfig{
			Parallel: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path if not empty, then applies environment
// variable overrides.
// Order: defaults -> config file -> environment variables
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "loading config file")
		}
		config = fileConfig
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Settings
// missing from the file keep their default value.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return errors.Wrap(err, "params")
	}
	if c.Sim.Workers < 0 {
		return errors.Errorf("workers must be non-negative, got %d", c.Sim.Workers)
	}
	if c.Run.Parallel < 0 {
		return errors.Errorf("parallel must be non-negative, got %d", c.Run.Parallel)
	}
	if _, err := nmcheck.Lookup(c.Run.Scenarios...); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return errors.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("NMCHECK_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("NMCHECK_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Run.Parallel = n
		}
	}
	if v := os.Getenv("NMCHECK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Sim.Workers = n
		}
	}
	if v := os.Getenv("NMCHECK_STEPS_PER_CYCLE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			config.Sim.StepsPerCycle = uint(n)
		}
	}
}
