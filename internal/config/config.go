// Package config provides unified configuration loading for archsim.
// It supports loading from a .env file, YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/logging"
)

// Config contains all archsim configuration settings.
type Config struct {
	// Simulation controls headless runs.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Economy sets the starting global resources.
	Economy EconomyConfig `json:"economy" yaml:"economy"`

	// History controls run recording.
	History HistoryConfig `json:"history" yaml:"history"`

	// Logging contains settings for operational logging and the tick trace.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// MCP configures the MCP server.
	MCP MCPConfig `json:"mcp" yaml:"mcp"`
}

// SimulationConfig controls the tick loop.
type SimulationConfig struct {
	// Architecture is the archetype to build: monolith, microservices or event-driven.
	Architecture string `json:"architecture" yaml:"architecture"`

	// Delta is the simulated time per tick, in seconds.
	Delta float64 `json:"delta" yaml:"delta"`

	// Ticks is the number of ticks a headless run performs.
	Ticks int `json:"ticks" yaml:"ticks"`

	// SpreadEvery runs a discrete contagion step after every Nth tick. 0 disables it.
	SpreadEvery int `json:"spread_every" yaml:"spread_every"`

	// SampleEvery records a history sample after every Nth tick.
	SampleEvery int `json:"sample_every" yaml:"sample_every"`

	// Seed seeds performance sampling. 0 means a random seed.
	Seed uint64 `json:"seed" yaml:"seed"`

	// TopologyFile, when set, replaces the archetype with a YAML topology.
	TopologyFile string `json:"topology_file" yaml:"topology_file"`
}

// EconomyConfig sets the starting economy.
type EconomyConfig struct {
	StartingMoney      float64 `json:"starting_money" yaml:"starting_money"`
	StartingReputation float64 `json:"starting_reputation" yaml:"starting_reputation"`
}

// HistoryConfig controls where runs are recorded.
type HistoryConfig struct {
	// Enabled records every run to the history database.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir overrides the data directory. Empty means ./.archsim.
	Dir string `json:"dir" yaml:"dir"`
}

// LoggingConfig configures archsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default), "debug", or "trace".
	// "debug" and "trace" enable the tick trace in .archsim/ticks.jsonl.
	Level string `json:"level" yaml:"level"`
}

// MCPConfig configures per-tool rate limiting for the MCP server.
type MCPConfig struct {
	RatePerMinute float64 `json:"rate_per_minute" yaml:"rate_per_minute"`
	Burst         int     `json:"burst" yaml:"burst"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Architecture: archetype.Monolith.Slug(),
			Delta:        constants.DefaultTickDelta,
			Ticks:        constants.DefaultTicks,
			SpreadEvery:  60,
			SampleEvery:  10,
		},
		Economy: EconomyConfig{
			StartingMoney:      constants.DefaultStartingMoney,
			StartingReputation: constants.DefaultStartingReputation,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		MCP: MCPConfig{
			RatePerMinute: 120,
			Burst:         20,
		},
	}
}

// ConfigPath returns ~/.archsim/config.yaml.
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, constants.DefaultDataDir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> .env -> ~/.archsim/config.yaml -> environment variables
func Load() (*Config, error) {
	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	config := Default()

	if configPath, err := ConfigPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Simulation.TopologyFile = expandEnvVars(config.Simulation.TopologyFile)
	config.History.Dir = expandEnvVars(config.History.Dir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if _, err := archetype.Parse(c.Simulation.Architecture); err != nil {
		return err
	}
	if c.Simulation.Delta < 0 {
		return fmt.Errorf("delta must be non-negative, got %g", c.Simulation.Delta)
	}
	if c.Simulation.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.Simulation.Ticks)
	}
	if c.Simulation.SpreadEvery < 0 {
		return fmt.Errorf("spread_every must be non-negative, got %d", c.Simulation.SpreadEvery)
	}
	if c.Simulation.SampleEvery < 0 {
		return fmt.Errorf("sample_every must be non-negative, got %d", c.Simulation.SampleEvery)
	}

	if c.Economy.StartingMoney < 0 {
		return fmt.Errorf("starting_money must be non-negative, got %g", c.Economy.StartingMoney)
	}
	if c.Economy.StartingReputation < 0 || c.Economy.StartingReputation > constants.MaxReputation {
		return fmt.Errorf("starting_reputation must be between 0 and %g, got %g", constants.MaxReputation, c.Economy.StartingReputation)
	}

	if c.MCP.RatePerMinute <= 0 {
		return fmt.Errorf("rate_per_minute must be positive, got %g", c.MCP.RatePerMinute)
	}
	if c.MCP.Burst < 1 {
		return fmt.Errorf("burst must be at least 1, got %d", c.MCP.Burst)
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Architecture returns the parsed archetype.
func (c *Config) Architecture() (archetype.ArchitectureType, error) {
	return archetype.Parse(c.Simulation.Architecture)
}

// TraceEnabled reports whether the configured level writes the tick trace.
func (c *Config) TraceEnabled() bool {
	return logging.ParseLevel(c.Logging.Level) <= slog.LevelDebug
}

// Flatten returns every setting as dotted key -> value, e.g.
// "simulation.ticks" -> "600".
func (c *Config) Flatten() (map[string]string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	flatten("", tree, out)
	return out, nil
}

// Keys returns the dotted keys of Flatten in sorted order.
func (c *Config) Keys() ([]string, error) {
	flat, err := c.Flatten()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get returns one dotted setting.
func (c *Config) Get(key string) (string, error) {
	flat, err := c.Flatten()
	if err != nil {
		return "", err
	}
	v, ok := flat[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = fmt.Sprint(v)
	}
}

// applyEnvOverrides applies ARCHSIM_* environment variable overrides to the config.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("ARCHSIM_ARCHITECTURE"); v != "" {
		config.Simulation.Architecture = v
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{"ARCHSIM_DELTA", &config.Simulation.Delta},
		{"ARCHSIM_STARTING_MONEY", &config.Economy.StartingMoney},
		{"ARCHSIM_STARTING_REPUTATION", &config.Economy.StartingReputation},
		{"ARCHSIM_MCP_RATE_PER_MINUTE", &config.MCP.RatePerMinute},
	}
	for _, f := range floats {
		if v := os.Getenv(f.env); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.env, err)
			}
			*f.dst = parsed
		}
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"ARCHSIM_TICKS", &config.Simulation.Ticks},
		{"ARCHSIM_SPREAD_EVERY", &config.Simulation.SpreadEvery},
		{"ARCHSIM_SAMPLE_EVERY", &config.Simulation.SampleEvery},
		{"ARCHSIM_MCP_BURST", &config.MCP.Burst},
	}
	for _, i := range ints {
		if v := os.Getenv(i.env); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", i.env, err)
			}
			*i.dst = parsed
		}
	}

	if v := os.Getenv("ARCHSIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ARCHSIM_SEED: %w", err)
		}
		config.Simulation.Seed = seed
	}

	if v := os.Getenv("ARCHSIM_TOPOLOGY_FILE"); v != "" {
		config.Simulation.TopologyFile = v
	}

	if v := os.Getenv("ARCHSIM_HISTORY_ENABLED"); v != "" {
		config.History.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("ARCHSIM_HISTORY_DIR"); v != "" {
		config.History.Dir = v
	}

	if v := os.Getenv("ARCHSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
