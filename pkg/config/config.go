// Package config loads SIMPLE tool settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simplelang/simple/pkg/evaluator"
)

// File names searched by Load.
const (
	ProjectFile = ".simple.yaml"
	UserDir     = ".simple"
	UserFile    = "config.yaml"
)

// Config holds the settings shared by the CLI and the runtime. Zero budget
// limits mean unlimited.
type Config struct {
	Budget BudgetConfig `yaml:"budget"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`

	// Path is the file the settings were read from, empty for defaults.
	Path string `yaml:"-"`
}

type BudgetConfig struct {
	MaxSteps int64 `yaml:"max_steps"`
	TimeMs   int64 `yaml:"time_ms"`
}

type OutputConfig struct {
	Pretty bool `yaml:"pretty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings: no budget, JSON output, warn logging.
func Default() *Config {
	return &Config{Log: LogConfig{Level: "warn"}}
}

// Load reads settings for a project directory.
// Precedence: project (.simple.yaml) → user (~/.simple/config.yaml) → defaults.
// A file that exists but does not parse is an error rather than a fallthrough.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, UserDir, UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads one config file over the defaults. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Budget.MaxSteps < 0 || cfg.Budget.TimeMs < 0 {
		return nil, fmt.Errorf("config: %s: budget limits must not be negative", path)
	}
	cfg.Path = path
	return cfg, nil
}

// ExecBudget converts the budget settings for evaluator.Execute.
func (c *Config) ExecBudget() evaluator.Budget {
	return evaluator.Budget{
		MaxSteps: evaluator.Steps(c.Budget.MaxSteps),
		TimeMs:   evaluator.Millis(c.Budget.TimeMs),
	}
}

// LogLevel returns the configured slog level. Load has already validated it.
func (c *Config) LogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// Encode writes the settings as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return enc.Close()
}

// ParseLevel parses debug, info, warn or error. An empty string means warn.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
