package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())
	assert.False(t, cfg.Output.Pretty)

	budget := cfg.ExecBudget()
	assert.Nil(t, budget.MaxSteps)
	assert.Nil(t, budget.TimeMs)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
budget:
  max_steps: 500
output:
  pretty: true
log:
  level: debug
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	budget := cfg.ExecBudget()
	require.NotNil(t, budget.MaxSteps)
	assert.Equal(t, int64(500), *budget.MaxSteps)
	assert.Nil(t, budget.TimeMs)
}

func TestLoadFileEmptyKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "budget:\n  steps: 3\n", "field steps not found"},
		{"bad level", "log:\n  level: loud\n", "unknown log level"},
		{"negative", "budget:\n  time_ms: -1\n", "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)

	userPath := filepath.Join(home, UserDir, UserFile)
	writeFile(t, userPath, "budget:\n  max_steps: 10\n")
	cfg, err = Load(project)
	require.NoError(t, err)
	assert.Equal(t, userPath, cfg.Path)
	assert.Equal(t, int64(10), cfg.Budget.MaxSteps)

	projectPath := filepath.Join(project, ProjectFile)
	writeFile(t, projectPath, "budget:\n  max_steps: 20\n")
	cfg, err = Load(project)
	require.NoError(t, err)
	assert.Equal(t, projectPath, cfg.Path)
	assert.Equal(t, int64(20), cfg.Budget.MaxSteps)
}

func TestEncode(t *testing.T) {
	cfg := Default()
	cfg.Budget.TimeMs = 250

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	assert.Equal(t, "budget:\n  max_steps: 0\n  time_ms: 250\noutput:\n  pretty: false\nlog:\n  level: warn\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("INFO")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
