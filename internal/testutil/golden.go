// Package testutil provides shared test helpers for SIMPLE Go tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenarios.
const ScenariosDir = "testdata/scenarios"

// ScenarioFile is the name of the scenario description in each scenario directory.
const ScenarioFile = "scenario.yaml"

// Scenario represents a test scenario loaded from a scenario.yaml file.
type Scenario struct {
	// Cmd is a CLI command line without the program name, e.g.
	// [run, program.yaml, --max-steps, "100"].
	Cmd    []string       `yaml:"cmd"`
	Meta   *ScenarioMeta  `yaml:"meta,omitempty"`
	Expect ExpectedResult `yaml:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode         int    `yaml:"exitCode"`
	StdoutJSON       any    `yaml:"stdoutJson,omitempty"`
	StdoutText       string `yaml:"stdoutText,omitempty"`
	StderrContains   string `yaml:"stderrContains,omitempty"`
	StderrJSONSubset any    `yaml:"stderrJsonSubset,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.yaml.
func LoadScenario(dir string) (*Scenario, error) {
	file, err := os.Open(filepath.Join(dir, ScenarioFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var s Scenario
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", dir, err)
	}
	if len(s.Cmd) < 2 {
		return nil, fmt.Errorf("scenario %s: cmd needs a command and a program file", dir)
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), ScenarioFile)
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	return dirs, nil
}

// Command returns the CLI subcommand, e.g. "run".
func (s *Scenario) Command() string {
	return s.Cmd[0]
}

// Flag returns the value following a flag in Cmd.
func (s *Scenario) Flag(name string) (string, bool) {
	for i, arg := range s.Cmd {
		if arg == name && i+1 < len(s.Cmd) {
			return s.Cmd[i+1], true
		}
		if v, ok := strings.CutPrefix(arg, name+"="); ok {
			return v, true
		}
	}
	return "", false
}

// HasFlag reports whether a boolean flag is present in Cmd.
func (s *Scenario) HasFlag(name string) bool {
	for _, arg := range s.Cmd {
		if arg == name {
			return true
		}
	}
	return false
}

// ReadProgramFile reads the program file referenced by the scenario cmd.
func ReadProgramFile(scenarioDir string, cmd []string) ([]byte, string, error) {
	if len(cmd) < 2 {
		return nil, "", nil
	}
	filename := cmd[1]
	source, err := os.ReadFile(filepath.Join(scenarioDir, filename))
	if err != nil {
		return nil, "", err
	}
	return source, filename, nil
}

// JSON marshals an expectation decoded from YAML for comparison with
// command output.
func JSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
