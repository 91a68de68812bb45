package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a scenario that failed to load, run or pass.
type ScenarioFailure struct {
	Name         string   `json:"name"`
	ScenarioPath string   `json:"scenario_path"`
	Errors       []string `json:"errors"`
}

// FindScenarios returns the YAML scenario files under dir in lexical order.
// If filter is non-empty, only files whose base name without extension
// matches the glob are returned.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// RunFile loads and runs one scenario file. Load and execution errors are
// folded into a failing result so a suite keeps going.
func RunFile(path string) (*Scenario, *Result) {
	scenario, err := LoadScenario(path)
	if err != nil {
		result := NewResult()
		result.AddError(fmt.Sprintf("failed to load scenario: %v", err))
		return &Scenario{Name: filepath.Base(path)}, result
	}

	result, err := Run(scenario)
	if err != nil {
		result = NewResult()
		result.AddError(fmt.Sprintf("scenario execution failed: %v", err))
	}
	return scenario, result
}

// RunDir runs every scenario under dir and summarizes the outcome.
func RunDir(dir, filter string) (*SuiteResult, error) {
	paths, err := FindScenarios(dir, filter)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{}
	for _, path := range paths {
		suite.Total++
		scenario, result := RunFile(path)
		if result.Pass {
			suite.Passed++
			continue
		}
		suite.Failed++
		suite.Failures = append(suite.Failures, ScenarioFailure{
			Name:         scenario.Name,
			ScenarioPath: path,
			Errors:       result.Errors,
		})
	}
	return suite, nil
}
