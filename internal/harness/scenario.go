package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario compiles one program, constructs an instance with Args, feeds it
// a stream of ticks and checks the outputs, registers and errors it produces.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the program text, inline.
	Source string `yaml:"source,omitempty"`

	// Program is a path to the program file, resolved relative to the
	// scenario file. Exactly one of Source and Program is set.
	Program string `yaml:"program,omitempty"`

	// Args are the instance construction values.
	Args map[string]any `yaml:"args,omitempty"`

	// Ticks is the input stream, one entry per tick.
	Ticks []TickStep `yaml:"ticks,omitempty"`

	// ExpectError expects compilation or instance construction to fail.
	// A scenario with ExpectError has no ticks.
	ExpectError *ExpectError `yaml:"expect_error,omitempty"`

	// Assertions validate the run once every tick has been fed.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run ID for deterministic traces.
	// If empty, testutil.DefaultRunID is used.
	RunID string `yaml:"run_id,omitempty"`
}

// TickStep is one tick of the input stream.
type TickStep struct {
	// Inputs holds one value per In field.
	Inputs map[string]any `yaml:"inputs"`

	// Expect is a subset of the outputs the tick must publish.
	Expect map[string]any `yaml:"expect,omitempty"`

	// ExpectError expects the tick to fail with a runtime error.
	ExpectError *ExpectError `yaml:"expect_error,omitempty"`
}

// ExpectError names an expected failure.
//
// Kind is a semantic error kind ("CyclicDependency"), a diagnostic code
// ("E103") or a runtime error code ("DIVISION_BY_ZERO"). Name, when set, is
// the offending variable or field.
type ExpectError struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name,omitempty"`
}

// Assertion validates the final state of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_equals": an output at a tick (Tick 0 means the last tick)
	// - "register_equals": a register after the last tick
	// - "tick_count": number of committed ticks
	Type string `yaml:"type"`

	// Output is the output name (used by output_equals).
	Output string `yaml:"output,omitempty"`

	// Register is the register name (used by register_equals).
	Register string `yaml:"register,omitempty"`

	// Tick selects the committed tick (used by output_equals).
	Tick int64 `yaml:"tick,omitempty"`

	// Value is the expected value (used by output_equals, register_equals).
	Value any `yaml:"value,omitempty"`

	// Count is the expected number of committed ticks (used by tick_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputEquals   = "output_equals"
	AssertRegisterEquals = "register_equals"
	AssertTickCount      = "tick_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Program path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating file references.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// source returns the program text and the filename used in diagnostics.
func (s *Scenario) source() ([]byte, string, error) {
	if s.Source != "" {
		return []byte(s.Source), s.Name + ".tf", nil
	}
	data, err := os.ReadFile(s.Program)
	if err != nil {
		return nil, "", fmt.Errorf("read program: %w", err)
	}
	return data, s.Program, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Source == "" && s.Program == "":
		return fmt.Errorf("one of source or program is required")
	case s.Source != "" && s.Program != "":
		return fmt.Errorf("source and program are mutually exclusive")
	}

	if s.Program != "" {
		if _, err := os.Stat(s.Program); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", s.Program)
		}
	}

	if s.ExpectError != nil {
		if s.ExpectError.Kind == "" {
			return fmt.Errorf("expect_error: kind is required")
		}
		if len(s.Ticks) > 0 {
			return fmt.Errorf("expect_error and ticks are mutually exclusive")
		}
		return nil
	}

	if len(s.Ticks) == 0 {
		return fmt.Errorf("ticks list is required and must be non-empty")
	}

	for i, step := range s.Ticks {
		if step.Inputs == nil {
			return fmt.Errorf("ticks[%d]: inputs is required (use empty map if no inputs)", i)
		}
		if step.ExpectError != nil {
			if step.ExpectError.Kind == "" {
				return fmt.Errorf("ticks[%d].expect_error: kind is required", i)
			}
			if step.Expect != nil {
				return fmt.Errorf("ticks[%d]: expect and expect_error are mutually exclusive", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputEquals:
		if a.Output == "" {
			return fmt.Errorf("assertions[%d]: output is required for output_equals", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for output_equals", index)
		}
		if a.Tick < 0 {
			return fmt.Errorf("assertions[%d]: tick must be non-negative for output_equals", index)
		}
	case AssertRegisterEquals:
		if a.Register == "" {
			return fmt.Errorf("assertions[%d]: register is required for register_equals", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for register_equals", index)
		}
	case AssertTickCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for tick_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
