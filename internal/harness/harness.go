package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/store"
	"github.com/roach88/tickflow/internal/testutil"
)

// Harness is the scenario execution state.
// It runs one scenario with a fixed run ID.
type Harness struct {
	recorder *engine.Recorder
	inst     *engine.Instance
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Run returns an error only when the scenario cannot be executed at all
// (unreadable program, storage failure). Mismatched expectations are
// reported in Result.Errors.
//
// Execution flow:
// 1. Compile the program and construct the instance
// 2. Record a run in a fresh in-memory database
// 3. Feed each tick and compare outputs and errors
// 4. Verify the recorded hash chain
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	result := NewResult()

	src, filename, err := scenario.source()
	if err != nil {
		return nil, err
	}

	plan, err := compiler.CompileSource(filename, src)
	if err != nil {
		return checkSetupError(result, scenario.ExpectError, err), nil
	}

	argsObj, err := ir.ObjectFromGo(orEmpty(scenario.Args))
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	args, err := engine.ValuesFromIR(argsObj)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}

	inst, err := engine.New(plan, args)
	if err != nil {
		return checkSetupError(result, scenario.ExpectError, err), nil
	}
	if scenario.ExpectError != nil {
		result.AddError(fmt.Sprintf("expected error %s, program compiled and initialized", describe(*scenario.ExpectError)))
		return result, nil
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := testutil.NewFixedRunGenerator(scenario.RunID).Generate()
	hash, err := plan.Hash()
	if err != nil {
		return nil, err
	}
	if _, err := st.CreateRun(ctx, ir.Run{
		ID:            runID,
		Module:        plan.Module,
		PlanHash:      hash,
		Source:        string(src),
		Args:          argsObj,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}); err != nil {
		return nil, err
	}
	result.RunID = runID

	h := &Harness{
		recorder: engine.NewRecorder(inst, st, runID),
		inst:     inst,
	}

	if err := h.executeTicks(ctx, scenario.Ticks, result); err != nil {
		return nil, fmt.Errorf("failed to execute ticks: %w", err)
	}

	if _, err := st.VerifyRun(ctx, runID); err != nil {
		result.AddError(fmt.Sprintf("recorded trace: %v", err))
	}

	result.Registers = engine.ValuesToIR(inst.Registers())

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Debug("scenario finished", "scenario", scenario.Name, "ticks", len(result.Trace), "pass", result.Pass)
	return result, nil
}

// executeTicks feeds every tick step to the recorder and validates its
// expectation. A tick that fails with a runtime error is traced and does not
// stop the scenario.
func (h *Harness) executeTicks(ctx context.Context, steps []TickStep, result *Result) error {
	for i, step := range steps {
		inputsObj, err := ir.ObjectFromGo(orEmpty(step.Inputs))
		if err != nil {
			return fmt.Errorf("tick %d: inputs: %w", i+1, err)
		}
		inputs, err := engine.ValuesFromIR(inputsObj)
		if err != nil {
			return fmt.Errorf("tick %d: inputs: %w", i+1, err)
		}

		out, err := h.recorder.Step(ctx, inputs)
		if err != nil {
			var re *engine.RuntimeError
			if !errors.As(err, &re) {
				return err
			}
			result.AddFailedTick(re.Tick, inputsObj, string(re.Code))

			if step.ExpectError == nil {
				result.AddError(fmt.Sprintf("tick %d: unexpected error: %v", i+1, err))
			} else if msg := matchError(err, *step.ExpectError); msg != "" {
				result.AddError(fmt.Sprintf("tick %d: %s", i+1, msg))
			}
			continue
		}

		outputs := engine.ValuesToIR(out)
		result.AddTick(h.inst.Tick(), inputsObj, outputs, engine.ValuesToIR(h.inst.Registers()))

		if step.ExpectError != nil {
			result.AddError(fmt.Sprintf("tick %d: expected error %s, tick committed", i+1, describe(*step.ExpectError)))
			continue
		}
		for _, msg := range matchOutputs(outputs, step.Expect) {
			result.AddError(fmt.Sprintf("tick %d: %s", i+1, msg))
		}
	}
	return nil
}

// checkSetupError records whether a compile or construction error was
// expected.
func checkSetupError(result *Result, want *ExpectError, err error) *Result {
	if want == nil {
		result.AddError(fmt.Sprintf("unexpected error: %v", err))
		return result
	}
	if msg := matchError(err, *want); msg != "" {
		result.AddError(msg)
	}
	return result
}

// matchError returns "" when err satisfies want, otherwise a description of
// the mismatch.
func matchError(err error, want ExpectError) string {
	if kind, ok := compiler.ParseErrorKind(want.Kind); ok {
		for _, se := range compiler.SemanticErrors(err) {
			if se.Kind == kind && (want.Name == "" || se.Name == want.Name) {
				return ""
			}
		}
		return fmt.Sprintf("expected error %s, got: %v", describe(want), err)
	}

	var re *engine.RuntimeError
	if errors.As(err, &re) {
		if string(re.Code) == want.Kind && (want.Name == "" || re.Name == want.Name) {
			return ""
		}
		return fmt.Sprintf("expected error %s, got: %v", describe(want), err)
	}

	for _, d := range compiler.Diagnostics(err) {
		if compiler.CodeOf(d) == want.Kind && want.Name == "" {
			return ""
		}
	}
	return fmt.Sprintf("expected error %s, got: %v", describe(want), err)
}

func describe(e ExpectError) string {
	if e.Name == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Name)
}

// matchOutputs compares the expected subset of outputs.
func matchOutputs(got ir.IRObject, want map[string]any) []string {
	var msgs []string
	for _, name := range sortedKeys(want) {
		exp, err := ir.FromGo(want[name])
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("output %s: bad expected value: %v", name, err))
			continue
		}
		act, ok := got[name]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("output %s: not published", name))
			continue
		}
		if !valuesMatch(exp, act) {
			msgs = append(msgs, fmt.Sprintf("output %s: expected %s, got %s", name, ir.String(exp), ir.String(act)))
		}
	}
	return msgs
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
