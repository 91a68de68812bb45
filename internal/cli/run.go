package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Stimulus string
	Database string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunTick is one committed tick of a run.
type RunTick struct {
	Seq     int64       `json:"seq"`
	Outputs ir.IRObject `json:"outputs"`
}

// RunResult is the outcome of a run.
type RunResult struct {
	RunID     string      `json:"run_id"`
	Module    string      `json:"module"`
	PlanHash  string      `json:"plan_hash"`
	Ticks     []RunTick   `json:"ticks"`
	Registers ir.IRObject `json:"registers"`
	Error     *CLIError   `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a module against a stimulus",
		Long: `Compile a module and run it tick by tick.

The stimulus is a CUE file giving the module's Args and the inputs of each
tick:

  args: { init: 0 }
  ticks: [{ input: 1 }, { input: 2 }]

Every committed tick is recorded with its hash chain. With --db the run is
kept in a SQLite trace database for later trace and replay; without it the
trace lives in memory for the duration of the command.

Exit codes:
  0 - Every tick committed
  1 - A tick failed with a runtime error
  2 - Command error (compile error, bad stimulus, database error)

Examples:
  tickflow run acc.tf --stimulus acc.cue
  tickflow run acc.tf --stimulus acc.cue --db ./trace.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Stimulus, "stimulus", "", "path to CUE stimulus file (required)")
	_ = cmd.MarkFlagRequired("stimulus")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	prog, err := LoadProgram(path)
	if err != nil {
		return outputCompileErrors(formatter, err)
	}

	stim, err := LoadStimulus(opts.Stimulus)
	if err != nil {
		return outputCommandError(formatter, "invalid stimulus", err)
	}
	formatter.VerboseLog("Loaded %d tick(s) from %s", len(stim.Ticks), opts.Stimulus)

	args, err := engine.ValuesFromIR(stim.Args)
	if err != nil {
		return outputCommandError(formatter, "invalid stimulus args", &LoadError{Code: ErrCodeStimulus, Message: err.Error()})
	}
	inst, err := engine.New(prog.Plan, args)
	if err != nil {
		return outputCommandError(formatter, "failed to initialize instance", err)
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = ":memory:"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return outputCommandError(formatter, "failed to open database", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := opts.RunIDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	run, err := st.CreateRun(ctx, ir.Run{
		ID:            ids.Generate(),
		Module:        prog.Plan.Module,
		PlanHash:      prog.Hash,
		Source:        string(prog.Source),
		Args:          stim.Args,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	})
	if err != nil {
		return outputCommandError(formatter, "failed to create run", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	slog.Debug("run started", "run", run.ID, "module", run.Module, "ticks", len(stim.Ticks))

	result := &RunResult{
		RunID:    run.ID,
		Module:   run.Module,
		PlanHash: run.PlanHash,
		Ticks:    []RunTick{},
	}

	rec := engine.NewRecorder(inst, st, run.ID)
	var tickErr error
	for i, in := range stim.Ticks {
		if err := ctx.Err(); err != nil {
			tickErr = err
			break
		}

		inputs, err := engine.ValuesFromIR(in)
		if err != nil {
			tickErr = &LoadError{Code: ErrCodeStimulus, Message: fmt.Sprintf("ticks[%d]: %v", i, err)}
			break
		}
		out, err := rec.Step(ctx, inputs)
		if err != nil {
			tickErr = err
			break
		}
		result.Ticks = append(result.Ticks, RunTick{Seq: inst.Tick(), Outputs: engine.ValuesToIR(out)})
	}
	result.Registers = engine.ValuesToIR(inst.Registers())
	if tickErr != nil {
		result.Error = &diagnosticList(tickErr)[0]
	}

	if err := outputRun(formatter, result); err != nil {
		return err
	}

	if tickErr != nil {
		var rtErr *engine.RuntimeError
		if errors.As(tickErr, &rtErr) {
			return WrapExitError(ExitFailure, fmt.Sprintf("tick %d failed", rtErr.Tick), tickErr)
		}
		return WrapExitError(ExitCommandError, "run aborted", tickErr)
	}
	return nil
}

func outputRun(formatter *OutputFormatter, result *RunResult) error {
	if formatter.Format == "json" {
		status := "ok"
		if result.Error != nil {
			status = "error"
		}
		return formatter.encode(CLIResponse{Status: status, Data: result, Error: result.Error})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "run %s (module %s)\n", result.RunID, result.Module)
	for _, tick := range result.Ticks {
		fmt.Fprintf(w, "  [%d] %s\n", tick.Seq, formatFields(tick.Outputs))
	}
	if result.Error != nil {
		fmt.Fprintf(w, "✗ %s: %s\n", result.Error.Code, result.Error.Message)
		return nil
	}
	fmt.Fprintf(w, "✓ %d tick(s) committed\n", len(result.Ticks))
	return nil
}

// outputCommandError reports a failure that stops a command before it does
// any work.
func outputCommandError(formatter *OutputFormatter, message string, err error) error {
	d := diagnosticList(err)[0]
	_ = formatter.Error(d.Code, d.Message, d.Details)
	return WrapExitError(ExitCommandError, message, err)
}

// formatFields renders obj as "a=1 b=true" in key order.
func formatFields(obj ir.IRObject) string {
	parts := make([]string, 0, len(obj))
	for _, k := range obj.SortedKeys() {
		parts = append(parts, k+"="+ir.String(obj[k]))
	}
	return strings.Join(parts, " ")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
