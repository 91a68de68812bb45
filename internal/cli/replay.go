package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Module        string `json:"module"`
	Ticks         int    `json:"ticks"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Re-execute recorded runs and verify determinism",
		Long: `Re-execute recorded runs and compare every tick with the recording.

Each run is replayed from its recorded Args and tick inputs through a fresh
instance. Outputs, committed registers and the hash chain must match the
recording exactly. When a file is given, runs are replayed with that
program, which must compile to the recorded plan; otherwise the source
stored with each run is used.

Exit codes:
  0 - All runs replayed identically
  1 - A run diverged or was recorded with a different plan
  2 - Command error (database or run not found, etc.)

Examples:
  tickflow replay --db ./trace.db
  tickflow replay --db ./trace.db --run 0190f5b2-... acc.tf
  tickflow replay --db ./trace.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runReplay(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var plan *compiler.Plan
	if path != "" {
		prog, err := LoadProgram(path)
		if err != nil {
			return outputCompileErrors(formatter, err)
		}
		plan = prog.Plan
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputCommandError(formatter, "failed to open database", err)
	}
	defer st.Close()

	var runs []ir.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			return outputCommandError(formatter, "failed to read run", &LoadError{Code: ErrCodeNotFound, Message: err.Error()})
		}
		runs = []ir.Run{run}
	} else {
		runs, err = st.ListRuns(ctx, "")
		if err != nil {
			return outputCommandError(formatter, "failed to list runs", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	for _, run := range runs {
		formatter.VerboseLog("Replaying run %s", run.ID)
		runResult, err := replayRun(cmd, st, run, plan)
		if err != nil {
			return outputCommandError(formatter, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// replayRun replays one run. With a nil plan the run's recorded source is
// compiled. A plan mismatch is reported as a divergence, not an error.
func replayRun(cmd *cobra.Command, st *store.Store, run ir.Run, plan *compiler.Plan) (ReplayRunResult, error) {
	result := ReplayRunResult{RunID: run.ID, Module: run.Module}

	if plan == nil {
		p, err := compiler.CompileSource(run.ID, []byte(run.Source))
		if err != nil {
			result.Divergence = fmt.Sprintf("recorded source no longer compiles: %v", err)
			return result, nil
		}
		plan = p
	}

	res, err := engine.Replay(commandContext(cmd), st, plan, run.ID)
	if errors.Is(err, engine.ErrPlanMismatch) {
		result.Divergence = err.Error()
		return result, nil
	}
	if err != nil {
		return result, err
	}

	result.Ticks = res.Ticks
	result.Deterministic = res.OK()
	if !res.OK() {
		result.Divergence = res.Divergence.String()
	}
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (%s)\n", status, run.RunID, run.Module)
		fmt.Fprintf(w, "  Ticks: %d\n", run.Ticks)
		if run.Divergence != "" {
			fmt.Fprintf(w, "  %s\n", run.Divergence)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
