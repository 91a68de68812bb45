package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/queryir"
	"github.com/roach88/tickflow/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Module   string // filter the run list to one module
	Output   string // show only this output in the timeline
	Where    []string
	FromSeq  int64
	ToSeq    int64
	Limit    int
}

func (o *TraceOptions) filtered() bool {
	return len(o.Where) > 0 || o.FromSeq > 0 || o.ToSeq > 0 || o.Limit > 0
}

// TraceTick is one tick in the trace timeline.
type TraceTick struct {
	Seq       int64       `json:"seq"`
	Inputs    ir.IRObject `json:"inputs"`
	Outputs   ir.IRObject `json:"outputs"`
	Registers ir.IRObject `json:"registers"`
	Hash      string      `json:"hash"`
}

// TraceStats summarizes the recorded chain of a run.
type TraceStats struct {
	TickCount int    `json:"tick_count"`
	LastSeq   int64  `json:"last_seq"`
	ChainHead string `json:"chain_head,omitempty"`
	Verified  bool   `json:"verified"`
	Problem   string `json:"problem,omitempty"`
}

// TraceResult holds the complete trace of one run.
type TraceResult struct {
	RunID    string      `json:"run_id"`
	Module   string      `json:"module"`
	PlanHash string      `json:"plan_hash"`
	Args     ir.IRObject `json:"args"`
	Filter   []string    `json:"filter,omitempty"`
	Timeline []TraceTick `json:"timeline"`
	Stats    TraceStats  `json:"stats"`
}

// RunSummary is one entry of the run list.
type RunSummary struct {
	ID        string `json:"id"`
	Module    string `json:"module"`
	PlanHash  string `json:"plan_hash"`
	TickCount int    `json:"tick_count"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect the runs recorded in a trace database.

Without --run, lists every run in creation order. With --run, prints the
run's timeline of ticks (inputs, outputs and committed registers) and
verifies its hash chain.

--where narrows the timeline to matching ticks and may be repeated; all
expressions must hold. Names read outputs unless prefixed with in., out.
or reg.:

  fan = true
  in.hmd >= 50
  reg.prev != 0
  changed(fan)

Exit codes:
  0 - Listing succeeded, or the run's chain verified
  1 - The run's hash chain is broken
  2 - Command error (database or run not found)

Examples:
  tickflow trace --db ./trace.db
  tickflow trace --db ./trace.db --module Accumulator
  tickflow trace --db ./trace.db --run 0190f5b2-...
  tickflow trace --db ./trace.db --run 0190f5b2-... --output fan --format json
  tickflow trace --db ./trace.db --run 0190f5b2-... --where 'changed(fan)' --where 'in.hmd > 50'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to trace")
	cmd.Flags().StringVar(&opts.Module, "module", "", "list only runs of this module")
	cmd.Flags().StringVar(&opts.Output, "output", "", "show only this output")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "show only ticks matching this expression (repeatable)")
	cmd.Flags().Int64Var(&opts.FromSeq, "from", 0, "first tick to show")
	cmd.Flags().Int64Var(&opts.ToSeq, "to", 0, "last tick to show")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many ticks")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputCommandError(formatter, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(formatter, st, opts.Module, cmd)
	}

	state, err := st.GetRunState(ctx, opts.RunID)
	if err != nil {
		return outputCommandError(formatter, "failed to read run", &LoadError{Code: ErrCodeNotFound, Message: err.Error()})
	}
	ticks, err := readTimeline(cmd, st, state.Run, opts)
	if err != nil {
		return outputCommandError(formatter, "failed to read ticks", err)
	}

	result := TraceResult{
		RunID:    state.Run.ID,
		Module:   state.Run.Module,
		PlanHash: state.Run.PlanHash,
		Args:     state.Run.Args,
		Filter:   opts.Where,
		Timeline: buildTimeline(ticks, opts.Output),
		Stats: TraceStats{
			TickCount: state.TickCount,
			LastSeq:   state.LastSeq,
			ChainHead: state.LastHash,
		},
	}

	var chainErr *store.ChainError
	_, err = st.VerifyRun(ctx, opts.RunID)
	switch {
	case err == nil:
		result.Stats.Verified = true
	case errors.As(err, &chainErr):
		result.Stats.Problem = chainErr.Error()
	default:
		return outputCommandError(formatter, "failed to verify run", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputTraceText(formatter, result)
	}

	if !result.Stats.Verified {
		return NewExitError(ExitFailure, result.Stats.Problem)
	}
	return nil
}

// readTimeline reads the ticks of run selected by the filter flags. Names in
// --where are checked against the plan compiled from the recorded source.
func readTimeline(cmd *cobra.Command, st *store.Store, run ir.Run, opts *TraceOptions) ([]ir.Tick, error) {
	ctx := commandContext(cmd)

	if !opts.filtered() {
		ticks, err := st.ReadTicks(ctx, run.ID)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
		}
		return ticks, nil
	}

	filter, err := queryir.ParseFilter(opts.Where)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeQuery, Message: err.Error()}
	}
	q := queryir.Ticks{
		RunID:   run.ID,
		Filter:  filter,
		FromSeq: opts.FromSeq,
		ToSeq:   opts.ToSeq,
		Limit:   opts.Limit,
	}
	if res := queryir.Validate(q, signatureOf(run)); !res.Valid {
		return nil, &LoadError{Code: ErrCodeQuery, Message: strings.Join(res.Problems, "; ")}
	}

	ticks, err := st.QueryTicks(ctx, q)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
	}
	return ticks, nil
}

// signatureOf lists the names recorded by run. It returns nil, skipping
// name checks, when the recorded source no longer compiles.
func signatureOf(run ir.Run) queryir.Signature {
	plan, err := compiler.CompileSource(run.ID, []byte(run.Source))
	if err != nil {
		return nil
	}

	sig := queryir.Signature{}
	for _, f := range plan.Inputs {
		sig[queryir.ScopeInputs] = append(sig[queryir.ScopeInputs], f.Name.Name)
	}
	for _, f := range plan.Outputs {
		sig[queryir.ScopeOutputs] = append(sig[queryir.ScopeOutputs], f.Name.Name)
	}
	for _, eq := range plan.Registers {
		sig[queryir.ScopeRegisters] = append(sig[queryir.ScopeRegisters], eq.Name.Name)
	}
	return sig
}

// buildTimeline converts stored ticks to timeline entries. When output is
// set, every other output is dropped.
func buildTimeline(ticks []ir.Tick, output string) []TraceTick {
	timeline := make([]TraceTick, 0, len(ticks))
	for _, tick := range ticks {
		outputs := tick.Outputs
		if output != "" {
			outputs = ir.IRObject{}
			if v, ok := tick.Outputs[output]; ok {
				outputs[output] = v
			}
		}
		timeline = append(timeline, TraceTick{
			Seq:       tick.Seq,
			Inputs:    tick.Inputs,
			Outputs:   outputs,
			Registers: tick.Registers,
			Hash:      tick.Hash,
		})
	}
	return timeline
}

func listRuns(formatter *OutputFormatter, st *store.Store, module string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	runs, err := st.ListRuns(ctx, module)
	if err != nil {
		return outputCommandError(formatter, "failed to list runs", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		state, err := st.GetRunState(ctx, run.ID)
		if err != nil {
			return outputCommandError(formatter, "failed to read run", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
		}
		summaries = append(summaries, RunSummary{
			ID:        run.ID,
			Module:    run.Module,
			PlanHash:  run.PlanHash,
			TickCount: state.TickCount,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %-20s %d tick(s)\n", s.ID, s.Module, s.TickCount)
	}
	return nil
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) {
	w := formatter.Writer

	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Module: %s\n", result.Module)
	if formatter.Verbose {
		fmt.Fprintf(w, "Plan: %s\n", result.PlanHash)
	}
	if len(result.Args) > 0 {
		fmt.Fprintf(w, "Args: %s\n", formatFields(result.Args))
	}
	if len(result.Filter) > 0 {
		fmt.Fprintf(w, "Filter: %s\n", strings.Join(result.Filter, " AND "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	for _, tick := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s -> %s\n", tick.Seq, formatFields(tick.Inputs), formatFields(tick.Outputs))
		if formatter.Verbose {
			fmt.Fprintf(w, "      registers: %s\n", formatFields(tick.Registers))
			fmt.Fprintf(w, "      hash: %s\n", tick.Hash)
		}
	}
	if len(result.Timeline) < result.Stats.TickCount {
		fmt.Fprintf(w, "  (%d of %d tick(s) shown)\n", len(result.Timeline), result.Stats.TickCount)
	}
	fmt.Fprintln(w)

	if result.Stats.Verified {
		fmt.Fprintf(w, "✓ %d tick(s), chain verified\n", result.Stats.TickCount)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", result.Stats.Problem)
}

// openExistingStore opens a trace database that must already exist. Opening
// a missing path would silently create an empty database.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := readFileInfo(path); err != nil {
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
	}
	return st, nil
}
