package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of a successful compile: the plan
// in its canonical form plus its hash.
type CompilationResult struct {
	Module string         `json:"module"`
	Hash   string         `json:"hash"`
	Plan   map[string]any `json:"plan"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	Inputs        int
	Outputs       int
	Funcs         int
	Combinational int
	Registers     int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a module to its evaluation plan",
		Long: `Compile a module and print its evaluation plan.

The plan lists the combinational equations in a safe evaluation order and
the registers with their storage slots. With --format json the plan is
written in its canonical form, the hand-off format for code generators.

Examples:
  tickflow compile fan.tf
  tickflow compile fan.tf --format json
  tickflow compile fan.tf --output fan.plan.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the canonical plan to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	formatter.VerboseLog("Compiling %s", path)
	prog, err := LoadProgram(path)
	if err != nil {
		return outputCompileErrors(formatter, err)
	}

	plan := prog.Plan
	result := &CompilationResult{
		Module: plan.Module,
		Hash:   prog.Hash,
		Plan:   plan.Canonical(),
	}

	if opts.Output != "" {
		if err := writePlanToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
		formatter.VerboseLog("Wrote plan to %s", opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	stats := CompilationStats{
		Inputs:        len(plan.Inputs),
		Outputs:       len(plan.Outputs),
		Funcs:         len(plan.Funcs),
		Combinational: len(plan.Combinational),
		Registers:     len(plan.Registers),
	}
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s: %d equation(s), %d register(s)\n\n",
		plan.Module, stats.Combinational, stats.Registers)
	fmt.Fprint(w, plan.Dump())
	fmt.Fprintf(w, "\nplan hash: %s\n", prog.Hash)
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote canonical plan to %s\n", opts.Output)
	}
	return nil
}

// outputCompileErrors outputs every compile diagnostic in err.
func outputCompileErrors(formatter *OutputFormatter, err error) error {
	if err := formatter.Diagnostics("✗ Compilation failed", err); err != nil {
		return err
	}
	return WrapExitError(ExitCommandError, "compilation failed", err)
}

// writePlanToFile writes the plan and its hash in canonical JSON, the same
// bytes the hash is computed over for the plan part.
func writePlanToFile(result *CompilationResult, filename string) error {
	data, err := ir.MarshalCanonical(map[string]any{
		"module": result.Module,
		"hash":   result.Hash,
		"plan":   result.Plan,
	})
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
