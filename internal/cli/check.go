package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// CheckResult holds the outcome of a check.
type CheckResult struct {
	Valid  bool   `json:"valid"`
	Module string `json:"module,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Report diagnostics without printing the plan",
		Long: `Parse and analyse a module and report every diagnostic.

check performs the same analysis as compile but prints only the outcome,
which makes it suitable for editors and pre-commit hooks.

Exit codes:
  0 - The module is valid
  1 - The module has diagnostics
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	prog, err := LoadProgram(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Error())
		}

		if err := formatter.Diagnostics("✗ Check failed", err); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("check failed with %d diagnostic(s)", len(diagnosticList(err))), err)
	}

	formatter.VerboseLog("Module %s: plan hash %s", prog.Plan.Module, prog.Hash)

	if formatter.Format == "json" {
		return formatter.Success(CheckResult{Valid: true, Module: prog.Plan.Module})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s: module %s is valid\n", path, prog.Plan.Module)
	return nil
}
