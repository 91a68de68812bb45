package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Check failure, failing scenarios, replay divergence
	ExitCommandError = 2 // Command error (missing file, unreadable database, bad stimulus)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose output; falls back to Writer
	Verbose   bool
}

func newFormatter(opts *RootOptions, stdout, stderr io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    stdout,
		ErrWriter: stderr,
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload, or every diagnostic on failure
	Error  *CLIError `json:"error,omitempty"` // first error
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E206", "DIVISION_BY_ZERO", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Position locates a diagnostic in a source file.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Diagnostics outputs every diagnostic in err. header is printed first in
// text mode.
func (f *OutputFormatter) Diagnostics(header string, err error) error {
	diags := diagnosticList(err)

	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &diags[0],
			Data:   diags,
		})
	}

	fmt.Fprintln(f.Writer, header)
	fmt.Fprintln(f.Writer)
	for _, d := range diags {
		if pos, ok := d.Details.(*Position); ok {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", pos.File, pos.Line, pos.Column)
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", d.Code, d.Message)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// diagnosticList flattens a compile, load or runtime error into CLI errors,
// one per diagnostic. It never returns an empty slice.
func diagnosticList(err error) []CLIError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return []CLIError{{Code: loadErr.Code, Message: loadErr.Message, Details: positionOf(loadErr.Pos)}}
	}

	var rtErr *engine.RuntimeError
	if errors.As(err, &rtErr) {
		return []CLIError{{Code: string(rtErr.Code), Message: rtErr.Error(), Details: positionOf(rtErr.Pos)}}
	}

	var out []CLIError
	for _, d := range compiler.Diagnostics(err) {
		code := compiler.CodeOf(d)
		if code == "" {
			code = ErrCodeGeneric
		}
		format, args := d.Msg()
		out = append(out, CLIError{
			Code:    code,
			Message: fmt.Sprintf(format, args...),
			Details: positionOf(d.Position()),
		})
	}
	if len(out) == 0 {
		out = append(out, CLIError{Code: ErrCodeGeneric, Message: err.Error()})
	}
	return out
}
