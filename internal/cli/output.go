package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/polyexpr/internal/algebra"
	"github.com/roach88/polyexpr/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The expression did not reduce, resolve or type-check
	ExitCommandError = 2 // Command error (bad flags, unreadable config, catalog not found, etc.)
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

// OutputFormatter renders command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format    algebra.ExplainFormat
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status    string          `json:"status"`               // "ok" or "error"
	Data      json.RawMessage `json:"data,omitempty"`       // success payload
	Error     *CLIError       `json:"error,omitempty"`      // error details
	SessionID string          `json:"session_id,omitempty"` // validation session, when one ran
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string            `json:"code"`              // ir.ErrorCode or "E001"...
	Message string            `json:"message"`           // human-readable message
	Details map[string]string `json:"details,omitempty"` // position, signature, candidates
}

// Texter is implemented by results that have their own text rendering.
type Texter interface {
	Text() string
}

// Success outputs data in the configured format.
func (f *OutputFormatter) Success(data any) error {
	return f.SuccessInSession("", data)
}

// SuccessInSession outputs data tagged with the session that produced it.
func (f *OutputFormatter) SuccessInSession(sessionID string, data any) error {
	if f.Format.IsJSON() {
		raw, err := marshalData(data)
		if err != nil {
			return err
		}
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:    "ok",
			Data:      raw,
			SessionID: sessionID,
		})
	}

	if t, ok := data.(Texter); ok {
		fmt.Fprintln(f.Writer, t.Text())
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

func marshalData(data any) (json.RawMessage, error) {
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return raw, nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details map[string]string) error {
	if f.Format.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose {
		for _, k := range slices.Sorted(maps.Keys(details)) {
			fmt.Fprintf(f.Writer, "  %s: %s\n", k, details[k])
		}
	}
	return nil
}

// CompileFailure reports a failed reduction or validation and returns the
// ExitFailure error the command should return.
func (f *OutputFormatter) CompileFailure(err error) error {
	var ce *ir.CompileError
	if !errors.As(err, &ce) {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "command failed", err)
	}
	_ = f.Error(string(ce.Code), ce.Message, compileErrorDetails(ce))
	return WrapExitError(ExitFailure, string(ce.Code), err)
}

func compileErrorDetails(ce *ir.CompileError) map[string]string {
	details := make(map[string]string, len(ce.Details)+3)
	maps.Copy(details, ce.Details)
	if ce.Pos.IsValid() {
		details["line"] = strconv.Itoa(ce.Pos.Line)
		details["column"] = strconv.Itoa(ce.Pos.Column)
	}
	if ce.Operand >= 0 {
		details["operand"] = strconv.Itoa(ce.Operand)
	}
	return details
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Verbose lines go to ErrWriter so they never corrupt JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
