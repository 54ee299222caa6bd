// Package errorhandler runs cobra commands and turns their failures into a
// single error carrying cobra's stderr text and the process exit code.
package errorhandler

import (
	"bytes"
	"strings"

	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/spf13/cobra"
)

// Executor runs a command while capturing what cobra prints to stderr.
type Executor struct {
	normalizer Normalizer
}

// Normalizer cleans captured stderr before it becomes part of an error.
type Normalizer interface {
	Normalize(raw string) string
}

// NewExecutor constructs an Executor using DefaultNormalizer.
func NewExecutor() *Executor {
	return &Executor{normalizer: DefaultNormalizer{}}
}

// Execute runs cmd. It returns nil on success, or a *CommandError holding the
// normalized stderr output and the original error.
func (e *Executor) Execute(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	var errBuf bytes.Buffer

	originalErrWriter := cmd.ErrOrStderr()

	cmd.SetErr(&errBuf)
	defer cmd.SetErr(originalErrWriter)

	err := cmd.Execute()
	if err == nil {
		return nil
	}

	return &CommandError{
		message: e.normalizer.Normalize(errBuf.String()),
		cause:   err,
	}
}

// CommandError is a failed command run.
type CommandError struct {
	message string
	cause   error
}

// Error joins the captured message and the cause, without repeating the cause.
func (e *CommandError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return e.message
	case e.message == "", e.message == e.cause.Error():
		return e.cause.Error()
	case strings.Contains(e.message, e.cause.Error()):
		return e.message
	default:
		return e.message + ": " + e.cause.Error()
	}
}

// Unwrap exposes the cause for errors.Is and errors.As.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// ExitCode is the exit status of a failed external command in the cause
// chain, or 1.
func (e *CommandError) ExitCode() int {
	if e == nil || e.cause == nil {
		return 0
	}

	code, ok := runner.ExitCode(e.cause)
	if !ok || code <= 0 {
		return 1
	}

	return code
}

// DefaultNormalizer trims cobra's stderr output.
type DefaultNormalizer struct{}

// Normalize drops blank lines and the "Error: " prefix cobra adds, keeping
// usage hints on their own lines.
func (DefaultNormalizer) Normalize(raw string) string {
	var lines []string

	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lines = append(lines, strings.TrimPrefix(line, "Error: "))
	}

	return strings.Join(lines, "\n")
}
