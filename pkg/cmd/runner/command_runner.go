// Package runner executes external commands such as juju while capturing their output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CommandResult captures the output of an external command.
// Both streams contain everything written before the command exited, even on failure.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
// When stdout or stderr are set, output is streamed to them while it is captured.
type ExecRunner struct {
	stdout io.Writer
	stderr io.Writer
	logger logrus.FieldLogger
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithOutput streams command output to the given writers in addition to capturing it.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *ExecRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets the logger used for command traces.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *ExecRunner) {
		r.logger = logger
	}
}

// NewExecRunner creates an ExecRunner. Traces go to the standard logrus logger
// at debug level unless WithLogger overrides it.
func NewExecRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{logger: logrus.StandardLogger()}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes name with args and waits for it to exit.
// A non-zero exit is returned as an *ExitError carrying the exit code and stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = tee(&outBuf, r.stdout)
	cmd.Stderr = tee(&errBuf, r.stderr)

	commandLine := FormatCommand(name, args...)
	started := time.Now()

	r.logger.WithField("command", commandLine).Debug("running external command")

	runErr := cmd.Run()

	result := CommandResult{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	r.logger.WithFields(logrus.Fields{
		"command":  commandLine,
		"exitCode": result.ExitCode,
		"duration": time.Since(started).Round(time.Millisecond),
	}).Debug("external command finished")

	if runErr == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: %w", commandLine, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return result, &ExitError{
			Command:  commandLine,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(result.Stderr),
			Err:      runErr,
		}
	}

	return result, fmt.Errorf("%s: %w", commandLine, runErr)
}

// FormatCommand renders a command line for logs and errors, quoting
// arguments that contain whitespace or quotes.
func FormatCommand(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)

	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
			arg = fmt.Sprintf("%q", arg)
		}

		parts = append(parts, arg)
	}

	return strings.Join(parts, " ")
}

func tee(capture *bytes.Buffer, stream io.Writer) io.Writer {
	if stream == nil {
		return capture
	}

	return io.MultiWriter(capture, stream)
}
