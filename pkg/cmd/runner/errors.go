package runner

import (
	"errors"
	"fmt"
)

// ExitError reports an external command that exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	}

	return fmt.Sprintf("%s: exit status %d\n%s", e.Command, e.ExitCode, e.Stderr)
}

// Unwrap exposes the underlying *exec.ExitError.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code of the first *ExitError in err's chain.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode, true
	}

	return 0, false
}
