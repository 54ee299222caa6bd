// Package prompt reads answers from an interactive terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is attempted without a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled by user")

// Prompter asks the user for values.
type Prompter interface {
	// Interactive reports whether prompting is possible.
	Interactive() bool
	// Ask reads one line.
	Ask(label string) (string, error)
	// AskSecret reads one line without echo.
	AskSecret(label string) (string, error)
}

// Terminal prompts on a terminal. The zero value is not usable; use NewTerminal.
type Terminal struct {
	// Out receives the prompt labels.
	Out io.Writer
	// In provides answers.
	In io.Reader
	// IsTerminal reports whether In is a terminal.
	IsTerminal func() bool
	// ReadPassword reads a line without echo.
	ReadPassword func() ([]byte, error)

	once   sync.Once
	reader *bufio.Reader
}

// NewTerminal creates a Terminal on os.Stdin.
func NewTerminal(out io.Writer) *Terminal {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int

	return &Terminal{
		Out:        out,
		In:         os.Stdin,
		IsTerminal: func() bool { return term.IsTerminal(fd) },
		ReadPassword: func() ([]byte, error) {
			return term.ReadPassword(fd)
		},
	}
}

// Interactive implements Prompter.
func (t *Terminal) Interactive() bool {
	return t.IsTerminal != nil && t.IsTerminal()
}

// Ask implements Prompter.
func (t *Terminal) Ask(label string) (string, error) {
	if !t.Interactive() {
		return "", ErrNotInteractive
	}

	_, _ = fmt.Fprintf(t.Out, "%s: ", label)

	t.once.Do(func() { t.reader = bufio.NewReader(t.In) })

	line, err := t.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return strings.TrimSpace(line), nil
}

// AskSecret implements Prompter.
func (t *Terminal) AskSecret(label string) (string, error) {
	if !t.Interactive() {
		return "", ErrNotInteractive
	}

	_, _ = fmt.Fprintf(t.Out, "%s: ", label)

	secret, err := t.ReadPassword()

	_, _ = fmt.Fprintln(t.Out)

	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return strings.TrimSpace(string(secret)), nil
}

// Confirm warns with question and requires the answer "yes" (any case).
// Without a terminal the confirmation is skipped and treated as given, so
// scripted runs are not blocked. force skips the question as well.
func Confirm(prompter Prompter, out io.Writer, question string, force bool) error {
	if force || !prompter.Interactive() {
		return nil
	}

	notify.Warningf(out, "%s", question)

	answer, err := prompter.Ask(`Type "yes" to confirm`)
	if err != nil {
		return err
	}

	if !strings.EqualFold(answer, "yes") {
		return ErrCancelled
	}

	return nil
}
