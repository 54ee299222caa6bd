// Package cmdtest builds runtimes with scripted dependencies for command tests.
package cmdtest

import (
	"bytes"
	"io"

	"github.com/devantler-tech/scalebench/pkg/cli/ui/prompt"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/di"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Prompter answers prompts from a fixed list. Without answers it reports a
// non-interactive terminal.
type Prompter struct {
	Answers []string
	Asked   []string
}

var _ prompt.Prompter = (*Prompter)(nil)

// Interactive reports whether answers were scripted.
func (p *Prompter) Interactive() bool {
	return len(p.Answers) > 0
}

// Ask returns the next answer.
func (p *Prompter) Ask(label string) (string, error) {
	p.Asked = append(p.Asked, label)

	if len(p.Answers) == 0 {
		return "", prompt.ErrNotInteractive
	}

	answer := p.Answers[0]
	p.Answers = p.Answers[1:]

	return answer, nil
}

// AskSecret behaves like Ask.
func (p *Prompter) AskSecret(label string) (string, error) {
	return p.Ask(label)
}

// NewRuntime returns the default runtime with the command runner and the
// prompter replaced. A nil prompter is replaced by a non-interactive one.
func NewRuntime(commandRunner runner.CommandRunner, prompter prompt.Prompter, extra ...di.Module) *di.Runtime {
	if prompter == nil {
		prompter = &Prompter{}
	}

	overrides := []di.Module{
		func(i di.Injector) error {
			do.Override(i, func(di.Injector) (runner.CommandRunner, error) {
				return commandRunner, nil
			})
			do.Override(i, func(di.Injector) (di.PrompterFactory, error) {
				return func(io.Writer) prompt.Prompter { return prompter }, nil
			})

			return nil
		},
	}

	return di.NewRuntime(append(overrides, extra...)...)
}

// Execute runs cmd with args and returns its combined output.
func Execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer

	if args == nil {
		// cobra falls back to os.Args for nil args.
		args = []string{}
	}

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}
