package experiment

import (
	"io"

	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
)

// Factory creates experiment runners for commands.
type Factory interface {
	// Create builds a runner. A non-nil tmr adds per-step timing to progress output.
	Create(opts Options, out io.Writer, tmr timer.Timer) (*Runner, error)
}

// DefaultFactory builds runners whose remote commands go through Runner.
type DefaultFactory struct {
	Runner runner.CommandRunner
}

// Create builds a runner for opts.
func (f DefaultFactory) Create(opts Options, out io.Writer, tmr timer.Timer) (*Runner, error) {
	if f.Runner == nil {
		return nil, ErrRunnerRequired
	}

	experimentRunner := NewRunner(NewExecutorFactory(f.Runner), opts, out)
	if tmr != nil {
		experimentRunner.WithTimer(tmr)
	}

	return experimentRunner, nil
}
