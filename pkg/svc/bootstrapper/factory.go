package bootstrapper

import (
	"io"

	"github.com/devantler-tech/scalebench/pkg/client/juju"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
)

// Factory creates bootstrappers for commands.
type Factory interface {
	Create(out io.Writer, tmr timer.Timer) (*Bootstrapper, error)
}

// DefaultFactory builds bootstrappers that drive juju through Runner.
type DefaultFactory struct {
	Runner runner.CommandRunner
}

// Create builds a bootstrapper. A non-nil tmr adds per-step timing.
func (f DefaultFactory) Create(out io.Writer, tmr timer.Timer) (*Bootstrapper, error) {
	if f.Runner == nil {
		return nil, ErrRunnerRequired
	}

	bootstrapper := New(juju.NewClient(f.Runner), out)
	if tmr != nil {
		bootstrapper.WithTimer(tmr)
	}

	return bootstrapper, nil
}
