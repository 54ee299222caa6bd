package clusterprovisioner

import (
	"errors"
	"io"

	"github.com/devantler-tech/scalebench/pkg/client/juju"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	microk8sprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster/microk8s"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
)

// ErrRunnerRequired is returned when the factory has no command runner.
var ErrRunnerRequired = errors.New("command runner is required")

// Factory creates cluster provisioners for commands.
type Factory interface {
	// Create builds a provisioner. A non-nil tmr adds per-step timing to progress output.
	Create(opts microk8sprovisioner.Options, out io.Writer, tmr timer.Timer) (ClusterProvisioner, error)
}

// DefaultFactory builds MicroK8s provisioners that drive juju through Runner.
type DefaultFactory struct {
	Runner runner.CommandRunner
}

// Create builds a provisioner for opts.
func (f DefaultFactory) Create(
	opts microk8sprovisioner.Options,
	out io.Writer,
	tmr timer.Timer,
) (ClusterProvisioner, error) {
	if f.Runner == nil {
		return nil, ErrRunnerRequired
	}

	provisioner := microk8sprovisioner.NewProvisioner(juju.NewClient(f.Runner), opts, out)
	if tmr != nil {
		provisioner.WithTimer(tmr)
	}

	return provisioner, nil
}
