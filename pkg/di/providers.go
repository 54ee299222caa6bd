package di

import (
	"fmt"
	"io"

	"github.com/devantler-tech/scalebench/pkg/cli/ui/prompt"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/svc/bootstrapper"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	clusterprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/samber/do/v2"
)

// PrompterFactory creates a prompter that writes labels to out.
type PrompterFactory func(out io.Writer) prompt.Prompter

// Dependency providers.

// NewRuntime constructs the shared runtime container used by the root command.
// Tests pass overrides that replace providers with do.Override.
func NewRuntime(overrides ...Module) *Runtime {
	modules := []Module{
		provideTimer,
		provideCommandRunner,
		provideClusterProvisionerFactory,
		provideExperimentFactory,
		provideBootstrapperFactory,
		providePrompterFactory,
	}

	return New(append(modules, overrides...)...)
}

func provideTimer(i Injector) error {
	do.Provide(i, func(Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return nil
}

// provideCommandRunner registers the runner for external tools. Traces go to
// the standard logrus logger, which --debug turns up.
func provideCommandRunner(i Injector) error {
	do.Provide(i, func(Injector) (runner.CommandRunner, error) {
		return runner.NewExecRunner(), nil
	})

	return nil
}

func provideClusterProvisionerFactory(i Injector) error {
	do.Provide(i, func(i Injector) (clusterprovisioner.Factory, error) {
		commandRunner, err := do.Invoke[runner.CommandRunner](i)
		if err != nil {
			return nil, fmt.Errorf("resolve command runner: %w", err)
		}

		return clusterprovisioner.DefaultFactory{Runner: commandRunner}, nil
	})

	return nil
}

func provideExperimentFactory(i Injector) error {
	do.Provide(i, func(i Injector) (experiment.Factory, error) {
		commandRunner, err := do.Invoke[runner.CommandRunner](i)
		if err != nil {
			return nil, fmt.Errorf("resolve command runner: %w", err)
		}

		return experiment.DefaultFactory{Runner: commandRunner}, nil
	})

	return nil
}

func provideBootstrapperFactory(i Injector) error {
	do.Provide(i, func(i Injector) (bootstrapper.Factory, error) {
		commandRunner, err := do.Invoke[runner.CommandRunner](i)
		if err != nil {
			return nil, fmt.Errorf("resolve command runner: %w", err)
		}

		return bootstrapper.DefaultFactory{Runner: commandRunner}, nil
	})

	return nil
}

func providePrompterFactory(i Injector) error {
	do.Provide(i, func(Injector) (PrompterFactory, error) {
		return func(out io.Writer) prompt.Prompter {
			return prompt.NewTerminal(out)
		}, nil
	})

	return nil
}
