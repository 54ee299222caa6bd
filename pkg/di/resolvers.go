package di

import (
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/cli/helpers"
	"github.com/devantler-tech/scalebench/pkg/svc/bootstrapper"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	clusterprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Dependency resolvers.

// ResolveTimer retrieves the timer dependency from the injector with consistent error handling.
func ResolveTimer(injector Injector) (timer.Timer, error) {
	tmr, err := do.Invoke[timer.Timer](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve timer dependency: %w", err)
	}

	return tmr, nil
}

// ResolveClusterProvisionerFactory retrieves the cluster provisioner factory.
func ResolveClusterProvisionerFactory(injector Injector) (clusterprovisioner.Factory, error) {
	factory, err := do.Invoke[clusterprovisioner.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve provisioner factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveExperimentFactory retrieves the experiment runner factory.
func ResolveExperimentFactory(injector Injector) (experiment.Factory, error) {
	factory, err := do.Invoke[experiment.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve experiment factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveBootstrapperFactory retrieves the bootstrapper factory.
func ResolveBootstrapperFactory(injector Injector) (bootstrapper.Factory, error) {
	factory, err := do.Invoke[bootstrapper.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve bootstrapper factory dependency: %w", err)
	}

	return factory, nil
}

// ResolvePrompterFactory retrieves the prompter factory.
func ResolvePrompterFactory(injector Injector) (PrompterFactory, error) {
	factory, err := do.Invoke[PrompterFactory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve prompter dependency: %w", err)
	}

	return factory, nil
}

// Handler decorators.

// WithTimer decorates a handler with the timer, or nil when --timing is off.
// The timer is started before the handler runs.
func WithTimer(
	handler func(cmd *cobra.Command, injector Injector, tmr timer.Timer) error,
) func(cmd *cobra.Command, injector Injector) error {
	return func(cmd *cobra.Command, injector Injector) error {
		tmr, err := ResolveTimer(injector)
		if err != nil {
			return err
		}

		tmr.Start()

		return handler(cmd, injector, helpers.MaybeTimer(cmd, tmr))
	}
}
