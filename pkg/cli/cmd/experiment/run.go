package experiment

import (
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/cli/helpers"
	"github.com/devantler-tech/scalebench/pkg/di"
	configmanager "github.com/devantler-tech/scalebench/pkg/io/config-manager"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const runLongDesc = `Deploy workloads into a scratch namespace and sample CPU and memory of the
control-plane processes on every control-plane node until --duration passes.

Samples are written to <data-dir>/<experiment>/<timestamp>-<run id>/ as one CSV
file per node, next to run.json and a Prometheus snapshot (stats.prom). The namespace is
deleted when the run ends, also after a failure or an interrupt.

Options are resolved in the following priority order:
  1. From flags
  2. From SCALEBENCH_* environment variables (e.g. SCALEBENCH_INTERVAL)
  3. From the --config file
  4. Defaults`

// NewRunCmd creates the experiment run command.
func NewRunCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run an experiment",
		Long:         runLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	configmanager.AddExperimentFlags(cmd.Flags())

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, di.WithTimer(handleRunRunE))

	return cmd
}

func handleRunRunE(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
	out := cmd.OutOrStdout()

	opts, err := configmanager.NewExperimentManager(out, cmd.Flags()).Load(configmanager.LoadOptions{Timer: tmr})
	if err != nil {
		return err
	}

	factory, err := di.ResolveExperimentFactory(injector)
	if err != nil {
		return err
	}

	experimentRunner, err := factory.Create(*opts, out, tmr)
	if err != nil {
		return fmt.Errorf("failed to create experiment runner: %w", err)
	}

	ctx, stop := helpers.SignalContext(cmd.Context())
	defer stop()

	notify.Titlef(out, "📊", "Run experiment %s...", opts.Experiment)

	metadata, err := experimentRunner.Run(ctx)
	if err != nil {
		if metadata != nil {
			notify.Warningf(out, "run %s ended early after %d ticks", metadata.ID, metadata.Ticks)
		}

		return fmt.Errorf("experiment %s failed: %w", opts.Experiment, err)
	}

	return nil
}
