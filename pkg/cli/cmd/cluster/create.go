package cluster

import (
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/di"
	configmanager "github.com/devantler-tech/scalebench/pkg/io/config-manager"
	clusterprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster"
	microk8sprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster/microk8s"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const createLongDesc = `Provision a MicroK8s cluster through juju and write <model>_cluster.json.

The first --control-plane units join as control-plane members and the rest
join with --worker. Registry credentials and the proxy are resolved in the
following priority order:
  1. From --docker-username, --docker-password and --http-proxy
  2. From DOCKER_USERNAME, DOCKER_PASSWORD and HTTP_PROXY (or SCALEBENCH_ prefixed)

A failed step leaves the partial cluster in place unless --destroy-on-error is set.`

// NewCreateCmd wires the cluster create command using the shared runtime container.
func NewCreateCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var opts microk8sprovisioner.Options

	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Create a cluster",
		Long:         createLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&opts.Model, modelFlag, "m", "", "Name of the juju model to create")
	cmd.Flags().IntVarP(&opts.Nodes, "nodes", "n", 1, "Total number of nodes")
	cmd.Flags().IntVarP(&opts.ControlPlane, "control-plane", "c", 1, "Number of control-plane nodes")
	cmd.Flags().StringVar(&opts.App, "app", "", "Juju application name of the nodes (default microk8s-node)")
	cmd.Flags().StringVar(&opts.Series, "series", microk8sprovisioner.DefaultSeries, "Ubuntu series of the machines")
	cmd.Flags().StringVar(&opts.Constraints, "constraints", microk8sprovisioner.DefaultConstraints,
		"Juju constraints for each machine")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", microk8sprovisioner.DefaultOutputDir,
		"Directory receiving the cluster descriptor")
	cmd.Flags().BoolVar(&opts.DestroyOnError, "destroy-on-error", false, "Destroy the model when a step fails")
	cmd.Flags().DurationVar(&opts.WaitTimeout, "wait-timeout", microk8sprovisioner.DefaultWaitTimeout,
		"Time allowed for the model to settle")
	configmanager.AddSettingsFlags(cmd.Flags())

	_ = cmd.MarkFlagRequired(modelFlag)

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, di.WithTimer(
		func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			return handleCreateRunE(cmd, injector, tmr, opts)
		},
	))

	return cmd
}

func handleCreateRunE(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	opts microk8sprovisioner.Options,
) error {
	out := cmd.OutOrStdout()

	notify.Titlef(out, "🚀", "Create cluster...")

	settings, err := configmanager.NewSettingsManager(out, cmd.Flags()).Load(configmanager.LoadOptions{Timer: tmr})
	if err != nil {
		return err
	}

	opts.Settings = *settings

	err = opts.Validate()
	if err != nil {
		return fmt.Errorf("invalid cluster options: %w", err)
	}

	provisioner, err := createProvisioner(injector, opts, cmd, tmr)
	if err != nil {
		return err
	}

	result, err := provisioner.Create(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to create cluster: %w", err)
	}

	if tmr != nil {
		notify.SuccessWithTimerf(out, tmr, "cluster %s created, descriptor written to %s",
			opts.Model, result.DescriptorPath)
	} else {
		notify.Successf(out, "cluster %s created, descriptor written to %s", opts.Model, result.DescriptorPath)
	}

	return nil
}

func createProvisioner(
	injector di.Injector,
	opts microk8sprovisioner.Options,
	cmd *cobra.Command,
	tmr timer.Timer,
) (clusterprovisioner.ClusterProvisioner, error) {
	factory, err := di.ResolveClusterProvisionerFactory(injector)
	if err != nil {
		return nil, err
	}

	provisioner, err := factory.Create(opts, cmd.OutOrStdout(), tmr)
	if err != nil {
		return nil, fmt.Errorf("failed to create provisioner: %w", err)
	}

	return provisioner, nil
}
