package cluster

import (
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/cli/ui/prompt"
	"github.com/devantler-tech/scalebench/pkg/di"
	"github.com/devantler-tech/scalebench/pkg/k8s"
	microk8sprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster/microk8s"
	"github.com/devantler-tech/scalebench/pkg/svc/state"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/spf13/cobra"
)

type destroyFlags struct {
	model     string
	outputDir string
	purge     bool
	force     bool
}

// NewDestroyCmd creates the cluster destroy command.
func NewDestroyCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var flags destroyFlags

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a cluster",
		Long: `Destroy the juju model of a cluster and every machine in it.

With --purge the cluster descriptor and the fetched kubeconfig
(~/.kube/config_<model>) are removed as well.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&flags.model, modelFlag, "m", "", "Name of the juju model to destroy")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", microk8sprovisioner.DefaultOutputDir,
		"Directory holding the cluster descriptor")
	cmd.Flags().BoolVar(&flags.purge, "purge", false, "Also remove the descriptor and the kubeconfig")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Skip the confirmation prompt")

	_ = cmd.MarkFlagRequired(modelFlag)

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, di.WithTimer(
		func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			return handleDestroyRunE(cmd, injector, tmr, flags)
		},
	))

	return cmd
}

func handleDestroyRunE(cmd *cobra.Command, injector di.Injector, tmr timer.Timer, flags destroyFlags) error {
	out := cmd.OutOrStdout()

	err := v1alpha1.ValidateModelName(flags.model)
	if err != nil {
		return err
	}

	notify.Titlef(out, "🗑️", "Destroy cluster...")

	prompterFactory, err := di.ResolvePrompterFactory(injector)
	if err != nil {
		return err
	}

	err = prompt.Confirm(prompterFactory(out), out,
		fmt.Sprintf("model %s and all of its machines will be destroyed", flags.model), flags.force)
	if err != nil {
		return err
	}

	provisioner, err := createProvisioner(injector, microk8sprovisioner.Options{Model: flags.model}, cmd, tmr)
	if err != nil {
		return err
	}

	notify.Activityf(out, "destroying model %s", flags.model)

	err = provisioner.Delete(cmd.Context(), flags.model)
	if err != nil {
		return fmt.Errorf("failed to destroy cluster: %w", err)
	}

	if flags.purge {
		err = purge(flags)
		if err != nil {
			return err
		}

		notify.Infof(out, "removed descriptor and kubeconfig of %s", flags.model)
	}

	if tmr != nil {
		notify.SuccessWithTimerf(out, tmr, "cluster %s destroyed", flags.model)
	} else {
		notify.Successf(out, "cluster %s destroyed", flags.model)
	}

	return nil
}

func purge(flags destroyFlags) error {
	err := state.DeleteDescriptor(flags.outputDir, flags.model)
	if err != nil {
		return err
	}

	path, err := k8s.ModelKubeconfigPath(flags.model)
	if err != nil {
		return err
	}

	return k8s.RemoveKubeconfig(path)
}
