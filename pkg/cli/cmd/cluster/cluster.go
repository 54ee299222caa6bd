// Package cluster provides the cluster command namespace.
package cluster

import (
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/di"
	"github.com/spf13/cobra"
)

// NewClusterCmd creates the parent cluster command and wires lifecycle subcommands beneath it.
func NewClusterCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Manage benchmark clusters",
		Long: `Provision MicroK8s clusters through juju and destroy them again. ` +
			`Provisioning writes a descriptor that experiments read.`,
		Args:         cobra.NoArgs,
		RunE:         handleClusterRunE,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewCreateCmd(runtimeContainer))
	cmd.AddCommand(NewDestroyCmd(runtimeContainer))

	return cmd
}

func handleClusterRunE(cmd *cobra.Command, _ []string) error {
	err := cmd.Help()
	if err != nil {
		return fmt.Errorf("displaying cluster command help: %w", err)
	}

	return nil
}

// modelFlag is shared by every subcommand.
const modelFlag = "model"
