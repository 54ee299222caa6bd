// Package experiment provides the experiment command namespace.
package experiment

import (
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/di"
	"github.com/spf13/cobra"
)

// NewExperimentCmd creates the parent experiment command.
func NewExperimentCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "experiment",
		Short:        "Run benchmark experiments",
		Long:         `Deploy workloads into a provisioned cluster and sample control-plane processes while they run.`,
		Args:         cobra.NoArgs,
		RunE:         handleExperimentRunE,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCmd(runtimeContainer))

	return cmd
}

func handleExperimentRunE(cmd *cobra.Command, _ []string) error {
	err := cmd.Help()
	if err != nil {
		return fmt.Errorf("displaying experiment command help: %w", err)
	}

	return nil
}
