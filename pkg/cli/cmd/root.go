package cmd

import (
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/cli/cmd/cluster"
	"github.com/devantler-tech/scalebench/pkg/cli/cmd/experiment"
	"github.com/devantler-tech/scalebench/pkg/cli/helpers"
	"github.com/devantler-tech/scalebench/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/scalebench/pkg/di"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with the default runtime.
func NewRootCmd(version, commit, date string) *cobra.Command {
	return NewRootCmdWithRuntime(di.NewRuntime(), version, commit, date)
}

// NewRootCmdWithRuntime creates the root command with version info and
// subcommands resolving their dependencies from runtimeContainer.
func NewRootCmdWithRuntime(runtimeContainer *di.Runtime, version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scalebench",
		Short: "Benchmark MicroK8s control planes on OpenStack",
		Long: "scalebench bootstraps a juju controller on OpenStack, provisions MicroK8s clusters " +
			"through juju and samples control-plane CPU and memory while workloads run.",
		RunE:              handleRootRunE,
		PersistentPreRunE: configureLogging,
		SilenceUsage:      true,
	}

	cmd.Version = formatVersion(version, commit, date)

	cmd.PersistentFlags().Bool(
		helpers.TimingFlagName,
		false,
		"Show per-activity timing output",
	)
	cmd.PersistentFlags().Bool(
		helpers.DebugFlagName,
		false,
		"Trace external commands at debug level",
	)

	cmd.AddCommand(NewBootstrapCmd(runtimeContainer))
	cmd.AddCommand(NewBenchmarkCmd(runtimeContainer))
	cmd.AddCommand(cluster.NewClusterCmd(runtimeContainer))
	cmd.AddCommand(experiment.NewExperimentCmd(runtimeContainer))
	cmd.AddCommand(NewVersionCmd(version, commit, date))

	return cmd
}

// Execute runs the provided root command and handles errors.
func Execute(cmd *cobra.Command) error {
	executor := errorhandler.NewExecutor()

	err := executor.Execute(cmd)
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// --- internals ---

func formatVersion(version, commit, date string) string {
	return fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}

// configureLogging raises the logrus level so command traces are printed.
func configureLogging(cmd *cobra.Command, _ []string) error {
	debug, err := helpers.IsDebugEnabled(cmd)
	if err != nil {
		return fmt.Errorf("read --%s: %w", helpers.DebugFlagName, err)
	}

	if debug {
		logrus.SetOutput(cmd.ErrOrStderr())
		logrus.SetLevel(logrus.DebugLevel)
	}

	return nil
}
