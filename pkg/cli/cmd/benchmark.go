package cmd

import (
	"fmt"
	"io"

	"github.com/devantler-tech/scalebench/pkg/cli/helpers"
	"github.com/devantler-tech/scalebench/pkg/di"
	configmanager "github.com/devantler-tech/scalebench/pkg/io/config-manager"
	"github.com/devantler-tech/scalebench/pkg/svc/benchmark"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	clusterprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster"
	microk8sprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster/microk8s"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const benchmarkLongDesc = `Sweep cluster shapes: for every pair of --control-planes and --nodes with
no more control-plane nodes than nodes, create a cluster in the model
<model-prefix>-<control-plane>-<nodes>, run one experiment on it and destroy
the model again. The model is destroyed also when provisioning or the
experiment fails, unless --keep-clusters is set.

At most --concurrency shapes run at once. A failed shape does not stop the
others. Experiment and registry options are resolved as for experiment run and
cluster create.`

// placeholderDescriptor stands in for the per-shape descriptor while the
// experiment template is checked.
const placeholderDescriptor = "pending"

type benchmarkFlags struct {
	controlPlanes []int
	nodes         []int
	opts          benchmark.Options
}

// NewBenchmarkCmd creates the benchmark command.
func NewBenchmarkCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var flags benchmarkFlags

	cmd := &cobra.Command{
		Use:          "benchmark",
		Short:        "Run an experiment on every cluster shape",
		Long:         benchmarkLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Flags().IntSliceVar(&flags.controlPlanes, "control-planes", benchmark.DefaultControlPlaneCounts(),
		"Control-plane counts to sweep")
	cmd.Flags().IntSliceVar(&flags.nodes, "nodes", benchmark.DefaultNodeCounts(), "Total node counts to sweep")
	cmd.Flags().Int64Var(&flags.opts.Concurrency, "concurrency", 1, "Maximum shapes handled at once")
	cmd.Flags().StringVar(&flags.opts.ModelPrefix, "model-prefix", benchmark.DefaultModelPrefix,
		"Prefix of every shape's model name")
	cmd.Flags().BoolVar(&flags.opts.KeepClusters, "keep-clusters", false, "Leave every model in place")
	cmd.Flags().StringVar(&flags.opts.Cluster.Series, "series", microk8sprovisioner.DefaultSeries,
		"Ubuntu series of the machines")
	cmd.Flags().StringVar(&flags.opts.Cluster.Constraints, "constraints", microk8sprovisioner.DefaultConstraints,
		"Juju constraints for each machine")
	cmd.Flags().StringVar(&flags.opts.Cluster.OutputDir, "output-dir", microk8sprovisioner.DefaultOutputDir,
		"Directory receiving the cluster descriptors")
	cmd.Flags().DurationVar(&flags.opts.Cluster.WaitTimeout, "wait-timeout", microk8sprovisioner.DefaultWaitTimeout,
		"Time allowed for each model to settle")
	configmanager.AddSettingsFlags(cmd.Flags())
	configmanager.AddExperimentFlags(cmd.Flags())

	// Each shape brings its own descriptor and kubeconfig.
	_ = cmd.Flags().MarkHidden("descriptor")
	_ = cmd.Flags().MarkHidden("kubeconfig")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, di.WithTimer(
		func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			return handleBenchmarkRunE(cmd, injector, tmr, flags)
		},
	))

	return cmd
}

func handleBenchmarkRunE(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	flags benchmarkFlags,
) error {
	out := cmd.OutOrStdout()
	opts := flags.opts

	notify.Titlef(out, "🏁", "Benchmark cluster shapes...")

	shapes, err := benchmark.Shapes(flags.controlPlanes, flags.nodes)
	if err != nil {
		return fmt.Errorf("invalid shapes: %w", err)
	}

	opts.Shapes = shapes

	settings, err := configmanager.NewSettingsManager(out, cmd.Flags()).Load(configmanager.LoadOptions{Timer: tmr})
	if err != nil {
		return err
	}

	opts.Cluster.Settings = *settings

	experimentOpts, err := configmanager.NewExperimentManager(out, cmd.Flags()).Load(configmanager.LoadOptions{
		Timer:          tmr,
		SkipValidation: true,
	})
	if err != nil {
		return err
	}

	opts.Experiment = *experimentOpts

	err = validateExperimentTemplate(opts.Experiment)
	if err != nil {
		return err
	}

	bench, err := newBenchmark(injector, opts, out, tmr)
	if err != nil {
		return err
	}

	ctx, stop := helpers.SignalContext(cmd.Context())
	defer stop()

	notify.Infof(out, "%d shapes, %d at a time", len(shapes), opts.Concurrency)

	results, err := bench.Run(ctx)
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	if tmr != nil {
		notify.SuccessWithTimerf(out, tmr, "%d shapes benchmarked", len(results))
	} else {
		notify.Successf(out, "%d shapes benchmarked", len(results))
	}

	return nil
}

// validateExperimentTemplate checks every experiment option except the
// descriptor before any cluster is created.
func validateExperimentTemplate(opts experiment.Options) error {
	opts.DescriptorPath = placeholderDescriptor

	err := opts.Validate()
	if err != nil {
		return fmt.Errorf("invalid experiment options: %w", err)
	}

	return nil
}

func newBenchmark(
	injector di.Injector,
	opts benchmark.Options,
	out io.Writer,
	tmr timer.Timer,
) (*benchmark.Benchmark, error) {
	provisionerFactory, err := di.ResolveClusterProvisionerFactory(injector)
	if err != nil {
		return nil, err
	}

	experimentFactory, err := di.ResolveExperimentFactory(injector)
	if err != nil {
		return nil, err
	}

	provisioners := func(
		clusterOpts microk8sprovisioner.Options,
		writer io.Writer,
	) (clusterprovisioner.ClusterProvisioner, error) {
		return provisionerFactory.Create(clusterOpts, writer, tmr)
	}

	experiments := func(experimentOpts experiment.Options, writer io.Writer) (benchmark.ExperimentRunner, error) {
		experimentRunner, err := experimentFactory.Create(experimentOpts, writer, tmr)
		if err != nil {
			return nil, err
		}

		return experimentRunner, nil
	}

	return benchmark.New(provisioners, experiments, opts, out), nil
}
