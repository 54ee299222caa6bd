package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/devantler-tech/scalebench/pkg/cli/parallel"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	clusterprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster"
	microk8sprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster/microk8s"
	"github.com/devantler-tech/scalebench/pkg/svc/state"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
)

// ProvisionerFactory builds the provisioner of one shape.
type ProvisionerFactory func(
	opts microk8sprovisioner.Options,
	out io.Writer,
) (clusterprovisioner.ClusterProvisioner, error)

// ExperimentRunner runs one experiment.
type ExperimentRunner interface {
	Run(ctx context.Context) (*experiment.Metadata, error)
}

// ExperimentFactory builds the experiment runner of one shape.
type ExperimentFactory func(opts experiment.Options, out io.Writer) (ExperimentRunner, error)

// Options configures a sweep. Cluster and Experiment are templates: the model,
// topology and descriptor path are filled in per shape.
type Options struct {
	Shapes      []Shape
	ModelPrefix string
	Concurrency int64
	// KeepClusters leaves every model in place after its experiment.
	KeepClusters bool

	Cluster    microk8sprovisioner.Options
	Experiment experiment.Options
}

// Result is the outcome of one shape.
type Result struct {
	Shape Shape
	Model string
	Run   *experiment.Metadata
	Err   error
}

// Benchmark runs the sweep.
type Benchmark struct {
	opts        Options
	provisioner ProvisionerFactory
	experiments ExperimentFactory
	out         io.Writer
}

// New creates a Benchmark. Progress of all shapes is written to out.
func New(
	provisioner ProvisionerFactory,
	experiments ExperimentFactory,
	opts Options,
	out io.Writer,
) *Benchmark {
	if opts.ModelPrefix == "" {
		opts.ModelPrefix = DefaultModelPrefix
	}

	if out == nil {
		out = io.Discard
	}

	return &Benchmark{
		opts:        opts,
		provisioner: provisioner,
		experiments: experiments,
		out:         &lockedWriter{writer: out},
	}
}

// Run handles every shape, at most Concurrency at a time. A failed shape does
// not stop the others. The returned results follow the order of the shapes and
// the error joins every shape's failure.
func (b *Benchmark) Run(ctx context.Context) ([]Result, error) {
	if len(b.opts.Shapes) == 0 {
		return nil, ErrNoShapes
	}

	if b.opts.Concurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, b.opts.Concurrency)
	}

	results := make([]Result, len(b.opts.Shapes))
	tasks := make([]parallel.Task, len(b.opts.Shapes))

	for index, shape := range b.opts.Shapes {
		results[index] = Result{Shape: shape, Model: ModelName(b.opts.ModelPrefix, shape)}

		tasks[index] = func(ctx context.Context) error {
			metadata, err := b.runShape(ctx, results[index].Model, shape)
			results[index].Run = metadata

			return err
		}
	}

	errs := parallel.NewExecutor(b.opts.Concurrency).ExecuteAll(ctx, tasks...)

	var failures []error

	for index, err := range errs {
		if err == nil {
			notify.Successf(b.out, "shape %s finished in model %s", results[index].Shape, results[index].Model)

			continue
		}

		results[index].Err = err
		failures = append(failures, fmt.Errorf("shape %s: %w", results[index].Shape, err))
	}

	return results, errors.Join(failures...)
}

// runShape provisions the cluster of shape, runs the experiment and destroys
// the model unless clusters are kept. The model is destroyed also when
// provisioning fails half way.
func (b *Benchmark) runShape(ctx context.Context, model string, shape Shape) (_ *experiment.Metadata, err error) {
	clusterOpts := b.opts.Cluster
	clusterOpts.Model = model
	clusterOpts.Nodes = shape.Nodes
	clusterOpts.ControlPlane = shape.ControlPlane
	clusterOpts.DestroyOnError = false

	err = clusterOpts.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid cluster options: %w", err)
	}

	provisioner, err := b.provisioner(clusterOpts, b.out)
	if err != nil {
		return nil, fmt.Errorf("failed to create provisioner: %w", err)
	}

	if !b.opts.KeepClusters {
		defer func() {
			destroyErr := b.destroy(ctx, provisioner, clusterOpts)
			if destroyErr != nil {
				err = errors.Join(err, destroyErr)
			}
		}()
	}

	notify.Activityf(b.out, "provisioning %s for shape %s", model, shape)

	created, err := provisioner.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster: %w", err)
	}

	experimentOpts := b.opts.Experiment
	experimentOpts.DescriptorPath = created.DescriptorPath
	experimentOpts.Kubeconfig = ""

	experimentRunner, err := b.experiments(experimentOpts, b.out)
	if err != nil {
		return nil, fmt.Errorf("failed to create experiment runner: %w", err)
	}

	metadata, err := experimentRunner.Run(ctx)
	if err != nil {
		return metadata, fmt.Errorf("experiment failed: %w", err)
	}

	return metadata, nil
}

// destroy removes the model and its descriptor. It ignores cancellation of ctx.
func (b *Benchmark) destroy(
	ctx context.Context,
	provisioner clusterprovisioner.ClusterProvisioner,
	opts microk8sprovisioner.Options,
) error {
	notify.Activityf(b.out, "destroying model %s", opts.Model)

	err := provisioner.Delete(context.WithoutCancel(ctx), opts.Model)
	if err != nil {
		return fmt.Errorf("failed to destroy model %s: %w", opts.Model, err)
	}

	err = state.DeleteDescriptor(opts.OutputDir, opts.Model)
	if err != nil {
		return err
	}

	notify.Successf(b.out, "model %s destroyed", opts.Model)

	return nil
}

// lockedWriter serializes writes from concurrent shapes.
type lockedWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.writer.Write(p)
	if err != nil {
		return n, fmt.Errorf("write progress: %w", err)
	}

	return n, nil
}
