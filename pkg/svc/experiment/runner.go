package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/cli/parallel"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/k8s"
	"github.com/devantler-tech/scalebench/pkg/svc/metrics"
	"github.com/devantler-tech/scalebench/pkg/svc/pipeline"
	"github.com/devantler-tech/scalebench/pkg/svc/remote"
	"github.com/devantler-tech/scalebench/pkg/svc/state"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	// RunIDLabel carries the run id on the scratch namespace.
	RunIDLabel = "scalebench.dev/run-id"
	// ExperimentLabel carries the experiment name on the scratch namespace.
	ExperimentLabel = "scalebench.dev/experiment"

	kubeconfigCommand = "sudo microk8s config"
)

// ExecutorFactory opens a remote executor for the nodes of descriptor.
type ExecutorFactory func(descriptor *v1alpha1.Descriptor, opts Options) (remote.Executor, error)

// NewExecutorFactory returns the default ExecutorFactory, which picks the
// transport named by the options.
func NewExecutorFactory(commandRunner runner.CommandRunner) ExecutorFactory {
	return func(descriptor *v1alpha1.Descriptor, opts Options) (remote.Executor, error) {
		return remote.New(commandRunner, remote.Options{
			Transport: opts.Transport,
			Model:     descriptor.Model,
			Timeout:   opts.RemoteTimeout,
			SSH:       opts.SSHConfig(),
		})
	}
}

// Runner executes one experiment run.
type Runner struct {
	opts           Options
	executors      ExecutorFactory
	connect        ClusterConnector
	kubeconfigPath func(model string) (string, error)
	newID          func() string
	now            timer.Clock
	out            io.Writer
	timer          timer.Timer
}

// NewRunner creates a Runner. Progress is written to out.
func NewRunner(executors ExecutorFactory, opts Options, out io.Writer) *Runner {
	opts.ApplyDefaults()

	if out == nil {
		out = io.Discard
	}

	return &Runner{
		opts:           opts,
		executors:      executors,
		connect:        ConnectKubeconfig,
		kubeconfigPath: k8s.ModelKubeconfigPath,
		newID:          uuid.NewString,
		now:            time.Now,
		out:            out,
	}
}

// WithConnector replaces how the cluster is reached from a kubeconfig.
func (r *Runner) WithConnector(connect ClusterConnector) *Runner {
	r.connect = connect

	return r
}

// WithKubeconfigPath replaces where a fetched kubeconfig is stored.
func (r *Runner) WithKubeconfigPath(path func(model string) (string, error)) *Runner {
	r.kubeconfigPath = path

	return r
}

// WithIDGenerator replaces the run id generator.
func (r *Runner) WithIDGenerator(newID func() string) *Runner {
	r.newID = newID

	return r
}

// WithClock replaces the clock used for timestamps.
func (r *Runner) WithClock(now timer.Clock) *Runner {
	r.now = now

	return r
}

// WithTimer adds per-step timing to progress output.
func (r *Runner) WithTimer(tmr timer.Timer) *Runner {
	r.timer = tmr

	return r
}

// Options returns the effective options.
func (r *Runner) Options() Options {
	return r.opts
}

// run holds the state of a single Run call.
type run struct {
	descriptor *v1alpha1.Descriptor
	master     v1alpha1.Node
	objects    []*unstructured.Unstructured
	command    string
	executor   remote.Executor
	cluster    Cluster
	kubeconfig string
	enabled    []string
	namespaced bool
	sink       *metrics.Sink
	recorder   *metrics.Recorder
	metadata   *Metadata
	ticks      atomic.Int64
	failures   atomic.Int64
}

// Run executes the experiment. The descriptor and workloads are checked before
// any cluster action. Run metadata is written whether the run succeeds or not.
// The returned metadata is nil only when the run failed before its directory
// was created.
func (r *Runner) Run(ctx context.Context) (*Metadata, error) {
	err := r.opts.Validate()
	if err != nil {
		return nil, err
	}

	current, err := r.prepare()
	if err != nil {
		return nil, err
	}

	err = r.execute(ctx, current)

	finishErr := r.finish(current, err)
	if finishErr != nil {
		return current.metadata, errors.Join(err, finishErr)
	}

	return current.metadata, err
}

// prepare loads local inputs and creates the run directory.
func (r *Runner) prepare() (*run, error) {
	descriptor, err := state.LoadDescriptor(r.opts.DescriptorPath)
	if err != nil {
		return nil, err
	}

	master, ok := descriptor.MasterNode()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMaster, descriptor.Model)
	}

	objects, err := LoadWorkloads(r.opts.Workloads)
	if err != nil {
		return nil, err
	}

	command, err := metrics.Command(r.opts.Processes)
	if err != nil {
		return nil, err
	}

	runID := r.newID()
	startedAt := r.now().UTC()
	dir := RunDir(r.opts.DataDir, r.opts.Experiment, startedAt, runID)

	sink, err := metrics.NewSink(dir)
	if err != nil {
		return nil, err
	}

	nodes := make([]string, 0, len(descriptor.ControlPlane()))
	for _, node := range descriptor.ControlPlane() {
		nodes = append(nodes, node.ID)
	}

	return &run{
		descriptor: descriptor,
		master:     master,
		objects:    objects,
		command:    remote.Sudo(command),
		sink:       sink,
		recorder:   metrics.NewRecorder(),
		metadata: &Metadata{
			ID:         runID,
			Experiment: r.opts.Experiment,
			Model:      descriptor.Model,
			StartedAt:  startedAt,
			Duration:   r.opts.Duration.String(),
			Interval:   r.opts.Interval.String(),
			Processes:  slices.Clone(r.opts.Processes),
			Nodes:      nodes,
			Workloads:  slices.Clone(r.opts.Workloads),
			Addons:     slices.Clone(r.opts.Addons),
		},
	}, nil
}

// execute runs the cluster side of a run. Cleanup is deferred so that it
// happens exactly once on every exit path.
func (r *Runner) execute(ctx context.Context, current *run) (err error) {
	current.executor, err = r.executors(current.descriptor, r.opts)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := current.executor.Close()
		if closeErr != nil {
			notify.Warningf(r.out, "failed to close remote transport: %v", closeErr)
		}
	}()

	defer func() {
		if r.opts.DisableAddons && len(current.enabled) > 0 {
			r.disableAddons(ctx, current)
		}
	}()

	defer func() {
		if !current.namespaced {
			return
		}

		teardownErr := r.teardown(ctx, current)
		if teardownErr == nil {
			return
		}

		if err == nil {
			err = teardownErr

			return
		}

		notify.Warningf(r.out, "%v", teardownErr)
	}()

	setup := pipeline.New(r.out, r.setupSteps(current)...)
	if r.timer != nil {
		setup.WithTimer(r.timer)
	}

	_, err = setup.Run(ctx)
	if err != nil {
		return err
	}

	return r.sample(ctx, current)
}

func (r *Runner) setupSteps(current *run) []pipeline.Step {
	return []pipeline.Step{
		{
			Name: "enable addons",
			Skip: func() bool { return len(r.opts.Addons) == 0 },
			Run: func(ctx context.Context) error {
				return r.enableAddons(ctx, current)
			},
		},
		{
			Name: "fetch kubeconfig",
			Run: func(ctx context.Context) error {
				return r.fetchKubeconfig(ctx, current)
			},
		},
		{
			Name: "create namespace " + k8s.ScratchNamespace(current.metadata.ID),
			Run: func(ctx context.Context) error {
				namespace := k8s.ScratchNamespace(current.metadata.ID)

				// The server may store the namespace even when the call fails,
				// e.g. on cancellation, so teardown is armed first.
				current.namespaced = true
				current.metadata.Namespace = namespace

				return current.cluster.CreateNamespace(ctx, namespace, map[string]string{
					RunIDLabel:      current.metadata.ID,
					ExperimentLabel: k8s.SanitizeName(r.opts.Experiment),
				})
			},
		},
		{
			Name: "deploy workloads",
			Run: func(ctx context.Context) error {
				return current.cluster.Apply(ctx, current.metadata.Namespace, current.objects)
			},
		},
		{
			Name: "wait for workloads",
			Run: func(ctx context.Context) error {
				return current.cluster.WaitReady(ctx, current.metadata.Namespace, r.opts.ReadyTimeout)
			},
		},
	}
}

func (r *Runner) enableAddons(ctx context.Context, current *run) error {
	for _, addon := range r.opts.Addons {
		_, err := current.executor.Exec(ctx, current.master, "sudo microk8s enable "+addon)
		if err != nil {
			return fmt.Errorf("enable addon %s: %w", addon, err)
		}

		current.enabled = append(current.enabled, addon)
	}

	return nil
}

// disableAddons disables enabled addons in reverse order. Failures are warnings.
func (r *Runner) disableAddons(ctx context.Context, current *run) {
	cleanupCtx := context.WithoutCancel(ctx)

	for _, addon := range slices.Backward(current.enabled) {
		_, err := current.executor.Exec(cleanupCtx, current.master, "sudo microk8s disable "+addon)
		if err != nil {
			notify.Warningf(r.out, "failed to disable addon %s: %v", addon, err)

			continue
		}

		notify.Successf(r.out, "addon %s disabled", addon)
	}
}

// fetchKubeconfig reads the master's kubeconfig unless one was given, then
// connects to the cluster.
func (r *Runner) fetchKubeconfig(ctx context.Context, current *run) error {
	current.kubeconfig = r.opts.Kubeconfig

	if current.kubeconfig == "" {
		result, err := current.executor.Exec(ctx, current.master, kubeconfigCommand)
		if err != nil {
			return fmt.Errorf("read kubeconfig: %w", err)
		}

		path, err := r.kubeconfigPath(current.descriptor.Model)
		if err != nil {
			return err
		}

		err = k8s.WriteKubeconfig(path, []byte(result.Stdout))
		if err != nil {
			return err
		}

		current.kubeconfig = path
	}

	cluster, err := r.connect(current.kubeconfig)
	if err != nil {
		return fmt.Errorf("connect to cluster: %w", err)
	}

	current.cluster = cluster

	return nil
}

// teardown deletes the scratch namespace. It ignores cancellation of ctx.
func (r *Runner) teardown(ctx context.Context, current *run) error {
	namespace := current.metadata.Namespace

	notify.Activityf(r.out, "deleting namespace %s", namespace)

	err := current.cluster.DeleteNamespace(context.WithoutCancel(ctx), namespace, r.opts.ReadyTimeout)
	if err != nil {
		return fmt.Errorf("teardown of namespace %s failed: %w", namespace, err)
	}

	notify.Successf(r.out, "namespace %s deleted", namespace)

	return nil
}

// sample ticks immediately and then on every interval until the duration
// elapses or ctx is cancelled.
func (r *Runner) sample(ctx context.Context, current *run) error {
	notify.Activityf(r.out, "sampling %d control-plane nodes every %s for %s",
		len(current.descriptor.ControlPlane()), r.opts.Interval, r.opts.Duration)

	pool := parallel.NewExecutor(r.opts.MaxConcurrency)

	deadline := time.NewTimer(r.opts.Duration)
	defer deadline.Stop()

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.tick(ctx, pool, current)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		case <-deadline.C:
			notify.Successf(r.out, "sampled %d ticks, %d failed node samples",
				current.ticks.Load(), current.failures.Load())

			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}

			r.tick(ctx, pool, current)
		}
	}
}

// tick samples every control-plane node concurrently. A node failure is
// reported and skipped.
func (r *Runner) tick(ctx context.Context, pool *parallel.Executor, current *run) {
	started := r.now()
	timestamp := started.UTC()
	nodes := current.descriptor.ControlPlane()

	tasks := make([]parallel.Task, len(nodes))
	for index, node := range nodes {
		tasks[index] = func(ctx context.Context) error {
			return r.sampleNode(ctx, current, node, timestamp)
		}
	}

	errs := pool.ExecuteAll(ctx, tasks...)

	current.ticks.Add(1)

	for index, err := range errs {
		if err == nil {
			continue
		}

		current.failures.Add(1)
		current.recorder.Failure(nodes[index].ID)
		notify.Warningf(r.out, "sample of %s skipped: %v", nodes[index].ID, err)
	}

	elapsed := r.now().Sub(started)
	if elapsed > r.opts.Interval {
		notify.Warningf(r.out, "sampling took %s, longer than the %s interval", elapsed, r.opts.Interval)
	}
}

func (r *Runner) sampleNode(
	ctx context.Context,
	current *run,
	node v1alpha1.Node,
	timestamp time.Time,
) error {
	result, err := current.executor.Exec(ctx, node, current.command)
	if err != nil {
		return err
	}

	parsed, err := metrics.Parse(result.Stdout)
	if err != nil {
		return err
	}

	samples := make([]metrics.Sample, 0, len(parsed))
	for _, processSample := range parsed {
		samples = append(samples, metrics.Sample{
			Timestamp:     timestamp,
			Node:          node.ID,
			ProcessSample: processSample,
		})
	}

	err = current.sink.Append(node.ID, samples)
	if err != nil {
		return err
	}

	current.recorder.Observe(node.ID, samples)

	return nil
}

// finish closes the sink and writes the run files.
func (r *Runner) finish(current *run, runErr error) error {
	metadata := current.metadata
	metadata.FinishedAt = r.now().UTC()
	metadata.Ticks = int(current.ticks.Load())
	metadata.FailedTicks = int(current.failures.Load())

	if runErr != nil {
		metadata.Error = runErr.Error()
	}

	closeErr := current.sink.Close()

	writeErr := writeRunFiles(current.sink.Dir(), metadata, current.recorder)
	if writeErr != nil {
		return errors.Join(closeErr, writeErr)
	}

	if runErr == nil {
		if r.timer != nil {
			notify.SuccessWithTimerf(r.out, r.timer, "run %s written to %s", metadata.ID, current.sink.Dir())
		} else {
			notify.Successf(r.out, "run %s written to %s", metadata.ID, current.sink.Dir())
		}
	}

	return closeErr
}

// LoadWorkloads decodes every workload file. Each file must hold at least one object.
func LoadWorkloads(paths []string) ([]*unstructured.Unstructured, error) {
	var objects []*unstructured.Unstructured

	for _, path := range paths {
		decoded, err := loadWorkload(path)
		if err != nil {
			return nil, err
		}

		objects = append(objects, decoded...)
	}

	return objects, nil
}

func loadWorkload(path string) ([]*unstructured.Unstructured, error) {
	file, err := os.Open(path) //nolint:gosec // workload paths come from flags
	if err != nil {
		return nil, fmt.Errorf("open workload %s: %w", path, err)
	}

	defer func() { _ = file.Close() }()

	objects, err := k8s.DecodeManifests(file)
	if err != nil {
		return nil, fmt.Errorf("decode workload %s: %w", path, err)
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWorkload, path)
	}

	return objects, nil
}
