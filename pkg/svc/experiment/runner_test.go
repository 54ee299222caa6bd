package experiment_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	"github.com/devantler-tech/scalebench/pkg/svc/metrics"
	"github.com/devantler-tech/scalebench/pkg/svc/remote"
	"github.com/devantler-tech/scalebench/pkg/svc/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	runID       = "3f1a2b4c-5d6e-4f70-8192-a3b4c5d6e7f8"
	namespace   = "scalebench-3f1a2b4c"
	sampleLines = "k8s-dqlite 2.5 1024\nkubelite 12.0 204800\n"
)

var startedAt = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

const pauseWorkload = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: pause
spec:
  replicas: 2
  selector:
    matchLabels:
      app: pause
  template:
    metadata:
      labels:
        app: pause
    spec:
      containers:
      - name: pause
        image: registry.k8s.io/pause:3.9
`

const fetchedKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://10.0.0.10:16443
  name: microk8s-cluster
contexts:
- context:
    cluster: microk8s-cluster
    user: admin
  name: microk8s
current-context: microk8s
users:
- name: admin
  user:
    token: fake-token
`

var (
	errUnreachable = errors.New("unit unreachable")
	errApply       = errors.New("admission webhook denied the request")
	errDelete      = errors.New("namespace stuck terminating")
)

type fakeExecutor struct {
	mu      sync.Mutex
	calls   []string
	closed  bool
	respond func(node v1alpha1.Node, command string) (runner.CommandResult, error)
}

func (e *fakeExecutor) Exec(
	_ context.Context,
	node v1alpha1.Node,
	command string,
) (runner.CommandResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, node.ID+": "+command)
	e.mu.Unlock()

	if e.respond != nil {
		return e.respond(node, command)
	}

	return runner.CommandResult{Stdout: sampleLines}, nil
}

func (e *fakeExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true

	return nil
}

func (e *fakeExecutor) commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.calls...)
}

type fakeCluster struct {
	mu           sync.Mutex
	events       []string
	labels       map[string]string
	applied      int
	createErr    error
	applyErr     error
	waitErr      error
	deleteErr    error
	deleteCtxErr error
}

func (c *fakeCluster) record(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)
}

func (c *fakeCluster) CreateNamespace(_ context.Context, name string, labels map[string]string) error {
	c.record("create " + name)
	c.labels = labels

	return c.createErr
}

func (c *fakeCluster) Apply(_ context.Context, ns string, objects []*unstructured.Unstructured) error {
	c.record("apply " + ns)
	c.applied = len(objects)

	return c.applyErr
}

func (c *fakeCluster) WaitReady(_ context.Context, ns string, _ time.Duration) error {
	c.record("wait " + ns)

	return c.waitErr
}

func (c *fakeCluster) DeleteNamespace(ctx context.Context, name string, _ time.Duration) error {
	c.record("delete " + name)
	c.deleteCtxErr = ctx.Err()

	return c.deleteErr
}

func (c *fakeCluster) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.events...)
}

type fixture struct {
	opts     experiment.Options
	executor *fakeExecutor
	cluster  *fakeCluster
	out      *bytes.Buffer
	opened   int
	id       string
	clock    func() time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()

	descriptorPath, err := state.SaveDescriptor(dir, &v1alpha1.Descriptor{
		Model:  "scale",
		Master: "microk8s-node/0",
		Nodes: []v1alpha1.Node{
			{ID: "microk8s-node/0", Role: v1alpha1.RoleControlPlane, Address: "10.0.0.10"},
			{ID: "microk8s-node/1", Role: v1alpha1.RoleControlPlane, Address: "10.0.0.11"},
			{ID: "microk8s-node/2", Role: v1alpha1.RoleWorker, Address: "10.0.0.12"},
		},
	})
	require.NoError(t, err)

	workloadPath := filepath.Join(dir, "pause.yaml")
	require.NoError(t, os.WriteFile(workloadPath, []byte(pauseWorkload), 0o600))

	return &fixture{
		opts: experiment.Options{
			DescriptorPath: descriptorPath,
			Workloads:      []string{workloadPath},
			Interval:       20 * time.Millisecond,
			Duration:       110 * time.Millisecond,
			DataDir:        filepath.Join(dir, "data"),
			Kubeconfig:     filepath.Join(dir, "kubeconfig"),
			ReadyTimeout:   time.Second,
		},
		executor: &fakeExecutor{},
		cluster:  &fakeCluster{},
		out:      &bytes.Buffer{},
		id:       runID,
		clock:    func() time.Time { return startedAt },
	}
}

func (f *fixture) runner() *experiment.Runner {
	factory := func(_ *v1alpha1.Descriptor, _ experiment.Options) (remote.Executor, error) {
		f.opened++

		return f.executor, nil
	}

	return experiment.NewRunner(factory, f.opts, f.out).
		WithConnector(func(string) (experiment.Cluster, error) { return f.cluster, nil }).
		WithIDGenerator(func() string { return f.id }).
		WithClock(f.clock)
}

func (f *fixture) runDir() string {
	return experiment.RunDir(f.opts.DataDir, "pause", startedAt, f.id)
}

// advancingClock starts at startedAt and moves forward by step on every call.
func advancingClock(step time.Duration) func() time.Time {
	var (
		mu   sync.Mutex
		next = startedAt
	)

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		current := next
		next = next.Add(step)

		return current
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // test path
	require.NoError(t, err)

	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, metrics.Header(), records[0])

	return records[1:]
}

func countLines(t *testing.T, path string) int {
	t.Helper()

	content, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)

	return strings.Count(string(content), "\n")
}

func TestRunner_Run_SamplesControlPlaneAndTearsDown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	metadata, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"create " + namespace,
		"apply " + namespace,
		"wait " + namespace,
		"delete " + namespace,
	}, f.cluster.recorded())
	assert.Equal(t, 1, f.cluster.applied)
	assert.Equal(t, runID, f.cluster.labels[experiment.RunIDLabel])
	assert.Equal(t, "pause", f.cluster.labels[experiment.ExperimentLabel])
	assert.True(t, f.executor.closed)

	require.NotNil(t, metadata)
	assert.Equal(t, runID, metadata.ID)
	assert.Equal(t, "pause", metadata.Experiment)
	assert.Equal(t, namespace, metadata.Namespace)
	assert.Equal(t, []string{"microk8s-node/0", "microk8s-node/1"}, metadata.Nodes)
	assert.GreaterOrEqual(t, metadata.Ticks, 2)
	assert.Zero(t, metadata.FailedTicks)
	assert.Empty(t, metadata.Error)

	for _, node := range metadata.Nodes {
		path := filepath.Join(f.runDir(), metrics.FileName(node))
		assert.Equal(t, 1+2*metadata.Ticks, countLines(t, path), node)
	}

	assert.NoFileExists(t, filepath.Join(f.runDir(), metrics.FileName("microk8s-node/2")))
	assert.FileExists(t, filepath.Join(f.runDir(), experiment.StatsFile))

	written, err := experiment.ReadMetadata(filepath.Join(f.runDir(), experiment.MetadataFile))
	require.NoError(t, err)
	assert.Equal(t, metadata.Ticks, written.Ticks)
	assert.Equal(t, "110ms", written.Duration)

	for _, command := range f.executor.commands() {
		assert.NotContains(t, command, "microk8s-node/2", "workers are never sampled")
		assert.Contains(t, command, "sudo sh -c")
	}
}

func TestRunner_Run_FailedNodeIsSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.executor.respond = func(node v1alpha1.Node, _ string) (runner.CommandResult, error) {
		if node.ID == "microk8s-node/1" {
			return runner.CommandResult{}, errUnreachable
		}

		return runner.CommandResult{Stdout: sampleLines}, nil
	}

	metadata, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, metadata.Ticks, metadata.FailedTicks)
	assert.Contains(t, f.out.String(), "sample of microk8s-node/1 skipped")
	assert.FileExists(t, filepath.Join(f.runDir(), metrics.FileName("microk8s-node/0")))
	assert.NoFileExists(t, filepath.Join(f.runDir(), metrics.FileName("microk8s-node/1")))
}

func TestRunner_Run_MalformedOutputIsSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.executor.respond = func(v1alpha1.Node, string) (runner.CommandResult, error) {
		return runner.CommandResult{Stdout: "kubelite not-a-number 12\n"}, nil
	}

	metadata, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*metadata.Ticks, metadata.FailedTicks)
	assert.Contains(t, f.out.String(), "malformed sample")
}

func TestRunner_Run_MissingDescriptorFailsBeforeClusterAction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.opts.DescriptorPath = filepath.Join(t.TempDir(), "missing.json")

	metadata, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, state.ErrDescriptorNotFound)
	assert.Nil(t, metadata)
	assert.Zero(t, f.opened)
	assert.Empty(t, f.cluster.recorded())
	assert.NoDirExists(t, f.opts.DataDir)
}

func TestRunner_Run_MalformedDescriptor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.opts.DescriptorPath, []byte(`{"model": "scale", "nodes": []}`), 0o600))

	_, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, state.ErrInvalidDescriptor)
	assert.Zero(t, f.opened)
}

func TestRunner_Run_EmptyWorkloadFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.opts.Workloads[0], []byte("# nothing\n"), 0o600))

	_, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, experiment.ErrEmptyWorkload)
	assert.Zero(t, f.opened)
}

func TestRunner_Run_DeployFailureTearsDownOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cluster.applyErr = errApply

	metadata, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, errApply)
	assert.Equal(t, []string{"create " + namespace, "apply " + namespace, "delete " + namespace}, f.cluster.recorded())
	require.NotNil(t, metadata)
	assert.Zero(t, metadata.Ticks)
	assert.Contains(t, metadata.Error, errApply.Error())

	for _, command := range f.executor.commands() {
		assert.NotContains(t, command, "pgrep")
	}

	written, readErr := experiment.ReadMetadata(filepath.Join(f.runDir(), experiment.MetadataFile))
	require.NoError(t, readErr)
	assert.Contains(t, written.Error, errApply.Error())
}

func TestRunner_Run_TeardownErrorDoesNotMaskEarlierError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cluster.waitErr = experiment.ErrWorkloadsNotReady
	f.cluster.deleteErr = errDelete

	_, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, experiment.ErrWorkloadsNotReady)
	require.NotErrorIs(t, err, errDelete)
	assert.Contains(t, f.out.String(), errDelete.Error())
}

func TestRunner_Run_TeardownErrorIsReturned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cluster.deleteErr = errDelete

	_, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, errDelete)
}

func TestRunner_Run_InterruptTearsDownWithLiveContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.opts.Duration = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.executor.respond = func(v1alpha1.Node, string) (runner.CommandResult, error) {
		cancel()

		return runner.CommandResult{Stdout: sampleLines}, nil
	}

	metadata, err := f.runner().Run(ctx)

	require.ErrorIs(t, err, experiment.ErrInterrupted)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "delete "+namespace, f.cluster.recorded()[len(f.cluster.recorded())-1])
	require.NoError(t, f.cluster.deleteCtxErr)
	require.NotNil(t, metadata)
	assert.Equal(t, 1, metadata.Ticks)
}

func TestRunner_Run_AddonsAreEnabledAndDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.opts.Addons = []string{"dns", "hostpath-storage"}
	f.opts.DisableAddons = true

	_, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	var addonCommands []string

	for _, command := range f.executor.commands() {
		if strings.Contains(command, "microk8s enable") || strings.Contains(command, "microk8s disable") {
			addonCommands = append(addonCommands, command)
		}
	}

	assert.Equal(t, []string{
		"microk8s-node/0: sudo microk8s enable dns",
		"microk8s-node/0: sudo microk8s enable hostpath-storage",
		"microk8s-node/0: sudo microk8s disable hostpath-storage",
		"microk8s-node/0: sudo microk8s disable dns",
	}, addonCommands)
}

func TestRunner_Run_AddonFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.opts.Addons = []string{"dns"}
	f.executor.respond = func(_ v1alpha1.Node, command string) (runner.CommandResult, error) {
		if strings.Contains(command, "enable") {
			return runner.CommandResult{}, errUnreachable
		}

		return runner.CommandResult{Stdout: sampleLines}, nil
	}

	_, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, errUnreachable)
	assert.Empty(t, f.cluster.recorded())
}

func TestRunner_Run_FetchesKubeconfigFromMaster(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.opts.Kubeconfig = ""
	kubeconfigPath := filepath.Join(t.TempDir(), ".kube", "config_scale")

	f.executor.respond = func(_ v1alpha1.Node, command string) (runner.CommandResult, error) {
		if command == "sudo microk8s config" {
			return runner.CommandResult{Stdout: fetchedKubeconfig}, nil
		}

		return runner.CommandResult{Stdout: sampleLines}, nil
	}

	var connected string

	_, err := f.runner().
		WithKubeconfigPath(func(model string) (string, error) {
			assert.Equal(t, "scale", model)

			return kubeconfigPath, nil
		}).
		WithConnector(func(path string) (experiment.Cluster, error) {
			connected = path

			return f.cluster, nil
		}).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, kubeconfigPath, connected)
	assert.Equal(t, "microk8s-node/0: sudo microk8s config", f.executor.commands()[0])

	info, err := os.Stat(kubeconfigPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRunner_Run_OneFailedTickKeepsLaterTicks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var failed atomic.Bool

	f.executor.respond = func(node v1alpha1.Node, _ string) (runner.CommandResult, error) {
		if node.ID == "microk8s-node/1" && failed.CompareAndSwap(false, true) {
			return runner.CommandResult{}, errUnreachable
		}

		return runner.CommandResult{Stdout: sampleLines}, nil
	}

	metadata, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	require.GreaterOrEqual(t, metadata.Ticks, 2)
	assert.Equal(t, 1, metadata.FailedTicks)
	assert.Len(t, readRows(t, filepath.Join(f.runDir(), metrics.FileName("microk8s-node/0"))), 2*metadata.Ticks)
	assert.Len(t, readRows(t, filepath.Join(f.runDir(), metrics.FileName("microk8s-node/1"))), 2*(metadata.Ticks-1))
}

func TestRunner_Run_TimestampsAreNonDecreasingPerNode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.clock = advancingClock(time.Millisecond)

	metadata, err := f.runner().Run(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, metadata.Ticks, 2)

	for _, node := range metadata.Nodes {
		rows := readRows(t, filepath.Join(f.runDir(), metrics.FileName(node)))
		require.Len(t, rows, 2*metadata.Ticks, node)

		var previous time.Time

		distinct := map[time.Time]struct{}{}

		for _, row := range rows {
			stamp, parseErr := time.Parse(time.RFC3339Nano, row[0])
			require.NoError(t, parseErr)
			assert.False(t, stamp.Before(previous), "%s: %s before %s", node, stamp, previous)

			previous = stamp
			distinct[stamp] = struct{}{}
		}

		assert.Len(t, distinct, metadata.Ticks, node)
	}
}

func TestRunner_Run_InterruptedCreateStillTearsDown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cluster.createErr = context.Canceled

	metadata, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"create " + namespace, "delete " + namespace}, f.cluster.recorded())
	require.NotNil(t, metadata)
	assert.Equal(t, namespace, metadata.Namespace)
	assert.Zero(t, metadata.Ticks)
}

func TestRunner_Run_RunsInTheSameSecondUseSeparateDirectories(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	first, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	firstDir := f.runDir()

	f.id = "9e8d7c6b-5a49-4382-a1b0-c9d8e7f6a5b4"
	f.cluster = &fakeCluster{}

	second, err := f.runner().Run(context.Background())
	require.NoError(t, err)

	require.NotEqual(t, firstDir, f.runDir())

	path := metrics.FileName("microk8s-node/0")
	assert.Len(t, readRows(t, filepath.Join(firstDir, path)), 2*first.Ticks)
	assert.Len(t, readRows(t, filepath.Join(f.runDir(), path)), 2*second.Ticks)

	written, err := experiment.ReadMetadata(filepath.Join(firstDir, experiment.MetadataFile))
	require.NoError(t, err)
	assert.Equal(t, runID, written.ID)
}

func TestRunner_Run_ExistingRunDirectoryIsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.runDir(), 0o750))

	metadata, err := f.runner().Run(context.Background())

	require.ErrorIs(t, err, metrics.ErrRunDirExists)
	assert.Nil(t, metadata)
	assert.Zero(t, f.opened)
}
