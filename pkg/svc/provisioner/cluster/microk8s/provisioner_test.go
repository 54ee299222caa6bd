package microk8sprovisioner_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/client/juju"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner/runnertest"
	"github.com/devantler-tech/scalebench/pkg/svc/pipeline"
	microk8sprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster/microk8s"
	"github.com/devantler-tech/scalebench/pkg/svc/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const app = "microk8s-node"

var createdAt = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

// settledStatus renders `juju status --format=json` output with count settled units.
func settledStatus(count int) string {
	machines := make([]string, 0, count)
	unitEntries := make([]string, 0, count)

	for i := range count {
		machines = append(machines, fmt.Sprintf(
			`"%d": {"hostname": "juju-3f1a2b-%d", "instance-id": "i-%d", "dns-name": "10.0.0.%d"}`,
			i, i, i, 10+i))
		unitEntries = append(unitEntries, fmt.Sprintf(
			`"%s/%d": {"machine": "%d", "public-address": "10.0.0.%d", `+
				`"workload-status": {"current": "active"}, "juju-status": {"current": "idle"}}`,
			app, i, i, 10+i))
	}

	return fmt.Sprintf(`{"machines": {%s}, "applications": {%q: {"units": {%s}}}}`,
		strings.Join(machines, ", "), app, strings.Join(unitEntries, ", "))
}

func newOptions(t *testing.T, nodes, controlPlane int) microk8sprovisioner.Options {
	t.Helper()

	return microk8sprovisioner.Options{
		Model:        "scale",
		Nodes:        nodes,
		ControlPlane: controlPlane,
		OutputDir:    t.TempDir(),
		WaitTimeout:  time.Second,
		PollInterval: time.Millisecond,
	}
}

func newProvisioner(
	recorder *runnertest.Recorder,
	opts microk8sprovisioner.Options,
	out *bytes.Buffer,
) *microk8sprovisioner.Provisioner {
	return microk8sprovisioner.NewProvisioner(juju.NewClient(recorder), opts, out).
		WithClock(func() time.Time { return createdAt })
}

func onAll(command string) []string {
	return []string{"run", "-m", "scale", "-a", app, "--", command}
}

func onUnit(index int, command string) []string {
	return []string{"run", "-m", "scale", "-u", fmt.Sprintf("%s/%d", app, index), "--", command}
}

func recordedArgs(recorder *runnertest.Recorder) [][]string {
	calls := recorder.Calls()
	args := make([][]string, 0, len(calls))

	for _, call := range calls {
		args = append(args, call.Args)
	}

	return args
}

func TestCreate_ThreeNodesTwoControlPlane(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New().OnStdout("juju status", settledStatus(3))
	opts := newOptions(t, 3, 2)

	var out bytes.Buffer

	result, err := newProvisioner(recorder, opts, &out).Create(context.Background())
	require.NoError(t, err)

	hosts := microk8sprovisioner.HostsCommand([]microk8sprovisioner.HostsEntry{
		{Address: "10.0.0.10", Hostname: "juju-3f1a2b-0"},
		{Address: "10.0.0.11", Hostname: "juju-3f1a2b-1"},
		{Address: "10.0.0.12", Hostname: "juju-3f1a2b-2"},
	})

	assert.Equal(t, [][]string{
		{"add-model", "scale"},
		{"deploy", "ubuntu", "-m", "scale", "--series=focal", "--constraints=mem=4G cores=2 root-disk=40G", app},
		{"add-unit", "-m", "scale", "-n", "2", app},
		{"status", "-m", "scale", "--format=json"},
		onAll(microk8sprovisioner.InstallCommand(v1alpha1.DefaultChannel)),
		onAll(hosts),
		onAll(microk8sprovisioner.ReadyCommand()),
		onUnit(0, microk8sprovisioner.AddNodeCommand()),
		onUnit(1, microk8sprovisioner.JoinCommand("10.0.0.10", false)),
		onUnit(2, microk8sprovisioner.JoinCommand("10.0.0.10", true)),
	}, recordedArgs(recorder))

	assert.Equal(t, filepath.Join(opts.OutputDir, "scale_cluster.json"), result.DescriptorPath)

	loaded, err := state.LoadDescriptor(result.DescriptorPath)
	require.NoError(t, err)
	assert.Equal(t, result.Descriptor, loaded)
	assert.Equal(t, "microk8s-node/0", loaded.Master)
	assert.Equal(t, v1alpha1.DefaultChannel, loaded.Channel)
	assert.Equal(t, createdAt, loaded.CreatedAt)
	assert.Len(t, loaded.ControlPlane(), 2)
	assert.Len(t, loaded.Workers(), 1)

	assert.Contains(t, out.String(), "write descriptor")
	assert.NotContains(t, out.String(), "configure proxy", "skipped steps are silent")
}

func TestCreate_SingleNodeSkipsJoin(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New().OnStdout("juju status", settledStatus(1))

	result, err := newProvisioner(recorder, newOptions(t, 1, 1), nil).Create(context.Background())
	require.NoError(t, err)

	for _, line := range recorder.Lines() {
		assert.NotContains(t, line, "add-unit")
		assert.NotContains(t, line, "microk8s join")
		assert.NotContains(t, line, "add-node")
	}

	require.Len(t, result.Descriptor.Nodes, 1)
	assert.Equal(t, v1alpha1.RoleControlPlane, result.Descriptor.Nodes[0].Role)
}

func TestCreate_ProxyAndRegistryCredentials(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New().
		OnStdout("juju status", settledStatus(2)).
		OnExit("-- reboot", 1, "connection lost")

	opts := newOptions(t, 2, 1)
	opts.Settings = v1alpha1.Settings{
		Username: "bench",
		Password: "secret",
		Proxy:    "http://squid.internal:3128",
		Channel:  "1.27/stable",
	}

	var out bytes.Buffer

	_, err := newProvisioner(recorder, opts, &out).Create(context.Background())
	require.NoError(t, err)

	args := recordedArgs(recorder)

	assert.Contains(t, args, onUnit(0, microk8sprovisioner.ProxyCommand(opts.Settings.Proxy, "10.0.0.10", "juju-3f1a2b-0")))
	assert.Contains(t, args, onUnit(1, microk8sprovisioner.ProxyCommand(opts.Settings.Proxy, "10.0.0.11", "juju-3f1a2b-1")))
	assert.Contains(t, args, []string{"run", "-m", "scale", "--timeout", "10s", "-a", app, "--", "reboot"})
	assert.Contains(t, args, onAll(microk8sprovisioner.InstallCommand("1.27/stable")))
	registryCommand, err := microk8sprovisioner.RegistryCommand("bench", "secret")
	require.NoError(t, err)
	assert.Contains(t, args, onAll(registryCommand))

	statusCalls := 0

	for _, call := range args {
		if call[0] == "status" {
			statusCalls++
		}
	}

	assert.Equal(t, 2, statusCalls, "machines are awaited again after the reboot")
	assert.Contains(t, out.String(), "reboot reported an error")
}

func TestCreate_FailingStepHalts(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New().
		OnStdout("juju status", settledStatus(2)).
		OnExit("snap install", 42, "snap store unreachable")

	opts := newOptions(t, 2, 1)

	result, err := newProvisioner(recorder, opts, nil).Create(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "install microk8s 1.24/stable", stepErr.Step)

	code, ok := runner.ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 42, code)

	for _, line := range recorder.Lines() {
		assert.NotContains(t, line, "wait-ready")
		assert.NotContains(t, line, "destroy-model")
	}

	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "scale_cluster.json"))
}

func TestCreate_DestroyOnError(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New().
		OnStdout("juju status", settledStatus(2)).
		OnExit("wait-ready", 1, "not ready")

	opts := newOptions(t, 2, 1)
	opts.DestroyOnError = true

	_, err := newProvisioner(recorder, opts, nil).Create(context.Background())
	require.Error(t, err)

	lines := recorder.Lines()
	assert.Equal(t, "juju destroy-model -y scale", lines[len(lines)-1])
}

func TestCreate_InvalidOptionsRunNothing(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		mutate   func(*microk8sprovisioner.Options)
		expected error
	}{
		{"no nodes", func(o *microk8sprovisioner.Options) { o.Nodes = 0 }, v1alpha1.ErrInvalidNodeCount},
		{"too many control-plane", func(o *microk8sprovisioner.Options) { o.ControlPlane = 4 }, v1alpha1.ErrInvalidControlPlaneCount},
		{"bad model", func(o *microk8sprovisioner.Options) { o.Model = "Scale_3" }, v1alpha1.ErrModelNameInvalid},
		{"bad channel", func(o *microk8sprovisioner.Options) { o.Settings.Channel = "stable" }, v1alpha1.ErrInvalidChannel},
		{"half credentials", func(o *microk8sprovisioner.Options) { o.Settings.Username = "bench" }, v1alpha1.ErrIncompleteRegistryCredentials},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			opts := newOptions(t, 3, 1)
			testCase.mutate(&opts)

			recorder := runnertest.New()

			_, err := newProvisioner(recorder, opts, nil).Create(context.Background())
			require.ErrorIs(t, err, testCase.expected)
			assert.Empty(t, recorder.Calls())
		})
	}
}

func TestCreate_InterruptedBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recorder := runnertest.New()

	_, err := newProvisioner(recorder, newOptions(t, 1, 1), nil).Create(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recorder.Calls())
}

func TestCreate_UnitCountMismatch(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New().OnStdout("juju status", settledStatus(4))

	_, err := newProvisioner(recorder, newOptions(t, 3, 1), nil).Create(context.Background())
	require.ErrorIs(t, err, microk8sprovisioner.ErrUnitCountMismatch)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New()
	provisioner := newProvisioner(recorder, microk8sprovisioner.Options{}, nil)

	require.NoError(t, provisioner.Delete(context.Background(), "scale"))
	assert.Equal(t, []string{"juju destroy-model -y scale"}, recorder.Lines())

	require.ErrorIs(t, provisioner.Delete(context.Background(), "Bad"), v1alpha1.ErrModelNameInvalid)
}

func TestSteps_Order(t *testing.T) {
	t.Parallel()

	opts := newOptions(t, 3, 1)
	require.NoError(t, opts.Validate())

	steps := pipeline.New(nil, newProvisioner(runnertest.New(), opts, nil).Steps(&microk8sprovisioner.Result{})...).Steps()

	assert.Equal(t, []string{
		"create model scale",
		"deploy 3 machines",
		"wait for machines",
		"configure proxy",
		"install microk8s 1.24/stable",
		"register hosts",
		"configure registry credentials",
		"wait for microk8s",
		"create join token",
		"join nodes",
		"write descriptor",
	}, steps)
}
