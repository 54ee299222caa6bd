package configmanager_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	configmanager "github.com/devantler-tech/scalebench/pkg/io/config-manager"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	"github.com/devantler-tech/scalebench/pkg/svc/metrics"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const experimentConfig = `descriptor: clusters/scale.json
workloads:
  - workloads/nginx.yaml
interval: 10s
processes:
  - kubelite
addons:
  - dns
ready-timeout: 2m
`

func experimentFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("experiment", pflag.ContinueOnError)
	configmanager.AddExperimentFlags(flags)
	require.NoError(t, flags.Parse(args))

	return flags
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestExperimentManager_Flags(t *testing.T) {
	t.Parallel()

	flags := experimentFlags(t,
		"-c", "scale.json",
		"-w", "pause.yaml",
		"-w", "nginx.yaml",
		"--interval", "2s",
		"--transport", "ssh",
		"--max-concurrency", "4",
	)

	options, err := configmanager.NewExperimentManager(nil, flags).Load(configmanager.LoadOptions{Silent: true})
	require.NoError(t, err)

	assert.Equal(t, "scale.json", options.DescriptorPath)
	assert.Equal(t, []string{"pause.yaml", "nginx.yaml"}, options.Workloads)
	assert.Equal(t, 2*time.Second, options.Interval)
	assert.Equal(t, experiment.DefaultDuration, options.Duration)
	assert.Equal(t, experiment.DefaultReadyTimeout, options.ReadyTimeout)
	assert.Equal(t, metrics.DefaultProcesses(), options.Processes)
	assert.Equal(t, v1alpha1.TransportSSH, options.Transport)
	assert.Equal(t, int64(4), options.MaxConcurrency)
	assert.Equal(t, "pause", options.Experiment)
	assert.Equal(t, experiment.DefaultDataDir, options.DataDir)
}

func TestExperimentManager_ConfigFile(t *testing.T) {
	t.Parallel()

	flags := experimentFlags(t, "--config", writeConfig(t, experimentConfig), "--duration", "30s")

	options, err := configmanager.NewExperimentManager(nil, flags).Load(configmanager.LoadOptions{Silent: true})
	require.NoError(t, err)

	assert.Equal(t, "clusters/scale.json", options.DescriptorPath)
	assert.Equal(t, []string{"workloads/nginx.yaml"}, options.Workloads)
	assert.Equal(t, 10*time.Second, options.Interval)
	assert.Equal(t, 30*time.Second, options.Duration)
	assert.Equal(t, []string{"kubelite"}, options.Processes)
	assert.Equal(t, []string{"dns"}, options.Addons)
	assert.Equal(t, 2*time.Minute, options.ReadyTimeout)
}

func TestExperimentManager_FlagOverridesConfigFile(t *testing.T) {
	t.Parallel()

	flags := experimentFlags(t, "--config", writeConfig(t, experimentConfig), "--interval", "1s", "-w", "burst.yaml")

	options, err := configmanager.NewExperimentManager(nil, flags).Load(configmanager.LoadOptions{Silent: true})
	require.NoError(t, err)

	assert.Equal(t, time.Second, options.Interval)
	assert.Equal(t, []string{"burst.yaml"}, options.Workloads)
}

func TestExperimentManager_IgnoreConfigFile(t *testing.T) {
	t.Parallel()

	flags := experimentFlags(t, "--config", writeConfig(t, experimentConfig), "-c", "scale.json", "-w", "pause.yaml")

	options, err := configmanager.NewExperimentManager(nil, flags).
		Load(configmanager.LoadOptions{Silent: true, IgnoreConfigFile: true})
	require.NoError(t, err)

	assert.Equal(t, experiment.DefaultInterval, options.Interval)
}

func TestExperimentManager_Environment(t *testing.T) {
	t.Setenv("SCALEBENCH_READY_TIMEOUT", "90s")
	t.Setenv("SCALEBENCH_DESCRIPTOR", "env.json")
	t.Setenv("SCALEBENCH_WORKLOADS", "a.yaml,b.yaml")

	options, err := configmanager.NewExperimentManager(nil, experimentFlags(t)).
		Load(configmanager.LoadOptions{Silent: true})
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, options.ReadyTimeout)
	assert.Equal(t, "env.json", options.DescriptorPath)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, options.Workloads)
}

func TestExperimentManager_MissingConfigFile(t *testing.T) {
	t.Parallel()

	flags := experimentFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := configmanager.NewExperimentManager(nil, flags).Load(configmanager.LoadOptions{Silent: true})
	require.Error(t, err)
}

func TestExperimentManager_Invalid(t *testing.T) {
	t.Parallel()

	flags := experimentFlags(t, "-c", "scale.json")

	_, err := configmanager.NewExperimentManager(nil, flags).Load(configmanager.LoadOptions{Silent: true})
	require.ErrorIs(t, err, experiment.ErrNoWorkloads)
}
