package experiment_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devantler-tech/scalebench/pkg/cli/cmd/cmdtest"
	"github.com/devantler-tech/scalebench/pkg/cli/cmd/experiment"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner/runnertest"
	experimentsvc "github.com/devantler-tech/scalebench/pkg/svc/experiment"
	"github.com/devantler-tech/scalebench/pkg/svc/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workloadManifest = `apiVersion: v1
kind: ConfigMap
metadata:
  name: probe
data:
  key: value
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRunRequiresDescriptor(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New()
	dir := t.TempDir()
	workload := writeFile(t, dir, "probe.yaml", workloadManifest)

	_, err := cmdtest.Execute(experiment.NewRunCmd(cmdtest.NewRuntime(recorder, nil)), "-w", workload)

	require.ErrorIs(t, err, experimentsvc.ErrNoDescriptor)
	assert.Empty(t, recorder.Calls())
}

func TestRunMissingDescriptorTouchesNothing(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New()
	dir := t.TempDir()
	workload := writeFile(t, dir, "probe.yaml", workloadManifest)
	dataDir := filepath.Join(dir, "data")

	_, err := cmdtest.Execute(experiment.NewRunCmd(cmdtest.NewRuntime(recorder, nil)),
		"-c", filepath.Join(dir, "missing_cluster.json"), "-w", workload, "--data-dir", dataDir)

	require.ErrorIs(t, err, state.ErrDescriptorNotFound)
	assert.Empty(t, recorder.Calls())
	assert.NoDirExists(t, dataDir)
}

func TestRunMalformedDescriptor(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New()
	dir := t.TempDir()
	workload := writeFile(t, dir, "probe.yaml", workloadManifest)
	descriptor := writeFile(t, dir, "bench_cluster.json", "{not json")

	_, err := cmdtest.Execute(experiment.NewRunCmd(cmdtest.NewRuntime(recorder, nil)),
		"-c", descriptor, "-w", workload, "--data-dir", filepath.Join(dir, "data"))

	require.ErrorIs(t, err, state.ErrInvalidDescriptor)
	assert.Empty(t, recorder.Calls())
}

func TestRunReadsConfigFile(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New()
	dir := t.TempDir()
	workload := writeFile(t, dir, "probe.yaml", workloadManifest)
	config := writeFile(t, dir, "experiment.yaml", "descriptor: "+filepath.Join(dir, "bench_cluster.json")+
		"\nworkloads:\n  - "+workload+"\ninterval: 0s\n")

	_, err := cmdtest.Execute(experiment.NewRunCmd(cmdtest.NewRuntime(recorder, nil)), "--config", config)

	require.ErrorIs(t, err, experimentsvc.ErrInvalidInterval)
	assert.Empty(t, recorder.Calls())
}

func TestRunFlagOverridesConfigFile(t *testing.T) {
	t.Parallel()

	recorder := runnertest.New()
	dir := t.TempDir()
	workload := writeFile(t, dir, "probe.yaml", workloadManifest)
	config := writeFile(t, dir, "experiment.yaml", "interval: 0s\n")

	_, err := cmdtest.Execute(experiment.NewRunCmd(cmdtest.NewRuntime(recorder, nil)),
		"--config", config, "--interval", "1s",
		"-c", filepath.Join(dir, "missing_cluster.json"), "-w", workload)

	require.ErrorIs(t, err, state.ErrDescriptorNotFound)
}
