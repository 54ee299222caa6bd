package di_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/devantler-tech/scalebench/pkg/cli/helpers"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner/runnertest"
	"github.com/devantler-tech/scalebench/pkg/di"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	clusterprovisioner "github.com/devantler-tech/scalebench/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errHandlerExecutionFailed = errors.New("handler execution failed")

func injectorWithTimer() do.Injector {
	injector := do.New()
	do.Provide(injector, func(_ do.Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return injector
}

func commandWithTiming(enabled bool) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Bool(helpers.TimingFlagName, enabled, "")

	return cmd
}

func TestResolveTimer_Success(t *testing.T) {
	t.Parallel()

	resolvedTimer, err := di.ResolveTimer(injectorWithTimer())

	require.NoError(t, err)
	require.NotNil(t, resolvedTimer)

	resolvedTimer.Start()
	total, stage := resolvedTimer.GetTiming()
	assert.GreaterOrEqual(t, total.Nanoseconds(), int64(0))
	assert.GreaterOrEqual(t, stage.Nanoseconds(), int64(0))
}

func TestResolveTimer_Error(t *testing.T) {
	t.Parallel()

	resolvedTimer, err := di.ResolveTimer(do.New())

	require.Error(t, err)
	assert.Nil(t, resolvedTimer)
	assert.Contains(t, err.Error(), "resolve timer dependency")
}

func TestResolveClusterProvisionerFactory_Success(t *testing.T) {
	t.Parallel()

	injector := do.New()
	do.Provide(injector, func(_ do.Injector) (clusterprovisioner.Factory, error) {
		return clusterprovisioner.DefaultFactory{Runner: runnertest.New()}, nil
	})

	factory, err := di.ResolveClusterProvisionerFactory(injector)

	require.NoError(t, err)
	require.NotNil(t, factory)
}

func TestResolveClusterProvisionerFactory_Error(t *testing.T) {
	t.Parallel()

	factory, err := di.ResolveClusterProvisionerFactory(do.New())

	require.Error(t, err)
	assert.Nil(t, factory)
	assert.Contains(t, err.Error(), "resolve provisioner factory dependency")
}

func TestResolveExperimentFactory_Error(t *testing.T) {
	t.Parallel()

	factory, err := di.ResolveExperimentFactory(do.New())

	require.Error(t, err)
	assert.Nil(t, factory)
	assert.Contains(t, err.Error(), "resolve experiment factory dependency")
}

func TestResolveExperimentFactory_Override(t *testing.T) {
	t.Parallel()

	injector := do.New()
	do.Provide(injector, func(_ do.Injector) (experiment.Factory, error) {
		return experiment.DefaultFactory{Runner: runnertest.New()}, nil
	})

	factory, err := di.ResolveExperimentFactory(injector)

	require.NoError(t, err)
	assert.IsType(t, experiment.DefaultFactory{}, factory)
}

func TestResolveBootstrapperFactory_Error(t *testing.T) {
	t.Parallel()

	_, err := di.ResolveBootstrapperFactory(do.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve bootstrapper factory dependency")
}

func TestWithTimer_PassesTimerWhenTimingEnabled(t *testing.T) {
	t.Parallel()

	var received timer.Timer

	handler := func(_ *cobra.Command, _ di.Injector, tmr timer.Timer) error {
		received = tmr

		return nil
	}

	err := di.WithTimer(handler)(commandWithTiming(true), injectorWithTimer())

	require.NoError(t, err)
	assert.NotNil(t, received)
}

func TestWithTimer_NilTimerWhenTimingDisabled(t *testing.T) {
	t.Parallel()

	called := false

	handler := func(_ *cobra.Command, _ di.Injector, tmr timer.Timer) error {
		called = true

		assert.Nil(t, tmr)

		return nil
	}

	err := di.WithTimer(handler)(commandWithTiming(false), injectorWithTimer())

	require.NoError(t, err)
	assert.True(t, called)
}

func TestWithTimer_HandlerError(t *testing.T) {
	t.Parallel()

	handler := func(_ *cobra.Command, _ di.Injector, _ timer.Timer) error {
		return fmt.Errorf("handler failed: %w", errHandlerExecutionFailed)
	}

	err := di.WithTimer(handler)(commandWithTiming(false), injectorWithTimer())

	require.ErrorIs(t, err, errHandlerExecutionFailed)
}

func TestWithTimer_TimerResolveError(t *testing.T) {
	t.Parallel()

	handler := func(_ *cobra.Command, _ di.Injector, _ timer.Timer) error {
		return nil
	}

	err := di.WithTimer(handler)(&cobra.Command{}, do.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve timer dependency")
}
