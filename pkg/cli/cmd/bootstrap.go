package cmd

import (
	"fmt"
	"os"

	"github.com/devantler-tech/scalebench/pkg/cli/helpers"
	"github.com/devantler-tech/scalebench/pkg/di"
	"github.com/devantler-tech/scalebench/pkg/svc/bootstrapper"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const bootstrapLongDesc = `Register an OpenStack cloud and credential with juju and bootstrap a controller.

Each credential is resolved in the following priority order:
  1. From its flag
  2. From the OS_* environment variable (OS_AUTH_URL, OS_REGION_NAME, OS_PROJECT_NAME,
     OS_USER_DOMAIN_NAME, OS_USERNAME, OS_PASSWORD)
  3. From an interactive prompt when stdin is a terminal`

type bootstrapFlags struct {
	cloud       string
	controller  string
	credentials bootstrapper.OpenStackCredentials
}

// NewBootstrapCmd creates the bootstrap command.
func NewBootstrapCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var flags bootstrapFlags

	cmd := &cobra.Command{
		Use:          "bootstrap",
		Short:        "Bootstrap a juju controller on OpenStack",
		Long:         bootstrapLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flags.cloud, "cloud", bootstrapper.DefaultCloud, "Name to register the cloud under")
	cmd.Flags().StringVar(&flags.controller, "controller", bootstrapper.DefaultController, "Name of the controller")
	cmd.Flags().StringVar(&flags.credentials.AuthURL, "auth-url", "", "Keystone endpoint (env OS_AUTH_URL)")
	cmd.Flags().StringVar(&flags.credentials.Region, "region", "", "OpenStack region (env OS_REGION_NAME)")
	cmd.Flags().StringVar(&flags.credentials.Project, "project", "", "OpenStack project (env OS_PROJECT_NAME)")
	cmd.Flags().StringVar(&flags.credentials.Domain, "domain", "", "User domain (env OS_USER_DOMAIN_NAME)")
	cmd.Flags().StringVar(&flags.credentials.Username, "username", "", "OpenStack user (env OS_USERNAME)")
	cmd.Flags().StringVar(&flags.credentials.Password, "password", "", "OpenStack password (env OS_PASSWORD)")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, di.WithTimer(
		func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			return handleBootstrapRunE(cmd, injector, tmr, flags)
		},
	))

	return cmd
}

func handleBootstrapRunE(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	flags bootstrapFlags,
) error {
	out := cmd.OutOrStdout()

	notify.Titlef(out, "☁️", "Bootstrap controller...")

	prompterFactory, err := di.ResolvePrompterFactory(injector)
	if err != nil {
		return err
	}

	credentials, err := bootstrapper.ResolveCredentials(flags.credentials, os.Getenv, prompterFactory(out))
	if err != nil {
		return fmt.Errorf("failed to resolve credentials: %w", err)
	}

	factory, err := di.ResolveBootstrapperFactory(injector)
	if err != nil {
		return err
	}

	cloudBootstrapper, err := factory.Create(out, tmr)
	if err != nil {
		return fmt.Errorf("failed to create bootstrapper: %w", err)
	}

	err = cloudBootstrapper.Bootstrap(cmd.Context(), bootstrapper.Options{
		Cloud:       flags.cloud,
		Controller:  flags.controller,
		Credentials: credentials,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap controller: %w", err)
	}

	if tmr != nil {
		notify.SuccessWithTimerf(out, tmr, "controller %s bootstrapped", flags.controller)
	} else {
		notify.Successf(out, "controller %s bootstrapped", flags.controller)
	}

	return nil
}
