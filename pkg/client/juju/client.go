// Package juju wraps the juju CLI commands used to bootstrap controllers,
// manage models and run commands on units.
package juju

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
)

// DefaultBinary is the juju executable looked up on PATH.
const DefaultBinary = "juju"

// Client issues juju commands through a runner.
type Client struct {
	runner runner.CommandRunner
	binary string
}

// NewClient creates a Client that runs DefaultBinary.
func NewClient(commandRunner runner.CommandRunner) *Client {
	return NewClientWithBinary(commandRunner, DefaultBinary)
}

// NewClientWithBinary creates a Client that runs binary, e.g. /snap/bin/juju.
func NewClientWithBinary(commandRunner runner.CommandRunner, binary string) *Client {
	return &Client{runner: commandRunner, binary: binary}
}

// DeployOptions configures `juju deploy`.
type DeployOptions struct {
	Model       string
	Charm       string
	App         string
	Series      string
	Constraints string
}

// RunTarget selects the units a command runs on. Exactly one of App and
// Units must be set.
type RunTarget struct {
	App   string
	Units []string
}

// RunOptions configures `juju run`.
type RunOptions struct {
	Model   string
	Timeout time.Duration
	Format  string
}

// AddCloud registers a cloud definition on the client.
func (c *Client) AddCloud(ctx context.Context, cloud, definitionFile string) error {
	return c.exec(ctx, "add-cloud", "--client", cloud, definitionFile)
}

// AddCredential registers credentials for cloud on the client.
func (c *Client) AddCredential(ctx context.Context, cloud, credentialsFile string) error {
	return c.exec(ctx, "add-credential", "--client", cloud, "-f", credentialsFile)
}

// Bootstrap creates a controller on cloudRegion (cloud/region).
func (c *Client) Bootstrap(ctx context.Context, cloudRegion, controller string) error {
	return c.exec(ctx, "bootstrap", cloudRegion, controller)
}

// AddModel creates a model on the current controller.
func (c *Client) AddModel(ctx context.Context, model string) error {
	return c.exec(ctx, "add-model", model)
}

// DestroyModel destroys model without prompting.
func (c *Client) DestroyModel(ctx context.Context, model string) error {
	return c.exec(ctx, "destroy-model", "-y", model)
}

// Deploy deploys a charm as an application.
func (c *Client) Deploy(ctx context.Context, opts DeployOptions) error {
	return c.exec(ctx, DeployArgs(opts)...)
}

// AddUnit adds count units to app.
func (c *Client) AddUnit(ctx context.Context, model, app string, count int) error {
	return c.exec(ctx, "add-unit", "-m", model, "-n", strconv.Itoa(count), app)
}

// Status returns the parsed `juju status` document for model.
func (c *Client) Status(ctx context.Context, model string) (*Status, error) {
	result, err := c.runner.Run(ctx, c.binary, "status", "-m", model, "--format=json")
	if err != nil {
		return nil, fmt.Errorf("juju status: %w", err)
	}

	return ParseStatus([]byte(result.Stdout))
}

// Run executes command on target and returns its raw output.
// With a single unit and no format, stdout is the command's own output.
func (c *Client) Run(
	ctx context.Context,
	target RunTarget,
	opts RunOptions,
	command string,
) (runner.CommandResult, error) {
	args, err := RunArgs(target, opts, command)
	if err != nil {
		return runner.CommandResult{}, err
	}

	result, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		return result, fmt.Errorf("juju run: %w", err)
	}

	return result, nil
}

// DeployArgs renders the arguments of `juju deploy`.
func DeployArgs(opts DeployOptions) []string {
	args := []string{"deploy", opts.Charm, "-m", opts.Model}

	if opts.Series != "" {
		args = append(args, "--series="+opts.Series)
	}

	if opts.Constraints != "" {
		args = append(args, "--constraints="+opts.Constraints)
	}

	return append(args, opts.App)
}

// RunArgs renders the arguments of `juju run` for target.
func RunArgs(target RunTarget, opts RunOptions, command string) ([]string, error) {
	if (target.App == "") == (len(target.Units) == 0) {
		return nil, ErrInvalidRunTarget
	}

	args := []string{"run"}

	if opts.Model != "" {
		args = append(args, "-m", opts.Model)
	}

	if opts.Timeout > 0 {
		args = append(args, "--timeout", opts.Timeout.String())
	}

	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}

	if target.App != "" {
		args = append(args, "-a", target.App)
	} else {
		args = append(args, "-u", strings.Join(target.Units, ","))
	}

	return append(args, "--", command), nil
}

func (c *Client) exec(ctx context.Context, args ...string) error {
	_, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		return fmt.Errorf("juju %s: %w", args[0], err)
	}

	return nil
}
