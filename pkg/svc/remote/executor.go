// Package remote runs shell commands on cluster nodes over the selected transport.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/client/juju"
	sshclient "github.com/devantler-tech/scalebench/pkg/client/ssh"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
)

// ErrNoAddress is returned when an SSH command targets a node without an address.
var ErrNoAddress = errors.New("node has no address")

// Executor runs a command on a node.
type Executor interface {
	Exec(ctx context.Context, node v1alpha1.Node, command string) (runner.CommandResult, error)
	Close() error
}

// Options configures New.
type Options struct {
	Transport v1alpha1.Transport
	Model     string
	// Timeout bounds each juju run. Zero leaves juju's default.
	Timeout time.Duration
	SSH     sshclient.Config
}

// New creates an Executor for opts.Transport.
func New(commandRunner runner.CommandRunner, opts Options) (Executor, error) {
	switch opts.Transport {
	case v1alpha1.TransportSSH:
		executor, err := sshclient.NewExecutor(opts.SSH)
		if err != nil {
			return nil, fmt.Errorf("failed to configure ssh transport: %w", err)
		}

		return &SSHExecutor{executor: executor}, nil
	case v1alpha1.TransportJuju, "":
		return NewJujuExecutor(juju.NewClient(commandRunner), opts.Model, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %s", v1alpha1.ErrInvalidTransport, opts.Transport)
	}
}

// JujuExecutor runs commands with `juju run -u <unit>`.
type JujuExecutor struct {
	client  *juju.Client
	model   string
	timeout time.Duration
}

// NewJujuExecutor creates a JujuExecutor for model.
func NewJujuExecutor(client *juju.Client, model string, timeout time.Duration) *JujuExecutor {
	return &JujuExecutor{client: client, model: model, timeout: timeout}
}

// Exec runs command on the node's unit.
func (e *JujuExecutor) Exec(
	ctx context.Context,
	node v1alpha1.Node,
	command string,
) (runner.CommandResult, error) {
	result, err := e.client.Run(
		ctx,
		juju.RunTarget{Units: []string{node.ID}},
		juju.RunOptions{Model: e.model, Timeout: e.timeout},
		command,
	)
	if err != nil {
		return result, fmt.Errorf("on %s: %w", node.ID, err)
	}

	return result, nil
}

// Close is a no-op; juju keeps no connection open.
func (e *JujuExecutor) Close() error {
	return nil
}

// SSHExecutor runs commands over SSH against the node address.
type SSHExecutor struct {
	executor *sshclient.Executor
}

// Exec runs command on the node's address.
func (e *SSHExecutor) Exec(
	ctx context.Context,
	node v1alpha1.Node,
	command string,
) (runner.CommandResult, error) {
	if node.Address == "" {
		return runner.CommandResult{}, fmt.Errorf("%w: %s", ErrNoAddress, node.ID)
	}

	result, err := e.executor.Exec(ctx, node.Address, command)
	if err != nil {
		return result, fmt.Errorf("on %s: %w", node.ID, err)
	}

	return result, nil
}

// Close closes the cached SSH connections.
func (e *SSHExecutor) Close() error {
	return e.executor.Close()
}

// Sudo wraps command so it runs as root under a shell. Juju already runs as
// root, so wrapping is harmless there.
func Sudo(command string) string {
	return "sudo sh -c '" + strings.ReplaceAll(command, "'", `'\''`) + "'"
}
