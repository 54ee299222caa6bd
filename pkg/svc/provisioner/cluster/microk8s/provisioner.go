package microk8sprovisioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/client/juju"
	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"github.com/devantler-tech/scalebench/pkg/svc/pipeline"
	"github.com/devantler-tech/scalebench/pkg/svc/state"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
)

// JujuAPI is the subset of *juju.Client used by the provisioner.
type JujuAPI interface {
	AddModel(ctx context.Context, model string) error
	DestroyModel(ctx context.Context, model string) error
	Deploy(ctx context.Context, opts juju.DeployOptions) error
	AddUnit(ctx context.Context, model, app string, count int) error
	Run(ctx context.Context, target juju.RunTarget, opts juju.RunOptions, command string) (runner.CommandResult, error)
	WaitForApplication(ctx context.Context, opts juju.WaitOptions) (*juju.Status, error)
}

// Result is the outcome of a successful creation.
type Result struct {
	Descriptor     *v1alpha1.Descriptor
	DescriptorPath string
}

// Provisioner creates and destroys MicroK8s clusters through juju.
type Provisioner struct {
	juju  JujuAPI
	opts  Options
	out   io.Writer
	timer timer.Timer
	now   func() time.Time

	units []juju.Unit
}

// NewProvisioner creates a Provisioner. Progress is written to out.
func NewProvisioner(client JujuAPI, opts Options, out io.Writer) *Provisioner {
	opts.ApplyDefaults()

	if out == nil {
		out = io.Discard
	}

	return &Provisioner{juju: client, opts: opts, out: out, now: time.Now}
}

// WithTimer adds per-step timing to progress output.
func (p *Provisioner) WithTimer(tmr timer.Timer) *Provisioner {
	p.timer = tmr

	return p
}

// WithClock replaces the clock used for the descriptor timestamp.
func (p *Provisioner) WithClock(now func() time.Time) *Provisioner {
	p.now = now

	return p
}

// Options returns the effective options.
func (p *Provisioner) Options() Options {
	return p.opts
}

// Create runs the creation pipeline and writes the descriptor.
// When DestroyOnError is set, a failed run destroys the model before returning.
func (p *Provisioner) Create(ctx context.Context) (*Result, error) {
	err := p.opts.Validate()
	if err != nil {
		return nil, err
	}

	result := &Result{}

	steps := pipeline.New(p.out, p.Steps(result)...)
	if p.timer != nil {
		steps.WithTimer(p.timer)
	}

	_, err = steps.Run(ctx)
	if err == nil {
		return result, nil
	}

	if !p.opts.DestroyOnError {
		return nil, err
	}

	notify.Warningf(p.out, "destroying model %s after failure", p.opts.Model)

	destroyErr := p.juju.DestroyModel(context.WithoutCancel(ctx), p.opts.Model)
	if destroyErr != nil {
		return nil, errors.Join(err, fmt.Errorf("failed to destroy model after failure: %w", destroyErr))
	}

	return nil, err
}

// Delete destroys model and everything in it.
func (p *Provisioner) Delete(ctx context.Context, model string) error {
	err := v1alpha1.ValidateModelName(model)
	if err != nil {
		return err
	}

	return p.juju.DestroyModel(ctx, model)
}

// Steps returns the creation steps in order. The final step fills result.
func (p *Provisioner) Steps(result *Result) []pipeline.Step {
	opts := p.opts

	return []pipeline.Step{
		{Name: "create model " + opts.Model, Run: p.createModel},
		{Name: fmt.Sprintf("deploy %d machines", opts.Nodes), Run: p.deployMachines},
		{Name: "wait for machines", Run: p.waitForMachines},
		{
			Name: "configure proxy",
			Skip: func() bool { return opts.Settings.Proxy == "" },
			Run:  p.configureProxy,
		},
		{Name: "install microk8s " + opts.Settings.Channel, Run: p.onAll(InstallCommand(opts.Settings.Channel))},
		{Name: "register hosts", Run: p.registerHosts},
		{
			Name: "configure registry credentials",
			Skip: func() bool { return !opts.Settings.HasRegistryCredentials() },
			Run:  p.configureRegistry,
		},
		{Name: "wait for microk8s", Run: p.onAll(ReadyCommand())},
		{
			Name: "create join token",
			Skip: func() bool { return opts.Nodes == 1 },
			Run:  p.createJoinToken,
		},
		{
			Name: "join nodes",
			Skip: func() bool { return opts.Nodes == 1 },
			Run:  p.joinNodes,
		},
		{
			Name: "write descriptor",
			Run: func(_ context.Context) error {
				return p.writeDescriptor(result)
			},
		},
	}
}

func (p *Provisioner) createModel(ctx context.Context) error {
	return p.juju.AddModel(ctx, p.opts.Model)
}

func (p *Provisioner) deployMachines(ctx context.Context) error {
	err := p.juju.Deploy(ctx, juju.DeployOptions{
		Model:       p.opts.Model,
		Charm:       p.opts.Charm,
		App:         p.opts.App,
		Series:      p.opts.Series,
		Constraints: p.opts.Constraints,
	})
	if err != nil {
		return err
	}

	if p.opts.Nodes > 1 {
		return p.juju.AddUnit(ctx, p.opts.Model, p.opts.App, p.opts.Nodes-1)
	}

	return nil
}

func (p *Provisioner) waitForMachines(ctx context.Context) error {
	status, err := p.juju.WaitForApplication(ctx, juju.WaitOptions{
		Model:    p.opts.Model,
		App:      p.opts.App,
		Units:    p.opts.Nodes,
		Timeout:  p.opts.WaitTimeout,
		Interval: p.opts.PollInterval,
	})
	if err != nil {
		return err
	}

	units, err := status.Units(p.opts.App)
	if err != nil {
		return err
	}

	if len(units) != p.opts.Nodes {
		return fmt.Errorf("%w: model %s has %d, want %d",
			ErrUnitCountMismatch, p.opts.Model, len(units), p.opts.Nodes)
	}

	p.units = units

	return nil
}

func (p *Provisioner) configureProxy(ctx context.Context) error {
	for _, unit := range p.units {
		_, err := p.runOn(ctx, unit.Name, ProxyCommand(p.opts.Settings.Proxy, unit.Address, unit.Hostname))
		if err != nil {
			return err
		}
	}

	// The agents drop with the machines, so the command itself may fail.
	_, err := p.juju.Run(ctx, juju.RunTarget{App: p.opts.App},
		juju.RunOptions{Model: p.opts.Model, Timeout: RebootTimeout}, RebootCommand)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("reboot interrupted: %w", ctx.Err())
		}

		notify.Warningf(p.out, "reboot reported an error, waiting for machines anyway: %v", err)
	}

	return p.waitForMachines(ctx)
}

func (p *Provisioner) registerHosts(ctx context.Context) error {
	entries := make([]HostsEntry, 0, len(p.units))
	for _, unit := range p.units {
		entries = append(entries, HostsEntry{Address: unit.Address, Hostname: unit.Hostname})
	}

	return p.onAll(HostsCommand(entries))(ctx)
}

func (p *Provisioner) createJoinToken(ctx context.Context) error {
	_, err := p.runOn(ctx, p.units[0].Name, AddNodeCommand())

	return err
}

func (p *Provisioner) joinNodes(ctx context.Context) error {
	master := p.units[0]
	if master.Address == "" {
		return fmt.Errorf("%w: %s", ErrMasterAddressUnknown, master.Name)
	}

	// Joins run one at a time; MicroK8s rejects concurrent joins against one master.
	for index, unit := range p.units[1:] {
		worker := index+1 >= p.opts.ControlPlane

		_, err := p.runOn(ctx, unit.Name, JoinCommand(master.Address, worker))
		if err != nil {
			return fmt.Errorf("join %s (node %d of %d): %w", unit.Name, index+2, len(p.units), err)
		}
	}

	return nil
}

func (p *Provisioner) writeDescriptor(result *Result) error {
	descriptor := &v1alpha1.Descriptor{
		Model:     p.opts.Model,
		App:       p.opts.App,
		Channel:   p.opts.Settings.Channel,
		Master:    p.units[0].Name,
		CreatedAt: p.now().UTC(),
		Nodes:     AssignRoles(p.units, p.opts.ControlPlane),
	}

	path, err := state.SaveDescriptor(p.opts.OutputDir, descriptor)
	if err != nil {
		return err
	}

	result.Descriptor = descriptor
	result.DescriptorPath = path

	return nil
}

func (p *Provisioner) configureRegistry(ctx context.Context) error {
	command, err := RegistryCommand(p.opts.Settings.Username, p.opts.Settings.Password)
	if err != nil {
		return err
	}

	return p.onAll(command)(ctx)
}

func (p *Provisioner) onAll(command string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := p.juju.Run(ctx, juju.RunTarget{App: p.opts.App}, juju.RunOptions{Model: p.opts.Model}, command)

		return err
	}
}

func (p *Provisioner) runOn(ctx context.Context, unit, command string) (runner.CommandResult, error) {
	return p.juju.Run(ctx, juju.RunTarget{Units: []string{unit}}, juju.RunOptions{Model: p.opts.Model}, command)
}
