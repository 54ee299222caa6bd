package microk8sprovisioner

import (
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
)

const (
	// DefaultCharm is deployed to obtain plain machines.
	DefaultCharm = "ubuntu"
	// DefaultSeries is the Ubuntu series of the machines.
	DefaultSeries = "focal"
	// DefaultConstraints sizes each machine.
	DefaultConstraints = "mem=4G cores=2 root-disk=40G"
	// DefaultWaitTimeout bounds each wait for the model to settle.
	DefaultWaitTimeout = 30 * time.Minute
	// DefaultOutputDir receives the descriptor.
	DefaultOutputDir = "."
	// RebootTimeout bounds the reboot command; the agents drop before it returns.
	RebootTimeout = 10 * time.Second
)

// Options configures a cluster creation.
type Options struct {
	Model        string
	Nodes        int
	ControlPlane int

	App         string
	Charm       string
	Series      string
	Constraints string

	Settings v1alpha1.Settings

	OutputDir string
	// WaitTimeout bounds each wait for the model to settle.
	WaitTimeout time.Duration
	// PollInterval overrides the juju status polling interval.
	PollInterval time.Duration
	// DestroyOnError destroys the model when a step fails.
	DestroyOnError bool
}

// ApplyDefaults fills empty fields with their defaults.
func (o *Options) ApplyDefaults() {
	if o.App == "" {
		o.App = v1alpha1.DefaultApplication
	}

	if o.Charm == "" {
		o.Charm = DefaultCharm
	}

	if o.Series == "" {
		o.Series = DefaultSeries
	}

	if o.Constraints == "" {
		o.Constraints = DefaultConstraints
	}

	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}

	if o.WaitTimeout <= 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
}

// Validate applies defaults and checks the options before any remote action.
func (o *Options) Validate() error {
	o.ApplyDefaults()

	err := v1alpha1.ValidateModelName(o.Model)
	if err != nil {
		return err
	}

	err = v1alpha1.ValidateTopology(o.Nodes, o.ControlPlane)
	if err != nil {
		return err
	}

	return o.Settings.Validate()
}
