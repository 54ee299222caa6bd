package experiment

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	sshclient "github.com/devantler-tech/scalebench/pkg/client/ssh"
	"github.com/devantler-tech/scalebench/pkg/k8s"
	"github.com/devantler-tech/scalebench/pkg/svc/metrics"
)

const (
	// DefaultInterval is the time between two sampling ticks.
	DefaultInterval = 5 * time.Second
	// DefaultDuration is how long sampling runs.
	DefaultDuration = 60 * time.Second
	// DefaultReadyTimeout bounds workload readiness and namespace teardown.
	DefaultReadyTimeout = 5 * time.Minute
	// DefaultRemoteTimeout bounds a single remote command.
	DefaultRemoteTimeout = 2 * time.Minute
	// DefaultDataDir is the root directory for run output.
	DefaultDataDir = "data"
	// DefaultExperiment names an experiment without workload files to derive a name from.
	DefaultExperiment = "experiment"
	// RunDirLayout formats the start time used as the run directory name.
	RunDirLayout = "20060102T150405Z"
)

// RunDir returns the directory of one run: the start time followed by the
// short run id, so runs starting in the same second never share files.
func RunDir(dataDir, experiment string, startedAt time.Time, runID string) string {
	name := startedAt.UTC().Format(RunDirLayout) + "-" + k8s.ShortRunID(runID)

	return filepath.Join(dataDir, experiment, name)
}

// addonRegex accepts addon names with optional arguments, e.g. dns:10.0.0.10.
var addonRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:/=,-]*$`)

// Options configures a run. The mapstructure tags are the config file keys.
type Options struct {
	DescriptorPath string             `mapstructure:"descriptor"`
	Workloads      []string           `mapstructure:"workloads"`
	Interval       time.Duration      `mapstructure:"interval"`
	Duration       time.Duration      `mapstructure:"duration"`
	Processes      []string           `mapstructure:"processes"`
	Addons         []string           `mapstructure:"addons"`
	DisableAddons  bool               `mapstructure:"disable-addons"`
	DataDir        string             `mapstructure:"data-dir"`
	Experiment     string             `mapstructure:"experiment"`
	Transport      v1alpha1.Transport `mapstructure:"transport"`
	SSHUser        string             `mapstructure:"ssh-user"`
	SSHKey         string             `mapstructure:"ssh-key"`
	Kubeconfig     string             `mapstructure:"kubeconfig"`
	ReadyTimeout   time.Duration      `mapstructure:"ready-timeout"`
	RemoteTimeout  time.Duration      `mapstructure:"remote-timeout"`
	MaxConcurrency int64              `mapstructure:"max-concurrency"`
}

// ApplyDefaults fills unset fields.
func (o *Options) ApplyDefaults() {
	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}

	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}

	if len(o.Processes) == 0 {
		o.Processes = metrics.DefaultProcesses()
	}

	if o.DataDir == "" {
		o.DataDir = DefaultDataDir
	}

	if o.Transport == "" {
		o.Transport = v1alpha1.TransportJuju
	}

	if o.ReadyTimeout == 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}

	if o.RemoteTimeout == 0 {
		o.RemoteTimeout = DefaultRemoteTimeout
	}

	if o.Experiment == "" {
		o.Experiment = ExperimentName(o.Workloads)
	}
}

// Validate checks the options before any file or cluster is touched. It
// normalizes the transport casing.
func (o *Options) Validate() error {
	if o.DescriptorPath == "" {
		return ErrNoDescriptor
	}

	if len(o.Workloads) == 0 {
		return ErrNoWorkloads
	}

	if o.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, o.Interval)
	}

	if o.Duration <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, o.Duration)
	}

	err := metrics.ValidateProcesses(o.Processes)
	if err != nil {
		return fmt.Errorf("invalid processes: %w", err)
	}

	for _, addon := range o.Addons {
		if !addonRegex.MatchString(addon) {
			return fmt.Errorf("%w: %q", ErrInvalidAddon, addon)
		}
	}

	err = o.Transport.Set(string(o.Transport))
	if err != nil {
		return fmt.Errorf("invalid transport: %w", err)
	}

	return nil
}

// SSHConfig returns the SSH transport configuration.
func (o *Options) SSHConfig() sshclient.Config {
	keyPath := o.SSHKey
	if keyPath == "" {
		keyPath = sshclient.DefaultKeyPath()
	}

	return sshclient.Config{User: o.SSHUser, KeyPath: keyPath}
}

// ExperimentName derives a name from the first workload file stem.
func ExperimentName(workloads []string) string {
	if len(workloads) == 0 {
		return DefaultExperiment
	}

	base := filepath.Base(workloads[0])
	name := k8s.SanitizeName(strings.TrimSuffix(base, filepath.Ext(base)))

	if name == "" {
		return DefaultExperiment
	}

	return name
}
