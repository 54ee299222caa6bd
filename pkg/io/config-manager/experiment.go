package configmanager

import (
	"errors"
	"fmt"
	"io"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/svc/experiment"
	"github.com/devantler-tech/scalebench/pkg/svc/metrics"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFlag names the flag that points at an experiment config file.
const ConfigFlag = "config"

// experimentFlags maps Options keys to flag names.
var experimentFlags = map[string]string{
	"descriptor":      "descriptor",
	"workloads":       "workload",
	"interval":        "interval",
	"duration":        "duration",
	"processes":       "process",
	"addons":          "addon",
	"disable-addons":  "disable-addons",
	"data-dir":        "data-dir",
	"experiment":      "experiment",
	"transport":       "transport",
	"ssh-user":        "ssh-user",
	"ssh-key":         "ssh-key",
	"kubeconfig":      "kubeconfig",
	"ready-timeout":   "ready-timeout",
	"remote-timeout":  "remote-timeout",
	"max-concurrency": "max-concurrency",
}

// AddExperimentFlags registers the flags read by ExperimentManager.
func AddExperimentFlags(flags *pflag.FlagSet) {
	flags.StringP("descriptor", "c", "", "Path to the cluster descriptor written by cluster create")
	flags.StringArrayP("workload", "w", nil, "Workload manifest to deploy (repeatable)")
	flags.Duration("interval", experiment.DefaultInterval, "Time between two samples")
	flags.Duration("duration", experiment.DefaultDuration, "How long to sample")
	flags.StringArray("process", metrics.DefaultProcesses(), "Process to sample on control-plane nodes (repeatable)")
	flags.StringArray("addon", nil, "MicroK8s addon to enable before the run (repeatable)")
	flags.Bool("disable-addons", false, "Disable the enabled addons after the run")
	flags.String("data-dir", experiment.DefaultDataDir, "Root directory for run output")
	flags.String("experiment", "", "Experiment name (defaults to the first workload file name)")
	flags.String("transport", string(v1alpha1.TransportJuju), "Remote command transport: juju|ssh")
	flags.String("ssh-user", "", "SSH login user for the ssh transport (default ubuntu)")
	flags.String("ssh-key", "", "SSH private key for the ssh transport (default ~/.ssh/id_rsa)")
	flags.String("kubeconfig", "", "Use this kubeconfig instead of fetching one from the master")
	flags.Duration("ready-timeout", experiment.DefaultReadyTimeout, "Time allowed for workloads to become ready")
	flags.Duration("remote-timeout", experiment.DefaultRemoteTimeout, "Time allowed for one remote command")
	flags.Int64("max-concurrency", 0, "Maximum nodes sampled at once (0 picks a CPU based default)")
	flags.String(ConfigFlag, "", "Experiment config file (YAML, JSON or TOML)")
}

// ExperimentManager loads experiment.Options.
type ExperimentManager struct {
	Viper   *viper.Viper
	Writer  io.Writer
	flags   *pflag.FlagSet
	options *experiment.Options
}

var _ ConfigManager[experiment.Options] = (*ExperimentManager)(nil)

// NewExperimentManager creates an ExperimentManager reading flags, which may be nil.
func NewExperimentManager(writer io.Writer, flags *pflag.FlagSet) *ExperimentManager {
	if writer == nil {
		writer = io.Discard
	}

	return &ExperimentManager{Viper: newViper(), Writer: writer, flags: flags}
}

// Load resolves the experiment options with defaults applied.
func (m *ExperimentManager) Load(opts LoadOptions) (*experiment.Options, error) {
	if m.options != nil {
		return m.options, nil
	}

	err := m.bind()
	if err != nil {
		return nil, err
	}

	if !opts.IgnoreConfigFile {
		err = m.readConfigFile(opts)
		if err != nil {
			return nil, err
		}
	}

	var options experiment.Options

	err = m.Viper.Unmarshal(&options, decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal experiment options: %w", err)
	}

	options.ApplyDefaults()

	if !opts.SkipValidation {
		err = options.Validate()
		if err != nil {
			return nil, fmt.Errorf("invalid experiment options: %w", err)
		}
	}

	m.options = &options

	return m.options, nil
}

func (m *ExperimentManager) bind() error {
	m.Viper.SetDefault("interval", experiment.DefaultInterval)
	m.Viper.SetDefault("duration", experiment.DefaultDuration)
	m.Viper.SetDefault("data-dir", experiment.DefaultDataDir)
	m.Viper.SetDefault("ready-timeout", experiment.DefaultReadyTimeout)
	m.Viper.SetDefault("transport", string(v1alpha1.TransportJuju))

	if m.flags == nil {
		return nil
	}

	for key, name := range experimentFlags {
		err := bindFlag(m.Viper, m.flags, key, name)
		if err != nil {
			return err
		}
	}

	return bindFlag(m.Viper, m.flags, ConfigFlag, ConfigFlag)
}

func (m *ExperimentManager) readConfigFile(opts LoadOptions) error {
	path := m.Viper.GetString(ConfigFlag)
	if path == "" {
		return nil
	}

	m.Viper.SetConfigFile(path)

	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}

		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if !opts.Silent {
		if opts.Timer != nil {
			notify.SuccessWithTimerf(m.Writer, opts.Timer, "config loaded from %s", path)
		} else {
			notify.Infof(m.Writer, "config loaded from %s", path)
		}
	}

	return nil
}
