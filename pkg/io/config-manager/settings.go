package configmanager

import (
	"fmt"
	"io"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// settingBinding ties a Settings key to its flag and environment variables.
// The first set variable wins.
type settingBinding struct {
	key  string
	flag string
	env  []string
}

func settingBindings() []settingBinding {
	return []settingBinding{
		{"username", "docker-username", []string{EnvPrefix + "_DOCKER_USERNAME", "DOCKER_USERNAME"}},
		{"password", "docker-password", []string{EnvPrefix + "_DOCKER_PASSWORD", "DOCKER_PASSWORD"}},
		{"proxy", "http-proxy", []string{EnvPrefix + "_HTTP_PROXY", "HTTP_PROXY"}},
		{"channel", "channel", []string{EnvPrefix + "_CHANNEL"}},
	}
}

// AddSettingsFlags registers the flags read by SettingsManager.
func AddSettingsFlags(flags *pflag.FlagSet) {
	flags.String("docker-username", "", "Docker Hub username for authenticated image pulls (env DOCKER_USERNAME)")
	flags.String("docker-password", "", "Docker Hub password or token (env DOCKER_PASSWORD)")
	flags.String("http-proxy", "", "HTTP proxy for snap and containerd on every node (env HTTP_PROXY)")
	flags.String("channel", v1alpha1.DefaultChannel, "MicroK8s snap channel, e.g. 1.28/stable")
}

// SettingsManager loads v1alpha1.Settings. It is built once per command.
type SettingsManager struct {
	Viper    *viper.Viper
	Writer   io.Writer
	flags    *pflag.FlagSet
	settings *v1alpha1.Settings
}

var _ ConfigManager[v1alpha1.Settings] = (*SettingsManager)(nil)

// NewSettingsManager creates a SettingsManager reading flags, which may be nil.
func NewSettingsManager(writer io.Writer, flags *pflag.FlagSet) *SettingsManager {
	if writer == nil {
		writer = io.Discard
	}

	return &SettingsManager{Viper: newViper(), Writer: writer, flags: flags}
}

// Load resolves the settings. An explicit flag overrides the environment.
// Settings have no config file, so IgnoreConfigFile has no effect.
func (m *SettingsManager) Load(opts LoadOptions) (*v1alpha1.Settings, error) {
	if m.settings != nil {
		return m.settings, nil
	}

	m.Viper.SetDefault("channel", v1alpha1.DefaultChannel)

	for _, binding := range settingBindings() {
		err := m.Viper.BindEnv(append([]string{binding.key}, binding.env...)...)
		if err != nil {
			return nil, fmt.Errorf("bind %s environment: %w", binding.key, err)
		}

		err = bindFlag(m.Viper, m.flags, binding.key, binding.flag)
		if err != nil {
			return nil, err
		}
	}

	var settings v1alpha1.Settings

	err := m.Viper.Unmarshal(&settings, decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if !opts.SkipValidation {
		err = settings.Validate()
		if err != nil {
			return nil, fmt.Errorf("invalid settings: %w", err)
		}
	}

	if !opts.Silent {
		m.notifyLoaded(&settings, opts)
	}

	m.settings = &settings

	return m.settings, nil
}

func (m *SettingsManager) notifyLoaded(settings *v1alpha1.Settings, opts LoadOptions) {
	proxy := settings.Proxy
	if proxy == "" {
		proxy = "none"
	}

	registry := "anonymous"
	if settings.HasRegistryCredentials() {
		registry = settings.Username
	}

	if opts.Timer != nil {
		notify.SuccessWithTimerf(m.Writer, opts.Timer,
			"settings loaded (channel %s, proxy %s, registry %s)", settings.Channel, proxy, registry)

		return
	}

	notify.Successf(m.Writer, "settings loaded (channel %s, proxy %s, registry %s)",
		settings.Channel, proxy, registry)
}
