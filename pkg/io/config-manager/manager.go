// Package configmanager builds typed configuration from flags, the environment
// and an optional config file with spf13/viper.
//
// Priority is flags over environment over config file over defaults.
package configmanager

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every scalebench environment variable.
const EnvPrefix = "SCALEBENCH"

// ErrFlagNotDefined is returned when a binding names a flag the command lacks.
var ErrFlagNotDefined = errors.New("flag is not defined")

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// Timer enables timing output in notifications when provided.
	Timer timer.Timer
	// Silent suppresses all loading notifications when true.
	Silent bool
	// IgnoreConfigFile skips reading a config file (flags, env and defaults only).
	IgnoreConfigFile bool
	// SkipValidation skips validation of the loaded value.
	SkipValidation bool
}

// ConfigManager loads a configuration value of type T.
type ConfigManager[T any] interface {
	// Load returns the loaded config, either freshly loaded or previously cached.
	Load(opts LoadOptions) (*T, error)
}

// newViper creates a viper instance reading SCALEBENCH_* variables, with
// dashes in keys mapped to underscores.
func newViper() *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viperInstance.AutomaticEnv()

	return viperInstance
}

// bindFlag binds key to the named flag when the flag set defines it.
func bindFlag(viperInstance *viper.Viper, flags *pflag.FlagSet, key, name string) error {
	if flags == nil {
		return nil
	}

	flag := flags.Lookup(name)
	if flag == nil {
		return fmt.Errorf("%w: --%s", ErrFlagNotDefined, name)
	}

	err := viperInstance.BindPFlag(key, flag)
	if err != nil {
		return fmt.Errorf("bind --%s: %w", name, err)
	}

	return nil
}

// decoderConfig converts duration strings and comma separated lists coming
// from the environment or a config file.
func decoderConfig(config *mapstructure.DecoderConfig) {
	config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
