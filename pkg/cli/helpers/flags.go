package helpers

import (
	"errors"
	"fmt"

	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const (
	// TimingFlagName shows per-step timing on success lines.
	TimingFlagName = "timing"
	// DebugFlagName turns on debug traces of external commands.
	DebugFlagName = "debug"
)

// ErrNilCommand is returned when a flag lookup receives no command.
var ErrNilCommand = errors.New("command is nil")

// ErrFlagNotFound is returned when neither the command nor its parents define a flag.
var ErrFlagNotFound = errors.New("flag not found")

// BoolFlag reads a bool flag from the command, its persistent flags or those
// inherited from a parent.
func BoolFlag(cmd *cobra.Command, name string) (bool, error) {
	if cmd == nil {
		return false, ErrNilCommand
	}

	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}

	if flag == nil {
		flag = cmd.InheritedFlags().Lookup(name)
	}

	if flag == nil {
		return false, fmt.Errorf("%w: --%s", ErrFlagNotFound, name)
	}

	value := flag.Value.String()

	return value == "true", nil
}

// IsTimingEnabled reports whether --timing is set.
func IsTimingEnabled(cmd *cobra.Command) (bool, error) {
	return BoolFlag(cmd, TimingFlagName)
}

// IsDebugEnabled reports whether --debug is set.
func IsDebugEnabled(cmd *cobra.Command) (bool, error) {
	return BoolFlag(cmd, DebugFlagName)
}

// MaybeTimer returns tmr when --timing is set and nil otherwise.
func MaybeTimer(cmd *cobra.Command, tmr timer.Timer) timer.Timer {
	if tmr == nil {
		return nil
	}

	enabled, err := IsTimingEnabled(cmd)
	if err != nil || !enabled {
		return nil
	}

	return tmr
}
