// Package main is the entry point for scalebench.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/devantler-tech/scalebench/internal/buildmeta"
	"github.com/devantler-tech/scalebench/pkg/cli/cmd"
	"github.com/devantler-tech/scalebench/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/scalebench/pkg/utils/notify"
)

func main() {
	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

//nolint:nonamedreturns // Named return simplifies panic recovery logic.
func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			notify.WriteMessage(notify.Message{
				Type:    notify.ErrorType,
				Content: fmt.Sprintf("panic recovered: %v\n%s", r, debug.Stack()),
				Writer:  errWriter,
			})

			exitCode = 1
		}
	}()

	return runner(args)
}

func runWithArgs(args []string) int {
	rootCmd := cmd.NewRootCmd(buildmeta.Version, buildmeta.Commit, buildmeta.Date)
	rootCmd.SetArgs(args)

	err := cmd.Execute(rootCmd)
	if err != nil {
		notify.Errorf(rootCmd.ErrOrStderr(), "%v", err)

		return exitCode(err)
	}

	return 0
}

// exitCode forwards the status of a failed external command and maps every
// other failure to 1.
func exitCode(err error) int {
	var cmdErr *errorhandler.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode()
	}

	return 1
}
