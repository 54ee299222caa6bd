// Package runnertest provides a scripted runner.CommandRunner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
)

// Responder produces the result for a recorded call.
type Responder func(call Call) (runner.CommandResult, error)

// Call is a single recorded invocation.
type Call struct {
	Name string
	Args []string
}

// Line renders the call as a command line.
func (c Call) Line() string {
	return runner.FormatCommand(c.Name, c.Args...)
}

// Recorder records every call and answers with the first matching rule.
// Calls without a matching rule succeed with empty output.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	rules []rule
}

type rule struct {
	contains string
	respond  Responder
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// On registers a responder for calls whose command line contains fragment.
// Rules are matched in registration order.
func (r *Recorder) On(fragment string, respond Responder) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{contains: fragment, respond: respond})

	return r
}

// OnStdout registers a rule that answers with stdout.
func (r *Recorder) OnStdout(fragment, stdout string) *Recorder {
	return r.On(fragment, func(Call) (runner.CommandResult, error) {
		return runner.CommandResult{Stdout: stdout}, nil
	})
}

// OnExit registers a rule that fails with an *runner.ExitError.
func (r *Recorder) OnExit(fragment string, code int, stderr string) *Recorder {
	return r.On(fragment, func(call Call) (runner.CommandResult, error) {
		return runner.CommandResult{Stderr: stderr, ExitCode: code}, &runner.ExitError{
			Command:  call.Line(),
			ExitCode: code,
			Stderr:   stderr,
		}
	})
}

// Run implements runner.CommandRunner.
func (r *Recorder) Run(ctx context.Context, name string, args ...string) (runner.CommandResult, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	rules := append([]rule(nil), r.rules...)
	r.mu.Unlock()

	err := ctx.Err()
	if err != nil {
		return runner.CommandResult{}, err
	}

	line := call.Line()
	for _, candidate := range rules {
		if strings.Contains(line, candidate.contains) {
			return candidate.respond(call)
		}
	}

	return runner.CommandResult{}, nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Call(nil), r.calls...)
}

// Lines returns the recorded calls rendered as command lines.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, 0, len(calls))

	for _, call := range calls {
		lines = append(lines, call.Line())
	}

	return lines
}
