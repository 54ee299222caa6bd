// Package pipeline runs ordered, fallible steps and halts at the first failure.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/devantler-tech/scalebench/pkg/utils/notify"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
)

// Step is one fallible unit of work.
type Step struct {
	// Name is shown while the step runs and in errors.
	Name string
	// Skip reports whether the step should be skipped, e.g. an optional proxy step.
	Skip func() bool
	Run  func(ctx context.Context) error
}

// Result describes how far a pipeline got.
type Result struct {
	Completed []string
	Skipped   []string
}

// Pipeline runs steps in order.
type Pipeline struct {
	steps []Step
	out   io.Writer
	timer timer.Timer
}

// New creates a pipeline that reports progress to out. A nil out discards progress.
func New(out io.Writer, steps ...Step) *Pipeline {
	if out == nil {
		out = io.Discard
	}

	return &Pipeline{steps: steps, out: out}
}

// WithTimer adds per-step timing to success messages.
func (p *Pipeline) WithTimer(tmr timer.Timer) *Pipeline {
	p.timer = tmr

	return p
}

// Steps returns the names of the configured steps in order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name)
	}

	return names
}

// Run executes every step in order. The first failing step stops the pipeline
// and is returned as a *StepError. A canceled context stops the pipeline
// before the next step starts.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var result Result

	for index, step := range p.steps {
		if step.Skip != nil && step.Skip() {
			result.Skipped = append(result.Skipped, step.Name)

			continue
		}

		err := ctx.Err()
		if err != nil {
			return result, &StepError{Step: step.Name, Index: index, Err: err}
		}

		if p.timer != nil {
			p.timer.NewStage()
		}

		notify.Activityf(p.out, "%s", step.Name)

		err = step.Run(ctx)
		if err != nil {
			return result, &StepError{Step: step.Name, Index: index, Err: err}
		}

		if p.timer != nil {
			notify.SuccessWithTimerf(p.out, p.timer, "%s", step.Name)
		} else {
			notify.Successf(p.out, "%s", step.Name)
		}

		result.Completed = append(result.Completed, step.Name)
	}

	return result, nil
}

// StepError reports the step that halted a pipeline.
type StepError struct {
	Step  string
	Index int
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Step, e.Err)
}

// Unwrap exposes the step's error.
func (e *StepError) Unwrap() error {
	return e.Err
}
