// Package parallel runs per-node tasks with bounded concurrency.
package parallel

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	minConcurrency = 2
	// maxConcurrencyCap keeps juju and ssh fan-out polite toward the controller.
	maxConcurrencyCap = 16
)

// DefaultMaxConcurrency returns the default maximum concurrency based on available CPUs.
func DefaultMaxConcurrency() int64 {
	numCPU := int64(runtime.NumCPU())

	return min(max(numCPU*2, minConcurrency), maxConcurrencyCap)
}

// Executor provides controlled parallel execution of tasks.
type Executor struct {
	maxConcurrency int64
}

// NewExecutor creates an executor. If maxConcurrency <= 0, DefaultMaxConcurrency() is used.
func NewExecutor(maxConcurrency int64) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency()
	}

	return &Executor{maxConcurrency: maxConcurrency}
}

// Task is a unit of work that can run in parallel.
type Task func(ctx context.Context) error

// Execute runs all tasks and returns the first error, canceling the rest.
func (executor *Executor) Execute(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	if len(tasks) == 1 {
		return tasks[0](ctx)
	}

	sem := semaphore.NewWeighted(executor.maxConcurrency)
	group, groupCtx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		group.Go(func() error {
			acquireErr := sem.Acquire(groupCtx, 1)
			if acquireErr != nil {
				return fmt.Errorf("acquire semaphore: %w", acquireErr)
			}

			defer sem.Release(1)

			return task(groupCtx)
		})
	}

	waitErr := group.Wait()
	if waitErr != nil {
		return fmt.Errorf("parallel execution: %w", waitErr)
	}

	return nil
}

// ExecuteAll runs every task to completion regardless of failures in the others.
// The returned slice holds each task's error at the task's index.
func (executor *Executor) ExecuteAll(ctx context.Context, tasks ...Task) []error {
	errs := make([]error, len(tasks))
	sem := semaphore.NewWeighted(executor.maxConcurrency)

	var group errgroup.Group

	for index, task := range tasks {
		group.Go(func() error {
			acquireErr := sem.Acquire(ctx, 1)
			if acquireErr != nil {
				errs[index] = fmt.Errorf("acquire semaphore: %w", acquireErr)

				return nil
			}

			defer sem.Release(1)

			errs[index] = task(ctx)

			return nil
		})
	}

	_ = group.Wait()

	return errs
}
