package experiment

import "errors"

// ErrNoWorkloads is returned when a run has no workload files.
var ErrNoWorkloads = errors.New("at least one workload file is required")

// ErrInvalidInterval is returned when the sampling interval is not positive.
var ErrInvalidInterval = errors.New("sampling interval must be positive")

// ErrInvalidDuration is returned when the run duration is not positive.
var ErrInvalidDuration = errors.New("run duration must be positive")

// ErrNoMaster is returned when the descriptor names no reachable master.
var ErrNoMaster = errors.New("descriptor has no master node")

// ErrWorkloadsNotReady is returned when workloads miss the ready timeout.
var ErrWorkloadsNotReady = errors.New("workloads did not become ready")

// ErrInterrupted is returned when the run is cancelled before it finishes.
var ErrInterrupted = errors.New("experiment interrupted")

// ErrNoDescriptor is returned when no descriptor path is given.
var ErrNoDescriptor = errors.New("cluster descriptor path is required")

// ErrEmptyWorkload is returned when a workload file holds no objects.
var ErrEmptyWorkload = errors.New("workload file contains no objects")

// ErrInvalidAddon is returned for addon names that are unsafe to pass to a shell.
var ErrInvalidAddon = errors.New("invalid addon name")

// ErrRunnerRequired is returned when the factory has no command runner.
var ErrRunnerRequired = errors.New("command runner is required")
