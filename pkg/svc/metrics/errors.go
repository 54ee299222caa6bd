package metrics

import "errors"

// ErrInvalidProcessName is returned when a process name would not be safe to embed in a shell command.
var ErrInvalidProcessName = errors.New("invalid process name")

// ErrNoProcesses is returned when no process is configured for sampling.
var ErrNoProcesses = errors.New("no processes to sample")

// ErrMalformedSample is returned when a line of sampler output cannot be parsed.
var ErrMalformedSample = errors.New("malformed sample")

// ErrSinkClosed is returned when appending to a closed sink.
var ErrSinkClosed = errors.New("sink is closed")

// ErrRunDirExists is returned when a run directory is already present.
var ErrRunDirExists = errors.New("run directory already exists")
