package benchmark

import "errors"

// ErrNoShapes is returned when no requested pair forms a valid cluster shape.
var ErrNoShapes = errors.New("no valid cluster shape")

// ErrInvalidCount is returned for a control-plane or node count below one.
var ErrInvalidCount = errors.New("counts must be at least 1")

// ErrInvalidConcurrency is returned when fewer than one shape may run at once.
var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
