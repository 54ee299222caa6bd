// Package timer tracks the total duration of a command and of its current stage.
package timer

import (
	"sync"
	"time"
)

// Timer measures elapsed time for a command and its stages.
type Timer interface {
	// Start resets the timer and begins the first stage.
	Start()
	// NewStage marks the beginning of a new stage.
	NewStage()
	// GetTiming returns the total elapsed time and the elapsed time of the current stage.
	GetTiming() (time.Duration, time.Duration)
}

// Clock returns the current time.
type Clock func() time.Time

// StageTimer is the default Timer implementation.
type StageTimer struct {
	mu         sync.Mutex
	now        Clock
	start      time.Time
	stageStart time.Time
}

// New creates a StageTimer using the wall clock.
func New() *StageTimer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a StageTimer reading time from clock.
func NewWithClock(clock Clock) *StageTimer {
	return &StageTimer{now: clock}
}

// Start resets the timer and begins the first stage.
func (t *StageTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.start = now
	t.stageStart = now
}

// NewStage marks the beginning of a new stage.
func (t *StageTimer) NewStage() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stageStart = t.now()
}

// GetTiming returns the total and current-stage durations.
// Both are zero if Start was never called.
func (t *StageTimer) GetTiming() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		return 0, 0
	}

	now := t.now()

	return now.Sub(t.start), now.Sub(t.stageStart)
}
