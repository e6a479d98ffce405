package bus

import (
	"sync"
	"time"
)

const (
	// DefaultCheckpointCount is the default number of messages between commits.
	DefaultCheckpointCount = 10
	// DefaultCheckpointDuration is the default time between commits.
	DefaultCheckpointDuration = 5 * time.Second
)

// CheckpointTrigger decides when a partition processor should commit: once
// Count messages have been seen, or Duration has elapsed, since the last
// fire, whichever comes first. Firing resets both counters.
type CheckpointTrigger struct {
	mu        sync.Mutex
	count     int
	duration  time.Duration
	running   int
	lastReset time.Time
	now       func() time.Time
}

// NewCheckpointTrigger constructs a trigger with the given thresholds,
// applying the package defaults for non-positive values.
func NewCheckpointTrigger(count int, duration time.Duration) *CheckpointTrigger {
	if count <= 0 {
		count = DefaultCheckpointCount
	}
	if duration <= 0 {
		duration = DefaultCheckpointDuration
	}
	return &CheckpointTrigger{
		count:     count,
		duration:  duration,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Increment records one processed message and reports whether the trigger
// fires. Firing resets the running count and the clock.
func (t *CheckpointTrigger) Increment() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running++
	fired := t.running >= t.count || t.now().Sub(t.lastReset) >= t.duration
	if fired {
		t.running = 0
		t.lastReset = t.now()
	}
	return fired
}

// Reset is idempotent: it zeroes the running count and restarts the clock
// regardless of current state.
func (t *CheckpointTrigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = 0
	t.lastReset = t.now()
}
