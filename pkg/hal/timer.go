package hal

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Timer measures elapsed motion time for timed primitives.
type Timer interface {
	Start()
	Stop()
	Reset()
	Elapsed() time.Duration
	Running() bool
}

// StopwatchTimer is a Timer that accumulates time while running.
type StopwatchTimer struct {
	clk         clock.Clock
	running     bool
	startedAt   time.Time
	accumulated time.Duration
}

// NewTimer returns a stopped timer reading zero.
func NewTimer(clk clock.Clock) *StopwatchTimer {
	if clk == nil {
		clk = clock.New()
	}
	return &StopwatchTimer{clk: clk}
}

// Start starts the timer. Starting a running timer does nothing.
func (t *StopwatchTimer) Start() {
	if t.running {
		return
	}
	t.startedAt = t.clk.Now()
	t.running = true
}

// Stop freezes the elapsed time.
func (t *StopwatchTimer) Stop() {
	if !t.running {
		return
	}
	t.accumulated += t.clk.Since(t.startedAt)
	t.running = false
}

// Reset zeroes the elapsed time. A running timer keeps running from zero.
func (t *StopwatchTimer) Reset() {
	t.accumulated = 0
	t.startedAt = t.clk.Now()
}

// Elapsed returns the accumulated running time.
func (t *StopwatchTimer) Elapsed() time.Duration {
	if t.running {
		return t.accumulated + t.clk.Since(t.startedAt)
	}
	return t.accumulated
}

// Running reports whether the timer is counting.
func (t *StopwatchTimer) Running() bool {
	return t.running
}
