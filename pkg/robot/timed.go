package robot

import (
	"time"

	"github.com/gwillem/frcbot/pkg/hal"
)

// TimedSpin runs an actuator at a fixed speed for a fixed time.
type TimedSpin struct {
	act   hal.Actuator
	timer hal.Timer
}

// NewTimedSpin creates a timed spin on act measured by timer.
func NewTimedSpin(act hal.Actuator, timer hal.Timer) *TimedSpin {
	return &TimedSpin{act: act, timer: timer}
}

// Run commands speed and reports whether duration has elapsed since the first
// call. On completion the actuator is stopped and the timer cleared, so the
// next call starts a new spin.
func (s *TimedSpin) Run(speed float64, duration time.Duration) bool {
	if s.timer.Elapsed() == 0 {
		s.timer.Start()
	}
	if s.timer.Elapsed() >= duration {
		s.Cancel()
		return true
	}
	s.act.Set(speed)
	return false
}

// Cancel stops the actuator and clears the timer.
func (s *TimedSpin) Cancel() {
	s.act.Stop()
	s.timer.Stop()
	s.timer.Reset()
}
