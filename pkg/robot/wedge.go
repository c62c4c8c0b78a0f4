package robot

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/hal"
)

// WedgeMotion is what the wedge motor is doing.
type WedgeMotion int

const (
	WedgeStationary WedgeMotion = iota
	WedgeDeploying
	WedgeRetracting
)

func (m WedgeMotion) String() string {
	switch m {
	case WedgeDeploying:
		return "deploying"
	case WedgeRetracting:
		return "retracting"
	default:
		return "stationary"
	}
}

// WedgePosition is where the wedge was last left.
type WedgePosition int

const (
	WedgeRetracted WedgePosition = iota
	WedgeDeployed
)

func (p WedgePosition) String() string {
	if p == WedgeDeployed {
		return "deployed"
	}
	return "retracted"
}

// Wedge is the front wedge used to push down field obstacles. It has no
// position sensor: a move is complete once it has run for the calibrated time,
// so a jammed wedge looks exactly like one that finished.
type Wedge struct {
	motor  hal.Actuator
	timer  *hal.StopwatchTimer
	cal    WedgeCalibration
	logger *zap.SugaredLogger

	motion   WedgeMotion
	position WedgePosition
}

// NewWedge creates a wedge that starts out retracted.
func NewWedge(motor hal.Actuator, cal WedgeCalibration, clk clock.Clock, logger *zap.SugaredLogger) *Wedge {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Wedge{
		motor:  motor,
		timer:  hal.NewTimer(clk),
		cal:    cal,
		logger: logger,
	}
}

// SetCalibration replaces the wedge constants.
func (w *Wedge) SetCalibration(cal WedgeCalibration) {
	w.cal = cal
}

// Motion returns what the wedge motor is doing.
func (w *Wedge) Motion() WedgeMotion {
	return w.motion
}

// Position returns the position the wedge last finished moving to.
func (w *Wedge) Position() WedgePosition {
	return w.position
}

// Deploy starts lowering the wedge. Calling it again while deploying does not
// restart the move; calling it while retracting reverses from zero.
func (w *Wedge) Deploy() {
	w.start(WedgeDeploying, w.cal.Speed)
}

// Retract starts raising the wedge.
func (w *Wedge) Retract() {
	w.start(WedgeRetracting, -w.cal.Speed)
}

// Toggle moves the wedge to the opposite of where it is or is heading.
func (w *Wedge) Toggle() {
	switch {
	case w.motion == WedgeDeploying,
		w.motion == WedgeStationary && w.position == WedgeDeployed:
		w.Retract()
	default:
		w.Deploy()
	}
}

func (w *Wedge) start(m WedgeMotion, speed float64) {
	if w.motion != m {
		w.timer.Stop()
		w.timer.Reset()
		w.motion = m
	}
	w.motor.Set(speed)
	if !w.timer.Running() {
		w.timer.Start()
	}
}

// CheckTimer stops the wedge once the current move has run its calibrated time
// and returns the motion state afterwards.
func (w *Wedge) CheckTimer() WedgeMotion {
	switch w.motion {
	case WedgeDeploying:
		if w.timer.Elapsed() >= w.cal.DeployTime.Duration() {
			w.finish(WedgeDeployed)
		}
	case WedgeRetracting:
		if w.timer.Elapsed() >= w.cal.RetractTime.Duration() {
			w.finish(WedgeRetracted)
		}
	}
	return w.motion
}

func (w *Wedge) finish(p WedgePosition) {
	w.motor.Stop()
	w.timer.Stop()
	w.timer.Reset()
	w.motion = WedgeStationary
	w.position = p
	w.logger.Debugw("wedge stopped", "position", p)
}

// Stop halts the wedge where it is. The recorded position is unchanged.
func (w *Wedge) Stop() {
	w.motor.Stop()
	w.timer.Stop()
	w.timer.Reset()
	w.motion = WedgeStationary
}

// DeployStep deploys the wedge and reports when it is deployed. It is meant to
// be called every tick.
func (w *Wedge) DeployStep() bool {
	if w.motion == WedgeStationary && w.position == WedgeDeployed {
		return true
	}
	w.Deploy()
	return w.CheckTimer() == WedgeStationary && w.position == WedgeDeployed
}

// RetractStep retracts the wedge and reports when it is retracted.
func (w *Wedge) RetractStep() bool {
	if w.motion == WedgeStationary && w.position == WedgeRetracted {
		return true
	}
	w.Retract()
	return w.CheckTimer() == WedgeStationary && w.position == WedgeRetracted
}
