package robot

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/felixge/pidctrl"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/hal"
)

// DrivetrainConfig wires a Drivetrain to its devices.
type DrivetrainConfig struct {
	Left, Right               hal.Actuator
	LeftEncoder, RightEncoder hal.Encoder
	Gyro                      hal.Gyro
	Shifter                   *Shifter // optional
	Calibration               DriveCalibration
	Clock                     clock.Clock
	Logger                    *zap.SugaredLogger
}

// Drivetrain is a two-sided skid steer base with wheel encoders and a gyro.
//
// The motion primitives DriveDistance, TurnGyro, TurnEncoders and DriveFor are
// meant to be called once per control tick until they return true. They never
// block. Distances and angles are relative to the last ResetSensors.
type Drivetrain struct {
	left, right       hal.Actuator
	leftEnc, rightEnc hal.Encoder
	gyro              hal.Gyro
	shifter           *Shifter
	cal               DriveCalibration
	clk               clock.Clock
	timer             *hal.StopwatchTimer
	logger            *zap.SugaredLogger

	heading     *pidctrl.PIDController
	headingLast time.Time
}

// NewDrivetrain creates a drivetrain.
func NewDrivetrain(cfg DrivetrainConfig) *Drivetrain {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	d := &Drivetrain{
		left:     cfg.Left,
		right:    cfg.Right,
		leftEnc:  cfg.LeftEncoder,
		rightEnc: cfg.RightEncoder,
		gyro:     cfg.Gyro,
		shifter:  cfg.Shifter,
		clk:      cfg.Clock,
		timer:    hal.NewTimer(cfg.Clock),
		logger:   cfg.Logger,
	}
	d.SetCalibration(cfg.Calibration)
	return d
}

// SetCalibration replaces the drivetrain constants.
func (d *Drivetrain) SetCalibration(cal DriveCalibration) {
	d.cal = cal
	d.resetHeading()
}

// Calibration returns the current constants.
func (d *Drivetrain) Calibration() DriveCalibration {
	return d.cal
}

func (d *Drivetrain) resetHeading() {
	if d.cal.HeadingKp == 0 && d.cal.HeadingKi == 0 && d.cal.HeadingKd == 0 {
		d.heading = nil
		return
	}
	d.heading = pidctrl.NewPIDController(d.cal.HeadingKp, d.cal.HeadingKi, d.cal.HeadingKd).
		SetOutputLimits(-0.5, 0.5).
		Set(0)
	d.headingLast = time.Time{}
}

// ArcadeDrive mixes a forward move value and a clockwise rotate value into
// left and right outputs, scaling both down if either would exceed 1.
func (d *Drivetrain) ArcadeDrive(move, rotate float64) {
	l, r := move+rotate, move-rotate
	if m := math.Max(math.Abs(l), math.Abs(r)); m > 1 {
		l /= m
		r /= m
	}
	d.left.Set(l)
	d.right.Set(r)
}

// Stop stops both sides.
func (d *Drivetrain) Stop() {
	d.left.Stop()
	d.right.Stop()
}

// ResetSensors zeroes encoders and gyro so the next primitive measures from here.
func (d *Drivetrain) ResetSensors() {
	d.leftEnc.Reset()
	d.rightEnc.Reset()
	d.gyro.Reset()
	d.timer.Stop()
	d.timer.Reset()
	d.resetHeading()
}

// SetHighGear shifts into high gear, if the drivetrain has a shifter.
func (d *Drivetrain) SetHighGear() {
	if d.shifter != nil {
		d.shifter.SetHighGear()
	}
}

// SetLowGear shifts into low gear, if the drivetrain has a shifter.
func (d *Drivetrain) SetLowGear() {
	if d.shifter != nil {
		d.shifter.SetLowGear()
	}
}

// LeftDistance returns the left side travel in feet.
func (d *Drivetrain) LeftDistance() float64 {
	return float64(d.leftEnc.Ticks()) * d.cal.LeftFeetPerTick
}

// RightDistance returns the right side travel in feet.
func (d *Drivetrain) RightDistance() float64 {
	return float64(d.rightEnc.Ticks()) * d.cal.RightFeetPerTick
}

// Heading returns the gyro angle in degrees.
func (d *Drivetrain) Heading() float64 {
	return d.gyro.Angle()
}

// HasDrivenDistance reports whether both sides have travelled at least feet
// in the sign's direction. Zero is always satisfied.
func (d *Drivetrain) HasDrivenDistance(feet float64) bool {
	l, r := d.LeftDistance(), d.RightDistance()
	switch {
	case feet > 0:
		return l >= feet && r >= feet
	case feet < 0:
		return l <= feet && r <= feet
	default:
		return true
	}
}

// HasTurnedDegrees reports whether the gyro has turned at least degrees,
// positive clockwise. Zero is always satisfied.
func (d *Drivetrain) HasTurnedDegrees(degrees float64) bool {
	a := d.gyro.Angle()
	switch {
	case degrees > 0:
		return a >= degrees
	case degrees < 0:
		return a <= degrees
	default:
		return true
	}
}

// EncoderDegrees converts the encoder counts into degrees of rotation as seen
// by each wheel, using the constants for the given turn direction.
func (d *Drivetrain) EncoderDegrees(rightTurn bool) (left, right float64) {
	lt, rt := float64(d.leftEnc.Ticks()), float64(d.rightEnc.Ticks())
	if rightTurn {
		return lt * d.cal.LeftDegreesPerTickRightTurn, rt * d.cal.RightDegreesPerTickRightTurn
	}
	return lt * d.cal.LeftDegreesPerTickLeftTurn, rt * d.cal.RightDegreesPerTickLeftTurn
}

// HasTurnedDegreesWithEncoders is HasTurnedDegrees measured by the wheels:
// turning right the left wheel runs forward and the right wheel backward.
func (d *Drivetrain) HasTurnedDegreesWithEncoders(degrees float64) bool {
	switch {
	case degrees > 0:
		l, r := d.EncoderDegrees(true)
		return l >= degrees && r <= -degrees
	case degrees < 0:
		l, r := d.EncoderDegrees(false)
		return l <= degrees && r >= -degrees
	default:
		return true
	}
}

// DriveDistance drives straight until both encoders pass feet. Negative feet
// drives backward. Returns true once reached, stopping the motors.
func (d *Drivetrain) DriveDistance(feet, speed float64) bool {
	if d.HasDrivenDistance(feet) {
		d.Stop()
		d.logger.Debugw("distance reached", "target", feet, "left", d.LeftDistance(), "right", d.RightDistance())
		return true
	}
	dir := math.Copysign(1, feet)
	d.ArcadeDrive(dir*math.Abs(speed), dir*d.cal.SteeringBias+d.headingCorrection())
	return false
}

func (d *Drivetrain) headingCorrection() float64 {
	if d.heading == nil {
		return 0
	}
	now := d.clk.Now()
	if d.headingLast.IsZero() {
		d.headingLast = now
		return 0
	}
	dt := now.Sub(d.headingLast)
	d.headingLast = now
	if dt <= 0 {
		return 0
	}
	return d.heading.UpdateDuration(d.gyro.Angle(), dt)
}

// TurnGyro turns in place until the gyro passes degrees, positive clockwise.
func (d *Drivetrain) TurnGyro(degrees, speed float64) bool {
	if d.HasTurnedDegrees(degrees) {
		d.Stop()
		d.logger.Debugw("gyro turn reached", "target", degrees, "heading", d.gyro.Angle())
		return true
	}
	d.ArcadeDrive(0, math.Copysign(math.Abs(speed), degrees))
	return false
}

// TurnEncoders turns in place until both wheels report degrees of rotation.
func (d *Drivetrain) TurnEncoders(degrees, speed float64) bool {
	if d.HasTurnedDegreesWithEncoders(degrees) {
		d.Stop()
		d.logger.Debugw("encoder turn reached", "target", degrees)
		return true
	}
	d.ArcadeDrive(0, math.Copysign(math.Abs(speed), degrees))
	return false
}

// DriveFor drives at speed for duration, for field elements where the wheels
// slip too much to trust the encoders.
func (d *Drivetrain) DriveFor(speed float64, duration time.Duration) bool {
	if d.timer.Elapsed() == 0 {
		d.timer.Start()
	}
	if d.timer.Elapsed() >= duration {
		d.Stop()
		d.timer.Stop()
		d.timer.Reset()
		return true
	}
	rotate := 0.0
	if speed != 0 {
		rotate = math.Copysign(d.cal.SteeringBias, speed)
	}
	d.ArcadeDrive(speed, rotate)
	return false
}
