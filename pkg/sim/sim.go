// Package sim implements the hal devices on top of a simple kinematic model of
// the robot, for tests and the simulate command.
package sim

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/hal"
	"github.com/gwillem/frcbot/pkg/robot"
)

// Motor records the last commanded output.
type Motor struct {
	value float64
}

// Set implements hal.Actuator.
func (m *Motor) Set(v float64) { m.value = hal.Clamp(v) }

// Stop implements hal.Actuator.
func (m *Motor) Stop() { m.value = 0 }

// Value returns the last commanded output.
func (m *Motor) Value() float64 { return m.value }

// Encoder accumulates fractional ticks.
type Encoder struct {
	ticks float64
}

// Ticks implements hal.Encoder.
func (e *Encoder) Ticks() int64 { return int64(e.ticks) }

// Reset implements hal.Encoder.
func (e *Encoder) Reset() { e.ticks = 0 }

// Add moves the encoder by n ticks.
func (e *Encoder) Add(n float64) { e.ticks += n }

// Gyro is an ideal gyro.
type Gyro struct {
	angle float64
}

// Angle implements hal.Gyro.
func (g *Gyro) Angle() float64 { return g.angle }

// Reset implements hal.Gyro.
func (g *Gyro) Reset() { g.angle = 0 }

// Add turns the gyro by deg.
func (g *Gyro) Add(deg float64) { g.angle += deg }

// Solenoid records its state.
type Solenoid struct {
	on bool
}

// Set implements hal.Solenoid.
func (s *Solenoid) Set(on bool) { s.on = on }

// On implements hal.Solenoid.
func (s *Solenoid) On() bool { return s.on }

// Drive models a skid steer base.
type Drive struct {
	Left, Right               Motor
	LeftEncoder, RightEncoder Encoder
	Gyro                      Gyro

	// TicksPerSecond is encoder speed at full output.
	TicksPerSecond float64
	// DegreesPerSecond is the turn rate with the sides at full opposite output.
	DegreesPerSecond float64
	// RightSlip scales right side travel; 1 is no slip.
	RightSlip float64
}

// Advance integrates the drive over dt.
func (d *Drive) Advance(dt time.Duration) {
	s := dt.Seconds()
	l, r := d.Left.Value(), d.Right.Value()
	d.LeftEncoder.Add(l * d.TicksPerSecond * s)
	d.RightEncoder.Add(r * d.TicksPerSecond * d.RightSlip * s)
	d.Gyro.Add((l - r) / 2 * d.DegreesPerSecond * s)
}

// Arm models the pickup arm as a position in [0, 1] from store to pickup. It
// is lifted by a left and right motor mounted facing each other.
type Arm struct {
	Left, Right Motor
	Wheels      Motor
	Position    float64
	// FullTravel is the time to go from store to pickup at full output.
	FullTravel time.Duration
	// Jammed freezes the arm.
	Jammed bool
}

// Output is the net arm drive, positive toward pickup.
func (a *Arm) Output() float64 {
	return (a.Right.Value() - a.Left.Value()) / 2
}

// Actuator drives both arm motors, the left one reversed.
func (a *Arm) Actuator() hal.Actuator {
	return hal.Group{&a.Right, hal.Inverted{Actuator: &a.Left}}
}

// Advance integrates the arm over dt.
func (a *Arm) Advance(dt time.Duration) {
	if a.Jammed || a.FullTravel <= 0 {
		return
	}
	a.Position += a.Output() * dt.Seconds() / a.FullTravel.Seconds()
	if a.Position < 0 {
		a.Position = 0
	}
	if a.Position > 1 {
		a.Position = 1
	}
}

// StoreSwitch is asserted at the stored end of travel.
func (a *Arm) StoreSwitch() hal.LimitSwitch {
	return hal.SwitchFunc(func() bool { return a.Position <= 0 })
}

// PickupSwitch is asserted at the pickup end of travel.
func (a *Arm) PickupSwitch() hal.LimitSwitch {
	return hal.SwitchFunc(func() bool { return a.Position >= 1 })
}

// Wedge models the wedge as a position in [0, 1] from retracted to deployed.
type Wedge struct {
	Motor      Motor
	Position   float64
	FullTravel time.Duration
}

// Advance integrates the wedge over dt.
func (w *Wedge) Advance(dt time.Duration) {
	if w.FullTravel <= 0 {
		return
	}
	w.Position += w.Motor.Value() * dt.Seconds() / w.FullTravel.Seconds()
	w.Position = min(max(w.Position, 0), 1)
}

// Robot is the whole simulated robot.
type Robot struct {
	Drive   Drive
	Arm     Arm
	Wedge   Wedge
	Shifter Solenoid

	clk  clock.Clock
	last time.Time
}

// New returns a robot at rest with the arm stored and the wedge retracted.
func New(clk clock.Clock) *Robot {
	if clk == nil {
		clk = clock.New()
	}
	return &Robot{
		Drive: Drive{
			TicksPerSecond:   60000,
			DegreesPerSecond: 450,
			RightSlip:        1,
		},
		Arm:   Arm{FullTravel: 1200 * time.Millisecond},
		Wedge: Wedge{FullTravel: 2 * time.Second},
		clk:   clk,
		last:  clk.Now(),
	}
}

// Clock returns the clock the robot integrates against.
func (r *Robot) Clock() clock.Clock {
	return r.clk
}

// Update integrates every mechanism up to the clock's current time.
func (r *Robot) Update() {
	now := r.clk.Now()
	dt := now.Sub(r.last)
	r.last = now
	if dt <= 0 {
		return
	}
	r.Drive.Advance(dt)
	r.Arm.Advance(dt)
	r.Wedge.Advance(dt)
}

// Mechanisms builds the robot's mechanisms on the simulated devices.
func (r *Robot) Mechanisms(cfg *robot.Config, logger *zap.SugaredLogger) (*robot.Drivetrain, *robot.PickupArm, *robot.Wedge) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	drive := robot.NewDrivetrain(robot.DrivetrainConfig{
		Left:         &r.Drive.Left,
		Right:        &r.Drive.Right,
		LeftEncoder:  &r.Drive.LeftEncoder,
		RightEncoder: &r.Drive.RightEncoder,
		Gyro:         &r.Drive.Gyro,
		Shifter:      robot.NewShifter(&r.Shifter),
		Calibration:  cfg.Drive,
		Clock:        r.clk,
		Logger:       logger.Named("drive"),
	})
	arm := robot.NewPickupArm(robot.ArmConfig{
		Motor:        r.Arm.Actuator(),
		Wheels:       &r.Arm.Wheels,
		StoreSwitch:  r.Arm.StoreSwitch(),
		PickupSwitch: r.Arm.PickupSwitch(),
		Calibration:  cfg.Arm,
		Clock:        r.clk,
		Logger:       logger.Named("arm"),
	})
	wedge := robot.NewWedge(&r.Wedge.Motor, cfg.Wedge, r.clk, logger.Named("wedge"))
	return drive, arm, wedge
}
