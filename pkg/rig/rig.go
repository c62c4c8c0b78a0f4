// Package rig runs the robot's mechanisms on a Feetech STS servo bench rig.
//
// The rig has one position servo per joint. The arm and wedge servos move
// through their calibrated range at a rate set by the commanded output and
// their measured position drives the arm's end-of-travel switches. The two
// drive servos and the pickup wheel servo deflect in proportion to their
// output like a gauge; the drive encoders integrate the measured deflection
// and a virtual gyro is derived from the difference between them.
package rig

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/hal"
	"github.com/gwillem/frcbot/pkg/robot"
)

const (
	// travelLimit is the normalized end stop for every joint.
	travelLimit = 95.0
	// switchBand is how close to an end stop the arm must be for its
	// switch to assert.
	switchBand = 2.0
	// gaugeDeadband absorbs the servo's quantization around center.
	gaugeDeadband = 1.0
)

// Config holds rig parameters.
type Config struct {
	Port        string
	Calibration robot.Calibration
	Clock       clock.Clock
	Logger      *zap.SugaredLogger

	// TicksPerSecond is the encoder rate at full gauge deflection.
	TicksPerSecond float64
	// DegreesPerTick scales the wheel tick difference into heading.
	DegreesPerTick float64
	// ArmTravel and WedgeTravel are the times to cross the full range at
	// full output.
	ArmTravel   time.Duration
	WedgeTravel time.Duration
}

func (c *Config) setDefaults() {
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	if c.Calibration == nil {
		c.Calibration = robot.DefaultRigCalibration()
	}
	if c.TicksPerSecond == 0 {
		c.TicksPerSecond = 20000
	}
	if c.DegreesPerTick == 0 {
		c.DegreesPerTick = 0.0075
	}
	if c.ArmTravel == 0 {
		c.ArmTravel = 1200 * time.Millisecond
	}
	if c.WedgeTravel == 0 {
		c.WedgeTravel = 2 * time.Second
	}
}

type joint struct {
	cal      robot.JointCalibration
	output   float64
	target   float64
	measured float64
}

func (j *joint) toRaw(norm float64) int {
	if j.cal.Inverted() {
		norm = -norm
	}
	return j.cal.Denormalize(norm)
}

func (j *joint) fromRaw(raw int) float64 {
	norm := j.cal.Normalize(raw)
	if j.cal.Inverted() {
		norm = -norm
	}
	return norm
}

// Rig drives the hal ports through the servo bus. Refresh and Flush are
// called around every control tick; in between, all device access is to
// cached values so a tick never waits on the bus.
type Rig struct {
	io     servoIO
	cfg    Config
	logger *zap.SugaredLogger

	joints map[robot.JointName]*joint
	last   time.Time

	leftTicks, rightTicks float64
	headingZero           float64
	shifter               bool

	readFailing, writeFailing bool
}

// Open connects to the rig on cfg.Port.
func Open(cfg Config) (*Rig, error) {
	cfg.setDefaults()
	io, err := newFeetechIO(cfg.Port, cfg.Calibration)
	if err != nil {
		return nil, err
	}
	return newRig(io, cfg), nil
}

func newRig(io servoIO, cfg Config) *Rig {
	cfg.setDefaults()
	r := &Rig{
		io:     io,
		cfg:    cfg,
		logger: cfg.Logger,
		joints: make(map[robot.JointName]*joint, len(cfg.Calibration)),
		last:   cfg.Clock.Now(),
	}
	for name, cal := range cfg.Calibration {
		r.joints[name] = &joint{cal: cal}
	}
	// The arm starts stored.
	if j, ok := r.joints[robot.ArmJoint]; ok {
		j.target, j.measured = -travelLimit, -travelLimit
	}
	if j, ok := r.joints[robot.WedgeJoint]; ok {
		j.target, j.measured = -travelLimit, -travelLimit
	}
	return r
}

// Enable turns on servo torque.
func (r *Rig) Enable(ctx context.Context) error {
	return r.io.EnableAll(ctx)
}

// Close disables torque and closes the bus.
func (r *Rig) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return multierr.Append(r.io.DisableAll(ctx), r.io.Close())
}

// Refresh reads the servos and advances the rig's integrated state to now.
// A failed read keeps the previous positions.
func (r *Rig) Refresh(ctx context.Context) {
	now := r.cfg.Clock.Now()
	dt := now.Sub(r.last).Seconds()
	r.last = now

	raw, err := r.io.Positions(ctx)
	r.noteRead(err)
	for id, pos := range raw {
		name, _, ok := r.cfg.Calibration.ByID(id)
		if !ok {
			continue
		}
		r.joints[name].measured = r.joints[name].fromRaw(pos)
	}
	if dt <= 0 {
		return
	}

	r.leftTicks += r.gauge(robot.LeftDrive) * r.cfg.TicksPerSecond * dt
	r.rightTicks += r.gauge(robot.RightDrive) * r.cfg.TicksPerSecond * dt
	r.travel(robot.ArmJoint, r.cfg.ArmTravel, dt)
	r.travel(robot.WedgeJoint, r.cfg.WedgeTravel, dt)
}

// gauge returns a gauge joint's measured deflection in [-1, 1].
func (r *Rig) gauge(name robot.JointName) float64 {
	j, ok := r.joints[name]
	if !ok || (j.measured > -gaugeDeadband && j.measured < gaugeDeadband) {
		return 0
	}
	return j.measured / 100
}

func (r *Rig) travel(name robot.JointName, full time.Duration, dt float64) {
	j, ok := r.joints[name]
	if !ok || full <= 0 {
		return
	}
	j.target += j.output * 2 * travelLimit * dt / full.Seconds()
	j.target = min(max(j.target, -travelLimit), travelLimit)
}

// Flush writes every joint's target position.
func (r *Rig) Flush(ctx context.Context) {
	targets := make(map[int]int, len(r.joints))
	for name, j := range r.joints {
		switch name {
		case robot.LeftDrive, robot.RightDrive, robot.PickupWheels:
			j.target = j.output * travelLimit
		}
		targets[j.cal.ID] = j.toRaw(j.target)
	}
	r.noteWrite(r.io.SetPositions(ctx, targets))
}

// StopAll zeroes every output and writes the result.
func (r *Rig) StopAll(ctx context.Context) {
	for _, j := range r.joints {
		j.output = 0
	}
	r.Flush(ctx)
}

func (r *Rig) noteRead(err error) {
	switch {
	case err != nil && !r.readFailing:
		r.logger.Warnw("servo read failed, holding last positions", "error", err)
	case err == nil && r.readFailing:
		r.logger.Infow("servo reads recovered")
	}
	r.readFailing = err != nil
}

func (r *Rig) noteWrite(err error) {
	switch {
	case err != nil && !r.writeFailing:
		r.logger.Warnw("servo write failed", "error", err)
	case err == nil && r.writeFailing:
		r.logger.Infow("servo writes recovered")
	}
	r.writeFailing = err != nil
}

// Measured returns a joint's last read position in [-100, 100].
func (r *Rig) Measured(name robot.JointName) float64 {
	if j, ok := r.joints[name]; ok {
		return j.measured
	}
	return 0
}

// Actuator returns the output port for a joint.
func (r *Rig) Actuator(name robot.JointName) hal.Actuator {
	return &output{j: r.joint(name)}
}

func (r *Rig) joint(name robot.JointName) *joint {
	j, ok := r.joints[name]
	if !ok {
		// Unconfigured joints still accept commands; they are never written.
		j = &joint{}
	}
	return j
}

type output struct {
	j *joint
}

func (o *output) Set(v float64) { o.j.output = hal.Clamp(v) }
func (o *output) Stop() { o.j.output = 0 }

type encoder struct {
	ticks *float64
}

func (e encoder) Ticks() int64 { return int64(*e.ticks) }
func (e encoder) Reset() { *e.ticks = 0 }

// LeftEncoder returns the left drive encoder.
func (r *Rig) LeftEncoder() hal.Encoder { return encoder{&r.leftTicks} }

// RightEncoder returns the right drive encoder.
func (r *Rig) RightEncoder() hal.Encoder { return encoder{&r.rightTicks} }

type gyro struct {
	r *Rig
}

func (g gyro) raw() float64 {
	return (g.r.leftTicks - g.r.rightTicks) / 2 * g.r.cfg.DegreesPerTick
}

func (g gyro) Angle() float64 { return g.raw() - g.r.headingZero }
func (g gyro) Reset() { g.r.headingZero = g.raw() }

// Gyro returns the heading derived from the drive encoders.
func (r *Rig) Gyro() hal.Gyro { return gyro{r} }

// StoreSwitch asserts when the arm servo is at its stored end.
func (r *Rig) StoreSwitch() hal.LimitSwitch {
	return hal.SwitchFunc(func() bool {
		return r.Measured(robot.ArmJoint) <= -travelLimit+switchBand
	})
}

// PickupSwitch asserts when the arm servo is at its pickup end.
func (r *Rig) PickupSwitch() hal.LimitSwitch {
	return hal.SwitchFunc(func() bool {
		return r.Measured(robot.ArmJoint) >= travelLimit-switchBand
	})
}

type solenoid struct {
	on *bool
}

func (s solenoid) Set(on bool) { *s.on = on }
func (s solenoid) On() bool { return *s.on }

// Mechanisms builds the robot's mechanisms on the rig.
func (r *Rig) Mechanisms(cfg *robot.Config, logger *zap.SugaredLogger) (*robot.Drivetrain, *robot.PickupArm, *robot.Wedge) {
	if logger == nil {
		logger = r.logger
	}
	drive := robot.NewDrivetrain(robot.DrivetrainConfig{
		Left:         r.Actuator(robot.LeftDrive),
		Right:        r.Actuator(robot.RightDrive),
		LeftEncoder:  r.LeftEncoder(),
		RightEncoder: r.RightEncoder(),
		Gyro:         r.Gyro(),
		Shifter:      robot.NewShifter(solenoid{&r.shifter}),
		Calibration:  cfg.Drive,
		Clock:        r.cfg.Clock,
		Logger:       logger.Named("drive"),
	})
	arm := robot.NewPickupArm(robot.ArmConfig{
		Motor:        r.Actuator(robot.ArmJoint),
		Wheels:       r.Actuator(robot.PickupWheels),
		StoreSwitch:  r.StoreSwitch(),
		PickupSwitch: r.PickupSwitch(),
		Calibration:  cfg.Arm,
		Clock:        r.cfg.Clock,
		Logger:       logger.Named("arm"),
	})
	wedge := robot.NewWedge(r.Actuator(robot.WedgeJoint), cfg.Wedge, r.cfg.Clock, logger.Named("wedge"))
	return drive, arm, wedge
}
