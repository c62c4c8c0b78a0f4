// Package hal defines the narrow device interfaces the robot code talks to.
//
// Implementations live elsewhere: pkg/sim for the simulator and pkg/rig for the
// Feetech bench rig. None of the methods return errors; an implementation that
// talks to real hardware logs its own I/O failures and keeps the last good value
// so a control tick is never interrupted.
package hal

// Actuator is a motor controller or other proportional output.
type Actuator interface {
	// Set commands an output in the range [-1, 1].
	Set(value float64)
	Stop()
}

// Encoder is a quadrature wheel encoder.
type Encoder interface {
	// Ticks returns the signed tick count since the last Reset.
	Ticks() int64
	Reset()
}

// Gyro reports heading in degrees, positive clockwise.
type Gyro interface {
	Angle() float64
	Reset()
}

// LimitSwitch is a boolean end-of-travel sensor.
type LimitSwitch interface {
	Asserted() bool
}

// SwitchFunc adapts a function to a LimitSwitch.
type SwitchFunc func() bool

// Asserted calls f.
func (f SwitchFunc) Asserted() bool {
	return f()
}

// Solenoid is a single-acting pneumatic valve.
type Solenoid interface {
	Set(on bool)
	On() bool
}

// Clamp limits v to [-1, 1].
func Clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Inverted wraps an actuator whose positive direction is mounted backwards.
type Inverted struct {
	Actuator
}

// Set commands the negated value.
func (i Inverted) Set(value float64) {
	i.Actuator.Set(-value)
}

// Group drives several actuators with the same command.
type Group []Actuator

// Set commands every member.
func (g Group) Set(value float64) {
	for _, a := range g {
		a.Set(value)
	}
}

// Stop stops every member.
func (g Group) Stop() {
	for _, a := range g {
		a.Stop()
	}
}
