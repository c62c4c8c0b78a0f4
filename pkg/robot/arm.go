package robot

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/hal"
)

// Region is the pickup arm's estimated position, ordered from stored to
// pickup.
type Region int

const (
	RegionStore Region = iota
	RegionStoreApproach
	RegionApproach
	RegionApproachPickup
	RegionPickup
)

var regionNames = [...]string{"store", "store-approach", "approach", "approach-pickup", "pickup"}

func (r Region) String() string {
	if r < RegionStore || r > RegionPickup {
		return fmt.Sprintf("region(%d)", int(r))
	}
	return regionNames[r]
}

// Valid reports whether r is one of the five regions.
func (r Region) Valid() bool {
	return r >= RegionStore && r <= RegionPickup
}

// Direction is the last commanded arm motion. Forward moves toward pickup.
type Direction int

const (
	Stopped Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "stopped"
	}
}

// ArmConfig wires a PickupArm to its devices.
type ArmConfig struct {
	Motor        hal.Actuator
	Wheels       hal.Actuator
	StoreSwitch  hal.LimitSwitch
	PickupSwitch hal.LimitSwitch
	Calibration  ArmCalibration
	Clock        clock.Clock
	Logger       *zap.SugaredLogger
}

// PickupArm is the ball pickup arm. Only the two ends of its travel have limit
// switches; the approach region and the two transitional regions are inferred
// from the last commanded direction and calibrated transit times.
type PickupArm struct {
	motor        hal.Actuator
	storeSwitch  hal.LimitSwitch
	pickupSwitch hal.LimitSwitch
	cal          ArmCalibration
	logger       *zap.SugaredLogger

	wheels *TimedSpin

	region    Region
	confirmed Region
	direction Direction

	// transit is the time spent moving toward approach since leaving an end.
	transit    *hal.StopwatchTimer
	fromStore  bool
	fromPickup bool
}

// NewPickupArm creates an arm that starts out stored.
func NewPickupArm(cfg ArmConfig) *PickupArm {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &PickupArm{
		motor:        cfg.Motor,
		storeSwitch:  cfg.StoreSwitch,
		pickupSwitch: cfg.PickupSwitch,
		cal:          cfg.Calibration,
		logger:       cfg.Logger,
		wheels:       NewTimedSpin(cfg.Wheels, hal.NewTimer(cfg.Clock)),
		transit:      hal.NewTimer(cfg.Clock),
	}
}

// SetCalibration replaces the arm constants.
func (a *PickupArm) SetCalibration(cal ArmCalibration) {
	a.cal = cal
}

// Region returns the current estimate without re-evaluating it.
func (a *PickupArm) Region() Region {
	return a.region
}

// Direction returns the last commanded direction.
func (a *PickupArm) Direction() Direction {
	return a.direction
}

// Update re-evaluates the region estimate and returns it. Switches are
// authoritative; otherwise the estimate is inferred from timing and direction
// and moves at most one region per call. With nothing to go on the previous
// estimate is held.
func (a *PickupArm) Update() Region {
	next := a.estimate()
	if next != a.region {
		a.logger.Debugw("arm region", "from", a.region, "to", next, "direction", a.direction)
	}
	a.region = next
	return next
}

func (a *PickupArm) estimate() Region {
	switch {
	case a.storeSwitch.Asserted():
		a.confirm(RegionStore)
		return RegionStore
	case a.pickupSwitch.Asserted():
		a.confirm(RegionPickup)
		return RegionPickup
	}

	// Leaving an end starts the transit clock.
	if !a.fromStore && !a.fromPickup {
		switch a.confirmed {
		case RegionStore:
			a.beginTransit(&a.fromStore)
		case RegionPickup:
			a.beginTransit(&a.fromPickup)
		}
	}
	a.runTransitClock()

	switch {
	case a.fromStore && a.transit.Elapsed() >= a.cal.StoreToApproach.Duration():
		a.confirm(RegionApproach)
		return a.step(RegionApproach)
	case a.fromPickup && a.transit.Elapsed() >= a.cal.PickupToApproach.Duration():
		a.confirm(RegionApproach)
		return a.step(RegionApproach)
	case a.fromStore:
		return a.step(RegionStoreApproach)
	case a.fromPickup:
		return a.step(RegionApproachPickup)
	case a.confirmed == RegionApproach:
		switch a.direction {
		case Backward:
			return a.step(RegionStoreApproach)
		case Forward:
			return a.step(RegionApproachPickup)
		}
	}
	return a.region
}

// step moves the estimate one region toward target.
func (a *PickupArm) step(target Region) Region {
	switch {
	case target > a.region+1:
		return a.region + 1
	case target < a.region-1:
		return a.region - 1
	default:
		return target
	}
}

func (a *PickupArm) confirm(r Region) {
	a.confirmed = r
	a.fromStore = false
	a.fromPickup = false
	a.transit.Stop()
	a.transit.Reset()
}

func (a *PickupArm) beginTransit(flag *bool) {
	*flag = true
	a.transit.Stop()
	a.transit.Reset()
}

// runTransitClock counts transit time only while the arm is being driven
// toward approach.
func (a *PickupArm) runTransitClock() {
	towardApproach := (a.fromStore && a.direction == Forward) ||
		(a.fromPickup && a.direction == Backward)
	if towardApproach {
		a.transit.Start()
	} else {
		a.transit.Stop()
	}
}

// Drive commands the arm motor directly, honoring the end-of-travel interlock.
func (a *PickupArm) Drive(speed float64) {
	switch {
	case speed > 0 && a.pickupSwitch.Asserted(), speed < 0 && a.storeSwitch.Asserted():
		a.Stop()
		return
	case speed > 0:
		a.direction = Forward
	case speed < 0:
		a.direction = Backward
	default:
		a.Stop()
		return
	}
	a.motor.Set(hal.Clamp(speed))
}

// Stop stops the arm motor.
func (a *PickupArm) Stop() {
	a.motor.Stop()
	a.direction = Stopped
}

// MoveToRegion drives the arm toward desired and reports whether the estimate
// has reached it.
func (a *PickupArm) MoveToRegion(desired Region) bool {
	current := a.Update()
	switch {
	case current < desired:
		a.Drive(a.cal.Speed)
	case current > desired:
		a.Drive(-a.cal.Speed)
	default:
		a.Stop()
		return true
	}
	return false
}

// SpinWheels runs the pickup wheels for duration. Positive speed pulls a ball
// in, negative ejects it.
func (a *PickupArm) SpinWheels(speed float64, duration time.Duration) bool {
	return a.wheels.Run(speed, duration)
}

// Intake runs the wheels inward at the calibrated speed for duration.
func (a *PickupArm) Intake(duration time.Duration) bool {
	return a.SpinWheels(a.cal.WheelSpeed, duration)
}

// Eject runs the wheels outward at the calibrated speed for duration.
func (a *PickupArm) Eject(duration time.Duration) bool {
	return a.SpinWheels(-a.cal.WheelSpeed, duration)
}

// StopWheels cancels any wheel spin.
func (a *PickupArm) StopWheels() {
	a.wheels.Cancel()
}
