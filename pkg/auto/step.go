package auto

import (
	"fmt"
	"strings"
	"time"

	"github.com/gwillem/frcbot/pkg/robot"
)

// Drive is the part of the drivetrain the sequencer uses.
type Drive interface {
	DriveDistance(feet, speed float64) bool
	TurnGyro(degrees, speed float64) bool
	TurnEncoders(degrees, speed float64) bool
	DriveFor(speed float64, duration time.Duration) bool
	Stop()
	ResetSensors()
	SetLowGear()
}

// Arm is the part of the pickup arm the sequencer uses.
type Arm interface {
	MoveToRegion(desired robot.Region) bool
	Intake(duration time.Duration) bool
	Eject(duration time.Duration) bool
	Region() robot.Region
	Stop()
	StopWheels()
}

// Wedge is the part of the wedge the sequencer uses.
type Wedge interface {
	DeployStep() bool
	RetractStep() bool
}

// Mechanisms are what steps act on.
type Mechanisms struct {
	Drive Drive
	Arm   Arm
	Wedge Wedge
}

// Step is one stage of a routine. Run is called once per tick until it
// returns true and must never block.
type Step struct {
	Name string
	Run  func(m Mechanisms) bool
}

// Routine is an ordered list of steps.
type Routine []Step

// Names returns the step names in order.
func (r Routine) Names() []string {
	names := make([]string, len(r))
	for i, s := range r {
		names[i] = s.Name
	}
	return names
}

func DriveStep(feet, speed float64) Step {
	return Step{
		Name: fmt.Sprintf("drive %.1f ft @ %.2f", feet, speed),
		Run:  func(m Mechanisms) bool { return m.Drive.DriveDistance(feet, speed) },
	}
}

func TurnStep(degrees, speed float64) Step {
	return Step{
		Name: fmt.Sprintf("turn %.0f° @ %.2f (gyro)", degrees, speed),
		Run:  func(m Mechanisms) bool { return m.Drive.TurnGyro(degrees, speed) },
	}
}

func TurnEncodersStep(degrees, speed float64) Step {
	return Step{
		Name: fmt.Sprintf("turn %.0f° @ %.2f (encoders)", degrees, speed),
		Run:  func(m Mechanisms) bool { return m.Drive.TurnEncoders(degrees, speed) },
	}
}

func DriveForStep(speed float64, d time.Duration) Step {
	return Step{
		Name: fmt.Sprintf("drive %v @ %.2f", d, speed),
		Run:  func(m Mechanisms) bool { return m.Drive.DriveFor(speed, d) },
	}
}

func ArmStep(r robot.Region) Step {
	return Step{
		Name: "arm to " + r.String(),
		Run:  func(m Mechanisms) bool { return m.Arm.MoveToRegion(r) },
	}
}

func IntakeStep(d time.Duration) Step {
	return Step{
		Name: fmt.Sprintf("intake %v", d),
		Run:  func(m Mechanisms) bool { return m.Arm.Intake(d) },
	}
}

func EjectStep(d time.Duration) Step {
	return Step{
		Name: fmt.Sprintf("eject %v", d),
		Run:  func(m Mechanisms) bool { return m.Arm.Eject(d) },
	}
}

func DeployWedgeStep() Step {
	return Step{
		Name: "deploy wedge",
		Run:  func(m Mechanisms) bool { return m.Wedge.DeployStep() },
	}
}

func RetractWedgeStep() Step {
	return Step{
		Name: "retract wedge",
		Run:  func(m Mechanisms) bool { return m.Wedge.RetractStep() },
	}
}

const defaultStepSpeed = 0.5

// ParseRoutine builds a routine from its data form.
func ParseRoutine(specs []robot.StepSpec) (Routine, error) {
	routine := make(Routine, 0, len(specs))
	for i, spec := range specs {
		step, err := parseStep(spec)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		routine = append(routine, step)
	}
	return routine, nil
}

func parseStep(spec robot.StepSpec) (Step, error) {
	speed := spec.Speed
	if speed == 0 {
		speed = defaultStepSpeed
	}
	if speed < -1 || speed > 1 {
		return Step{}, fmt.Errorf("speed %v out of range [-1, 1]", speed)
	}
	seconds := robot.Seconds(spec.Value).Duration()

	switch strings.ToLower(spec.Action) {
	case "drive":
		return DriveStep(spec.Value, speed), nil
	case "turn":
		return TurnStep(spec.Value, speed), nil
	case "turn-encoders":
		return TurnEncodersStep(spec.Value, speed), nil
	case "drive-for":
		return DriveForStep(speed, seconds), nil
	case "arm":
		r := robot.Region(spec.Value)
		if !r.Valid() || float64(r) != spec.Value {
			return Step{}, fmt.Errorf("arm region %v out of range 0-4", spec.Value)
		}
		return ArmStep(r), nil
	case "intake":
		return IntakeStep(seconds), nil
	case "eject":
		return EjectStep(seconds), nil
	case "deploy":
		return DeployWedgeStep(), nil
	case "retract":
		return RetractWedgeStep(), nil
	default:
		return Step{}, fmt.Errorf("unknown action %q", spec.Action)
	}
}
