package robot_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/gwillem/frcbot/pkg/robot"
	"github.com/gwillem/frcbot/pkg/sim"
)

func newDrive(t *testing.T, cal robot.DriveCalibration) (*robot.Drivetrain, *sim.Robot, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	r := sim.New(clk)
	cfg := robot.DefaultConfig()
	cfg.Drive = cal
	drive, _, _ := r.Mechanisms(cfg, zaptest.NewLogger(t).Sugar())
	return drive, r, clk
}

func simpleCal() robot.DriveCalibration {
	return robot.DriveCalibration{
		LeftFeetPerTick:              0.01,
		RightFeetPerTick:             0.01,
		LeftDegreesPerTickRightTurn:  0.1,
		LeftDegreesPerTickLeftTurn:   0.1,
		RightDegreesPerTickRightTurn: 0.1,
		RightDegreesPerTickLeftTurn:  0.1,
	}
}

func TestDriveDistanceConverges(t *testing.T) {
	for _, feet := range []float64{3, -2.5, 0.37} {
		drive, r, _ := newDrive(t, simpleCal())

		transitions := 0
		last := false
		for i := 0; i < 1000; i++ {
			reached := drive.DriveDistance(feet, 0.6)
			if reached && !last {
				transitions++
			}
			test.That(t, !last || reached, test.ShouldBeTrue)
			last = reached
			if reached {
				continue
			}
			// Each side moves 0.1 ft toward the target per call.
			step := 10.0
			if feet < 0 {
				step = -step
			}
			r.Drive.LeftEncoder.Add(step)
			r.Drive.RightEncoder.Add(step)
		}
		test.That(t, transitions, test.ShouldEqual, 1)
		test.That(t, last, test.ShouldBeTrue)
		test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)
		test.That(t, r.Drive.Right.Value(), test.ShouldEqual, 0.0)
	}
}

func TestDriveDistanceZero(t *testing.T) {
	drive, r, _ := newDrive(t, simpleCal())
	test.That(t, drive.DriveDistance(0, 0.8), test.ShouldBeTrue)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)
	test.That(t, r.Drive.Right.Value(), test.ShouldEqual, 0.0)
}

func TestDriveDistanceNeedsBothWheels(t *testing.T) {
	drive, r, _ := newDrive(t, simpleCal())

	r.Drive.LeftEncoder.Add(500) // 5 ft
	r.Drive.RightEncoder.Add(299)
	test.That(t, drive.DriveDistance(3, 0.5), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldBeGreaterThan, 0.0)

	r.Drive.RightEncoder.Add(1)
	test.That(t, drive.DriveDistance(3, 0.5), test.ShouldBeTrue)
}

func TestDriveDistanceDirection(t *testing.T) {
	cal := simpleCal()
	cal.SteeringBias = 0.1
	drive, r, _ := newDrive(t, cal)

	test.That(t, drive.DriveDistance(4, -0.5), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldAlmostEqual, 0.6)
	test.That(t, r.Drive.Right.Value(), test.ShouldAlmostEqual, 0.4)

	test.That(t, drive.DriveDistance(-4, 0.5), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldAlmostEqual, -0.6)
	test.That(t, r.Drive.Right.Value(), test.ShouldAlmostEqual, -0.4)
}

func TestHeadingHold(t *testing.T) {
	cal := simpleCal()
	cal.HeadingKp = 0.05
	drive, r, clk := newDrive(t, cal)

	test.That(t, drive.DriveDistance(10, 0.5), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, r.Drive.Right.Value())

	// Drifted clockwise: the correction must steer back counter-clockwise.
	r.Drive.Gyro.Add(5)
	clk.Add(20 * time.Millisecond)
	test.That(t, drive.DriveDistance(10, 0.5), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldBeLessThan, r.Drive.Right.Value())
}

func TestTurnGyro(t *testing.T) {
	drive, r, _ := newDrive(t, simpleCal())

	test.That(t, drive.TurnGyro(0, 0.5), test.ShouldBeTrue)

	test.That(t, drive.TurnGyro(90, 0.5), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.5)
	test.That(t, r.Drive.Right.Value(), test.ShouldEqual, -0.5)

	r.Drive.Gyro.Add(89.5)
	test.That(t, drive.TurnGyro(90, 0.5), test.ShouldBeFalse)
	r.Drive.Gyro.Add(0.5)
	test.That(t, drive.TurnGyro(90, 0.5), test.ShouldBeTrue)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)

	drive.ResetSensors()
	test.That(t, drive.TurnGyro(-45, 0.4), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, -0.4)
	test.That(t, r.Drive.Right.Value(), test.ShouldEqual, 0.4)
	r.Drive.Gyro.Add(-46)
	test.That(t, drive.TurnGyro(-45, 0.4), test.ShouldBeTrue)
}

func TestTurnEncodersUsesDirectionalConstants(t *testing.T) {
	cal := simpleCal()
	cal.LeftDegreesPerTickRightTurn = 0.2
	cal.RightDegreesPerTickRightTurn = 0.1
	drive, r, _ := newDrive(t, cal)

	test.That(t, drive.TurnEncoders(0, 0.5), test.ShouldBeTrue)

	// 90 degrees right: left needs 450 ticks forward, right 900 backward.
	r.Drive.LeftEncoder.Add(450)
	r.Drive.RightEncoder.Add(-899)
	test.That(t, drive.TurnEncoders(90, 0.5), test.ShouldBeFalse)
	r.Drive.RightEncoder.Add(-1)
	test.That(t, drive.TurnEncoders(90, 0.5), test.ShouldBeTrue)

	drive.ResetSensors()
	r.Drive.LeftEncoder.Add(-310)
	r.Drive.RightEncoder.Add(310)
	test.That(t, drive.TurnEncoders(-30, 0.5), test.ShouldBeTrue)
}

func TestDriveFor(t *testing.T) {
	drive, r, clk := newDrive(t, simpleCal())

	test.That(t, drive.DriveFor(0.7, time.Second), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.7)

	clk.Add(999 * time.Millisecond)
	test.That(t, drive.DriveFor(0.7, time.Second), test.ShouldBeFalse)
	clk.Add(time.Millisecond)
	test.That(t, drive.DriveFor(0.7, time.Second), test.ShouldBeTrue)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)

	test.That(t, drive.DriveFor(0.7, 0), test.ShouldBeTrue)
}

func TestDriveForSteeringBias(t *testing.T) {
	cal := simpleCal()
	cal.SteeringBias = 0.1
	drive, r, _ := newDrive(t, cal)

	// Zero speed holds still rather than turning on the bias.
	test.That(t, drive.DriveFor(0, time.Second), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)
	test.That(t, r.Drive.Right.Value(), test.ShouldEqual, 0.0)

	test.That(t, drive.DriveFor(-0.5, time.Second), test.ShouldBeFalse)
	test.That(t, r.Drive.Left.Value(), test.ShouldAlmostEqual, -0.6)
	test.That(t, r.Drive.Right.Value(), test.ShouldAlmostEqual, -0.4)
}

func TestArcadeDriveNormalizes(t *testing.T) {
	drive, r, _ := newDrive(t, simpleCal())

	drive.ArcadeDrive(1, 0.5)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 1.0)
	test.That(t, r.Drive.Right.Value(), test.ShouldAlmostEqual, 0.5/1.5)

	drive.Stop()
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)
	test.That(t, r.Drive.Right.Value(), test.ShouldEqual, 0.0)
}

func TestShifter(t *testing.T) {
	drive, r, _ := newDrive(t, simpleCal())
	drive.SetHighGear()
	test.That(t, r.Shifter.On(), test.ShouldBeTrue)
	drive.SetLowGear()
	test.That(t, r.Shifter.On(), test.ShouldBeFalse)
}

func TestSimulatedDriveReachesTarget(t *testing.T) {
	drive, r, clk := newDrive(t, robot.DefaultConfig().Drive)

	done := false
	for i := 0; i < 500 && !done; i++ {
		clk.Add(20 * time.Millisecond)
		r.Update()
		done = drive.DriveDistance(6, 0.5)
	}
	test.That(t, done, test.ShouldBeTrue)
	test.That(t, drive.LeftDistance(), test.ShouldBeGreaterThanOrEqualTo, 6.0)
	test.That(t, drive.RightDistance(), test.ShouldBeGreaterThanOrEqualTo, 6.0)
}
