package rig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/gwillem/frcbot/pkg/robot"
)

// fakeIO is a bus whose servos reach every target before the next read.
type fakeIO struct {
	pos        map[int]int
	readErr    error
	enabled    bool
	closeErr   error
	disableErr error
}

func newFakeIO() *fakeIO {
	return &fakeIO{pos: make(map[int]int)}
}

func (f *fakeIO) Positions(context.Context) (map[int]int, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make(map[int]int, len(f.pos))
	for id, p := range f.pos {
		out[id] = p
	}
	return out, nil
}

func (f *fakeIO) SetPositions(_ context.Context, raw map[int]int) error {
	for id, p := range raw {
		f.pos[id] = p
	}
	return nil
}

func (f *fakeIO) EnableAll(context.Context) error { f.enabled = true; return nil }
func (f *fakeIO) DisableAll(context.Context) error { f.enabled = false; return f.disableErr }
func (f *fakeIO) Close() error { return f.closeErr }

func newTestRig(t *testing.T, logger *zap.SugaredLogger) (*Rig, *fakeIO, *clock.Mock) {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t).Sugar()
	}
	clk := clock.NewMock()
	io := newFakeIO()
	r := newRig(io, Config{Clock: clk, Logger: logger})
	r.Flush(context.Background())
	return r, io, clk
}

func TestRigArmRegions(t *testing.T) {
	r, _, clk := newTestRig(t, nil)
	ctx := context.Background()
	_, arm, _ := r.Mechanisms(robot.DefaultConfig(), nil)

	var seen []robot.Region
	done := false
	for i := 0; i < 500 && !done; i++ {
		clk.Add(20 * time.Millisecond)
		r.Refresh(ctx)
		done = arm.MoveToRegion(robot.RegionPickup)
		r.Flush(ctx)
		if len(seen) == 0 || seen[len(seen)-1] != arm.Region() {
			seen = append(seen, arm.Region())
		}
	}
	test.That(t, done, test.ShouldBeTrue)
	test.That(t, seen, test.ShouldResemble, []robot.Region{
		robot.RegionStore,
		robot.RegionStoreApproach,
		robot.RegionApproach,
		robot.RegionApproachPickup,
		robot.RegionPickup,
	})
	test.That(t, r.Measured(robot.ArmJoint), test.ShouldBeGreaterThanOrEqualTo, travelLimit-switchBand)
}

func TestRigEncodersAndGyro(t *testing.T) {
	r, _, clk := newTestRig(t, nil)
	ctx := context.Background()

	r.Actuator(robot.LeftDrive).Set(0.5)
	r.Flush(ctx)
	r.Refresh(ctx) // picks up the deflection at dt == 0
	clk.Add(time.Second)
	r.Refresh(ctx)

	// 47.5% deflection for one second at 20000 ticks/s.
	test.That(t, float64(r.LeftEncoder().Ticks()), test.ShouldAlmostEqual, 9500.0, 20)
	test.That(t, r.RightEncoder().Ticks(), test.ShouldEqual, int64(0))
	test.That(t, r.Gyro().Angle(), test.ShouldAlmostEqual, 9500.0/2*0.0075, 0.1)

	r.Gyro().Reset()
	test.That(t, r.Gyro().Angle(), test.ShouldEqual, 0.0)
	r.LeftEncoder().Reset()
	test.That(t, r.LeftEncoder().Ticks(), test.ShouldEqual, int64(0))
}

func TestRigInvertedJoint(t *testing.T) {
	cal := robot.DefaultRigCalibration()
	left := cal[robot.LeftDrive]
	left.DriveMode = 1
	cal[robot.LeftDrive] = left

	io := newFakeIO()
	r := newRig(io, Config{Calibration: cal, Clock: clock.NewMock()})
	r.Actuator(robot.LeftDrive).Set(1)
	r.Flush(context.Background())

	test.That(t, io.pos[left.ID], test.ShouldEqual, left.Denormalize(-travelLimit))
	r.Refresh(context.Background())
	test.That(t, r.Measured(robot.LeftDrive), test.ShouldAlmostEqual, travelLimit, 0.1)
}

func TestRigReadFailureHoldsPositions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r, io, clk := newTestRig(t, zap.New(core).Sugar())
	ctx := context.Background()

	r.Actuator(robot.RightDrive).Set(-1)
	r.Flush(ctx)
	r.Refresh(ctx)
	before := r.Measured(robot.RightDrive)

	io.readErr = errors.New("timeout")
	for i := 0; i < 5; i++ {
		clk.Add(20 * time.Millisecond)
		r.Refresh(ctx)
	}
	test.That(t, r.Measured(robot.RightDrive), test.ShouldEqual, before)
	test.That(t, r.RightEncoder().Ticks(), test.ShouldBeLessThan, int64(0))
	test.That(t, logs.FilterMessage("servo read failed, holding last positions").Len(), test.ShouldEqual, 1)

	io.readErr = nil
	r.Refresh(ctx)
	test.That(t, logs.FilterMessage("servo reads recovered").Len(), test.ShouldEqual, 1)
}

func TestRigStopAllAndClose(t *testing.T) {
	r, io, _ := newTestRig(t, nil)
	ctx := context.Background()

	test.That(t, r.Enable(ctx), test.ShouldBeNil)
	test.That(t, io.enabled, test.ShouldBeTrue)

	r.Actuator(robot.PickupWheels).Set(1)
	r.Flush(ctx)
	wheels := robot.DefaultRigCalibration()[robot.PickupWheels]
	test.That(t, io.pos[wheels.ID], test.ShouldEqual, wheels.Denormalize(travelLimit))

	r.StopAll(ctx)
	test.That(t, io.pos[wheels.ID], test.ShouldEqual, wheels.Denormalize(0))

	io.disableErr = errors.New("disable")
	io.closeErr = errors.New("close")
	err := r.Close()
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)
	test.That(t, io.enabled, test.ShouldBeFalse)
}

func TestIsRig(t *testing.T) {
	servos := []feetech.FoundServo{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}
	test.That(t, IsRig(servos), test.ShouldBeTrue)
	test.That(t, IsRig(servos[:4]), test.ShouldBeFalse)
	test.That(t, IsRig(append(servos[:4:4], feetech.FoundServo{ID: 9})), test.ShouldBeFalse)
}
