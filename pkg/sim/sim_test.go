package sim

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestDriveAdvance(t *testing.T) {
	clk := clock.NewMock()
	r := New(clk)

	r.Drive.Left.Set(1)
	r.Drive.Right.Set(-1)
	clk.Add(time.Second)
	r.Update()

	test.That(t, r.Drive.LeftEncoder.Ticks(), test.ShouldEqual, int64(60000))
	test.That(t, r.Drive.RightEncoder.Ticks(), test.ShouldEqual, int64(-60000))
	test.That(t, r.Drive.Gyro.Angle(), test.ShouldEqual, 450.0)

	// No time passed, nothing moves.
	r.Update()
	test.That(t, r.Drive.LeftEncoder.Ticks(), test.ShouldEqual, int64(60000))
}

func TestArmSwitches(t *testing.T) {
	clk := clock.NewMock()
	r := New(clk)
	store, pickup := r.Arm.StoreSwitch(), r.Arm.PickupSwitch()

	test.That(t, store.Asserted(), test.ShouldBeTrue)
	test.That(t, pickup.Asserted(), test.ShouldBeFalse)

	r.Arm.Actuator().Set(1)
	clk.Add(600 * time.Millisecond)
	r.Update()
	test.That(t, r.Arm.Position, test.ShouldAlmostEqual, 0.5)
	test.That(t, store.Asserted(), test.ShouldBeFalse)

	r.Arm.Jammed = true
	clk.Add(time.Second)
	r.Update()
	test.That(t, r.Arm.Position, test.ShouldAlmostEqual, 0.5)

	r.Arm.Jammed = false
	clk.Add(time.Second)
	r.Update()
	test.That(t, r.Arm.Position, test.ShouldEqual, 1.0)
	test.That(t, pickup.Asserted(), test.ShouldBeTrue)
}
