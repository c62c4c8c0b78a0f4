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

func newWedge(t *testing.T) (*robot.Wedge, *sim.Robot, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	r := sim.New(clk)
	cfg := robot.DefaultConfig()
	cfg.Wedge = robot.WedgeCalibration{Speed: 0.6, DeployTime: 1, RetractTime: 2}
	_, _, wedge := r.Mechanisms(cfg, zaptest.NewLogger(t).Sugar())
	return wedge, r, clk
}

func TestWedgeDeployIsIdempotent(t *testing.T) {
	wedge, r, clk := newWedge(t)

	wedge.Deploy()
	test.That(t, wedge.Motion(), test.ShouldEqual, robot.WedgeDeploying)
	test.That(t, r.Wedge.Motor.Value(), test.ShouldEqual, 0.6)

	clk.Add(600 * time.Millisecond)
	wedge.Deploy() // must not restart the timer
	test.That(t, wedge.CheckTimer(), test.ShouldEqual, robot.WedgeDeploying)

	clk.Add(399 * time.Millisecond)
	test.That(t, wedge.CheckTimer(), test.ShouldEqual, robot.WedgeDeploying)
	test.That(t, wedge.Position(), test.ShouldEqual, robot.WedgeRetracted)

	clk.Add(time.Millisecond)
	test.That(t, wedge.CheckTimer(), test.ShouldEqual, robot.WedgeStationary)
	test.That(t, wedge.Position(), test.ShouldEqual, robot.WedgeDeployed)
	test.That(t, r.Wedge.Motor.Value(), test.ShouldEqual, 0.0)
}

func TestWedgeToggle(t *testing.T) {
	wedge, r, clk := newWedge(t)

	wedge.Toggle()
	test.That(t, wedge.Motion(), test.ShouldEqual, robot.WedgeDeploying)
	clk.Add(time.Second)
	wedge.CheckTimer()
	test.That(t, wedge.Position(), test.ShouldEqual, robot.WedgeDeployed)

	wedge.Toggle()
	test.That(t, wedge.Motion(), test.ShouldEqual, robot.WedgeRetracting)
	test.That(t, r.Wedge.Motor.Value(), test.ShouldEqual, -0.6)

	// Retract uses its own time.
	clk.Add(time.Second)
	test.That(t, wedge.CheckTimer(), test.ShouldEqual, robot.WedgeRetracting)
	clk.Add(time.Second)
	test.That(t, wedge.CheckTimer(), test.ShouldEqual, robot.WedgeStationary)
	test.That(t, wedge.Position(), test.ShouldEqual, robot.WedgeRetracted)

	// Toggling mid-move reverses it.
	wedge.Toggle()
	clk.Add(500 * time.Millisecond)
	wedge.Toggle()
	test.That(t, wedge.Motion(), test.ShouldEqual, robot.WedgeRetracting)
	clk.Add(1999 * time.Millisecond)
	test.That(t, wedge.CheckTimer(), test.ShouldEqual, robot.WedgeRetracting)
}

func TestWedgeSteps(t *testing.T) {
	wedge, _, clk := newWedge(t)

	test.That(t, wedge.RetractStep(), test.ShouldBeTrue)

	test.That(t, wedge.DeployStep(), test.ShouldBeFalse)
	clk.Add(500 * time.Millisecond)
	test.That(t, wedge.DeployStep(), test.ShouldBeFalse)
	clk.Add(500 * time.Millisecond)
	test.That(t, wedge.DeployStep(), test.ShouldBeTrue)
	test.That(t, wedge.DeployStep(), test.ShouldBeTrue)

	wedge.Stop()
	test.That(t, wedge.Motion(), test.ShouldEqual, robot.WedgeStationary)
	test.That(t, wedge.Position(), test.ShouldEqual, robot.WedgeDeployed)
}
