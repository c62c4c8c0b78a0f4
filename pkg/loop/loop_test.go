package loop

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/gwillem/frcbot/pkg/auto"
	"github.com/gwillem/frcbot/pkg/robot"
	"github.com/gwillem/frcbot/pkg/sim"
)

func newSimController(t *testing.T, sel auto.Selection, logger *zap.SugaredLogger) (*Controller, *sim.Robot, *clock.Mock) {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t).Sugar()
	}
	clk := clock.NewMock()
	r := sim.New(clk)
	drive, arm, wedge := r.Mechanisms(robot.DefaultConfig(), logger)
	c, err := NewController(Config{
		Drive:     drive,
		Arm:       arm,
		Wedge:     wedge,
		Selection: sel,
		Clock:     clk,
		Logger:    logger,
		Before:    func(context.Context) { r.Update() },
	})
	test.That(t, err, test.ShouldBeNil)
	return c, r, clk
}

func TestNewControllerDefaults(t *testing.T) {
	c, _, _ := newSimController(t, auto.Selection{}, nil)
	test.That(t, c.Hz(), test.ShouldEqual, DefaultHz)
	test.That(t, c.Period(), test.ShouldEqual, DefaultPeriod)

	_, err := NewController(Config{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStepSendsState(t *testing.T) {
	c, r, clk := newSimController(t, auto.Selection{Position: 1, Obstacle: auto.Moat}, nil)

	clk.Add(20 * time.Millisecond)
	test.That(t, c.step(context.Background()), test.ShouldBeFalse)
	s := <-c.States()
	test.That(t, s.Stage, test.ShouldEqual, auto.StageObstacle)
	test.That(t, s.Counters.Main, test.ShouldEqual, 1)
	test.That(t, s.Error, test.ShouldBeNil)
	test.That(t, r.Drive.Left.Value(), test.ShouldBeGreaterThan, 0.0)
}

func TestStepRecoversPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c, _, _ := newSimController(t, auto.Selection{Position: 1, Obstacle: auto.Moat}, zap.New(core).Sugar())
	c.before = func(context.Context) { panic("bus gone") }

	test.That(t, func() { c.step(context.Background()) }, test.ShouldNotPanic)
	s := <-c.States()
	test.That(t, s.Error, test.ShouldNotBeNil)
	test.That(t, s.Error.Error(), test.ShouldContainSubstring, "bus gone")
	test.That(t, logs.FilterMessage("tick panicked").Len(), test.ShouldEqual, 1)

	// The next tick runs normally.
	c.before = nil
	c.step(context.Background())
	test.That(t, (<-c.States()).Error, test.ShouldBeNil)
}

func TestReloadAppliesBetweenTicks(t *testing.T) {
	c, _, _ := newSimController(t, auto.Selection{Position: 1, Obstacle: auto.Moat}, nil)

	cfg := robot.DefaultConfig()
	cfg.Drive.SteeringBias = 0.2
	c.Reload(robot.DefaultConfig())
	c.Reload(cfg) // replaces the first
	test.That(t, c.drive.Calibration().SteeringBias, test.ShouldEqual, 0.05)

	c.step(context.Background())
	test.That(t, c.drive.Calibration().SteeringBias, test.ShouldEqual, 0.2)
}

// run starts the controller and advances the mock clock until it returns.
func run(ctx context.Context, t *testing.T, c *Controller, clk *clock.Mock, cancelAt time.Duration, cancel func()) error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	deadline := time.After(10 * time.Second)
	var advanced time.Duration
	for {
		select {
		case err := <-errCh:
			return err
		case <-deadline:
			t.Fatal("controller did not stop")
		default:
		}
		if cancel != nil && advanced >= cancelAt {
			cancel()
		}
		clk.Add(20 * time.Millisecond)
		advanced += 20 * time.Millisecond
		time.Sleep(time.Millisecond)
	}
}

func TestStartRunsUntilPeriodEnds(t *testing.T) {
	// An unknown obstacle stalls the run so only the period can end it.
	c, r, clk := newSimController(t, auto.Selection{Position: 1, Obstacle: auto.Obstacle(77)}, nil)
	r.Drive.Left.Set(0.7)

	err := run(context.Background(), t, c, clk, 0, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)

	// Not running any more, so it can start again.
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	test.That(t, running, test.ShouldBeFalse)
}

func TestStartCancelZeroesActuators(t *testing.T) {
	c, r, clk := newSimController(t, auto.Selection{Position: 1, Obstacle: auto.Moat, AttemptScore: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := run(ctx, t, c, clk, 500*time.Millisecond, cancel)
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, r.Drive.Left.Value(), test.ShouldEqual, 0.0)
	test.That(t, r.Drive.Right.Value(), test.ShouldEqual, 0.0)
	test.That(t, r.Arm.Output(), test.ShouldEqual, 0.0)
	test.That(t, r.Wedge.Motor.Value(), test.ShouldEqual, 0.0)
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(2)
	logger := sink.Logger(zapcore.InfoLevel)

	logger.Infow("step complete", "step", 2)
	logger.Debug("hidden")
	logger.Info("second")
	logger.Info("dropped")

	first := <-sink.Lines()
	test.That(t, strings.Contains(first, "step complete"), test.ShouldBeTrue)
	test.That(t, strings.Contains(first, `"step": 2`), test.ShouldBeTrue)
	test.That(t, <-sink.Lines(), test.ShouldContainSubstring, "second")
	select {
	case line := <-sink.Lines():
		t.Fatalf("unexpected line %q", line)
	default:
	}
}
