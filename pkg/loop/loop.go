// Package loop drives the autonomous sequencer at a fixed rate for the length
// of the autonomous period.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/auto"
	"github.com/gwillem/frcbot/pkg/robot"
)

const (
	DefaultHz     = 50
	DefaultPeriod = 15 * time.Second
)

// State is a snapshot taken after each tick.
type State struct {
	Stage       auto.Stage
	Counters    auto.SequencerState
	Region      robot.Region
	WedgeMotion robot.WedgeMotion
	Wedge       robot.WedgePosition
	LeftFeet    float64
	RightFeet   float64
	Heading     float64
	Elapsed     time.Duration
	Timestamp   time.Time
	Error       error
}

// Config holds configuration for the controller.
type Config struct {
	Drive     *robot.Drivetrain
	Arm       *robot.PickupArm
	Wedge     *robot.Wedge
	Selection auto.Selection
	Catalog   *auto.Catalog

	Hz     int
	Period time.Duration
	Clock  clock.Clock
	Logger *zap.SugaredLogger

	// Before and After run around every tick and once more after the final
	// stop, e.g. to read and write hardware.
	Before func(ctx context.Context)
	After  func(ctx context.Context)
}

// Controller manages the autonomous control loop.
type Controller struct {
	drive  *robot.Drivetrain
	arm    *robot.PickupArm
	wedge  *robot.Wedge
	seq    *auto.Sequencer
	sel    auto.Selection
	hz     int
	period time.Duration
	clk    clock.Clock
	logger *zap.SugaredLogger
	before func(ctx context.Context)
	after  func(ctx context.Context)

	mu       sync.Mutex
	running  bool
	started  time.Time
	stateCh  chan State
	reloadCh chan *robot.Config
}

// NewController creates a new autonomous controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Drive == nil || cfg.Arm == nil || cfg.Wedge == nil {
		return nil, errors.New("drive, arm and wedge are required")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = DefaultHz
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	mech := auto.Mechanisms{Drive: cfg.Drive, Arm: cfg.Arm, Wedge: cfg.Wedge}
	return &Controller{
		drive:    cfg.Drive,
		arm:      cfg.Arm,
		wedge:    cfg.Wedge,
		seq:      auto.NewSequencer(mech, cfg.Catalog, cfg.Logger.Named("auto")),
		sel:      cfg.Selection,
		hz:       cfg.Hz,
		period:   cfg.Period,
		clk:      cfg.Clock,
		logger:   cfg.Logger,
		before:   cfg.Before,
		after:    cfg.After,
		stateCh:  make(chan State, 1),
		reloadCh: make(chan *robot.Config, 1),
	}, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Period returns the length of the autonomous period.
func (c *Controller) Period() time.Duration {
	return c.period
}

// Selection returns the routine selection being run.
func (c *Controller) Selection() auto.Selection {
	return c.sel
}

// Reload queues new calibration to be applied before the next tick. Only the
// latest queued configuration is kept.
func (c *Controller) Reload(cfg *robot.Config) {
	for {
		select {
		case c.reloadCh <- cfg:
			return
		default:
			select {
			case <-c.reloadCh:
			default:
			}
		}
	}
}

// Start runs the autonomous period. It returns nil when the period ends or
// the routines complete, and ctx.Err() if cancelled first. Actuators are
// zeroed either way.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.started = c.clk.Now()
	c.mu.Unlock()
	defer c.shutdown(ctx)

	c.seq.ResetAllCounters()
	c.logger.Infow("autonomous started", "hz", c.hz, "period", c.period, "selection", c.sel.String())
	if err := c.sel.Validate(); err != nil {
		c.logger.Warnw("selection is not runnable", "error", err)
	}

	ticker := c.clk.Ticker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.elapsed() >= c.period {
				c.logger.Infow("autonomous period over", "stage", c.seq.Stage(c.sel).String())
				return nil
			}
			if c.step(ctx) {
				return nil
			}
		}
	}
}

func (c *Controller) elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() {
		return 0
	}
	return c.clk.Since(c.started)
}

// step runs one tick and reports whether the routines are complete. A panic
// in the tick is logged and the loop carries on.
func (c *Controller) step(ctx context.Context) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("tick panicked: %v", r)
			c.logger.Errorw("tick panicked", "panic", r)
			s := c.snapshot()
			s.Error = err
			c.sendState(s)
			done = false
		}
	}()

	c.applyReload()
	if c.before != nil {
		c.before(ctx)
	}
	c.seq.Tick(c.sel)
	if c.after != nil {
		c.after(ctx)
	}
	c.sendState(c.snapshot())
	return c.seq.Done(c.sel)
}

func (c *Controller) applyReload() {
	select {
	case cfg := <-c.reloadCh:
		c.drive.SetCalibration(cfg.Drive)
		c.arm.SetCalibration(cfg.Arm)
		c.wedge.SetCalibration(cfg.Wedge)
		c.logger.Infow("calibration reloaded")
	default:
	}
}

func (c *Controller) snapshot() State {
	return State{
		Stage:       c.seq.Stage(c.sel),
		Counters:    c.seq.State(),
		Region:      c.arm.Region(),
		WedgeMotion: c.wedge.Motion(),
		Wedge:       c.wedge.Position(),
		LeftFeet:    c.drive.LeftDistance(),
		RightFeet:   c.drive.RightDistance(),
		Heading:     c.drive.Heading(),
		Elapsed:     c.elapsed(),
		Timestamp:   c.clk.Now(),
	}
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}

func (c *Controller) shutdown(ctx context.Context) {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.drive.Stop()
	c.arm.Stop()
	c.arm.StopWheels()
	c.wedge.Stop()
	if c.after != nil {
		// ctx may already be cancelled; the final write must still go out.
		c.after(context.WithoutCancel(ctx))
	}
	c.sendState(c.snapshot())
	c.logger.Infow("autonomous stopped", "counters", fmt.Sprintf("%+v", c.seq.State()))
}
