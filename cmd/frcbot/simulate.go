package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/auto"
	"github.com/gwillem/frcbot/pkg/loop"
	"github.com/gwillem/frcbot/pkg/sim"
)

type SimulateCommand struct {
	SelectionFlags

	Hz        int           `long:"hz" description:"Control loop frequency (default from config, else 50)"`
	Period    time.Duration `long:"period" default:"15s" description:"Length of the autonomous period"`
	Headless  bool          `long:"headless" description:"Log to the console instead of showing the TUI"`
	RightSlip float64       `long:"right-slip" default:"1" description:"Right side travel relative to the left"`
	JamArm    bool          `long:"jam-arm" description:"Freeze the simulated arm to watch the estimator hold"`
}

func (c *SimulateCommand) Execute(args []string) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	sel, err := c.apply(auto.SelectionFromSettings(cfg.Auto))
	if err != nil {
		return err
	}
	catalog, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	var logger *zap.SugaredLogger
	var sink *loop.LogSink
	if c.Headless {
		if logger, err = newConsoleLogger(); err != nil {
			return err
		}
		defer logger.Sync()
	} else {
		sink = loop.NewLogSink(32)
		logger = sink.Logger(logLevel())
	}

	r := sim.New(clock.New())
	r.Drive.RightSlip = c.RightSlip
	r.Arm.Jammed = c.JamArm
	drive, arm, wedge := r.Mechanisms(cfg, logger)

	hz := c.Hz
	if hz == 0 {
		hz = cfg.Auto.Hz
	}
	ctrl, err := loop.NewController(loop.Config{
		Drive:     drive,
		Arm:       arm,
		Wedge:     wedge,
		Selection: sel,
		Catalog:   catalog,
		Hz:        hz,
		Period:    c.Period,
		Clock:     r.Clock(),
		Logger:    logger,
		Before:    func(context.Context) { r.Update() },
	})
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	watchCalibration(ctx, opts.Config, ctrl, logger)

	return runController(ctx, ctrl, sink, "frcbot simulate")
}
