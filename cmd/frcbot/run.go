package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/auto"
	"github.com/gwillem/frcbot/pkg/loop"
	"github.com/gwillem/frcbot/pkg/rig"
)

type RunCommand struct {
	SelectionFlags

	Hz       int           `long:"hz" description:"Control loop frequency (default from config, else 50)"`
	Period   time.Duration `long:"period" default:"15s" description:"Length of the autonomous period"`
	Headless bool          `long:"headless" description:"Log to the console instead of showing the TUI"`
	Port     string        `long:"port" description:"Serial port (default from config)"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	port := c.Port
	if port == "" {
		port = cfg.Rig.Port
	}
	if port == "" {
		return errors.New("no rig port configured, run 'frcbot setup' first")
	}
	if !cfg.Rig.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Rig not calibrated, using the full servo range. Run 'frcbot setup' to calibrate.")
	}

	sel, err := c.apply(auto.SelectionFromSettings(cfg.Auto))
	if err != nil {
		return err
	}
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("selection: %w", err)
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

	bench, err := rig.Open(rig.Config{
		Port:        port,
		Calibration: cfg.Rig.Calibration,
		Logger:      logger.Named("rig"),
	})
	if err != nil {
		return fmt.Errorf("open rig: %w", err)
	}
	defer func() {
		if err := bench.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing rig: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := bench.Enable(ctx); err != nil {
		return fmt.Errorf("enable torque: %w", err)
	}
	// Read once so the arm estimate starts from the real position.
	bench.Refresh(ctx)

	drive, arm, wedge := bench.Mechanisms(cfg, logger)
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
		Logger:    logger,
		Before:    bench.Refresh,
		After:     bench.Flush,
	})
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}
	watchCalibration(ctx, opts.Config, ctrl, logger)

	return runController(ctx, ctrl, sink, "frcbot run")
}
