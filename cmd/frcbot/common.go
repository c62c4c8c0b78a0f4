package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gwillem/frcbot/pkg/auto"
	"github.com/gwillem/frcbot/pkg/loop"
	"github.com/gwillem/frcbot/pkg/robot"
)

// SelectionFlags override the stored autonomous selection.
type SelectionFlags struct {
	Position int    `short:"p" long:"position" description:"Starting position 1-5"`
	Obstacle string `short:"o" long:"obstacle" description:"Obstacle name or number"`
	Score    string `long:"score" choice:"yes" choice:"no" description:"Attempt to score"`
}

func (f SelectionFlags) apply(sel auto.Selection) (auto.Selection, error) {
	if f.Position != 0 {
		sel.Position = auto.Position(f.Position)
	}
	if f.Obstacle != "" {
		o, err := auto.ParseObstacle(f.Obstacle)
		if err != nil {
			return sel, err
		}
		sel.Obstacle = o
	}
	switch f.Score {
	case "yes":
		sel.AttemptScore = true
	case "no":
		sel.AttemptScore = false
	}
	return sel, nil
}

// loadConfig reads the configuration file, falling back to the built in
// constants when there is none.
func loadConfig(path string) (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(path)
	if errors.Is(err, fs.ErrNotExist) {
		return robot.DefaultConfig(), nil
	}
	return cfg, err
}

func logLevel() zapcore.Level {
	if opts.Verbose {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func newConsoleLogger() (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(logLevel())
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// buildCatalog applies the configured routine overrides.
func buildCatalog(cfg *robot.Config) (*auto.Catalog, error) {
	catalog := auto.DefaultCatalog()
	if err := catalog.ApplySettings(cfg.Auto); err != nil {
		return nil, fmt.Errorf("routines: %w", err)
	}
	return catalog, nil
}

// watchCalibration feeds configuration changes to ctrl until ctx is done.
func watchCalibration(ctx context.Context, path string, ctrl *loop.Controller, logger *zap.SugaredLogger) {
	go func() {
		err := robot.WatchConfig(ctx, path, logger.Named("config"), ctrl.Reload)
		if err != nil {
			logger.Warnw("calibration reload disabled", "error", err)
		}
	}()
}

// runController runs ctrl either behind the TUI or with plain console logs.
func runController(ctx context.Context, ctrl *loop.Controller, sink *loop.LogSink, title string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if sink == nil {
		err := ctrl.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Start(ctx)
	}()
	if err := runTUI(ctrl, sink, title); err != nil {
		return err
	}
	cancel()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
