package rig

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gwillem/frcbot/pkg/robot"
)

// servoIO is the servo bus traffic the rig needs once per tick.
type servoIO interface {
	Positions(ctx context.Context) (map[int]int, error)
	SetPositions(ctx context.Context, raw map[int]int) error
	EnableAll(ctx context.Context) error
	DisableAll(ctx context.Context) error
	Close() error
}

// feetechIO talks to the rig's STS servos with sync read and sync write.
type feetechIO struct {
	bus   *feetech.Bus
	group *feetech.ServoGroup
}

func openBus(port string, timeout time.Duration) (*feetech.Bus, error) {
	return feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  timeout,
	})
}

func newFeetechIO(port string, cal robot.Calibration) (*feetechIO, error) {
	bus, err := openBus(port, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	return &feetechIO{
		bus:   bus,
		group: feetech.NewServoGroupByIDs(bus, cal.JointIDs()...),
	}, nil
}

func (f *feetechIO) Positions(ctx context.Context) (map[int]int, error) {
	raw, err := f.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	positions := make(map[int]int, len(raw))
	for id, pos := range raw {
		positions[id] = pos
	}
	return positions, nil
}

func (f *feetechIO) SetPositions(ctx context.Context, raw map[int]int) error {
	targets := make(feetech.PositionMap, len(raw))
	for id, pos := range raw {
		targets[id] = pos
	}
	if err := f.group.SetPositions(ctx, targets); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

func (f *feetechIO) EnableAll(ctx context.Context) error {
	return f.group.EnableAll(ctx)
}

func (f *feetechIO) DisableAll(ctx context.Context) error {
	return f.group.DisableAll(ctx)
}

func (f *feetechIO) Close() error {
	return f.bus.Close()
}

// Found is a serial port with a complete rig on it.
type Found struct {
	Port   string
	Servos []feetech.FoundServo
}

// Scan probes every serial port for a bus carrying servo IDs 1-5.
func Scan(ctx context.Context, logger *zap.SugaredLogger) ([]Found, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}

	var found []Found
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		servos, err := probe(ctx, port)
		if err != nil {
			logger.Debugw("no rig", "port", port, "error", err)
			continue
		}
		if !IsRig(servos) {
			logger.Debugw("servos do not form a rig", "port", port, "count", len(servos))
			continue
		}
		logger.Infow("found rig", "port", port)
		found = append(found, Found{Port: port, Servos: servos})
	}
	return found, nil
}

func probe(ctx context.Context, port string) (servos []feetech.FoundServo, err error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	bus, err := openBus(port, 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, bus.Close()) }()

	return bus.Scan(ctx, 1, len(robot.AllJoints()))
}

// IsRig reports whether servos has exactly one servo per joint ID.
func IsRig(servos []feetech.FoundServo) bool {
	joints := len(robot.AllJoints())
	if len(servos) != joints {
		return false
	}
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= joints; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}
