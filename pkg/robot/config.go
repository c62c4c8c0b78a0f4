package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
)

const DefaultConfigFile = "frcbot.json"

// Config holds the robot configuration
type Config struct {
	Auto  AutoSettings     `json:"auto"`
	Drive DriveCalibration `json:"drive"`
	Arm   ArmCalibration   `json:"arm"`
	Wedge WedgeCalibration `json:"wedge"`
	Rig   RigConfig        `json:"rig,omitempty"`
}

// AutoSettings is the autonomous selection as entered by the drive team.
type AutoSettings struct {
	Position     int  `json:"position"`
	Obstacle     int  `json:"obstacle"`
	AttemptScore bool `json:"attempt_score"`

	// Hz is the control loop rate. Zero uses the loop default.
	Hz int `json:"hz,omitempty"`

	// Routines replaces catalog routines by name ("low-bar", "goal-3", "score").
	Routines map[string][]StepSpec `json:"routines,omitempty"`
}

// StepSpec is one autonomous step written as data, e.g.
//
//	{"action": "drive", "value": 5, "speed": 0.6}
//
// Value is feet for drive, degrees for turn and turn-encoders, seconds for
// drive-for, intake and eject, and a region number for arm.
type StepSpec struct {
	Action string  `json:"action"`
	Value  float64 `json:"value,omitempty"`
	Speed  float64 `json:"speed,omitempty"`
}

// DriveCalibration holds drivetrain constants.
type DriveCalibration struct {
	LeftFeetPerTick  float64 `json:"left_feet_per_tick"`
	RightFeetPerTick float64 `json:"right_feet_per_tick"`

	// Degrees of robot rotation per encoder tick, measured separately for each
	// wheel and turn direction because of gearbox backlash.
	LeftDegreesPerTickRightTurn  float64 `json:"left_degrees_per_tick_right_turn"`
	LeftDegreesPerTickLeftTurn   float64 `json:"left_degrees_per_tick_left_turn"`
	RightDegreesPerTickRightTurn float64 `json:"right_degrees_per_tick_right_turn"`
	RightDegreesPerTickLeftTurn  float64 `json:"right_degrees_per_tick_left_turn"`

	// SteeringBias is the rotate value added while driving forward to cancel
	// the drivetrain's natural curve.
	SteeringBias float64 `json:"steering_bias"`

	// Heading hold gains. All zero disables heading hold.
	HeadingKp float64 `json:"heading_kp,omitempty"`
	HeadingKi float64 `json:"heading_ki,omitempty"`
	HeadingKd float64 `json:"heading_kd,omitempty"`
}

// ArmCalibration holds pickup arm constants.
type ArmCalibration struct {
	Speed      float64 `json:"speed"`
	WheelSpeed float64 `json:"wheel_speed"`

	// Transit times through the unsensed middle of the arm's travel.
	StoreToApproach  Seconds `json:"store_to_approach_sec"`
	PickupToApproach Seconds `json:"pickup_to_approach_sec"`
}

// WedgeCalibration holds wedge constants.
type WedgeCalibration struct {
	Speed       float64 `json:"speed"`
	DeployTime  Seconds `json:"deploy_sec"`
	RetractTime Seconds `json:"retract_sec"`
}

// RigConfig holds configuration for the Feetech bench rig
type RigConfig struct {
	Port        string      `json:"port"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// IsCalibrated returns true if the rig has calibration data
func (r *RigConfig) IsCalibrated() bool {
	return len(r.Calibration) > 0
}

// Seconds is a duration stored as floating point seconds.
type Seconds float64

// Duration converts to a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// DefaultConfig returns the competition robot's measured constants.
func DefaultConfig() *Config {
	return &Config{
		Auto: AutoSettings{Position: 1, Obstacle: 1},
		Drive: DriveCalibration{
			LeftFeetPerTick:              0.000114220445460,
			RightFeetPerTick:             0.000113327289211,
			LeftDegreesPerTickRightTurn:  0.007936022752788,
			LeftDegreesPerTickLeftTurn:   0.0075,
			RightDegreesPerTickRightTurn: 0.007091687581379,
			RightDegreesPerTickLeftTurn:  0.0075,
			SteeringBias:                 0.05,
		},
		Arm: ArmCalibration{
			Speed:            0.5,
			WheelSpeed:       1.0,
			StoreToApproach:  0.8,
			PickupToApproach: 0.6,
		},
		Wedge: WedgeCalibration{
			Speed:       0.6,
			DeployTime:  1.2,
			RetractTime: 1.5,
		},
	}
}

// Validate checks that calibration values can drive the primitives.
func (c *Config) Validate() error {
	var err error
	if c.Drive.LeftFeetPerTick <= 0 || c.Drive.RightFeetPerTick <= 0 {
		err = multierr.Append(err, errors.New("drive: feet per tick must be positive"))
	}
	for _, v := range []float64{
		c.Drive.LeftDegreesPerTickRightTurn, c.Drive.LeftDegreesPerTickLeftTurn,
		c.Drive.RightDegreesPerTickRightTurn, c.Drive.RightDegreesPerTickLeftTurn,
	} {
		if v <= 0 {
			err = multierr.Append(err, errors.New("drive: degrees per tick must be positive"))
			break
		}
	}
	if c.Arm.Speed <= 0 || c.Arm.Speed > 1 {
		err = multierr.Append(err, fmt.Errorf("arm: speed %v out of range (0, 1]", c.Arm.Speed))
	}
	if c.Arm.StoreToApproach <= 0 || c.Arm.PickupToApproach <= 0 {
		err = multierr.Append(err, errors.New("arm: transit times must be positive"))
	}
	if c.Wedge.Speed <= 0 || c.Wedge.Speed > 1 {
		err = multierr.Append(err, fmt.Errorf("wedge: speed %v out of range (0, 1]", c.Wedge.Speed))
	}
	if c.Wedge.DeployTime <= 0 || c.Wedge.RetractTime <= 0 {
		err = multierr.Append(err, errors.New("wedge: deploy and retract times must be positive"))
	}
	if c.Auto.Hz < 0 {
		err = multierr.Append(err, fmt.Errorf("auto: hz %d must not be negative", c.Auto.Hz))
	}
	return err
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Fields missing from
// the file keep their DefaultConfig values.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
