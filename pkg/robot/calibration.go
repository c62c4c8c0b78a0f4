package robot

import (
	"encoding/json"
	"fmt"
	"os"
)

// JointCalibration maps one bench rig servo onto a robot joint. The raw range
// is what the servo reads between the joint's end stops; DriveMode 1 flips the
// joint so positive output moves the servo toward RangeMin.
type JointCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`
	HomingOffset int `json:"homing_offset"`
	RangeMin     int `json:"range_min"`
	RangeMax     int `json:"range_max"`
}

// Calibration is the rig's joint table.
type Calibration map[JointName]JointCalibration

// LoadCalibration reads a standalone joint table, as written under "rig" in
// frcbot.json.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rig calibration: %w", err)
	}

	var byName map[string]JointCalibration
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("parse rig calibration: %w", err)
	}

	cal := make(Calibration, len(byName))
	for name, jc := range byName {
		cal[JointName(name)] = jc
	}
	return cal, nil
}

// Normalize maps a servo reading onto joint travel, -100 at RangeMin and 100
// at RangeMax. A joint with no recorded range reads as centered.
func (c JointCalibration) Normalize(raw int) float64 {
	span := float64(c.RangeMax - c.RangeMin)
	if span == 0 {
		return 0
	}
	return (float64(raw-c.RangeMin)/span)*200 - 100
}

// Denormalize is the inverse of Normalize.
func (c JointCalibration) Denormalize(travel float64) int {
	span := float64(c.RangeMax - c.RangeMin)
	return int((travel+100)/200*span) + c.RangeMin
}

// Inverted reports whether the joint's positive direction is reversed.
func (c JointCalibration) Inverted() bool {
	return c.DriveMode != 0
}

// JointIDs returns the servo IDs in AllJoints order, skipping joints that are
// not on the rig.
func (c Calibration) JointIDs() []int {
	ids := make([]int, 0, len(c))
	for _, name := range AllJoints() {
		if jc, ok := c[name]; ok {
			ids = append(ids, jc.ID)
		}
	}
	return ids
}

// ByID finds the joint driven by servo id.
func (c Calibration) ByID(id int) (JointName, JointCalibration, bool) {
	for name, jc := range c {
		if jc.ID == id {
			return name, jc, true
		}
	}
	return "", JointCalibration{}, false
}

// WithRanges returns the table after a fresh range recording. Joints get IDs
// 1-5 in AllJoints order and the recorded ranges; drive mode and homing offset
// carry over from c so a saved inversion survives recalibration.
func (c Calibration) WithRanges(rangeMin, rangeMax map[JointName]int) Calibration {
	out := make(Calibration, len(AllJoints()))
	for i, name := range AllJoints() {
		prev := c[name]
		out[name] = JointCalibration{
			ID:           i + 1,
			DriveMode:    prev.DriveMode,
			HomingOffset: prev.HomingOffset,
			RangeMin:     rangeMin[name],
			RangeMax:     rangeMax[name],
		}
	}
	return out
}

// DefaultRigCalibration assigns servo IDs 1-5 in AllJoints order with the full
// 12-bit STS range.
func DefaultRigCalibration() Calibration {
	cal := make(Calibration, len(AllJoints()))
	for i, name := range AllJoints() {
		cal[name] = JointCalibration{ID: i + 1, RangeMin: 0, RangeMax: 4095}
	}
	return cal
}
