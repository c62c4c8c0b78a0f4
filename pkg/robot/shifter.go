package robot

import "github.com/gwillem/frcbot/pkg/hal"

// Shifter controls the drivetrain gearbox solenoid. Energized is high gear.
type Shifter struct {
	sol hal.Solenoid
}

// NewShifter creates a shifter on the given solenoid.
func NewShifter(sol hal.Solenoid) *Shifter {
	return &Shifter{sol: sol}
}

// SetHighGear shifts into high gear.
func (s *Shifter) SetHighGear() {
	s.sol.Set(true)
}

// SetLowGear shifts into low gear.
func (s *Shifter) SetLowGear() {
	s.sol.Set(false)
}

// HighGear reports whether the shifter is in high gear.
func (s *Shifter) HighGear() bool {
	return s.sol.On()
}
