// Package robot provides the robot's mechanisms and their closed-loop
// primitives: drivetrain, pickup arm, wedge and gear shifter.
package robot

// JointName identifies a servo on the Feetech bench rig.
type JointName string

// Joint names for the bench rig.
const (
	LeftDrive    JointName = "left_drive"
	RightDrive   JointName = "right_drive"
	ArmJoint     JointName = "arm"
	PickupWheels JointName = "pickup_wheels"
	WedgeJoint   JointName = "wedge"
)

// AllJoints returns all joint names in order (matching servo IDs 1-5).
func AllJoints() []JointName {
	return []JointName{
		LeftDrive,
		RightDrive,
		ArmJoint,
		PickupWheels,
		WedgeJoint,
	}
}
