// Package frcbot runs the competition robot's autonomous period.
//
// A sequencer steps through three routines, one non-blocking step per control
// tick: cross the selected field obstacle, drive from the starting lane to the
// goal, and score. Each step is a closed-loop primitive (drive a distance,
// turn with the gyro or the wheel encoders, drive for a time, move the pickup
// arm to a region, deploy or retract the wedge) that reports when it is done.
//
// # Installation
//
//	go install github.com/gwillem/frcbot/cmd/frcbot@latest
//
// # Usage
//
// Choose the routine, and calibrate the bench rig if one is connected:
//
//	frcbot setup
//
// Watch the run against the simulated robot, or run it on the rig:
//
//	frcbot simulate
//	frcbot run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/frcbot: CLI with setup, simulate, run and catalog commands
//   - pkg/hal: Device interfaces and the stopwatch timer
//   - pkg/robot: Drivetrain, pickup arm, wedge, configuration
//   - pkg/auto: Routine catalog and step sequencer
//   - pkg/loop: Fixed-rate autonomous control loop
//   - pkg/sim: Simulated robot
//   - pkg/rig: Feetech servo bench rig
package frcbot
