// Package armctl drives SO-101 robot arms: kinematics, a safety envelope and
// a velocity-limited control loop.
//
// The follower arm runs in one of three modes: it mirrors a leader arm joint
// by joint, its gripper tip follows the leader's wrist with a level gripper,
// or it moves autonomously to requested positions.
//
// # Installation
//
//	go install github.com/gwillem/armctl/cmd/armctl@latest
//
// # Usage
//
// First, run setup to detect and calibrate your robot arms:
//
//	armctl setup
//
// Then start the control loop, optionally without a follower attached:
//
//	armctl run --mode autonomous --dry-run
//
// Kinematics can be checked without hardware:
//
//	armctl solve ik --wrist 90 170 0 50
//
// # Packages
//
//   - cmd/armctl: CLI with setup, run and solve commands
//   - pkg/kinematics: angle conventions, forward and inverse kinematics, motion limit, safety envelope
//   - pkg/robot: arm control, calibration, configuration and a loopback arm
//   - pkg/actuator: control modes and the control loop
package armctl
