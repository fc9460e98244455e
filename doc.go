// Package openarm provides gripper and arm motor control for
// OpenArm-style robot arms.
//
// The motor wire protocol itself (frame payloads, control-law math,
// state parsing) lives outside this module: commands flow through the
// driver boundary in pkg/arm, with backends for SocketCAN (frame
// payloads supplied by a vendor codec), Feetech serial servo buses,
// and an in-memory simulator.
//
// # Installation
//
//	go install github.com/openarm-community/openarm-go/cmd/openarm@latest
//
// # Usage
//
// First, run setup to choose a bus backend and motor IDs:
//
//	openarm setup
//
// Then drive the gripper:
//
//	openarm hold close
//	openarm ramp --steps 30
//	openarm monitor
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/openarm: CLI with setup, enable, hold, ramp and monitor commands
//   - cmd/gripper-hold, cmd/gripper-slow, cmd/arm-enable: standalone demos
//   - pkg/arm: driver boundary, Arm and Gripper coordinators, configuration
//   - pkg/refresh: periodic command refresher (hold and ramp loops)
//   - pkg/monitor: open-ended refresh loop publishing position samples
//   - pkg/backend: configuration to driver mapping
//   - pkg/canbus, pkg/feetechbus, pkg/sim: driver backends
package openarm
