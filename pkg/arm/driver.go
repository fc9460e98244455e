// Package arm defines the motor-driver boundary and the Arm and
// Gripper coordinators built on top of it.
//
// The Driver interface is the complete surface this module needs from
// a motor-control backend. Frame payload layouts, control-law math and
// state parsing are the backend's concern; see pkg/canbus, pkg/sim and
// pkg/feetechbus for implementations.
package arm

import "time"

// MotorType identifies a motor model on the bus.
type MotorType string

// Motor types for DM-series actuators.
const (
	DM4310 MotorType = "dm4310"
	DM4340 MotorType = "dm4340"
	DM8009 MotorType = "dm8009"
)

// MotorConfig describes one motor: its model, the CAN ID commands are
// sent to, and the CAN ID its status frames arrive on.
type MotorConfig struct {
	Type   MotorType `json:"type"`
	SendID uint32    `json:"send_id"`
	RecvID uint32    `json:"recv_id"`
}

// CallbackMode controls what a driver does with incoming status
// frames. It applies to all registered motors at once.
type CallbackMode int

const (
	// ModeIgnore drains incoming frames without parsing them. Used
	// around enable/disable sequencing.
	ModeIgnore CallbackMode = iota

	// ModeState parses incoming frames into per-motor state.
	ModeState
)

// CommandKind selects the target of a Command.
type CommandKind int

const (
	// KindOpen targets the open reference position.
	KindOpen CommandKind = iota
	// KindClose targets the closed reference position.
	KindClose
	// KindFraction targets an intermediate opening fraction.
	KindFraction
)

// Command is one target state for a motor, immutable per issuance.
// Fraction runs from 0 (open reference) to 1 (closed reference) and is
// only meaningful for KindFraction. Kp and Kd are the stiffness and
// damping gains applied while tracking the target.
type Command struct {
	Kind     CommandKind
	Fraction float64
	Kp       float64
	Kd       float64
}

// TargetFraction resolves the command to its opening fraction: the
// named open/close targets are the 0 and 1 endpoints of the same
// continuous range.
func (c Command) TargetFraction() float64 {
	switch c.Kind {
	case KindOpen:
		return 0
	case KindClose:
		return 1
	default:
		return c.Fraction
	}
}

// State is the last-known status of a motor, as of the most recent
// receive drain that saw a frame from it.
type State struct {
	Position float64 // opening fraction, 0 (open) to 1 (closed)
	Velocity float64 // fraction units per second
	Updated  time.Time
}

// Driver is the motor-control surface consumed by this module.
// Implementations own the connection, the frame protocol and the
// per-motor bookkeeping.
type Driver interface {
	// Register adds a motor. Registering a duplicate send ID fails.
	Register(m MotorConfig) error

	// SetCallbackMode switches frame handling for all motors.
	SetCallbackMode(mode CallbackMode)

	// EnableAll powers on all registered motors.
	EnableAll() error

	// DisableAll powers off all registered motors.
	DisableAll() error

	// Send issues a command to the motor with the given send ID.
	Send(sendID uint32, cmd Command) error

	// Recv drains and dispatches pending status frames for at most
	// timeout. Nothing arriving within the window is a normal
	// outcome: Recv returns the number of status updates and a nil
	// error in that case.
	Recv(timeout time.Duration) (int, error)

	// State returns the last-known state of a motor. The second
	// return is false until a status frame has been seen.
	State(sendID uint32) (State, bool)

	// Close releases the connection. Further calls fail with
	// ErrClosed.
	Close() error
}
