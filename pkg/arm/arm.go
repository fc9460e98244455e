package arm

import (
	"fmt"
	"time"
)

// Arm coordinates a set of arm motors and an optional gripper on one
// driver. It owns no protocol state of its own; every operation
// delegates to the driver.
type Arm struct {
	drv     Driver
	motors  []MotorConfig
	gripper *Gripper
}

// New creates an Arm on top of an open driver.
func New(drv Driver) *Arm {
	return &Arm{drv: drv}
}

// InitArmMotors registers a batch of arm motors described by parallel
// slices of types, send IDs and receive IDs.
func (a *Arm) InitArmMotors(types []MotorType, sendIDs, recvIDs []uint32) error {
	if len(types) != len(sendIDs) || len(types) != len(recvIDs) {
		return &ConfigurationError{
			Field:  "motors",
			Reason: fmt.Sprintf("mismatched batch: %d types, %d send IDs, %d recv IDs", len(types), len(sendIDs), len(recvIDs)),
		}
	}

	for i := range types {
		m := MotorConfig{Type: types[i], SendID: sendIDs[i], RecvID: recvIDs[i]}
		if err := a.drv.Register(m); err != nil {
			return fmt.Errorf("register motor 0x%02X: %w", m.SendID, err)
		}
		a.motors = append(a.motors, m)
	}

	return nil
}

// InitGripper registers the gripper motor and makes Gripper available.
func (a *Arm) InitGripper(t MotorType, sendID, recvID uint32) error {
	m := MotorConfig{Type: t, SendID: sendID, RecvID: recvID}
	if err := a.drv.Register(m); err != nil {
		return fmt.Errorf("register gripper 0x%02X: %w", sendID, err)
	}
	a.gripper = &Gripper{drv: a.drv, motor: m}
	return nil
}

// Gripper returns the gripper component, or nil before InitGripper.
func (a *Arm) Gripper() *Gripper {
	return a.gripper
}

// Motors returns the registered arm motors in registration order.
func (a *Arm) Motors() []MotorConfig {
	return a.motors
}

// SetCallbackMode switches incoming-frame handling for all motors.
func (a *Arm) SetCallbackMode(mode CallbackMode) {
	a.drv.SetCallbackMode(mode)
}

// EnableAll powers on all registered motors.
func (a *Arm) EnableAll() error {
	return a.drv.EnableAll()
}

// DisableAll powers off all registered motors.
func (a *Arm) DisableAll() error {
	return a.drv.DisableAll()
}

// Recv drains pending status frames for at most timeout.
func (a *Arm) Recv(timeout time.Duration) (int, error) {
	return a.drv.Recv(timeout)
}

// State returns the last-known state of the motor with the given send ID.
func (a *Arm) State(sendID uint32) (State, bool) {
	return a.drv.State(sendID)
}

// Startup powers the motors on with incoming frames ignored, drains
// the bus for the given window, then switches to state tracking. The
// quiet window keeps stale frames from landing in half-initialized
// state.
func (a *Arm) Startup(drain time.Duration) error {
	a.drv.SetCallbackMode(ModeIgnore)
	if err := a.drv.EnableAll(); err != nil {
		return fmt.Errorf("enable motors: %w", err)
	}
	if _, err := a.drv.Recv(drain); err != nil {
		return fmt.Errorf("drain after enable: %w", err)
	}
	a.drv.SetCallbackMode(ModeState)
	return nil
}

// Shutdown powers the motors off, mirroring Startup.
func (a *Arm) Shutdown(drain time.Duration) error {
	a.drv.SetCallbackMode(ModeIgnore)
	if err := a.drv.DisableAll(); err != nil {
		return fmt.Errorf("disable motors: %w", err)
	}
	if _, err := a.drv.Recv(drain); err != nil {
		return fmt.Errorf("drain after disable: %w", err)
	}
	return nil
}

// Close releases the underlying driver connection.
func (a *Arm) Close() error {
	return a.drv.Close()
}
