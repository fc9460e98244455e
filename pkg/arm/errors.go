package arm

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNotRegistered = errors.New("motor not registered")
	ErrClosed        = errors.New("driver is closed")
)

// ConnectionError reports a failure opening or using the bus
// connection. Connection failures are the one retryable category:
// the bus may come back.
type ConnectionError struct {
	Interface string // bus interface or port name
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s: %v", e.Interface, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports invalid configuration: bad IDs, negative
// gains, mismatched batch slices. Never retryable.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DeviceFault reports that a registered motor rejected or failed an
// operation.
type DeviceFault struct {
	SendID uint32
	Op     string // operation that failed, e.g. "enable", "send"
	Err    error
}

func (e *DeviceFault) Error() string {
	return fmt.Sprintf("motor 0x%02X %s failed: %v", e.SendID, e.Op, e.Err)
}

func (e *DeviceFault) Unwrap() error {
	return e.Err
}

// Retryable reports whether err represents a condition worth retrying.
// Only connection-level failures qualify; configuration errors and
// device faults are fatal.
func Retryable(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
