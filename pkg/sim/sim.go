// Package sim provides an in-memory arm.Driver for development and
// tests. Commanded positions are tracked with a first-order slew so
// demos produce plausible motion without hardware attached.
package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
)

// DefaultSlewRate is how fast a simulated motor tracks its target, in
// opening-fraction units per second.
const DefaultSlewRate = 1.0

type motor struct {
	config   arm.MotorConfig
	enabled  bool
	target   float64
	position float64
	velocity float64
	seen     bool
	updated  time.Time
}

// Driver simulates a motor bus. The zero value is not usable; call New.
type Driver struct {
	mu     sync.Mutex
	motors map[uint32]*motor
	order  []uint32
	mode   arm.CallbackMode
	closed bool

	// SlewRate is the tracking speed in fraction units per second.
	SlewRate float64

	failAfter int
	failErr   error
	sends     int
}

// New creates an empty simulated driver.
func New() *Driver {
	return &Driver{
		motors:   make(map[uint32]*motor),
		SlewRate: DefaultSlewRate,
	}
}

// FailSendAfter makes Send fail with err once n sends have succeeded.
// Used in tests to exercise mid-session aborts.
func (d *Driver) FailSendAfter(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAfter = n
	d.failErr = err
}

func (d *Driver) Register(m arm.MotorConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	if _, ok := d.motors[m.SendID]; ok {
		return &arm.ConfigurationError{
			Field:  "send_id",
			Reason: fmt.Sprintf("duplicate motor 0x%02X", m.SendID),
		}
	}
	d.motors[m.SendID] = &motor{config: m}
	d.order = append(d.order, m.SendID)
	return nil
}

func (d *Driver) SetCallbackMode(mode arm.CallbackMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
}

func (d *Driver) EnableAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	for _, id := range d.order {
		d.motors[id].enabled = true
	}
	return nil
}

func (d *Driver) DisableAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	for _, id := range d.order {
		d.motors[id].enabled = false
	}
	return nil
}

func (d *Driver) Send(sendID uint32, cmd arm.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	m, ok := d.motors[sendID]
	if !ok {
		return fmt.Errorf("send to 0x%02X: %w", sendID, arm.ErrNotRegistered)
	}
	if d.failErr != nil && d.sends >= d.failAfter {
		return &arm.DeviceFault{SendID: sendID, Op: "send", Err: d.failErr}
	}
	if !m.enabled {
		return &arm.DeviceFault{SendID: sendID, Op: "send", Err: fmt.Errorf("motor disabled")}
	}
	m.target = cmd.TargetFraction()
	d.sends++
	return nil
}

// Recv advances every enabled motor toward its target as if timeout
// had elapsed on a real bus. No wall-clock sleeping happens. In
// ModeIgnore the frames are consumed without updating state, matching
// the hardware drivers.
func (d *Driver) Recv(timeout time.Duration) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, arm.ErrClosed
	}

	dt := timeout.Seconds()
	updates := 0
	now := time.Now()
	for _, id := range d.order {
		m := d.motors[id]
		if !m.enabled {
			continue
		}
		delta := m.target - m.position
		step := d.SlewRate * dt
		switch {
		case delta == 0 || dt <= 0:
			m.velocity = 0
		case math.Abs(delta) <= step:
			m.velocity = delta / dt
			m.position = m.target
		default:
			m.velocity = math.Copysign(d.SlewRate, delta)
			m.position += math.Copysign(step, delta)
		}
		if d.mode == arm.ModeState {
			m.seen = true
			m.updated = now
			updates++
		}
	}
	return updates, nil
}

func (d *Driver) State(sendID uint32) (arm.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.motors[sendID]
	if !ok || !m.seen {
		return arm.State{}, false
	}
	return arm.State{Position: m.position, Velocity: m.velocity, Updated: m.updated}, true
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	d.closed = true
	return nil
}
