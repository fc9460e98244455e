// Package feetechbus implements an arm.Driver for Feetech STS serial
// servos. Opening fractions map linearly onto a raw tick range, and the
// protocol itself is handled by the feetech-servo library.
//
// STS servos hold a commanded position in firmware, so the Kp and Kd
// fields of a command are ignored here; they only apply to the CAN
// backends.
package feetechbus

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/openarm-community/openarm-go/pkg/arm"
)

// Range maps opening fractions to raw servo ticks. Open may be above
// or below Closed; the mapping is linear either way.
type Range struct {
	Open   int `json:"open"`
	Closed int `json:"closed"`
}

// DefaultRange covers the middle half of the STS 12-bit range.
var DefaultRange = Range{Open: 1024, Closed: 3072}

func (r Range) position(fraction float64) int {
	return r.Open + int(math.Round(fraction*float64(r.Closed-r.Open)))
}

func (r Range) fraction(raw int) float64 {
	span := r.Closed - r.Open
	if span == 0 {
		return 0
	}
	return float64(raw-r.Open) / float64(span)
}

// Config selects the serial port and tick range.
type Config struct {
	Port     string
	BaudRate int
	Range    Range

	// Timeout bounds each bus transaction. Zero means one second.
	Timeout time.Duration
}

type servoState struct {
	state arm.State
	seen  bool
}

// Driver drives registered servos through one serial bus. The servo ID
// doubles as the send ID; receive IDs are unused on serial.
type Driver struct {
	mu      sync.Mutex
	bus     *feetech.Bus
	group   *feetech.ServoGroup
	rng     Range
	timeout time.Duration
	ids     []int
	states  map[uint32]*servoState
	mode    arm.CallbackMode
	closed  bool
}

// Open connects to the serial bus. Port errors come back as a
// retryable ConnectionError.
func Open(cfg Config) (*Driver, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 1_000_000
	}
	if cfg.Range == (Range{}) {
		cfg.Range = DefaultRange
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, &arm.ConnectionError{Interface: cfg.Port, Err: err}
	}

	return &Driver{
		bus:     bus,
		rng:     cfg.Range,
		timeout: cfg.Timeout,
		states:  make(map[uint32]*servoState),
	}, nil
}

func (d *Driver) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.timeout)
}

func (d *Driver) Register(m arm.MotorConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	if m.SendID < 1 || m.SendID > 253 {
		return &arm.ConfigurationError{
			Field:  "send_id",
			Reason: fmt.Sprintf("servo ID %d outside 1..253", m.SendID),
		}
	}
	if _, dup := d.states[m.SendID]; dup {
		return &arm.ConfigurationError{
			Field:  "send_id",
			Reason: fmt.Sprintf("duplicate servo %d", m.SendID),
		}
	}
	d.states[m.SendID] = &servoState{}
	d.ids = append(d.ids, int(m.SendID))
	d.group = feetech.NewServoGroupByIDs(d.bus, d.ids...)
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
	// No servos registered yet: nothing to power on.
	if d.group == nil {
		return nil
	}
	ctx, cancel := d.ctx()
	defer cancel()
	if err := d.group.EnableAll(ctx); err != nil {
		return fmt.Errorf("enable servos: %w", err)
	}
	return nil
}

func (d *Driver) DisableAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	if d.group == nil {
		return nil
	}
	ctx, cancel := d.ctx()
	defer cancel()
	if err := d.group.DisableAll(ctx); err != nil {
		return fmt.Errorf("disable servos: %w", err)
	}
	return nil
}

func (d *Driver) Send(sendID uint32, cmd arm.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	if _, ok := d.states[sendID]; !ok {
		return fmt.Errorf("send to servo %d: %w", sendID, arm.ErrNotRegistered)
	}

	ctx, cancel := d.ctx()
	defer cancel()
	target := feetech.PositionMap{int(sendID): d.rng.position(cmd.TargetFraction())}
	if err := d.group.SetPositions(ctx, target); err != nil {
		return &arm.DeviceFault{SendID: sendID, Op: "send", Err: err}
	}
	return nil
}

// Recv performs one synchronous position read across all servos. The
// serial bus has no unsolicited traffic, so a single transaction plays
// the role of a receive drain; the timeout bounds it.
func (d *Driver) Recv(timeout time.Duration) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, arm.ErrClosed
	}
	if d.mode == arm.ModeIgnore || len(d.ids) == 0 {
		return 0, nil
	}

	if timeout <= 0 {
		timeout = d.timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	raw, err := d.group.Positions(ctx)
	if err != nil {
		return 0, &arm.ConnectionError{Interface: "serial", Err: err}
	}

	now := time.Now()
	updates := 0
	for id, pos := range raw {
		s, ok := d.states[uint32(id)]
		if !ok {
			continue
		}
		next := arm.State{Position: d.rng.fraction(pos), Updated: now}
		if s.seen {
			if dt := now.Sub(s.state.Updated).Seconds(); dt > 0 {
				next.Velocity = (next.Position - s.state.Position) / dt
			}
		}
		s.state = next
		s.seen = true
		updates++
	}
	return updates, nil
}

func (d *Driver) State(sendID uint32) (arm.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.states[sendID]
	if !ok || !s.seen {
		return arm.State{}, false
	}
	return s.state, true
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	d.closed = true
	return d.bus.Close()
}
