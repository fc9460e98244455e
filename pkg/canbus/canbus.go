// Package canbus implements an arm.Driver on top of a raw SocketCAN
// socket. The transport is generic; frame payload layouts are supplied
// by a vendor Codec registered with RegisterCodec, so this package
// never interprets motor payloads itself.
package canbus

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
)

// Frame is one CAN frame, classic or FD. Len is the number of valid
// bytes in Data: at most 8 for classic frames, 64 for FD.
type Frame struct {
	ID   uint32
	Len  uint8
	Data [64]byte
	FD   bool
}

// Codec translates between motor semantics and vendor frame payloads.
// Implementations live outside this module; the damiao name is
// reserved for the DM-series codec.
type Codec interface {
	// EncodeEnable produces the power-on frame for a motor.
	EncodeEnable(m arm.MotorConfig) (Frame, error)

	// EncodeDisable produces the power-off frame for a motor.
	EncodeDisable(m arm.MotorConfig) (Frame, error)

	// EncodeCommand produces the target-tracking frame for a command.
	EncodeCommand(m arm.MotorConfig, cmd arm.Command) (Frame, error)

	// DecodeState parses a status frame received on the motor's
	// receive ID.
	DecodeState(m arm.MotorConfig, f Frame) (arm.State, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = make(map[string]Codec)
)

// RegisterCodec makes a vendor codec available by name. It panics on a
// duplicate name, like database/sql driver registration.
func RegisterCodec(name string, c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	if c == nil {
		panic("canbus: RegisterCodec with nil codec")
	}
	if _, dup := codecs[name]; dup {
		panic("canbus: RegisterCodec called twice for " + name)
	}
	codecs[name] = c
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	codecsMu.RLock()
	c, ok := codecs[name]
	codecsMu.RUnlock()
	if !ok {
		return nil, &arm.ConfigurationError{
			Field:  "can.codec",
			Reason: fmt.Sprintf("unknown codec %q (registered: %v)", name, codecNames()),
		}
	}
	return c, nil
}

func codecNames() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config selects the SocketCAN interface and frame format.
type Config struct {
	// Interface is the network interface name, e.g. "can0".
	Interface string

	// FD enables CAN FD frames on the socket.
	FD bool
}

type transport interface {
	send(f Frame) error
	recv(timeout time.Duration) (Frame, bool, error)
	close() error
}

type slot struct {
	config arm.MotorConfig
	state  arm.State
	seen   bool
}

// Driver routes frames between registered motors and one SocketCAN
// socket.
type Driver struct {
	mu     sync.Mutex
	tr     transport
	codec  Codec
	bySend map[uint32]*slot
	byRecv map[uint32]*slot
	order  []uint32
	mode   arm.CallbackMode
	closed bool
}

// Open binds a raw CAN socket on the configured interface. Socket
// errors come back as a retryable ConnectionError.
func Open(cfg Config, codec Codec) (*Driver, error) {
	tr, err := openSocket(cfg)
	if err != nil {
		return nil, &arm.ConnectionError{Interface: cfg.Interface, Err: err}
	}
	return newDriver(tr, codec), nil
}

func newDriver(tr transport, codec Codec) *Driver {
	return &Driver{
		tr:     tr,
		codec:  codec,
		bySend: make(map[uint32]*slot),
		byRecv: make(map[uint32]*slot),
	}
}

func (d *Driver) Register(m arm.MotorConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	if _, dup := d.bySend[m.SendID]; dup {
		return &arm.ConfigurationError{
			Field:  "send_id",
			Reason: fmt.Sprintf("duplicate motor 0x%02X", m.SendID),
		}
	}
	if _, dup := d.byRecv[m.RecvID]; dup {
		return &arm.ConfigurationError{
			Field:  "recv_id",
			Reason: fmt.Sprintf("receive ID 0x%02X already in use", m.RecvID),
		}
	}
	s := &slot{config: m}
	d.bySend[m.SendID] = s
	d.byRecv[m.RecvID] = s
	d.order = append(d.order, m.SendID)
	return nil
}

func (d *Driver) SetCallbackMode(mode arm.CallbackMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
}

func (d *Driver) EnableAll() error {
	return d.broadcast("enable", d.codec.EncodeEnable)
}

func (d *Driver) DisableAll() error {
	return d.broadcast("disable", d.codec.EncodeDisable)
}

func (d *Driver) broadcast(op string, encode func(arm.MotorConfig) (Frame, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	for _, id := range d.order {
		m := d.bySend[id].config
		f, err := encode(m)
		if err != nil {
			return &arm.DeviceFault{SendID: id, Op: op, Err: err}
		}
		if err := d.tr.send(f); err != nil {
			return &arm.DeviceFault{SendID: id, Op: op, Err: err}
		}
	}
	return nil
}

func (d *Driver) Send(sendID uint32, cmd arm.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return arm.ErrClosed
	}
	s, ok := d.bySend[sendID]
	if !ok {
		return fmt.Errorf("send to 0x%02X: %w", sendID, arm.ErrNotRegistered)
	}
	f, err := d.codec.EncodeCommand(s.config, cmd)
	if err != nil {
		return &arm.DeviceFault{SendID: sendID, Op: "send", Err: err}
	}
	if err := d.tr.send(f); err != nil {
		return &arm.DeviceFault{SendID: sendID, Op: "send", Err: err}
	}
	return nil
}

// Recv drains frames until the timeout window closes. Frames whose ID
// matches no registered receive ID are dropped. A quiet bus is not an
// error.
func (d *Driver) Recv(timeout time.Duration) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, arm.ErrClosed
	}
	tr, codec, mode := d.tr, d.codec, d.mode
	d.mu.Unlock()

	deadline := time.Now().Add(timeout)
	updates := 0
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return updates, nil
		}
		f, ok, err := tr.recv(remaining)
		if err != nil {
			return updates, &arm.ConnectionError{Interface: "can", Err: err}
		}
		if !ok {
			return updates, nil
		}
		if mode == arm.ModeIgnore {
			continue
		}

		d.mu.Lock()
		s, known := d.byRecv[f.ID]
		if known {
			st, err := codec.DecodeState(s.config, f)
			if err != nil {
				d.mu.Unlock()
				return updates, &arm.DeviceFault{SendID: s.config.SendID, Op: "decode", Err: err}
			}
			st.Updated = time.Now()
			s.state = st
			s.seen = true
			updates++
		}
		d.mu.Unlock()
	}
}

func (d *Driver) State(sendID uint32) (arm.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.bySend[sendID]
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
	return d.tr.close()
}
