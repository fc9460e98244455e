package canbus

import (
	"errors"
	"testing"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
)

// fakeTransport replays queued frames and records sends.
type fakeTransport struct {
	sent    []Frame
	queue   []Frame
	sendErr error
	recvErr error
	closed  bool
}

func (t *fakeTransport) send(f Frame) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, f)
	return nil
}

func (t *fakeTransport) recv(timeout time.Duration) (Frame, bool, error) {
	if t.recvErr != nil {
		return Frame{}, false, t.recvErr
	}
	if len(t.queue) == 0 {
		return Frame{}, false, nil
	}
	f := t.queue[0]
	t.queue = t.queue[1:]
	return f, true, nil
}

func (t *fakeTransport) close() error {
	t.closed = true
	return nil
}

// fakeCodec marks frame purpose in the first payload byte and decodes
// the second byte as a position percentage.
type fakeCodec struct{}

const (
	opEnable  = 0x01
	opDisable = 0x02
	opCommand = 0x03
)

func (fakeCodec) EncodeEnable(m arm.MotorConfig) (Frame, error) {
	return Frame{ID: m.SendID, Len: 1, Data: [64]byte{opEnable}}, nil
}

func (fakeCodec) EncodeDisable(m arm.MotorConfig) (Frame, error) {
	return Frame{ID: m.SendID, Len: 1, Data: [64]byte{opDisable}}, nil
}

func (fakeCodec) EncodeCommand(m arm.MotorConfig, cmd arm.Command) (Frame, error) {
	return Frame{ID: m.SendID, Len: 2, Data: [64]byte{opCommand, byte(cmd.TargetFraction() * 100)}}, nil
}

func (fakeCodec) DecodeState(m arm.MotorConfig, f Frame) (arm.State, error) {
	if f.Len < 1 {
		return arm.State{}, errors.New("empty status frame")
	}
	return arm.State{Position: float64(f.Data[0]) / 100}, nil
}

func newTestDriver(t *testing.T, tr transport, ids ...uint32) *Driver {
	t.Helper()
	d := newDriver(tr, fakeCodec{})
	for _, id := range ids {
		m := arm.MotorConfig{Type: arm.DM4310, SendID: id, RecvID: id + 0x10}
		if err := d.Register(m); err != nil {
			t.Fatalf("register 0x%02X: %v", id, err)
		}
	}
	return d
}

func TestRegisterDuplicateIDs(t *testing.T) {
	d := newTestDriver(t, &fakeTransport{}, 0x01)

	tests := []struct {
		name  string
		motor arm.MotorConfig
	}{
		{"duplicate send ID", arm.MotorConfig{SendID: 0x01, RecvID: 0x21}},
		{"duplicate recv ID", arm.MotorConfig{SendID: 0x02, RecvID: 0x11}},
	}
	for _, tt := range tests {
		err := d.Register(tt.motor)
		var ce *arm.ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("%s: got %v, want ConfigurationError", tt.name, err)
		}
	}
}

func TestEnableAllBroadcasts(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDriver(t, tr, 0x01, 0x02, 0x08)

	if err := d.EnableAll(); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 3 {
		t.Fatalf("sent %d frames, want 3", len(tr.sent))
	}
	for i, want := range []uint32{0x01, 0x02, 0x08} {
		if tr.sent[i].ID != want {
			t.Errorf("frame %d ID = 0x%02X, want 0x%02X", i, tr.sent[i].ID, want)
		}
		if tr.sent[i].Data[0] != opEnable {
			t.Errorf("frame %d is not an enable frame", i)
		}
	}
}

func TestSendEncodesCommand(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDriver(t, tr, 0x08)

	if err := d.Send(0x08, arm.Command{Kind: arm.KindFraction, Fraction: 0.25}); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(tr.sent))
	}
	f := tr.sent[0]
	if f.ID != 0x08 || f.Data[0] != opCommand || f.Data[1] != 25 {
		t.Errorf("unexpected command frame: ID=0x%02X data=%v", f.ID, f.Data[:f.Len])
	}
}

func TestSendUnregistered(t *testing.T) {
	d := newTestDriver(t, &fakeTransport{}, 0x08)
	err := d.Send(0x99, arm.Command{})
	if !errors.Is(err, arm.ErrNotRegistered) {
		t.Fatalf("got %v, want ErrNotRegistered", err)
	}
}

func TestSendTransportFault(t *testing.T) {
	cause := errors.New("bus off")
	tr := &fakeTransport{sendErr: cause}
	d := newTestDriver(t, tr, 0x08)

	err := d.Send(0x08, arm.Command{Kind: arm.KindOpen})
	var df *arm.DeviceFault
	if !errors.As(err, &df) {
		t.Fatalf("got %v, want DeviceFault", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("fault cause lost: %v", err)
	}
}

func TestRecvRoutesByReceiveID(t *testing.T) {
	tr := &fakeTransport{queue: []Frame{
		{ID: 0x18, Len: 1, Data: [64]byte{75}}, // motor 0x08
		{ID: 0x42, Len: 1, Data: [64]byte{10}}, // unknown, dropped
		{ID: 0x11, Len: 1, Data: [64]byte{30}}, // motor 0x01
	}}
	d := newTestDriver(t, tr, 0x01, 0x08)
	d.SetCallbackMode(arm.ModeState)

	n, err := d.Recv(50 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("updates = %d, want 2", n)
	}

	st, ok := d.State(0x08)
	if !ok || st.Position != 0.75 {
		t.Errorf("motor 0x08 state = %+v ok=%v, want position 0.75", st, ok)
	}
	st, ok = d.State(0x01)
	if !ok || st.Position != 0.30 {
		t.Errorf("motor 0x01 state = %+v ok=%v, want position 0.30", st, ok)
	}
}

func TestRecvIgnoreModeDrops(t *testing.T) {
	tr := &fakeTransport{queue: []Frame{
		{ID: 0x18, Len: 1, Data: [64]byte{75}},
	}}
	d := newTestDriver(t, tr, 0x08)

	n, err := d.Recv(50 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("updates = %d, want 0 in ignore mode", n)
	}
	if _, ok := d.State(0x08); ok {
		t.Error("state reported as seen in ignore mode")
	}
}

func TestRecvQuietBus(t *testing.T) {
	d := newTestDriver(t, &fakeTransport{}, 0x08)
	d.SetCallbackMode(arm.ModeState)

	n, err := d.Recv(time.Millisecond)
	if err != nil {
		t.Fatalf("quiet bus should not error: %v", err)
	}
	if n != 0 {
		t.Errorf("updates = %d, want 0", n)
	}
}

func TestRecvTransportError(t *testing.T) {
	cause := errors.New("socket gone")
	tr := &fakeTransport{recvErr: cause}
	d := newTestDriver(t, tr, 0x08)

	_, err := d.Recv(time.Millisecond)
	if !arm.Retryable(err) {
		t.Errorf("transport failure should be retryable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestCodecRegistry(t *testing.T) {
	RegisterCodec("fake-test", fakeCodec{})

	if _, err := NewCodec("fake-test"); err != nil {
		t.Fatalf("lookup registered codec: %v", err)
	}

	_, err := NewCodec("no-such-codec")
	var ce *arm.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("unknown codec: got %v, want ConfigurationError", err)
	}
}

func TestCloseReleasesTransport(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDriver(t, tr, 0x08)

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if !tr.closed {
		t.Error("transport not closed")
	}
	if err := d.Send(0x08, arm.Command{}); !errors.Is(err, arm.ErrClosed) {
		t.Errorf("Send after close: %v", err)
	}
	if err := d.Close(); !errors.Is(err, arm.ErrClosed) {
		t.Errorf("second Close: %v", err)
	}
}
