//go:build linux

package canbus

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

const (
	classicFrameSize = 16 // struct can_frame
	fdFrameSize      = 72 // struct canfd_frame
)

// canSocket is a raw SocketCAN transport. Receive timeouts map to
// SO_RCVTIMEO on the socket.
type canSocket struct {
	fd      int
	useFD   bool
	timeout time.Duration // last timeout applied, avoids a setsockopt per recv
}

func openSocket(cfg Config) (transport, error) {
	ifc, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("lookup interface %s: %w", cfg.Interface, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("open raw CAN socket: %w", err)
	}

	if cfg.FD {
		if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FD_FRAMES, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("enable CAN FD frames: %w", err)
		}
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifc.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind to %s: %w", cfg.Interface, err)
	}

	return &canSocket{fd: fd, useFD: cfg.FD, timeout: -1}, nil
}

func (s *canSocket) send(f Frame) error {
	size := classicFrameSize
	maxLen := 8
	if f.FD {
		size = fdFrameSize
		maxLen = 64
	}
	if int(f.Len) > maxLen {
		return fmt.Errorf("frame 0x%X: payload %d exceeds %d bytes", f.ID, f.Len, maxLen)
	}

	buf := make([]byte, size)
	putFrame(buf, f)
	n, err := unix.Write(s.fd, buf)
	if err != nil {
		return fmt.Errorf("write frame 0x%X: %w", f.ID, err)
	}
	if n != size {
		return fmt.Errorf("write frame 0x%X: short write %d of %d", f.ID, n, size)
	}
	return nil
}

func (s *canSocket) recv(timeout time.Duration) (Frame, bool, error) {
	// SO_RCVTIMEO of zero blocks forever; clamp tiny windows up.
	if timeout < 100*time.Microsecond {
		timeout = 100 * time.Microsecond
	}
	if timeout != s.timeout {
		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			return Frame{}, false, fmt.Errorf("set receive timeout: %w", err)
		}
		s.timeout = timeout
	}

	buf := make([]byte, fdFrameSize)
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return Frame{}, false, nil
		}
		return Frame{}, false, fmt.Errorf("read frame: %w", err)
	}

	switch n {
	case classicFrameSize:
		return getFrame(buf, false), true, nil
	case fdFrameSize:
		return getFrame(buf, true), true, nil
	default:
		return Frame{}, false, fmt.Errorf("read frame: unexpected size %d", n)
	}
}

func (s *canSocket) close() error {
	return unix.Close(s.fd)
}

// putFrame lays f out as a kernel can_frame / canfd_frame: little-endian
// ID word, length byte at offset 4, payload from offset 8.
func putFrame(buf []byte, f Frame) {
	id := f.ID & unix.CAN_EFF_MASK
	buf[0] = byte(id)
	buf[1] = byte(id >> 8)
	buf[2] = byte(id >> 16)
	buf[3] = byte(id >> 24)
	buf[4] = f.Len
	copy(buf[8:], f.Data[:f.Len])
}

func getFrame(buf []byte, fd bool) Frame {
	f := Frame{FD: fd}
	id := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	f.ID = id & unix.CAN_EFF_MASK
	f.Len = buf[4]
	maxLen := uint8(8)
	if fd {
		maxLen = 64
	}
	if f.Len > maxLen {
		f.Len = maxLen
	}
	copy(f.Data[:], buf[8:8+int(f.Len)])
	return f
}
