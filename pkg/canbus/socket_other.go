//go:build !linux

package canbus

import "errors"

func openSocket(cfg Config) (transport, error) {
	return nil, errors.New("SocketCAN requires linux")
}
