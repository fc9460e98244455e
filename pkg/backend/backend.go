// Package backend maps a configuration onto a concrete driver.
package backend

import (
	"fmt"

	"github.com/openarm-community/openarm-go/pkg/arm"
	"github.com/openarm-community/openarm-go/pkg/canbus"
	"github.com/openarm-community/openarm-go/pkg/feetechbus"
	"github.com/openarm-community/openarm-go/pkg/sim"
)

// Open connects the driver selected by cfg.Backend.
func Open(cfg *arm.Config) (arm.Driver, error) {
	switch cfg.Backend {
	case "sim":
		return sim.New(), nil
	case "serial":
		drv, err := feetechbus.Open(feetechbus.Config{
			Port:     cfg.Serial.Port,
			BaudRate: cfg.Serial.BaudRate,
		})
		if err != nil {
			return nil, err
		}
		return drv, nil
	case "can":
		codec, err := canbus.NewCodec(cfg.CAN.Codec)
		if err != nil {
			return nil, err
		}
		drv, err := canbus.Open(canbus.Config{
			Interface: cfg.CAN.Interface,
			FD:        cfg.CAN.FD,
		}, codec)
		if err != nil {
			return nil, err
		}
		return drv, nil
	default:
		return nil, &arm.ConfigurationError{
			Field:  "backend",
			Reason: fmt.Sprintf("unknown backend %q", cfg.Backend),
		}
	}
}

// OpenArm validates cfg, connects its driver and registers the
// configured motors and gripper.
func OpenArm(cfg *arm.Config) (*arm.Arm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	drv, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	a := arm.New(drv)

	if n := len(cfg.Arm.Motors); n > 0 {
		types := make([]arm.MotorType, n)
		sendIDs := make([]uint32, n)
		recvIDs := make([]uint32, n)
		for i, m := range cfg.Arm.Motors {
			types[i] = m.Type
			sendIDs[i] = m.SendID
			recvIDs[i] = m.RecvID
		}
		if err := a.InitArmMotors(types, sendIDs, recvIDs); err != nil {
			a.Close()
			return nil, err
		}
	}

	g := cfg.Gripper.Motor
	if err := a.InitGripper(g.Type, g.SendID, g.RecvID); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}
