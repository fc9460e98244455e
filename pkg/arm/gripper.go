package arm

import (
	"fmt"
	"time"

	"github.com/openarm-community/openarm-go/pkg/refresh"
)

// Gripper commands a single gripper motor between its open and closed
// reference positions.
type Gripper struct {
	drv   Driver
	motor MotorConfig
}

// Motor returns the gripper's motor configuration.
func (g *Gripper) Motor() MotorConfig {
	return g.motor
}

func (g *Gripper) command(cmd Command) error {
	if cmd.Kp < 0 || cmd.Kd < 0 {
		return &ConfigurationError{
			Field:  "gains",
			Reason: fmt.Sprintf("kp and kd must be non-negative, got kp=%.2f kd=%.2f", cmd.Kp, cmd.Kd),
		}
	}
	return g.drv.Send(g.motor.SendID, cmd)
}

// Open commands the gripper toward its open reference position.
func (g *Gripper) Open(kp, kd float64) error {
	return g.command(Command{Kind: KindOpen, Kp: kp, Kd: kd})
}

// Close commands the gripper toward its closed reference position.
func (g *Gripper) Close(kp, kd float64) error {
	return g.command(Command{Kind: KindClose, Kp: kp, Kd: kd})
}

// Set commands an intermediate opening fraction, 0 (open) to 1
// (closed).
func (g *Gripper) Set(fraction, kp, kd float64) error {
	if fraction < 0 || fraction > 1 {
		return &ConfigurationError{
			Field:  "fraction",
			Reason: fmt.Sprintf("must be in [0, 1], got %.4f", fraction),
		}
	}
	return g.command(Command{Kind: KindFraction, Fraction: fraction, Kp: kp, Kd: kd})
}

// Position returns the gripper's last-known opening fraction. The
// second return is false until a status frame has been seen.
func (g *Gripper) Position() (float64, bool) {
	st, ok := g.drv.State(g.motor.SendID)
	return st.Position, ok
}

// HoldTarget adapts the gripper to refresh.Target for hold sessions:
// each cycle reissues the command and drains the bus.
func (g *Gripper) HoldTarget(kind CommandKind, kp, kd float64) refresh.Target {
	return holdTarget{g: g, cmd: Command{Kind: kind, Kp: kp, Kd: kd}}
}

type holdTarget struct {
	g   *Gripper
	cmd Command
}

func (t holdTarget) Issue() error {
	return t.g.command(t.cmd)
}

func (t holdTarget) Poll(timeout time.Duration) error {
	_, err := t.g.drv.Recv(timeout)
	return err
}

// RampTarget adapts the gripper to refresh.Setter for stepwise ramps
// with fixed gains.
func (g *Gripper) RampTarget(kp, kd float64) refresh.Setter {
	return rampTarget{g: g, kp: kp, kd: kd}
}

type rampTarget struct {
	g      *Gripper
	kp, kd float64
}

func (t rampTarget) Set(value float64) error {
	return t.g.Set(value, t.kp, t.kd)
}

func (t rampTarget) Poll(timeout time.Duration) error {
	_, err := t.g.drv.Recv(timeout)
	return err
}
