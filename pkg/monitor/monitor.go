// Package monitor runs an open-ended gripper hold loop and publishes
// position samples for live display.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
)

// State is one sample of the monitored gripper.
type State struct {
	// Target is the commanded opening fraction.
	Target float64

	// Position is the last reported opening fraction; Known is false
	// until the first status frame arrives.
	Position float64
	Known    bool

	Timestamp time.Time
	Error     error
}

// Config holds configuration for the controller.
type Config struct {
	Arm    *arm.Arm
	Kp     float64
	Kd     float64
	Hz     int
	Target float64 // initial opening fraction
}

// Controller reissues the gripper command at a fixed rate, forever,
// until its context is cancelled. The target can be moved while the
// loop runs.
type Controller struct {
	arm *arm.Arm
	kp  float64
	kd  float64
	hz  int

	mu      sync.Mutex
	target  float64
	running bool

	stateCh chan State
	logCh   chan string
}

// NewController creates a controller around an initialized arm. The
// arm must have a gripper registered.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Arm == nil || cfg.Arm.Gripper() == nil {
		return nil, fmt.Errorf("arm has no gripper")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 50
	}

	return &Controller{
		arm:     cfg.Arm,
		kp:      cfg.Kp,
		kd:      cfg.Kd,
		hz:      cfg.Hz,
		target:  cfg.Target,
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}, nil
}

// States returns a channel that receives position samples.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the command rate.
func (c *Controller) Hz() int {
	return c.hz
}

// SetTarget moves the commanded opening fraction, clamped to [0, 1].
func (c *Controller) SetTarget(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	c.mu.Lock()
	c.target = fraction
	c.mu.Unlock()
}

// Toggle flips the target to whichever endpoint is further away.
func (c *Controller) Toggle() {
	c.mu.Lock()
	if c.target < 0.5 {
		c.target = 1
	} else {
		c.target = 0
	}
	c.mu.Unlock()
}

// Target returns the current commanded fraction.
func (c *Controller) Target() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start enables the motors and runs the refresh loop until ctx is
// cancelled, then disables them.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	period := time.Second / time.Duration(c.hz)

	if err := c.arm.Startup(50 * time.Millisecond); err != nil {
		return err
	}
	c.log("Motors enabled, refreshing at %d Hz", c.hz)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step(period)
		}
	}
}

func (c *Controller) step(period time.Duration) {
	target := c.Target()

	g := c.arm.Gripper()
	if err := g.Set(target, c.kp, c.kd); err != nil {
		c.log("Send error: %v", err)
		c.sendState(State{Target: target, Error: err, Timestamp: time.Now()})
		return
	}
	if _, err := c.arm.Recv(period); err != nil {
		c.log("Receive error: %v", err)
	}

	pos, known := g.Position()
	c.sendState(State{
		Target:    target,
		Position:  pos,
		Known:     known,
		Timestamp: time.Now(),
	})
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if err := c.arm.Shutdown(50 * time.Millisecond); err != nil {
		c.log("Warning: %v", err)
	} else {
		c.log("Motors disabled")
	}
}
