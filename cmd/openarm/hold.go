package main

import (
	"fmt"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
	"github.com/openarm-community/openarm-go/pkg/refresh"
)

type HoldCommand struct {
	Config string   `long:"config" description:"Path to the configuration file"`
	Hold   float64  `long:"hold" description:"Hold duration in seconds (default from config)"`
	Rate   int      `long:"rate" description:"Command rate in Hz (default from config)"`
	Kp     *float64 `long:"kp" description:"Stiffness gain (default from config)"`
	Kd     *float64 `long:"kd" description:"Damping gain (default from config)"`

	Args struct {
		Action string `positional-arg-name:"action" description:"open or close" default:"close"`
	} `positional-args:"yes"`
}

func (c *HoldCommand) Execute(args []string) error {
	var kind arm.CommandKind
	switch c.Args.Action {
	case "open":
		kind = arm.KindOpen
	case "close", "":
		kind = arm.KindClose
	default:
		return fmt.Errorf("unknown action %q, want open or close", c.Args.Action)
	}

	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	hold, rate, kp, kd := cfg.Gripper.HoldSeconds, cfg.Gripper.RateHz, *cfg.Gripper.Kp, *cfg.Gripper.Kd
	if c.Hold > 0 {
		hold = c.Hold
	}
	if c.Rate > 0 {
		rate = c.Rate
	}
	if c.Kp != nil {
		kp = *c.Kp
	}
	if c.Kd != nil {
		kd = *c.Kd
	}

	a, err := openArm(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := bringUp(a); err != nil {
		return err
	}
	defer shutDown(a)

	session := refresh.Session{
		Duration: time.Duration(hold * float64(time.Second)),
		Rate:     rate,
	}
	fmt.Printf("Holding gripper %s for %.1fs at %d Hz (kp=%.1f kd=%.1f)\n",
		c.Args.Action, hold, rate, kp, kd)

	g := a.Gripper()
	issued, err := refresh.Hold(g.HoldTarget(kind, kp, kd), session)
	if err != nil {
		return fmt.Errorf("after %d of %d commands: %w", issued, session.Steps(), err)
	}

	if pos, ok := g.Position(); ok {
		fmt.Printf("Done, %d commands issued, position %.3f\n", issued, pos)
	} else {
		fmt.Printf("Done, %d commands issued, no status received\n", issued)
	}
	return nil
}
