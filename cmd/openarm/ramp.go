package main

import (
	"fmt"
	"time"

	"github.com/openarm-community/openarm-go/pkg/refresh"
)

type RampCommand struct {
	Config string        `long:"config" description:"Path to the configuration file"`
	From   float64       `long:"from" default:"1" description:"Start fraction, 0 (open) to 1 (closed)"`
	To     float64       `long:"to" default:"0" description:"Target fraction, 0 (open) to 1 (closed)"`
	Steps  int           `long:"steps" default:"30" description:"Number of intermediate positions"`
	Delay  time.Duration `long:"delay" default:"100ms" description:"Pause between steps"`
	Return bool          `long:"return" description:"Ramp back to the start fraction afterwards"`
}

func (c *RampCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
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

	g := a.Gripper()
	kp, kd := *cfg.Gripper.Kp, *cfg.Gripper.Kd
	session := refresh.RampSession{Steps: c.Steps, StepDelay: c.Delay}

	fmt.Printf("Ramping gripper %.2f -> %.2f in %d steps\n", c.From, c.To, c.Steps)
	if _, err := refresh.Ramp(g.RampTarget(kp, kd), c.From, c.To, session); err != nil {
		return err
	}
	report(g.Position())

	if c.Return {
		fmt.Printf("Ramping back %.2f -> %.2f\n", c.To, c.From)
		if _, err := refresh.Ramp(g.RampTarget(kp, kd), c.To, c.From, session); err != nil {
			return err
		}
		report(g.Position())
	}

	return nil
}

func report(pos float64, ok bool) {
	if ok {
		fmt.Printf("Position: %.3f\n", pos)
	} else {
		fmt.Println("Position: unknown")
	}
}
