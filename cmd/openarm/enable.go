package main

import (
	"fmt"
	"time"
)

type EnableCommand struct {
	Config  string        `long:"config" description:"Path to the configuration file"`
	Settle  time.Duration `long:"settle" default:"500ms" description:"How long to collect status frames"`
	Disable bool          `long:"disable" description:"Disable the motors again before exiting"`
}

func (c *EnableCommand) Execute(args []string) error {
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
	if c.Disable {
		defer shutDown(a)
	}

	n, err := a.Recv(c.Settle)
	if err != nil {
		return fmt.Errorf("collect status: %w", err)
	}
	fmt.Printf("Enabled %d arm motor(s) + gripper, %d status update(s)\n", len(a.Motors()), n)

	for _, m := range append(a.Motors(), a.Gripper().Motor()) {
		st, ok := a.State(m.SendID)
		if !ok {
			fmt.Printf("  motor 0x%02X (%s): no status\n", m.SendID, m.Type)
			continue
		}
		fmt.Printf("  motor 0x%02X (%s): position %.3f velocity %+.3f\n",
			m.SendID, m.Type, st.Position, st.Velocity)
	}
	return nil
}
