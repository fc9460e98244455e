package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Setup   SetupCommand   `command:"setup" description:"Configure the bus backend and motor layout"`
	Enable  EnableCommand  `command:"enable" description:"Enable all configured motors and print their state"`
	Hold    HoldCommand    `command:"hold" description:"Hold a gripper command for a fixed duration"`
	Ramp    RampCommand    `command:"ramp" description:"Sweep the gripper through its range in small steps"`
	Monitor MonitorCommand `command:"monitor" alias:"mon" description:"Live gripper hold loop with a position chart"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "OpenArm - gripper and arm control CLI for DM-series motors"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
