// Sweeps the gripper from closed to open in small steps, pauses, then
// sweeps back, printing the reported position along the way.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
	"github.com/openarm-community/openarm-go/pkg/backend"
	"github.com/openarm-community/openarm-go/pkg/refresh"
)

func main() {
	var (
		configPath = flag.String("config", arm.DefaultConfigFile, "Configuration file")
		steps      = flag.Int("steps", 30, "Intermediate positions per sweep")
		delay      = flag.Duration("delay", 100*time.Millisecond, "Pause between steps")
		pause      = flag.Duration("pause", 800*time.Millisecond, "Pause between the two sweeps")
		kp         = flag.Float64("kp", 4.0, "Stiffness gain")
		kd         = flag.Float64("kd", 1.0, "Damping gain")
	)
	flag.Parse()

	if err := run(*configPath, *steps, *delay, *pause, *kp, *kd); err != nil {
		fmt.Fprintf(os.Stderr, "gripper-slow: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, steps int, delay, pause time.Duration, kp, kd float64) error {
	cfg, err := arm.LoadConfigFrom(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No %s, using the simulated backend\n", configPath)
			cfg = arm.DefaultConfig()
		} else {
			return err
		}
	}

	a, err := backend.OpenArm(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Startup(50 * time.Millisecond); err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(50 * time.Millisecond); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	g := a.Gripper()
	session := refresh.RampSession{Steps: steps, StepDelay: delay}

	fmt.Printf("Opening in %d steps...\n", steps)
	if _, err := refresh.Ramp(g.RampTarget(kp, kd), 1.0, 0.0, session); err != nil {
		return fmt.Errorf("open sweep: %w", err)
	}
	printPosition(g)

	time.Sleep(pause)

	fmt.Printf("Closing in %d steps...\n", steps)
	if _, err := refresh.Ramp(g.RampTarget(kp, kd), 0.0, 1.0, session); err != nil {
		return fmt.Errorf("close sweep: %w", err)
	}
	printPosition(g)

	return nil
}

func printPosition(g *arm.Gripper) {
	if pos, ok := g.Position(); ok {
		fmt.Printf("  position %.3f\n", pos)
	} else {
		fmt.Println("  no status received")
	}
}
