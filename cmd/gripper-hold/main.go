// Holds the gripper closed, then open, reissuing the command at a
// fixed rate so the motor keeps tracking the target.
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
		hold       = flag.Float64("hold", 3.0, "Hold duration per phase in seconds")
		rate       = flag.Int("rate", 50, "Command rate in Hz")
		pause      = flag.Duration("pause", 500*time.Millisecond, "Pause between the two phases")
		kp         = flag.Float64("kp", 4.0, "Stiffness gain")
		kd         = flag.Float64("kd", 1.0, "Damping gain")
	)
	flag.Parse()

	if err := run(*configPath, *hold, *rate, *pause, *kp, *kd); err != nil {
		fmt.Fprintf(os.Stderr, "gripper-hold: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, hold float64, rate int, pause time.Duration, kp, kd float64) error {
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
	session := refresh.Session{
		Duration: time.Duration(hold * float64(time.Second)),
		Rate:     rate,
	}

	for i, phase := range []struct {
		name string
		kind arm.CommandKind
	}{
		{"close", arm.KindClose},
		{"open", arm.KindOpen},
	} {
		if i > 0 {
			time.Sleep(pause)
		}
		fmt.Printf("Holding %s for %.1fs at %d Hz...\n", phase.name, hold, rate)
		issued, err := refresh.Hold(g.HoldTarget(phase.kind, kp, kd), session)
		if err != nil {
			return fmt.Errorf("hold %s after %d commands: %w", phase.name, issued, err)
		}
		if pos, ok := g.Position(); ok {
			fmt.Printf("  %d commands, position %.3f\n", issued, pos)
		} else {
			fmt.Printf("  %d commands, no status received\n", issued)
		}
	}

	return nil
}
