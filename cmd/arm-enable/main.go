// Enables the configured arm motors, collects status frames for a
// moment and prints what each motor reported.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
	"github.com/openarm-community/openarm-go/pkg/backend"
)

func main() {
	var (
		configPath = flag.String("config", arm.DefaultConfigFile, "Configuration file")
		settle     = flag.Duration("settle", 500*time.Millisecond, "How long to collect status frames")
	)
	flag.Parse()

	if err := run(*configPath, *settle); err != nil {
		fmt.Fprintf(os.Stderr, "arm-enable: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, settle time.Duration) error {
	cfg, err := arm.LoadConfigFrom(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No %s, using the simulated backend with two arm motors\n", configPath)
			cfg = arm.DefaultConfig()
			cfg.Arm.Motors = []arm.MotorConfig{
				{Type: arm.DM4310, SendID: 0x01, RecvID: 0x11},
				{Type: arm.DM4310, SendID: 0x02, RecvID: 0x12},
			}
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

	n, err := a.Recv(settle)
	if err != nil {
		return fmt.Errorf("collect status: %w", err)
	}
	fmt.Printf("Enabled, %d status update(s) in %v\n", n, settle)

	motors := append(a.Motors(), a.Gripper().Motor())
	for _, m := range motors {
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
