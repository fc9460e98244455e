package main

import (
	"fmt"
	"os"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
	"github.com/openarm-community/openarm-go/pkg/backend"
)

// drainWindow bounds the receive drain around enable and disable.
const drainWindow = 50 * time.Millisecond

func openArm(cfg *arm.Config) (*arm.Arm, error) {
	return backend.OpenArm(cfg)
}

func bringUp(a *arm.Arm) error {
	return a.Startup(drainWindow)
}

// shutDown runs on defer, so failures only warn.
func shutDown(a *arm.Arm) {
	if err := a.Shutdown(drainWindow); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func loadConfig(path string) (*arm.Config, error) {
	if path == "" {
		path = arm.DefaultConfigFile
	}
	cfg, err := arm.LoadConfigFrom(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no configuration at %s, run 'openarm setup' first", path)
		}
		return nil, err
	}
	return cfg, nil
}
