package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openarm-community/openarm-go/pkg/arm"
	"github.com/openarm-community/openarm-go/pkg/sim"
)

func newTestController(t *testing.T) (*Controller, *sim.Driver) {
	t.Helper()
	drv := sim.New()
	a := arm.New(drv)
	if err := a.InitGripper(arm.DM4310, 0x08, 0x18); err != nil {
		t.Fatal(err)
	}
	ctrl, err := NewController(Config{Arm: a, Kp: 4, Kd: 1, Hz: 100, Target: 1})
	if err != nil {
		t.Fatal(err)
	}
	return ctrl, drv
}

func TestNewControllerRequiresGripper(t *testing.T) {
	a := arm.New(sim.New())
	if _, err := NewController(Config{Arm: a}); err == nil {
		t.Fatal("controller without a gripper should fail")
	}
}

func TestSetTargetClamps(t *testing.T) {
	ctrl, _ := newTestController(t)

	ctrl.SetTarget(1.5)
	if got := ctrl.Target(); got != 1 {
		t.Errorf("target = %v, want clamp to 1", got)
	}
	ctrl.SetTarget(-0.2)
	if got := ctrl.Target(); got != 0 {
		t.Errorf("target = %v, want clamp to 0", got)
	}
}

func TestToggle(t *testing.T) {
	ctrl, _ := newTestController(t)

	ctrl.SetTarget(1)
	ctrl.Toggle()
	if got := ctrl.Target(); got != 0 {
		t.Errorf("toggle from 1: target = %v, want 0", got)
	}
	ctrl.Toggle()
	if got := ctrl.Target(); got != 1 {
		t.Errorf("toggle from 0: target = %v, want 1", got)
	}
}

func TestControllerPublishesStates(t *testing.T) {
	ctrl, _ := newTestController(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ctrl.Start(ctx)
	}()

	var last State
	for i := 0; i < 5; i++ {
		select {
		case last = <-ctrl.States():
		case <-time.After(time.Second):
			t.Fatal("no state within a second")
		}
	}
	if last.Target != 1 {
		t.Errorf("sampled target = %v, want 1", last.Target)
	}
	if !last.Known {
		t.Error("position still unknown after five samples")
	}
	if last.Position <= 0 {
		t.Errorf("position = %v, want movement toward closed", last.Position)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("controller did not stop after cancel")
	}
}

func TestStopThenClose(t *testing.T) {
	// Once Start has returned, the shutdown sequence is complete and
	// the driver can be closed without racing the controller.
	ctrl, drv := newTestController(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Start(ctx)
	}()

	select {
	case <-ctrl.States():
	case <-time.After(time.Second):
		t.Fatal("no state within a second")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller did not stop after cancel")
	}

	if err := drv.Close(); err != nil {
		t.Errorf("close after stop: %v", err)
	}
}
