package amsctl

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"amsd/internal/ams"
	"amsd/internal/httpapi"
	"amsd/pkg/types"
)

// newTestDaemon serves the real API over a zero-delay simulation backend.
func newTestDaemon(t *testing.T) (string, *ams.Sim) {
	t.Helper()
	sim := ams.NewSim(ams.SimConfig{GatesPerUnit: 4, Delay: -1})
	hub := httpapi.NewEventHub()
	sim.Subscribe(hub.Publish)
	if err := sim.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(sim, hub))
	t.Cleanup(func() {
		srv.Close()
		sim.Close()
	})
	return srv.URL, sim
}

func waitLoaded(t *testing.T, sim *ams.Sim) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !sim.FilamentLoaded() || sim.CurrentAction() != ams.ActionIdle {
		if time.Now().After(deadline) {
			t.Fatalf("load never completed")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestClientStatusAndGates(t *testing.T) {
	addr, _ := newTestDaemon(t)
	c := NewClient(addr)

	s, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if s.TotalGates != 4 || s.Action != "idle" {
		t.Fatalf("status: %+v", s)
	}

	gates, err := c.Gates()
	if err != nil {
		t.Fatalf("gates: %v", err)
	}
	if len(gates) != 4 {
		t.Fatalf("gates: %d", len(gates))
	}
	g, err := c.Gate(2)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	if g.GlobalIndex != 2 {
		t.Fatalf("gate: %+v", g)
	}
	if _, err := c.Gate(99); err == nil {
		t.Fatalf("expected error for missing gate")
	}
}

func TestClientOperations(t *testing.T) {
	addr, sim := newTestDaemon(t)
	c := NewClient(addr)

	op, err := c.Load(1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if op.Result != "success" {
		t.Fatalf("load result: %+v", op)
	}
	waitLoaded(t, sim)

	if _, err := c.Unload(); err != nil {
		t.Fatalf("unload: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for sim.FilamentLoaded() {
		if time.Now().After(deadline) {
			t.Fatalf("unload never completed")
		}
		time.Sleep(2 * time.Millisecond)
	}

	if _, err := c.MapTool(0, 3); err != nil {
		t.Fatalf("map: %v", err)
	}
	if _, err := c.Bypass(true); err != nil {
		t.Fatalf("bypass on: %v", err)
	}
	if _, err := c.Bypass(false); err != nil {
		t.Fatalf("bypass off: %v", err)
	}
}

func TestClientSurfacesRemedy(t *testing.T) {
	addr, sim := newTestDaemon(t)
	c := NewClient(addr)
	sim.ForceGateStatus(0, ams.GateEmpty)

	_, err := c.Load(0)
	if err == nil {
		t.Fatalf("expected error loading an empty gate")
	}
	if !strings.Contains(err.Error(), "Insert a spool") {
		t.Fatalf("remedy missing from error: %v", err)
	}
}

func TestClientWatch(t *testing.T) {
	addr, _ := newTestDaemon(t)
	c := NewClient(addr)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Load(0)
	}()

	var sawComplete bool
	err := c.Watch(ctx, func(ev types.Event) error {
		if ev.Name == ams.EventLoadComplete {
			sawComplete = true
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !sawComplete {
		t.Fatalf("LOAD_COMPLETE never observed")
	}
}

func TestCLIStatusCommand(t *testing.T) {
	addr, _ := newTestDaemon(t)

	root := BuildRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--addr", addr, "status"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "simulation") {
		t.Fatalf("status output: %q", out.String())
	}
}

func TestCLILoadAndGates(t *testing.T) {
	addr, sim := newTestDaemon(t)

	root := BuildRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--addr", addr, "load", "2"})
	if err := root.Execute(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(out.String(), "success") {
		t.Fatalf("load output: %q", out.String())
	}
	waitLoaded(t, sim)

	out.Reset()
	root = BuildRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--addr", addr, "gates"})
	if err := root.Execute(); err != nil {
		t.Fatalf("gates: %v", err)
	}
	if !strings.Contains(out.String(), "loaded") {
		t.Fatalf("gates output: %q", out.String())
	}
}

func TestCLIRejectsBadArguments(t *testing.T) {
	root := BuildRootCmd()
	root.SetArgs([]string{"load", "two"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for non-integer gate")
	}
	root = BuildRootCmd()
	root.SetArgs([]string{"bypass", "maybe"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for bad bypass mode")
	}
}

func TestGateLabel(t *testing.T) {
	if gateLabel(-1) != "none" || gateLabel(-2) != "bypass" || gateLabel(3) != "3" {
		t.Fatalf("gate labels wrong")
	}
}
