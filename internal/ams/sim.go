package ams

import (
	"context"
	"fmt"
	"time"
)

// Defaults and clamps for simulation construction.
const (
	defaultSimUnits        = 1
	defaultSimGatesPerUnit = 4
	defaultSimDelay        = 3 * time.Second

	minSimUnits        = 1
	maxSimUnits        = 4
	minSimGatesPerUnit = 1
	maxSimGatesPerUnit = 12
)

// Demo scenarios accepted by SimConfig.Scenario.
const (
	ScenarioFresh    = "fresh"
	ScenarioPrinting = "printing"
	ScenarioBypass   = "bypass"
	ScenarioErrorJam = "error-jam"
)

// SimConfig encapsulates all tunables for simulation construction.
// Zero values select package defaults.
type SimConfig struct {
	Units        int
	GatesPerUnit int
	Topology     Topology
	Delay        time.Duration
	Scenario     string
	Dryer        bool
	BypassSensor bool
}

// Sim is the self-contained reference implementation of the backend state
// machine. It drives asynchronous progression from a timer instead of
// hardware status and defines the behavior the vendor adapters must match.
type Sim struct {
	stateCore

	delay time.Duration

	// worker bookkeeping, guarded by mu. gen identifies the current
	// worker so a finished one only clears its own entry.
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}

	// test hook: fault injected into the next worker step
	inject Result
}

var _ Backend = (*Sim)(nil)

// NewSim constructs a simulation backend with deterministic sample filament
// data. Unit and gate counts are clamped to the supported range.
func NewSim(cfg SimConfig) *Sim {
	units := clamp(cfg.Units, minSimUnits, maxSimUnits, defaultSimUnits)
	perUnit := clamp(cfg.GatesPerUnit, minSimGatesPerUnit, maxSimGatesPerUnit, defaultSimGatesPerUnit)
	topo := cfg.Topology
	if topo == "" {
		topo = TopologyHub
	}
	delay := cfg.Delay
	if delay == 0 {
		delay = defaultSimDelay
	}
	if delay < 0 {
		delay = 0
	}

	total := units * perUnit
	info := SystemInfo{
		Type:        TypeSimulation,
		Topology:    topo,
		TotalGates:  total,
		CurrentTool: ToolNone,
		CurrentGate: GateNone,
		Action:      ActionIdle,

		FilamentSegment: SegmentNone,
		ErrorSegment:    SegmentNone,

		SupportsBypass:          true,
		SupportsEndlessSpool:    true,
		SupportsSpoolman:        true,
		SupportsToolMapping:     true,
		HasHardwareBypassSensor: cfg.BypassSensor,
	}
	for u := 0; u < units; u++ {
		info.Units = append(info.Units, Unit{
			UnitIndex:         u,
			Name:              fmt.Sprintf("AMS-%d", u+1),
			GateCount:         perUnit,
			FirstGlobalIndex:  u * perUnit,
			Connected:         true,
			FirmwareVersion:   "1.0.0-sim",
			HasEncoder:        true,
			HasToolheadSensor: true,
			HasGateSensors:    true,
			HasBufferHealth:   topo == TopologyHub,
			HasDryer:          cfg.Dryer && u == 0,
			Topology:          topo,
		})
		for g := 0; g < perUnit; g++ {
			info.Gates = append(info.Gates, sampleGate(g, u*perUnit+g))
		}
	}
	info.ToolToGateMap = make([]int, total)
	for i := range info.ToolToGateMap {
		info.ToolToGateMap[i] = i
	}

	applyScenario(&info, cfg.Scenario)

	s := &Sim{delay: delay}
	s.info = info
	return s
}

func clamp(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func applyScenario(info *SystemInfo, scenario string) {
	switch scenario {
	case ScenarioPrinting:
		info.CurrentGate = 0
		info.CurrentTool = 0
		info.FilamentLoaded = true
		info.Gates[0].Status = GateLoaded
		info.FilamentSegment = SegmentNozzle
	case ScenarioBypass:
		info.CurrentGate = GateBypass
		info.FilamentLoaded = true
		info.FilamentSegment = SegmentNozzle
	case ScenarioErrorJam:
		info.Action = ActionError
		info.ErrorSegment = SegmentHub
		info.OperationDetail = "Filament jam detected at hub"
	}
}

// Start transitions to running and emits the initial STATE_CHANGED once.
func (s *Sim) Start() error {
	s.mu.Lock()
	started := !s.running
	s.running = true
	s.mu.Unlock()
	if started {
		s.emit(EventStateChanged, "")
	}
	return nil
}

// Stop cancels and joins any in-flight worker and halts the backend.
// Idempotent, and deliberately silent: it can run during process teardown
// when logging infrastructure is already gone.
func (s *Sim) Stop() {
	s.mu.Lock()
	s.running = false
	s.sub = nil
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Close stops the backend. The cancel-and-join in Stop must complete before
// any other teardown; a live worker touching a reclaimed backend is the
// failure mode this guards against.
func (s *Sim) Close() { s.Stop() }

// SetDelay adjusts the total per-operation delay (test hook).
func (s *Sim) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// InjectError arms a fault that fires at the next worker step (test hook).
func (s *Sim) InjectError(code Result) {
	s.mu.Lock()
	s.inject = code
	s.mu.Unlock()
}

// ForceGateStatus overrides a gate's status directly (test hook).
func (s *Sim) ForceGateStatus(gate int, status GateStatus) {
	s.mu.Lock()
	if s.info.gateInRange(gate) {
		s.info.Gates[gate].Status = status
	}
	s.mu.Unlock()
}

// SetBypassSensor toggles whether a hardware bypass sensor is reported.
// Purely informational: it changes the capability flag, never bypass
// behavior.
func (s *Sim) SetBypassSensor(present bool) {
	s.mu.Lock()
	s.info.HasHardwareBypassSensor = present
	s.mu.Unlock()
}
