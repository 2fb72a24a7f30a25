package ams

// Type identifies the kind of AMS hardware a backend drives.
type Type string

const (
	TypeNone        Type = "none"
	TypeSimulation  Type = "simulation"
	TypeHappyHare   Type = "happy_hare"
	TypeAFC         Type = "afc"
	TypeValgACE     Type = "valgace"
	TypeToolChanger Type = "toolchanger"
)

// GateStatus is the filament availability state of a single gate.
type GateStatus string

const (
	GateEmpty     GateStatus = "empty"
	GateAvailable GateStatus = "available"
	GateLoaded    GateStatus = "loaded"
	GateFault     GateStatus = "error"
	GateBlocked   GateStatus = "blocked"
)

// Topology is the physical filament routing arrangement of a unit.
type Topology string

const (
	TopologyLinear   Topology = "linear"
	TopologyHub      Topology = "hub"
	TopologyParallel Topology = "parallel"
)

// Segment is a physical checkpoint along the filament path. It exists for
// progress visualization only; no state machine decision keys off it.
type Segment string

const (
	SegmentNone     Segment = "none"
	SegmentSpool    Segment = "spool"
	SegmentPrep     Segment = "prep"
	SegmentLane     Segment = "lane"
	SegmentHub      Segment = "hub"
	SegmentOutput   Segment = "output"
	SegmentToolhead Segment = "toolhead"
	SegmentNozzle   Segment = "nozzle"
)

// loadSequence is the forward path a load animates through. unloadSequence
// runs the path in reverse plus an explicit terminal NONE step, so observers
// see "fully detached" as its own state change. The asymmetry is deliberate;
// do not unify the two.
var loadSequence = []Segment{
	SegmentSpool, SegmentPrep, SegmentLane, SegmentHub,
	SegmentOutput, SegmentToolhead, SegmentNozzle,
}

var unloadSequence = []Segment{
	SegmentNozzle, SegmentToolhead, SegmentOutput, SegmentHub,
	SegmentLane, SegmentPrep, SegmentSpool, SegmentNone,
}

// Action is the single in-flight operation class of a backend. Exactly one
// action is in effect per backend instance at any time.
type Action string

const (
	ActionIdle      Action = "idle"
	ActionLoading   Action = "loading"
	ActionUnloading Action = "unloading"
	ActionResetting Action = "resetting"
	ActionError     Action = "error"
)

// Sentinel values for SystemInfo.CurrentGate.
const (
	GateNone   = -1 // nothing loaded
	GateBypass = -2 // external spool fed directly to the toolhead
)

// ToolNone marks an unmapped tool slot or "no tool selected".
const ToolNone = -1

// GateInfo describes one filament-holding position. Mutated only by the
// owning backend under its lock; queries hand out copies.
type GateInfo struct {
	GateIndex   int        // unit-local index
	GlobalIndex int        // system-wide index
	Status      GateStatus
	MappedTool  int // ToolNone when unmapped

	Color    string
	Material string
	Brand    string
	SpoolID  int

	RemainingWeight float64
	TotalWeight     float64

	NozzleTempMin int
	NozzleTempMax int
}

// Unit groups the gates belonging to one physical device.
type Unit struct {
	UnitIndex        int
	Name             string
	GateCount        int
	FirstGlobalIndex int

	Connected       bool
	FirmwareVersion string

	HasEncoder        bool
	HasToolheadSensor bool
	HasGateSensors    bool
	HasBufferHealth   bool
	HasDryer          bool

	Topology Topology
}

// SystemInfo is the aggregate root mutated in place for the backend's
// lifetime. Units and gates are constructed once (at creation for the
// simulation backend, at connect time for vendor adapters) and never
// individually destroyed.
type SystemInfo struct {
	Type     Type
	Units    []Unit
	Gates    []GateInfo // flat, in global index order
	Topology Topology   // system default; units may override

	TotalGates int
	CurrentTool int
	CurrentGate int // GateBypass, GateNone, or [0, TotalGates)

	FilamentLoaded  bool
	Action          Action
	OperationDetail string

	ToolToGateMap []int // len == discovered tool count

	SupportsBypass          bool
	SupportsEndlessSpool    bool
	SupportsSpoolman        bool
	SupportsToolMapping     bool
	HasHardwareBypassSensor bool

	FilamentSegment Segment
	ErrorSegment    Segment
}

// clone deep-copies the slices so callers can hold the result without
// racing the backend's in-place mutation.
func (s SystemInfo) clone() SystemInfo {
	out := s
	out.Units = make([]Unit, len(s.Units))
	copy(out.Units, s.Units)
	out.Gates = make([]GateInfo, len(s.Gates))
	copy(out.Gates, s.Gates)
	out.ToolToGateMap = make([]int, len(s.ToolToGateMap))
	copy(out.ToolToGateMap, s.ToolToGateMap)
	return out
}

// unitTopology resolves a unit's topology, falling back to the system
// topology for unknown or negative unit indices.
func (s *SystemInfo) unitTopology(unit int) Topology {
	if unit >= 0 && unit < len(s.Units) {
		if t := s.Units[unit].Topology; t != "" {
			return t
		}
	}
	return s.Topology
}

// gateInRange reports whether g is a valid global gate index.
func (s *SystemInfo) gateInRange(g int) bool {
	return g >= 0 && g < s.TotalGates
}
