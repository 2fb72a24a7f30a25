package ams

// Backend is the uniform contract every AMS implementation satisfies: the
// simulation backend and the vendor adapters are interchangeable behind it.
// Queries take the backend's lock and return copies. Mutating operations
// validate synchronously (returning a typed *Error) and, once accepted,
// complete asynchronously through the event channel.
type Backend interface {
	// Start transitions the backend to running and emits an initial
	// STATE_CHANGED. Idempotent.
	Start() error
	// Stop halts the backend. Idempotent and silent: it may run during
	// process teardown, so it must not log.
	Stop()
	IsRunning() bool
	// Close cancels and joins any in-flight worker before teardown.
	Close()

	Type() Type

	SystemInfo() SystemInfo
	// GateInfo returns an empty sentinel record for out-of-range indices;
	// it never fails.
	GateInfo(globalIndex int) GateInfo
	CurrentAction() Action
	CurrentTool() int
	CurrentGate() int
	FilamentLoaded() bool
	Topology() Topology
	// UnitTopology falls back to the system topology for unknown or
	// negative unit indices.
	UnitTopology(unit int) Topology
	FilamentSegment() Segment
	ErrorSegment() Segment

	LoadFilament(gate int) error
	UnloadFilament() error
	SelectGate(gate int) error
	ChangeTool(tool int) error
	Recover() error
	Reset() error
	Cancel() error

	SetGateInfo(gate int, info GateInfo) error
	SetToolMapping(tool, gate int) error

	EnableBypass() error
	DisableBypass() error
	BypassActive() bool

	// Subscribe registers the single event callback; a second call
	// replaces the first. Pass nil to unsubscribe.
	Subscribe(fn EventFunc)
}
