package ams

import "sync"

// stateCore is the shared mutable resource of every backend: the SystemInfo
// aggregate (with its embedded path/error segment fields) behind one mutex,
// plus the single event subscriber. The simulation backend and the vendor
// adapters both embed it, so all reads and writes serialize through the same
// lock regardless of which side (caller or worker) is mutating.
type stateCore struct {
	mu      sync.Mutex
	info    SystemInfo
	running bool
	sub     EventFunc
}

func (c *stateCore) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *stateCore) Type() Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.Type
}

func (c *stateCore) SystemInfo() SystemInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.clone()
}

// GateInfo returns an empty sentinel record for out-of-range indices; it
// never fails.
func (c *stateCore) GateInfo(globalIndex int) GateInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.info.gateInRange(globalIndex) {
		return GateInfo{GateIndex: -1, GlobalIndex: -1, Status: GateEmpty, MappedTool: ToolNone}
	}
	return c.info.Gates[globalIndex]
}

func (c *stateCore) CurrentAction() Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.Action
}

func (c *stateCore) CurrentTool() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.CurrentTool
}

func (c *stateCore) CurrentGate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.CurrentGate
}

func (c *stateCore) FilamentLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.FilamentLoaded
}

func (c *stateCore) Topology() Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.Topology
}

func (c *stateCore) UnitTopology(unit int) Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.unitTopology(unit)
}

func (c *stateCore) FilamentSegment() Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.FilamentSegment
}

func (c *stateCore) ErrorSegment() Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.ErrorSegment
}

func (c *stateCore) BypassActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.CurrentGate == GateBypass
}

// Subscribe installs the single event callback; a later call replaces it.
// Pass nil to unsubscribe.
func (c *stateCore) Subscribe(fn EventFunc) {
	c.mu.Lock()
	c.sub = fn
	c.mu.Unlock()
}

// emit copies the callback under the lock and invokes it unlocked, so a
// callback that calls straight back into the backend cannot deadlock and
// never observes a half-applied mutation (the caller's mutation committed
// before emit ran).
func (c *stateCore) emit(event, payload string) {
	c.mu.Lock()
	fn := c.sub
	c.mu.Unlock()
	if fn != nil {
		recordEvent(event)
		fn(event, payload)
	}
}
