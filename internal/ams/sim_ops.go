package ams

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

func errNotRunning() *Error {
	return newError(ResultWrongState, "backend not running", "The filament system is not running").
		withRemedy("Start the backend before issuing operations")
}

func errBusy(detail string) *Error {
	return newError(ResultBusy, "operation in progress: "+detail,
		"Another filament operation is already in progress").
		withRemedy("Wait for the current operation to finish or cancel it")
}

// beginWorkerLocked allocates cancellation bookkeeping for a new worker and
// hands back the previous worker's handles. The caller must hold mu, and
// must cancel+join the previous handles after unlocking, before launching
// the new goroutine. Any leftover worker is already cancelled (Cancel and
// Recover flip the action to IDLE and cancel its context without joining),
// so the join is only a brief wind-down.
func (s *Sim) beginWorkerLocked() (ctx context.Context, done chan struct{}, gen uint64, prevCancel context.CancelFunc, prevDone chan struct{}) {
	prevCancel, prevDone = s.cancel, s.done
	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan struct{})
	s.gen++
	gen = s.gen
	s.cancel, s.done = cancel, done
	return ctx, done, gen, prevCancel, prevDone
}

func reap(cancel context.CancelFunc, done chan struct{}) {
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// LoadFilament validates and, on acceptance, animates filament from the
// spool to the nozzle in the background.
func (s *Sim) LoadFilament(gate int) error {
	err := errOrNil(s.loadFilament(gate))
	recordOperation("load", err)
	return err
}

func (s *Sim) loadFilament(gate int) *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if !s.info.gateInRange(gate) {
		s.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [0,%d)", gate, s.info.TotalGates),
			"That gate does not exist")
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	switch s.info.Gates[gate].Status {
	case GateEmpty:
		s.mu.Unlock()
		return newError(ResultGateNotAvailable,
			fmt.Sprintf("gate %d is empty", gate),
			"No filament is present in that gate").
			withRemedy("Insert a spool into the gate")
	case GateBlocked:
		s.mu.Unlock()
		return newError(ResultGateBlocked,
			fmt.Sprintf("gate %d is blocked", gate),
			"That gate is blocked").
			withRemedy("Clear the blockage, then retry")
	}
	ctx, done, gen, prevCancel, prevDone := s.beginWorkerLocked()
	delay := s.delay
	s.info.Action = ActionLoading
	s.info.FilamentSegment = SegmentSpool
	s.info.OperationDetail = fmt.Sprintf("Loading gate %d", gate)
	recordAction(ActionLoading)
	s.mu.Unlock()

	reap(prevCancel, prevDone)
	s.emit(EventStateChanged, "")
	go s.runLoad(ctx, done, gen, gate, delay, time.Now())
	return nil
}

// UnloadFilament retracts the loaded filament back past the gate.
func (s *Sim) UnloadFilament() error {
	err := errOrNil(s.unloadFilament())
	recordOperation("unload", err)
	return err
}

func (s *Sim) unloadFilament() *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	if !s.info.FilamentLoaded || s.info.CurrentGate == GateNone {
		s.mu.Unlock()
		return newError(ResultWrongState, "no filament loaded", "There is no filament to unload")
	}
	if s.info.CurrentGate == GateBypass {
		s.mu.Unlock()
		return newError(ResultWrongState, "bypass active", "Bypass is active").
			withRemedy("Disable bypass instead of unloading")
	}
	gate := s.info.CurrentGate
	ctx, done, gen, prevCancel, prevDone := s.beginWorkerLocked()
	delay := s.delay
	s.info.Action = ActionUnloading
	s.info.FilamentSegment = SegmentNozzle
	s.info.OperationDetail = fmt.Sprintf("Unloading gate %d", gate)
	recordAction(ActionUnloading)
	s.mu.Unlock()

	reap(prevCancel, prevDone)
	s.emit(EventStateChanged, "")
	go s.runUnload(ctx, done, gen, gate, delay, time.Now())
	return nil
}

// SelectGate points the selector at a gate without moving filament.
func (s *Sim) SelectGate(gate int) error {
	err := errOrNil(s.selectGate(gate))
	recordOperation("select", err)
	return err
}

func (s *Sim) selectGate(gate int) *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	if !s.info.gateInRange(gate) {
		s.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [0,%d)", gate, s.info.TotalGates),
			"That gate does not exist")
	}
	if s.info.FilamentLoaded {
		s.mu.Unlock()
		return newError(ResultWrongState, "filament loaded", "Filament is currently loaded").
			withRemedy("Unload before selecting another gate")
	}
	s.info.CurrentGate = gate
	s.mu.Unlock()
	s.emit(EventStateChanged, "")
	return nil
}

// ChangeTool composes an unload (when a different gate is loaded) and a load
// of the gate mapped to the tool, emitting TOOL_CHANGED on completion.
func (s *Sim) ChangeTool(tool int) error {
	err := errOrNil(s.changeTool(tool))
	recordOperation("tool_change", err)
	return err
}

func (s *Sim) changeTool(tool int) *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if tool < 0 || tool >= len(s.info.ToolToGateMap) {
		s.mu.Unlock()
		return newError(ResultInvalidTool,
			fmt.Sprintf("tool %d out of range [0,%d)", tool, len(s.info.ToolToGateMap)),
			"That tool does not exist")
	}
	gate := s.info.ToolToGateMap[tool]
	if !s.info.gateInRange(gate) {
		s.mu.Unlock()
		return newError(ResultInvalidTool,
			fmt.Sprintf("tool %d is not mapped to a gate", tool),
			"That tool has no gate assigned").
			withRemedy("Assign a gate to the tool first")
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	if s.info.CurrentGate == GateBypass {
		s.mu.Unlock()
		return newError(ResultWrongState, "bypass active", "Bypass is active").
			withRemedy("Disable bypass before changing tools")
	}
	switch s.info.Gates[gate].Status {
	case GateEmpty:
		s.mu.Unlock()
		return newError(ResultGateNotAvailable,
			fmt.Sprintf("gate %d mapped to tool %d is empty", gate, tool),
			"The gate assigned to that tool has no filament").
			withRemedy("Insert a spool into the mapped gate")
	case GateBlocked:
		s.mu.Unlock()
		return newError(ResultGateBlocked,
			fmt.Sprintf("gate %d mapped to tool %d is blocked", gate, tool),
			"The gate assigned to that tool is blocked").
			withRemedy("Clear the blockage, then retry")
	}

	// Already on the mapped gate: complete immediately.
	if s.info.FilamentLoaded && s.info.CurrentGate == gate {
		s.info.CurrentTool = tool
		s.mu.Unlock()
		s.emit(EventToolChanged, strconv.Itoa(gate))
		s.emit(EventStateChanged, "")
		return nil
	}

	unloadFirst := s.info.FilamentLoaded && s.info.CurrentGate != GateBypass
	prevGate := s.info.CurrentGate
	ctx, done, gen, prevCancel, prevDone := s.beginWorkerLocked()
	delay := s.delay
	if unloadFirst {
		s.info.Action = ActionUnloading
		s.info.FilamentSegment = SegmentNozzle
		recordAction(ActionUnloading)
	} else {
		s.info.Action = ActionLoading
		s.info.FilamentSegment = SegmentSpool
		recordAction(ActionLoading)
	}
	s.info.OperationDetail = fmt.Sprintf("Changing to tool %d", tool)
	s.mu.Unlock()

	reap(prevCancel, prevDone)
	s.emit(EventStateChanged, "")
	go s.runToolChange(ctx, done, gen, tool, gate, prevGate, unloadFirst, delay, time.Now())
	return nil
}

// Recover unconditionally returns the backend to IDLE and clears the error
// surface. Always succeeds while running.
func (s *Sim) Recover() error {
	err := errOrNil(s.recover())
	recordOperation("recover", err)
	return err
}

func (s *Sim) recover() *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	// Cancel under the lock; any worker that runs next sees a dead context
	// and winds itself down without emitting.
	if s.cancel != nil {
		s.cancel()
	}
	s.info.Action = ActionIdle
	s.info.OperationDetail = ""
	s.info.ErrorSegment = SegmentNone
	recordAction(ActionIdle)
	s.mu.Unlock()
	s.emit(EventStateChanged, "")
	return nil
}

// Reset enters RESETTING for the full configured delay, with no segment
// animation, then returns to IDLE.
func (s *Sim) Reset() error {
	err := errOrNil(s.reset())
	recordOperation("reset", err)
	return err
}

func (s *Sim) reset() *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	ctx, done, gen, prevCancel, prevDone := s.beginWorkerLocked()
	delay := s.delay
	s.info.Action = ActionResetting
	s.info.OperationDetail = "Resetting"
	recordAction(ActionResetting)
	s.mu.Unlock()

	reap(prevCancel, prevDone)
	s.emit(EventStateChanged, "")
	go s.runReset(ctx, done, gen, delay, time.Now())
	return nil
}

// Cancel aborts the in-flight operation without waiting for the worker; the
// worker observes the cancelled context on its next wait and exits without
// emitting completion events. No-op success when idle.
func (s *Sim) Cancel() error {
	err := errOrNil(s.cancelOp())
	recordOperation("cancel", err)
	return err
}

func (s *Sim) cancelOp() *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if s.info.Action == ActionIdle {
		s.mu.Unlock()
		return nil
	}
	// Cancel while still holding the lock so a worker that acquires it next
	// already sees a dead context and cannot commit completion.
	if s.cancel != nil {
		s.cancel()
	}
	s.info.Action = ActionIdle
	s.info.OperationDetail = ""
	recordAction(ActionIdle)
	s.mu.Unlock()
	s.emit(EventStateChanged, "")
	return nil
}

// SetGateInfo replaces a gate's metadata. Index fields are pinned to the
// slot being written.
func (s *Sim) SetGateInfo(gate int, info GateInfo) error {
	err := errOrNil(s.setGateInfo(gate, info))
	recordOperation("set_gate", err)
	return err
}

func (s *Sim) setGateInfo(gate int, info GateInfo) *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	if !s.info.gateInRange(gate) {
		s.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [0,%d)", gate, s.info.TotalGates),
			"That gate does not exist")
	}
	info.GlobalIndex = gate
	info.GateIndex = s.info.Gates[gate].GateIndex
	s.info.Gates[gate] = info
	s.mu.Unlock()
	s.emit(EventGateChanged, strconv.Itoa(gate))
	return nil
}

// SetToolMapping assigns a gate (or GateNone/GateBypass) to a tool slot.
func (s *Sim) SetToolMapping(tool, gate int) error {
	err := errOrNil(s.setToolMapping(tool, gate))
	recordOperation("set_toolmap", err)
	return err
}

func (s *Sim) setToolMapping(tool, gate int) *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	if tool < 0 || tool >= len(s.info.ToolToGateMap) {
		s.mu.Unlock()
		return newError(ResultInvalidTool,
			fmt.Sprintf("tool %d out of range [0,%d)", tool, len(s.info.ToolToGateMap)),
			"That tool does not exist")
	}
	if gate < GateBypass || gate >= s.info.TotalGates {
		s.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [%d,%d)", gate, GateBypass, s.info.TotalGates),
			"That gate does not exist")
	}
	s.info.ToolToGateMap[tool] = gate
	if s.info.gateInRange(gate) {
		s.info.Gates[gate].MappedTool = tool
	}
	s.mu.Unlock()
	s.emit(EventGateChanged, strconv.Itoa(gate))
	return nil
}

// EnableBypass routes an external spool straight to the toolhead, modeled as
// CurrentGate == GateBypass.
func (s *Sim) EnableBypass() error {
	err := errOrNil(s.enableBypass())
	recordOperation("bypass_enable", err)
	return err
}

func (s *Sim) enableBypass() *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if !s.info.SupportsBypass {
		s.mu.Unlock()
		return newError(ResultWrongState, "bypass not supported", "This system has no bypass")
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	if s.info.FilamentLoaded {
		s.mu.Unlock()
		return newError(ResultWrongState, "filament loaded", "Filament is currently loaded").
			withRemedy("Unload before enabling bypass")
	}
	s.info.CurrentGate = GateBypass
	s.info.FilamentLoaded = true
	s.info.FilamentSegment = SegmentNozzle
	s.mu.Unlock()
	s.emit(EventStateChanged, "")
	return nil
}

// DisableBypass returns from bypass to the unloaded baseline.
func (s *Sim) DisableBypass() error {
	err := errOrNil(s.disableBypass())
	recordOperation("bypass_disable", err)
	return err
}

func (s *Sim) disableBypass() *Error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errNotRunning()
	}
	if s.info.Action != ActionIdle {
		detail := string(s.info.Action)
		s.mu.Unlock()
		return errBusy(detail)
	}
	if s.info.CurrentGate != GateBypass {
		s.mu.Unlock()
		return newError(ResultWrongState, "bypass not active", "Bypass is not active")
	}
	s.info.CurrentGate = GateNone
	s.info.FilamentLoaded = false
	s.info.FilamentSegment = SegmentNone
	s.mu.Unlock()
	s.emit(EventStateChanged, "")
	return nil
}

// errOrNil converts a typed *Error to the error interface without wrapping
// a typed nil.
func errOrNil(e *Error) error {
	if e == nil {
		return nil
	}
	return e
}
