package ams

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// waitStep blocks for d or until the context is cancelled. Returns false on
// cancellation so callers can exit without emitting anything further.
func waitStep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// reapSelf clears the worker bookkeeping if it still belongs to this worker;
// a successor that already replaced it is left alone.
func (s *Sim) reapSelf(gen uint64) {
	s.mu.Lock()
	if s.gen == gen {
		s.cancel, s.done = nil, nil
	}
	s.mu.Unlock()
}

// takeInjectedLocked consumes a pending injected fault. Caller holds mu.
func (s *Sim) takeInjectedLocked() Result {
	code := s.inject
	s.inject = ""
	return code
}

// failOp commits a runtime fault: ERROR action, inferred error segment,
// detail string, then ERROR followed by STATE_CHANGED. Caller holds mu.
func (s *Sim) failOpLocked(code Result, op string) {
	e := newError(code, fmt.Sprintf("%s failed: %s", op, code),
		"The filament system reported a fault during "+op).
		withRemedy("Check the filament path, then recover")
	s.info.Action = ActionError
	s.info.ErrorSegment = faultSegment(code, s.info.FilamentSegment)
	s.info.OperationDetail = e.User
	recordAction(ActionError)
	s.mu.Unlock()
	s.emit(EventError, e.Error())
	s.emit(EventStateChanged, "")
}

// stepThrough advances the filament segment through seq one step at a time,
// holding delay/(len(seq)-1) per step. seq[0] was already applied
// synchronously at acceptance. Returns false if the worker must stop
// (cancellation or injected fault).
func (s *Sim) stepThrough(ctx context.Context, seq []Segment, detail string, delay time.Duration, op string) bool {
	step := delay / time.Duration(len(seq)-1)
	for _, seg := range seq[1:] {
		if !waitStep(ctx, step) {
			return false
		}
		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return false
		}
		if code := s.takeInjectedLocked(); code != "" {
			s.failOpLocked(code, op) // unlocks
			return false
		}
		s.info.FilamentSegment = seg
		s.info.OperationDetail = fmt.Sprintf("%s: filament at %s", detail, seg)
		s.mu.Unlock()
		s.emit(EventStateChanged, "")
	}
	return true
}

func (s *Sim) runLoad(ctx context.Context, done chan struct{}, gen uint64, gate int, delay time.Duration, start time.Time) {
	defer close(done)
	defer s.reapSelf(gen)

	if !s.stepThrough(ctx, loadSequence, fmt.Sprintf("Loading gate %d", gate), delay, "load") {
		return
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.info.FilamentLoaded = true
	s.info.CurrentGate = gate
	s.info.CurrentTool = gate
	s.info.Gates[gate].Status = GateLoaded
	s.info.Action = ActionIdle
	s.info.OperationDetail = ""
	recordAction(ActionIdle)
	s.mu.Unlock()

	observeOperation("load", start)
	s.emit(EventLoadComplete, strconv.Itoa(gate))
	s.emit(EventStateChanged, "")
}

func (s *Sim) runUnload(ctx context.Context, done chan struct{}, gen uint64, gate int, delay time.Duration, start time.Time) {
	defer close(done)
	defer s.reapSelf(gen)

	if !s.stepThrough(ctx, unloadSequence, fmt.Sprintf("Unloading gate %d", gate), delay, "unload") {
		return
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if s.info.gateInRange(gate) {
		s.info.Gates[gate].Status = GateAvailable
	}
	s.info.FilamentLoaded = false
	s.info.CurrentGate = GateNone
	s.info.FilamentSegment = SegmentNone
	s.info.Action = ActionIdle
	s.info.OperationDetail = ""
	recordAction(ActionIdle)
	s.mu.Unlock()

	observeOperation("unload", start)
	s.emit(EventUnloadComplete, "")
	s.emit(EventStateChanged, "")
}

// runToolChange composes the unload and load sequences in one worker so a
// new operation cannot slip in between the phases.
func (s *Sim) runToolChange(ctx context.Context, done chan struct{}, gen uint64, tool, gate, prevGate int, unloadFirst bool, delay time.Duration, start time.Time) {
	defer close(done)
	defer s.reapSelf(gen)

	detail := fmt.Sprintf("Changing to tool %d", tool)
	if unloadFirst {
		if !s.stepThrough(ctx, unloadSequence, detail, delay, "tool change") {
			return
		}
		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		if s.info.gateInRange(prevGate) {
			s.info.Gates[prevGate].Status = GateAvailable
		}
		s.info.FilamentLoaded = false
		s.info.CurrentGate = GateNone
		s.info.Action = ActionLoading
		s.info.FilamentSegment = SegmentSpool
		recordAction(ActionLoading)
		s.mu.Unlock()
		s.emit(EventStateChanged, "")
	}

	if !s.stepThrough(ctx, loadSequence, detail, delay, "tool change") {
		return
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.info.FilamentLoaded = true
	s.info.CurrentGate = gate
	s.info.CurrentTool = tool
	s.info.Gates[gate].Status = GateLoaded
	s.info.Action = ActionIdle
	s.info.OperationDetail = ""
	recordAction(ActionIdle)
	s.mu.Unlock()

	observeOperation("tool_change", start)
	s.emit(EventToolChanged, strconv.Itoa(gate))
	s.emit(EventStateChanged, "")
}

// runReset waits out the full delay with no segment animation.
func (s *Sim) runReset(ctx context.Context, done chan struct{}, gen uint64, delay time.Duration, start time.Time) {
	defer close(done)
	defer s.reapSelf(gen)

	if !waitStep(ctx, delay) {
		return
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if code := s.takeInjectedLocked(); code != "" {
		s.failOpLocked(code, "reset") // unlocks
		return
	}
	s.info.Action = ActionIdle
	s.info.OperationDetail = ""
	recordAction(ActionIdle)
	s.mu.Unlock()

	observeOperation("reset", start)
	s.emit(EventStateChanged, "")
}
