package ams

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// pendingOp tracks the one in-flight asynchronous vendor operation.
type pendingOp struct {
	op       string
	gate     int
	tool     int
	prevGate int
	start    time.Time
}

// statusEvent is what a protocol's parseStatus reports about a vendor
// payload: an optional filament position, an optional detail string, and
// whether the pending operation reached terminal success or a fault.
type statusEvent struct {
	Segment  Segment // "" = unchanged
	Detail   string
	Terminal bool
	Fault    Result // "" = none
}

// vendorProtocol is the per-vendor half of an adapter: command names and
// status parsing. The surrounding state machine lives in vendorBackend and
// is identical across vendors (and to the simulation backend).
type vendorProtocol interface {
	backendType() Type

	// discover builds the common model from the vendor's objects at
	// connect time.
	discover(ctx context.Context, d Dispatcher) (SystemInfo, error)

	loadCommand(gate int) (string, map[string]any)
	unloadCommand(gate int) (string, map[string]any)
	toolCommand(tool, gate int) (string, map[string]any)
	selectCommand(gate int) (string, map[string]any)
	resetCommand() (string, map[string]any)

	// parseStatus folds a vendor payload into the common model. Called
	// with the backend lock held; it may mutate gate and unit fields
	// directly and reports progress via the returned statusEvent.
	parseStatus(object string, payload map[string]any, info *SystemInfo) statusEvent
}

// vendorBackend adapts a vendorProtocol to the Backend contract. Completion
// is sourced from real status updates, not a timer: operations mark state
// and dispatch a command, and UpdateStatus/CommandError drive the terminal
// transition.
type vendorBackend struct {
	stateCore

	proto vendorProtocol
	disp  Dispatcher
	log   zerolog.Logger

	ctx       context.Context
	cancelCtx context.CancelFunc

	discovered bool
	pending    *pendingOp
}

var (
	_ Backend    = (*vendorBackend)(nil)
	_ StatusSink = (*vendorBackend)(nil)
)

func newVendorBackend(proto vendorProtocol, disp Dispatcher, log zerolog.Logger) *vendorBackend {
	ctx, cancel := context.WithCancel(context.Background())
	v := &vendorBackend{proto: proto, disp: disp, log: log, ctx: ctx, cancelCtx: cancel}
	v.info = SystemInfo{
		Type:        proto.backendType(),
		CurrentTool: ToolNone,
		CurrentGate: GateNone,
		Action:      ActionIdle,

		FilamentSegment: SegmentNone,
		ErrorSegment:    SegmentNone,
	}
	return v
}

// Start connects: gate/unit/tool-map discovery runs once, then the backend
// is running and the initial STATE_CHANGED goes out.
func (v *vendorBackend) Start() error {
	v.mu.Lock()
	if v.running {
		v.mu.Unlock()
		return nil
	}
	needDiscover := !v.discovered
	v.mu.Unlock()

	if needDiscover {
		ctx, cancel := context.WithTimeout(v.ctx, 10*time.Second)
		info, err := v.proto.discover(ctx, v.disp)
		cancel()
		if err != nil {
			v.log.Error().Err(err).Str("type", string(v.proto.backendType())).Msg("ams discovery failed")
			return newError(ResultNotConnected, "discovery failed: "+err.Error(),
				"The filament system did not respond").
				withRemedy("Check that the AMS hardware is connected and powered")
		}
		v.mu.Lock()
		v.info = info
		v.discovered = true
		v.mu.Unlock()
	}

	v.mu.Lock()
	v.running = true
	v.mu.Unlock()
	v.emit(EventStateChanged, "")
	return nil
}

// Stop halts the backend. Idempotent and silent by contract.
func (v *vendorBackend) Stop() {
	v.mu.Lock()
	v.running = false
	v.sub = nil
	v.pending = nil
	v.mu.Unlock()
}

// Close stops the backend and cancels the lifetime context so in-flight
// dispatches abort before any other teardown.
func (v *vendorBackend) Close() {
	v.Stop()
	v.cancelCtx()
}

// dispatch runs a vendor command, reverting the just-marked operation state
// when the command is rejected. prevSegment is the filament segment before
// the caller staged the operation; a rejected unload must put the segment
// back at the nozzle, not at none. Rejection is reported synchronously to
// the caller; no events are emitted for it.
func (v *vendorBackend) dispatch(cmd string, params map[string]any, prevSegment Segment) *Error {
	if err := v.disp.RunCommand(v.ctx, cmd, params); err != nil {
		v.mu.Lock()
		v.pending = nil
		v.info.Action = ActionIdle
		v.info.OperationDetail = ""
		v.info.FilamentSegment = prevSegment
		recordAction(ActionIdle)
		v.mu.Unlock()
		return newError(ResultNotConnected, fmt.Sprintf("command %s rejected: %v", cmd, err),
			"The filament system rejected the command").
			withRemedy("Check the printer connection")
	}
	return nil
}

func (v *vendorBackend) LoadFilament(gate int) error {
	err := errOrNil(v.load(gate))
	recordOperation("load", err)
	return err
}

func (v *vendorBackend) load(gate int) *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if !v.info.gateInRange(gate) {
		v.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [0,%d)", gate, v.info.TotalGates),
			"That gate does not exist")
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	switch v.info.Gates[gate].Status {
	case GateEmpty:
		v.mu.Unlock()
		return newError(ResultGateNotAvailable,
			fmt.Sprintf("gate %d is empty", gate),
			"No filament is present in that gate").
			withRemedy("Insert a spool into the gate")
	case GateBlocked:
		v.mu.Unlock()
		return newError(ResultGateBlocked,
			fmt.Sprintf("gate %d is blocked", gate),
			"That gate is blocked").
			withRemedy("Clear the blockage, then retry")
	}
	prevSegment := v.info.FilamentSegment
	v.pending = &pendingOp{op: "load", gate: gate, start: time.Now()}
	v.info.Action = ActionLoading
	v.info.FilamentSegment = SegmentSpool
	v.info.OperationDetail = fmt.Sprintf("Loading gate %d", gate)
	recordAction(ActionLoading)
	cmd, params := v.proto.loadCommand(gate)
	v.mu.Unlock()

	if e := v.dispatch(cmd, params, prevSegment); e != nil {
		return e
	}
	v.emit(EventStateChanged, "")
	return nil
}

func (v *vendorBackend) UnloadFilament() error {
	err := errOrNil(v.unload())
	recordOperation("unload", err)
	return err
}

func (v *vendorBackend) unload() *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	if !v.info.FilamentLoaded || v.info.CurrentGate == GateNone {
		v.mu.Unlock()
		return newError(ResultWrongState, "no filament loaded", "There is no filament to unload")
	}
	if v.info.CurrentGate == GateBypass {
		v.mu.Unlock()
		return newError(ResultWrongState, "bypass active", "Bypass is active").
			withRemedy("Disable bypass instead of unloading")
	}
	gate := v.info.CurrentGate
	prevSegment := v.info.FilamentSegment
	v.pending = &pendingOp{op: "unload", gate: gate, start: time.Now()}
	v.info.Action = ActionUnloading
	v.info.FilamentSegment = SegmentNozzle
	v.info.OperationDetail = fmt.Sprintf("Unloading gate %d", gate)
	recordAction(ActionUnloading)
	cmd, params := v.proto.unloadCommand(gate)
	v.mu.Unlock()

	if e := v.dispatch(cmd, params, prevSegment); e != nil {
		return e
	}
	v.emit(EventStateChanged, "")
	return nil
}

func (v *vendorBackend) SelectGate(gate int) error {
	err := errOrNil(v.selectGate(gate))
	recordOperation("select", err)
	return err
}

func (v *vendorBackend) selectGate(gate int) *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	if !v.info.gateInRange(gate) {
		v.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [0,%d)", gate, v.info.TotalGates),
			"That gate does not exist")
	}
	if v.info.FilamentLoaded {
		v.mu.Unlock()
		return newError(ResultWrongState, "filament loaded", "Filament is currently loaded").
			withRemedy("Unload before selecting another gate")
	}
	cmd, params := v.proto.selectCommand(gate)
	v.mu.Unlock()

	if err := v.disp.RunCommand(v.ctx, cmd, params); err != nil {
		return newError(ResultNotConnected, fmt.Sprintf("command %s rejected: %v", cmd, err),
			"The filament system rejected the command").
			withRemedy("Check the printer connection")
	}
	v.mu.Lock()
	v.info.CurrentGate = gate
	v.mu.Unlock()
	v.emit(EventStateChanged, "")
	return nil
}

func (v *vendorBackend) ChangeTool(tool int) error {
	err := errOrNil(v.changeTool(tool))
	recordOperation("tool_change", err)
	return err
}

func (v *vendorBackend) changeTool(tool int) *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if tool < 0 || tool >= len(v.info.ToolToGateMap) {
		v.mu.Unlock()
		return newError(ResultInvalidTool,
			fmt.Sprintf("tool %d out of range [0,%d)", tool, len(v.info.ToolToGateMap)),
			"That tool does not exist")
	}
	gate := v.info.ToolToGateMap[tool]
	if !v.info.gateInRange(gate) {
		v.mu.Unlock()
		return newError(ResultInvalidTool,
			fmt.Sprintf("tool %d is not mapped to a gate", tool),
			"That tool has no gate assigned").
			withRemedy("Assign a gate to the tool first")
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	if v.info.CurrentGate == GateBypass {
		v.mu.Unlock()
		return newError(ResultWrongState, "bypass active", "Bypass is active").
			withRemedy("Disable bypass before changing tools")
	}
	if v.info.FilamentLoaded && v.info.CurrentGate == gate {
		v.info.CurrentTool = tool
		v.mu.Unlock()
		v.emit(EventToolChanged, strconv.Itoa(gate))
		v.emit(EventStateChanged, "")
		return nil
	}
	prevGate := v.info.CurrentGate
	prevSegment := v.info.FilamentSegment
	unloadFirst := v.info.FilamentLoaded
	v.pending = &pendingOp{op: "tool_change", gate: gate, tool: tool, prevGate: prevGate, start: time.Now()}
	if unloadFirst {
		v.info.Action = ActionUnloading
		v.info.FilamentSegment = SegmentNozzle
		recordAction(ActionUnloading)
	} else {
		v.info.Action = ActionLoading
		v.info.FilamentSegment = SegmentSpool
		recordAction(ActionLoading)
	}
	v.info.OperationDetail = fmt.Sprintf("Changing to tool %d", tool)
	cmd, params := v.proto.toolCommand(tool, gate)
	v.mu.Unlock()

	if e := v.dispatch(cmd, params, prevSegment); e != nil {
		return e
	}
	v.emit(EventStateChanged, "")
	return nil
}

func (v *vendorBackend) Recover() error {
	err := errOrNil(v.recover())
	recordOperation("recover", err)
	return err
}

func (v *vendorBackend) recover() *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	v.pending = nil
	v.info.Action = ActionIdle
	v.info.OperationDetail = ""
	v.info.ErrorSegment = SegmentNone
	recordAction(ActionIdle)
	v.mu.Unlock()
	v.emit(EventStateChanged, "")
	return nil
}

func (v *vendorBackend) Reset() error {
	err := errOrNil(v.reset())
	recordOperation("reset", err)
	return err
}

func (v *vendorBackend) reset() *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	prevSegment := v.info.FilamentSegment
	v.pending = &pendingOp{op: "reset", start: time.Now()}
	v.info.Action = ActionResetting
	v.info.OperationDetail = "Resetting"
	recordAction(ActionResetting)
	cmd, params := v.proto.resetCommand()
	v.mu.Unlock()

	if e := v.dispatch(cmd, params, prevSegment); e != nil {
		return e
	}
	v.emit(EventStateChanged, "")
	return nil
}

// Cancel drops the pending operation immediately. A terminal status that
// arrives later finds no pending op and completes nothing.
func (v *vendorBackend) Cancel() error {
	err := errOrNil(v.cancelOp())
	recordOperation("cancel", err)
	return err
}

func (v *vendorBackend) cancelOp() *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if v.info.Action == ActionIdle {
		v.mu.Unlock()
		return nil
	}
	v.pending = nil
	v.info.Action = ActionIdle
	v.info.OperationDetail = ""
	recordAction(ActionIdle)
	v.mu.Unlock()
	v.emit(EventStateChanged, "")
	return nil
}

func (v *vendorBackend) SetGateInfo(gate int, info GateInfo) error {
	err := errOrNil(v.setGateInfo(gate, info))
	recordOperation("set_gate", err)
	return err
}

func (v *vendorBackend) setGateInfo(gate int, info GateInfo) *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	if !v.info.gateInRange(gate) {
		v.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [0,%d)", gate, v.info.TotalGates),
			"That gate does not exist")
	}
	info.GlobalIndex = gate
	info.GateIndex = v.info.Gates[gate].GateIndex
	v.info.Gates[gate] = info
	v.mu.Unlock()
	v.emit(EventGateChanged, strconv.Itoa(gate))
	return nil
}

func (v *vendorBackend) SetToolMapping(tool, gate int) error {
	err := errOrNil(v.setToolMapping(tool, gate))
	recordOperation("set_toolmap", err)
	return err
}

func (v *vendorBackend) setToolMapping(tool, gate int) *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	if tool < 0 || tool >= len(v.info.ToolToGateMap) {
		v.mu.Unlock()
		return newError(ResultInvalidTool,
			fmt.Sprintf("tool %d out of range [0,%d)", tool, len(v.info.ToolToGateMap)),
			"That tool does not exist")
	}
	if gate < GateBypass || gate >= v.info.TotalGates {
		v.mu.Unlock()
		return newError(ResultInvalidGate,
			fmt.Sprintf("gate %d out of range [%d,%d)", gate, GateBypass, v.info.TotalGates),
			"That gate does not exist")
	}
	v.info.ToolToGateMap[tool] = gate
	if v.info.gateInRange(gate) {
		v.info.Gates[gate].MappedTool = tool
	}
	v.mu.Unlock()
	v.emit(EventGateChanged, strconv.Itoa(gate))
	return nil
}

func (v *vendorBackend) EnableBypass() error {
	err := errOrNil(v.enableBypass())
	recordOperation("bypass_enable", err)
	return err
}

func (v *vendorBackend) enableBypass() *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if !v.info.SupportsBypass {
		v.mu.Unlock()
		return newError(ResultWrongState, "bypass not supported", "This system has no bypass")
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	if v.info.FilamentLoaded {
		v.mu.Unlock()
		return newError(ResultWrongState, "filament loaded", "Filament is currently loaded").
			withRemedy("Unload before enabling bypass")
	}
	v.info.CurrentGate = GateBypass
	v.info.FilamentLoaded = true
	v.info.FilamentSegment = SegmentNozzle
	v.mu.Unlock()
	v.emit(EventStateChanged, "")
	return nil
}

func (v *vendorBackend) DisableBypass() error {
	err := errOrNil(v.disableBypass())
	recordOperation("bypass_disable", err)
	return err
}

func (v *vendorBackend) disableBypass() *Error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return errNotRunning()
	}
	if v.info.Action != ActionIdle {
		detail := string(v.info.Action)
		v.mu.Unlock()
		return errBusy(detail)
	}
	if v.info.CurrentGate != GateBypass {
		v.mu.Unlock()
		return newError(ResultWrongState, "bypass not active", "Bypass is not active")
	}
	v.info.CurrentGate = GateNone
	v.info.FilamentLoaded = false
	v.info.FilamentSegment = SegmentNone
	v.mu.Unlock()
	v.emit(EventStateChanged, "")
	return nil
}

// UpdateStatus folds a vendor status payload into the common model and, when
// it marks the pending operation terminal, performs the same completion
// transition the simulation backend performs.
func (v *vendorBackend) UpdateStatus(object string, payload map[string]any) {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return
	}
	ev := v.proto.parseStatus(object, payload, &v.info)
	p := v.pending

	if ev.Fault != "" {
		v.pending = nil
		op := "operation"
		if p != nil {
			op = p.op
		}
		v.failVendorLocked(ev.Fault, op) // unlocks
		return
	}

	if p == nil || !ev.Terminal {
		changed := false
		if p != nil && ev.Segment != "" {
			v.info.FilamentSegment = ev.Segment
			changed = true
		}
		if ev.Detail != "" {
			v.info.OperationDetail = ev.Detail
			changed = true
		}
		v.mu.Unlock()
		if changed {
			v.emit(EventStateChanged, "")
		}
		return
	}

	v.pending = nil
	var completion, payloadStr string
	switch p.op {
	case "load":
		v.info.FilamentLoaded = true
		v.info.CurrentGate = p.gate
		v.info.CurrentTool = p.gate
		v.info.Gates[p.gate].Status = GateLoaded
		v.info.FilamentSegment = SegmentNozzle
		completion, payloadStr = EventLoadComplete, strconv.Itoa(p.gate)
	case "unload":
		if v.info.gateInRange(p.gate) {
			v.info.Gates[p.gate].Status = GateAvailable
		}
		v.info.FilamentLoaded = false
		v.info.CurrentGate = GateNone
		v.info.FilamentSegment = SegmentNone
		completion = EventUnloadComplete
	case "tool_change":
		if v.info.gateInRange(p.prevGate) && p.prevGate != p.gate {
			v.info.Gates[p.prevGate].Status = GateAvailable
		}
		v.info.FilamentLoaded = true
		v.info.CurrentGate = p.gate
		v.info.CurrentTool = p.tool
		v.info.Gates[p.gate].Status = GateLoaded
		v.info.FilamentSegment = SegmentNozzle
		completion, payloadStr = EventToolChanged, strconv.Itoa(p.gate)
	}
	v.info.Action = ActionIdle
	v.info.OperationDetail = ""
	recordAction(ActionIdle)
	v.mu.Unlock()

	observeOperation(p.op, p.start)
	if completion != "" {
		v.emit(completion, payloadStr)
	}
	v.emit(EventStateChanged, "")
}

// CommandError reports a post-acceptance command failure from the transport.
func (v *vendorBackend) CommandError(err error) {
	v.mu.Lock()
	if !v.running || v.pending == nil {
		v.mu.Unlock()
		return
	}
	p := v.pending
	v.pending = nil
	code := ResultLoadFailed
	if ae := AsError(err); ae != nil {
		code = ae.Code
	}
	v.failVendorLocked(code, p.op) // unlocks
}

// failVendorLocked commits a runtime fault; the caller holds the lock, which
// is released here before the events go out.
func (v *vendorBackend) failVendorLocked(code Result, op string) {
	e := newError(code, fmt.Sprintf("%s failed: %s", op, code),
		"The filament system reported a fault during "+op).
		withRemedy("Check the filament path, then recover")
	v.info.Action = ActionError
	v.info.ErrorSegment = faultSegment(code, v.info.FilamentSegment)
	v.info.OperationDetail = e.User
	recordAction(ActionError)
	v.mu.Unlock()
	v.emit(EventError, e.Error())
	v.emit(EventStateChanged, "")
}
