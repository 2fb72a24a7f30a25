package ams

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// fakeDispatcher scripts QueryObject responses and records every dispatched
// command.
type fakeDispatcher struct {
	mu       sync.Mutex
	objects  map[string]map[string]any
	queryErr error
	cmdErr   error
	commands []dispatched
}

type dispatched struct {
	Name   string
	Params map[string]any
}

func (f *fakeDispatcher) RunCommand(ctx context.Context, name string, params map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cmdErr != nil {
		return f.cmdErr
	}
	f.commands = append(f.commands, dispatched{Name: name, Params: params})
	return nil
}

func (f *fakeDispatcher) QueryObject(ctx context.Context, object string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	obj, ok := f.objects[object]
	if !ok {
		return nil, fmt.Errorf("no object %q", object)
	}
	return obj, nil
}

func (f *fakeDispatcher) last(t *testing.T) dispatched {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		t.Fatalf("no command dispatched")
	}
	return f.commands[len(f.commands)-1]
}

func happyHareObjects() map[string]map[string]any {
	return map[string]map[string]any{
		"mmu": {
			"num_gates":          float64(4),
			"gate_status":        []any{float64(1), float64(0), float64(2), float64(-1)},
			"gate_color":         []any{"#FF0000", "", "#0000FF", ""},
			"gate_material":      []any{"PLA", "", "PETG", ""},
			"gate_spool_id":      []any{float64(7), float64(0), float64(12), float64(0)},
			"ttg_map":            []any{float64(0), float64(1), float64(2), float64(3)},
			"has_bypass":         true,
			"has_encoder":        true,
			"sensor_bypass":      true,
			"spoolman_support":   "readonly",
			"happy_hare_version": "3.0",
		},
	}
}

// newHappyHare returns a started Happy Hare adapter over a scripted
// dispatcher, with a recorder subscribed.
func newHappyHare(t *testing.T) (*vendorBackend, *fakeDispatcher, *Recorder) {
	t.Helper()
	disp := &fakeDispatcher{objects: happyHareObjects()}
	v := newVendorBackend(happyHareProtocol{}, disp, zerolog.Nop())
	rec := NewRecorder()
	v.Subscribe(rec.Record)
	if err := v.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(v.Close)
	return v, disp, rec
}

func TestHappyHareDiscovery(t *testing.T) {
	v, _, rec := newHappyHare(t)

	info := v.SystemInfo()
	if info.Type != TypeHappyHare || info.Topology != TopologyLinear {
		t.Fatalf("type/topology: %s/%s", info.Type, info.Topology)
	}
	if info.TotalGates != 4 || len(info.Gates) != 4 {
		t.Fatalf("gates: %d/%d", info.TotalGates, len(info.Gates))
	}
	if !info.SupportsBypass || !info.SupportsSpoolman || !info.HasHardwareBypassSensor {
		t.Fatalf("capability flags: %+v", info)
	}
	if len(info.Units) != 1 || info.Units[0].FirmwareVersion != "3.0" || !info.Units[0].HasEncoder {
		t.Fatalf("unit: %+v", info.Units)
	}

	// gate_status: 1 and 2 mean available, 0 and -1 mean empty
	wantStatus := []GateStatus{GateAvailable, GateEmpty, GateAvailable, GateEmpty}
	for g, want := range wantStatus {
		if info.Gates[g].Status != want {
			t.Fatalf("gate %d status = %s, want %s", g, info.Gates[g].Status, want)
		}
	}
	if info.Gates[0].Material != "PLA" || info.Gates[0].SpoolID != 7 {
		t.Fatalf("gate 0 metadata: %+v", info.Gates[0])
	}
	if len(info.ToolToGateMap) != 4 || info.ToolToGateMap[2] != 2 {
		t.Fatalf("ttg map: %v", info.ToolToGateMap)
	}
	if got := rec.Count(EventStateChanged); got != 1 {
		t.Fatalf("expected initial STATE_CHANGED, got %d", got)
	}
}

func TestVendorDiscoveryFailure(t *testing.T) {
	disp := &fakeDispatcher{queryErr: errors.New("klipper down")}
	v := newVendorBackend(happyHareProtocol{}, disp, zerolog.Nop())
	defer v.Close()
	err := v.Start()
	if !IsNotConnected(err) {
		t.Fatalf("expected not connected, got %v", err)
	}
	if v.IsRunning() {
		t.Fatalf("backend running after failed discovery")
	}
}

func TestVendorLoadDrivenByStatus(t *testing.T) {
	v, disp, rec := newHappyHare(t)

	if err := v.LoadFilament(2); err != nil {
		t.Fatalf("load: %v", err)
	}
	cmd := disp.last(t)
	if cmd.Name != "MMU_LOAD" || cmd.Params["GATE"] != 2 {
		t.Fatalf("dispatched %+v", cmd)
	}
	if v.CurrentAction() != ActionLoading {
		t.Fatalf("expected loading, got %s", v.CurrentAction())
	}

	// Progress update: filament reached the end of the bowden tube.
	v.UpdateStatus("mmu", map[string]any{"filament_pos": float64(4)})
	if v.FilamentSegment() != SegmentHub {
		t.Fatalf("expected hub segment, got %s", v.FilamentSegment())
	}
	if got := rec.Count(EventLoadComplete); got != 0 {
		t.Fatalf("progress update completed the operation")
	}

	// Terminal: Happy Hare went back to Idle.
	v.UpdateStatus("mmu", map[string]any{"action": "Idle", "filament_pos": float64(10)})
	info := v.SystemInfo()
	if info.Action != ActionIdle || !info.FilamentLoaded || info.CurrentGate != 2 {
		t.Fatalf("completion state: %+v", info)
	}
	if info.Gates[2].Status != GateLoaded || info.FilamentSegment != SegmentNozzle {
		t.Fatalf("completion gate/segment: %+v", info)
	}
	if got := rec.Count(EventLoadComplete); got != 1 {
		t.Fatalf("expected one LOAD_COMPLETE, got %d", got)
	}
}

func TestVendorCommandRejectionRevertsState(t *testing.T) {
	v, disp, rec := newHappyHare(t)
	before := rec.Count(EventStateChanged)
	disp.mu.Lock()
	disp.cmdErr = errors.New("unknown command")
	disp.mu.Unlock()

	err := v.LoadFilament(0)
	if !IsNotConnected(err) {
		t.Fatalf("expected not connected, got %v", err)
	}
	if v.CurrentAction() != ActionIdle {
		t.Fatalf("action not reverted: %s", v.CurrentAction())
	}
	if v.FilamentSegment() != SegmentNone {
		t.Fatalf("segment not reverted: %s", v.FilamentSegment())
	}
	if got := rec.Count(EventStateChanged); got != before {
		t.Fatalf("rejected command emitted events")
	}
}

func TestVendorRejectedUnloadKeepsFilamentAtNozzle(t *testing.T) {
	v, disp, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})

	before := rec.Count(EventStateChanged)
	disp.mu.Lock()
	disp.cmdErr = errors.New("unknown command")
	disp.mu.Unlock()

	err := v.UnloadFilament()
	if !IsNotConnected(err) {
		t.Fatalf("expected not connected, got %v", err)
	}
	info := v.SystemInfo()
	if !info.FilamentLoaded || info.CurrentGate != 0 {
		t.Fatalf("loaded state lost: %+v", info)
	}
	if info.FilamentSegment != SegmentNozzle {
		t.Fatalf("segment not restored: %s", info.FilamentSegment)
	}
	if info.Action != ActionIdle {
		t.Fatalf("action not reverted: %s", info.Action)
	}
	if got := rec.Count(EventStateChanged); got != before {
		t.Fatalf("rejected command emitted events")
	}

	// The unload-first half of a tool change reverts the same way.
	err = v.ChangeTool(2)
	if !IsNotConnected(err) {
		t.Fatalf("expected not connected, got %v", err)
	}
	info = v.SystemInfo()
	if !info.FilamentLoaded || info.FilamentSegment != SegmentNozzle {
		t.Fatalf("state after rejected tool change: %+v", info)
	}
}

func TestVendorFaultAndRecover(t *testing.T) {
	v, _, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Error", "reason": "jam"})

	if v.CurrentAction() != ActionError {
		t.Fatalf("expected error action, got %s", v.CurrentAction())
	}
	if v.ErrorSegment() != SegmentHub {
		t.Fatalf("jam should localize to hub, got %s", v.ErrorSegment())
	}
	if got := rec.Count(EventError); got != 1 {
		t.Fatalf("expected one ERROR event, got %d", got)
	}
	if got := rec.Count(EventLoadComplete); got != 0 {
		t.Fatalf("faulted load also completed")
	}

	if err := v.Recover(); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if v.CurrentAction() != ActionIdle || v.ErrorSegment() != SegmentNone {
		t.Fatalf("recover left %s/%s", v.CurrentAction(), v.ErrorSegment())
	}

	// A terminal status for the failed operation must complete nothing:
	// the fault already cleared the pending op.
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})
	if v.FilamentLoaded() {
		t.Fatalf("stale terminal status completed a failed load")
	}
}

func TestVendorCancelIgnoresLateTerminal(t *testing.T) {
	v, _, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := v.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})
	if v.FilamentLoaded() {
		t.Fatalf("cancelled load completed from a late status")
	}
	if got := rec.Count(EventLoadComplete); got != 0 {
		t.Fatalf("LOAD_COMPLETE after cancel")
	}
}

func TestVendorCommandErrorFaultsPendingOp(t *testing.T) {
	v, _, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.CommandError(errors.New("timeout waiting for mmu"))
	if v.CurrentAction() != ActionError {
		t.Fatalf("expected error action, got %s", v.CurrentAction())
	}
	if got := rec.Count(EventError); got != 1 {
		t.Fatalf("expected one ERROR, got %d", got)
	}
	// With nothing pending, a command error is ignored.
	if err := v.Recover(); err != nil {
		t.Fatalf("recover: %v", err)
	}
	v.CommandError(errors.New("late failure"))
	if v.CurrentAction() != ActionIdle {
		t.Fatalf("idle backend faulted on a stale command error")
	}
}

func TestVendorUnloadFlow(t *testing.T) {
	v, disp, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})

	if err := v.UnloadFilament(); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if cmd := disp.last(t); cmd.Name != "MMU_EJECT" {
		t.Fatalf("dispatched %+v", cmd)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle", "filament_pos": float64(0)})

	info := v.SystemInfo()
	if info.FilamentLoaded || info.CurrentGate != GateNone {
		t.Fatalf("unload state: %+v", info)
	}
	if info.Gates[0].Status != GateAvailable {
		t.Fatalf("gate not released: %s", info.Gates[0].Status)
	}
	if got := rec.Count(EventUnloadComplete); got != 1 {
		t.Fatalf("expected one UNLOAD_COMPLETE, got %d", got)
	}
}

func TestVendorChangeToolReleasesPreviousGate(t *testing.T) {
	v, disp, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})

	if err := v.ChangeTool(2); err != nil {
		t.Fatalf("change tool: %v", err)
	}
	cmd := disp.last(t)
	if cmd.Name != "MMU_CHANGE_TOOL" || cmd.Params["TOOL"] != 2 {
		t.Fatalf("dispatched %+v", cmd)
	}
	if v.CurrentAction() != ActionUnloading {
		t.Fatalf("tool change with filament loaded should start unloading, got %s", v.CurrentAction())
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})

	info := v.SystemInfo()
	if info.CurrentGate != 2 || info.CurrentTool != 2 {
		t.Fatalf("gate/tool after change: %d/%d", info.CurrentGate, info.CurrentTool)
	}
	if info.Gates[0].Status != GateAvailable || info.Gates[2].Status != GateLoaded {
		t.Fatalf("gate statuses: %s/%s", info.Gates[0].Status, info.Gates[2].Status)
	}
	if got := rec.Count(EventToolChanged); got != 1 {
		t.Fatalf("expected one TOOL_CHANGED, got %d", got)
	}
}

func TestVendorChangeToolSameGateIsImmediate(t *testing.T) {
	v, _, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})

	if err := v.ChangeTool(0); err != nil {
		t.Fatalf("change tool: %v", err)
	}
	if v.CurrentAction() != ActionIdle {
		t.Fatalf("same-gate change should not dispatch, got %s", v.CurrentAction())
	}
	if got := rec.Count(EventToolChanged); got != 1 {
		t.Fatalf("expected one TOOL_CHANGED, got %d", got)
	}
}

func TestVendorSelectGateIsSynchronous(t *testing.T) {
	v, disp, _ := newHappyHare(t)
	if err := v.SelectGate(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	cmd := disp.last(t)
	if cmd.Name != "MMU_SELECT" || cmd.Params["GATE"] != 2 {
		t.Fatalf("dispatched %+v", cmd)
	}
	if v.CurrentGate() != 2 || v.CurrentAction() != ActionIdle {
		t.Fatalf("select state: gate=%d action=%s", v.CurrentGate(), v.CurrentAction())
	}
}

func TestVendorGateStatusRefreshPreservesLoadedGate(t *testing.T) {
	v, _, _ := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})

	// Idle status refresh reporting the loaded gate as merely present must
	// not downgrade it from LOADED.
	v.UpdateStatus("mmu", map[string]any{
		"gate_status": []any{float64(1), float64(1), float64(0), float64(0)},
	})
	info := v.SystemInfo()
	if info.Gates[0].Status != GateLoaded {
		t.Fatalf("loaded gate downgraded to %s", info.Gates[0].Status)
	}
	if info.Gates[1].Status != GateAvailable || info.Gates[2].Status != GateEmpty {
		t.Fatalf("refresh not applied: %s/%s", info.Gates[1].Status, info.Gates[2].Status)
	}
}

func TestVendorIgnoresForeignObjects(t *testing.T) {
	v, _, rec := newHappyHare(t)
	before := len(rec.Events())
	v.UpdateStatus("toolhead", map[string]any{"position": []any{0.0, 0.0, 0.0}})
	if got := len(rec.Events()); got != before {
		t.Fatalf("foreign object payload emitted events")
	}
}

func TestAFCDiscovery(t *testing.T) {
	disp := &fakeDispatcher{objects: map[string]map[string]any{
		"AFC": {
			"bypass":   true,
			"spoolman": true,
			"units": map[string]any{
				"Turtle_1": map[string]any{
					"lane1": map[string]any{"prep": true, "load": true, "material": "PLA", "color": "#112233", "spool_id": float64(3)},
					"lane2": map[string]any{"prep": false, "load": false},
				},
			},
		},
	}}
	v := newVendorBackend(afcProtocol{}, disp, zerolog.Nop())
	defer v.Close()
	if err := v.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	info := v.SystemInfo()
	if info.Type != TypeAFC || info.Topology != TopologyParallel {
		t.Fatalf("type/topology: %s/%s", info.Type, info.Topology)
	}
	if info.TotalGates != 2 || len(info.Units) != 1 || info.Units[0].Name != "Turtle_1" {
		t.Fatalf("layout: %+v", info.Units)
	}
	if !info.Units[0].HasBufferHealth {
		t.Fatalf("AFC unit should track buffer health")
	}
	if info.Gates[0].Status != GateAvailable || info.Gates[0].Material != "PLA" {
		t.Fatalf("lane1: %+v", info.Gates[0])
	}
	if info.Gates[1].Status != GateEmpty {
		t.Fatalf("lane2: %+v", info.Gates[1])
	}
	// Identity mapping with MappedTool back-references.
	if info.ToolToGateMap[1] != 1 || info.Gates[1].MappedTool != 1 {
		t.Fatalf("tool map: %v / %+v", info.ToolToGateMap, info.Gates[1])
	}
}

func TestAFCCommandsUseLaneNames(t *testing.T) {
	var p afcProtocol
	if cmd, params := p.loadCommand(0); cmd != "TOOL_LOAD" || params["LANE"] != "lane1" {
		t.Fatalf("load: %s %v", cmd, params)
	}
	if cmd, params := p.toolCommand(3, 3); cmd != "CHANGE_TOOL" || params["LANE"] != "lane4" {
		t.Fatalf("tool: %s %v", cmd, params)
	}
	if cmd, _ := p.unloadCommand(0); cmd != "TOOL_UNLOAD" {
		t.Fatalf("unload: %s", cmd)
	}
}

func TestAFCStatusParsing(t *testing.T) {
	var p afcProtocol
	var info SystemInfo

	ev := p.parseStatus("AFC", map[string]any{
		"system": map[string]any{"current_state": "Loading to hub"},
	}, &info)
	if ev.Segment != SegmentLane || ev.Terminal || ev.Fault != "" {
		t.Fatalf("progress: %+v", ev)
	}

	ev = p.parseStatus("AFC", map[string]any{
		"system": map[string]any{"current_state": "Idle"},
	}, &info)
	if !ev.Terminal {
		t.Fatalf("terminal: %+v", ev)
	}

	ev = p.parseStatus("AFC", map[string]any{
		"system": map[string]any{"current_state": "Idle", "lane_jammed": true},
	}, &info)
	if ev.Fault != ResultFilamentJam {
		t.Fatalf("jam: %+v", ev)
	}

	if ev = p.parseStatus("other", nil, &info); ev != (statusEvent{}) {
		t.Fatalf("foreign object: %+v", ev)
	}
}

func TestValgACEDiscovery(t *testing.T) {
	disp := &fakeDispatcher{objects: map[string]map[string]any{
		"ace": {
			"status":   "ready",
			"firmware": "1.2.3",
			"dryer":    map[string]any{"status": "stop"},
			"slots": []any{
				map[string]any{"status": "ready", "type": "PLA", "color": "#FFFFFF", "rfid": float64(1)},
				map[string]any{"status": "empty"},
				map[string]any{"status": "ready", "type": "TPU"},
				map[string]any{"status": "empty"},
			},
		},
	}}
	v := newVendorBackend(valgACEProtocol{}, disp, zerolog.Nop())
	defer v.Close()
	if err := v.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	info := v.SystemInfo()
	if info.Type != TypeValgACE || info.Topology != TopologyHub {
		t.Fatalf("type/topology: %s/%s", info.Type, info.Topology)
	}
	if info.TotalGates != 4 || !info.Units[0].HasDryer {
		t.Fatalf("layout: %+v", info.Units)
	}
	if info.SupportsBypass {
		t.Fatalf("ACE has no bypass")
	}
	if info.Gates[0].Status != GateAvailable || info.Gates[0].Material != "PLA" || info.Gates[0].SpoolID != 1 {
		t.Fatalf("slot 0: %+v", info.Gates[0])
	}
	if info.Gates[1].Status != GateEmpty {
		t.Fatalf("slot 1: %+v", info.Gates[1])
	}
	if err := v.EnableBypass(); !IsWrongState(err) {
		t.Fatalf("expected bypass unsupported, got %v", err)
	}
}

func TestValgACEStatusParsing(t *testing.T) {
	var p valgACEProtocol
	info := SystemInfo{Gates: []GateInfo{{Status: GateLoaded}, {Status: GateEmpty}}}

	ev := p.parseStatus("ace", map[string]any{"status": "feeding"}, &info)
	if ev.Segment != SegmentLane {
		t.Fatalf("feeding: %+v", ev)
	}
	ev = p.parseStatus("ace", map[string]any{"status": "jammed"}, &info)
	if ev.Fault != ResultFilamentJam {
		t.Fatalf("jammed: %+v", ev)
	}
	ev = p.parseStatus("ace", map[string]any{
		"status": "ready",
		"slots": []any{
			map[string]any{"status": "empty"},
			map[string]any{"status": "ready"},
		},
	}, &info)
	if !ev.Terminal {
		t.Fatalf("ready: %+v", ev)
	}
	if info.Gates[0].Status != GateLoaded {
		t.Fatalf("loaded slot downgraded: %s", info.Gates[0].Status)
	}
	if info.Gates[1].Status != GateAvailable {
		t.Fatalf("slot refresh not applied: %s", info.Gates[1].Status)
	}
}

func TestToolChangerDiscovery(t *testing.T) {
	disp := &fakeDispatcher{objects: map[string]map[string]any{
		"tool T0": {"filament_present": true, "material": "ASA", "color": "#000000"},
		"tool T1": {"filament_present": false},
	}}
	p := toolChangerProtocol{toolNames: []string{"tool T0", "tool T1"}}
	v := newVendorBackend(p, disp, zerolog.Nop())
	defer v.Close()
	if err := v.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	info := v.SystemInfo()
	if info.Type != TypeToolChanger || info.Topology != TopologyParallel {
		t.Fatalf("type/topology: %s/%s", info.Type, info.Topology)
	}
	if info.TotalGates != 2 {
		t.Fatalf("gates: %d", info.TotalGates)
	}
	if info.Gates[0].Status != GateAvailable || info.Gates[0].Material != "ASA" {
		t.Fatalf("tool 0: %+v", info.Gates[0])
	}
	if info.Gates[1].Status != GateEmpty {
		t.Fatalf("tool 1: %+v", info.Gates[1])
	}
}

func TestToolChangerDiscoveryWithoutTools(t *testing.T) {
	v := newVendorBackend(toolChangerProtocol{}, &fakeDispatcher{}, zerolog.Nop())
	defer v.Close()
	if err := v.Start(); !IsNotConnected(err) {
		t.Fatalf("expected not connected, got %v", err)
	}
}

func TestToolChangerCommands(t *testing.T) {
	var p toolChangerProtocol
	if cmd, _ := p.loadCommand(3); cmd != "T3" {
		t.Fatalf("load: %s", cmd)
	}
	if cmd, _ := p.unloadCommand(0); cmd != "DROPOFF" {
		t.Fatalf("unload: %s", cmd)
	}
	if cmd, params := p.selectCommand(1); cmd != "SELECT_TOOL" || params["T"] != 1 {
		t.Fatalf("select: %s %v", cmd, params)
	}
}

func TestVendorStopIgnoresLateStatus(t *testing.T) {
	v, _, rec := newHappyHare(t)
	if err := v.LoadFilament(0); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.Stop()
	n := len(rec.Events())
	v.UpdateStatus("mmu", map[string]any{"action": "Idle"})
	if got := len(rec.Events()); got != n {
		t.Fatalf("stopped backend processed a status update")
	}
	if v.FilamentLoaded() {
		t.Fatalf("stopped backend completed a load")
	}
}
