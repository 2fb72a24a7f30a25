package ams

import (
	"context"
	"fmt"
)

// toolChangerProtocol models a physical tool changer as a variant of the
// same contract: every tool is one "gate" with its own extruder, so the
// topology is parallel and there is nothing to animate between hub and
// output. Tool names come from the discovery collaborator, not from a
// status query.
type toolChangerProtocol struct {
	toolNames []string
}

func (toolChangerProtocol) backendType() Type { return TypeToolChanger }

func (p toolChangerProtocol) discover(ctx context.Context, d Dispatcher) (SystemInfo, error) {
	if len(p.toolNames) == 0 {
		return SystemInfo{}, fmt.Errorf("no tools discovered")
	}

	info := SystemInfo{
		Type:        TypeToolChanger,
		Topology:    TopologyParallel,
		TotalGates:  len(p.toolNames),
		CurrentTool: ToolNone,
		CurrentGate: GateNone,
		Action:      ActionIdle,

		FilamentSegment: SegmentNone,
		ErrorSegment:    SegmentNone,

		SupportsToolMapping: true,
	}
	info.Units = []Unit{{
		UnitIndex:        0,
		Name:             "Toolchanger",
		GateCount:        len(p.toolNames),
		FirstGlobalIndex: 0,
		Connected:        true,
		Topology:         TopologyParallel,
	}}
	for i, name := range p.toolNames {
		gi := GateInfo{GateIndex: i, GlobalIndex: i, Status: GateAvailable, MappedTool: i, Brand: name}
		// Per-tool detail when the object is queryable; absence is fine.
		if obj, err := d.QueryObject(ctx, name); err == nil && obj != nil {
			if !jsonBool(obj, "filament_present") {
				gi.Status = GateEmpty
			}
			gi.Material = jsonStr(obj, "material")
			gi.Color = jsonStr(obj, "color")
		}
		info.Gates = append(info.Gates, gi)
	}
	info.ToolToGateMap = make([]int, len(p.toolNames))
	for i := range info.ToolToGateMap {
		info.ToolToGateMap[i] = i
	}
	return info, nil
}

func (toolChangerProtocol) loadCommand(gate int) (string, map[string]any) {
	return fmt.Sprintf("T%d", gate), nil
}

func (toolChangerProtocol) unloadCommand(int) (string, map[string]any) {
	return "DROPOFF", nil
}

func (toolChangerProtocol) toolCommand(tool, _ int) (string, map[string]any) {
	return fmt.Sprintf("T%d", tool), nil
}

func (toolChangerProtocol) selectCommand(gate int) (string, map[string]any) {
	return "SELECT_TOOL", map[string]any{"T": gate}
}

func (toolChangerProtocol) resetCommand() (string, map[string]any) {
	return "INITIALIZE_TOOLCHANGER", nil
}

func (toolChangerProtocol) parseStatus(object string, payload map[string]any, info *SystemInfo) statusEvent {
	if object != "toolchanger" {
		return statusEvent{}
	}
	var ev statusEvent
	switch jsonStr(payload, "status") {
	case "ready":
		ev.Terminal = true
	case "changing":
		ev.Segment = SegmentToolhead
	case "error":
		ev.Fault = ResultSensorError
	}
	return ev
}
