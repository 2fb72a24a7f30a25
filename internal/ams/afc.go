package ams

import (
	"context"
	"fmt"
	"sort"
)

// afcProtocol drives an AFC "Box Turtle": parallel lanes, one buffer per
// lane, multiple units possible.
type afcProtocol struct{}

func (afcProtocol) backendType() Type { return TypeAFC }

func (afcProtocol) discover(ctx context.Context, d Dispatcher) (SystemInfo, error) {
	afc, err := d.QueryObject(ctx, "AFC")
	if err != nil {
		return SystemInfo{}, err
	}
	unitsRaw := jsonMap(afc, "units")
	if len(unitsRaw) == 0 {
		return SystemInfo{}, fmt.Errorf("AFC reports no units")
	}

	info := SystemInfo{
		Type:        TypeAFC,
		Topology:    TopologyParallel,
		CurrentTool: ToolNone,
		CurrentGate: GateNone,
		Action:      ActionIdle,

		FilamentSegment: SegmentNone,
		ErrorSegment:    SegmentNone,

		SupportsBypass:       jsonBool(afc, "bypass"),
		SupportsEndlessSpool: true,
		SupportsSpoolman:     jsonBool(afc, "spoolman"),
		SupportsToolMapping:  true,
	}

	// Deterministic unit ordering; JSON maps are unordered.
	unitNames := make([]string, 0, len(unitsRaw))
	for name := range unitsRaw {
		unitNames = append(unitNames, name)
	}
	sort.Strings(unitNames)

	global := 0
	for u, name := range unitNames {
		lanes := jsonMap(unitsRaw, name)
		laneNames := make([]string, 0, len(lanes))
		for lane := range lanes {
			laneNames = append(laneNames, lane)
		}
		sort.Strings(laneNames)

		unit := Unit{
			UnitIndex:        u,
			Name:             name,
			GateCount:        len(laneNames),
			FirstGlobalIndex: global,
			Connected:        true,
			HasGateSensors:   true,
			HasBufferHealth:  true,
			Topology:         TopologyParallel,
		}
		info.Units = append(info.Units, unit)

		for l, laneName := range laneNames {
			lane := jsonMap(lanes, laneName)
			gi := GateInfo{
				GateIndex:   l,
				GlobalIndex: global,
				Status:      GateEmpty,
				MappedTool:  ToolNone,
				Color:       jsonStr(lane, "color"),
				Material:    jsonStr(lane, "material"),
				SpoolID:     jsonInt(lane, "spool_id", 0),
			}
			if jsonBool(lane, "prep") || jsonBool(lane, "load") {
				gi.Status = GateAvailable
			}
			info.Gates = append(info.Gates, gi)
			global++
		}
	}
	info.TotalGates = global
	info.ToolToGateMap = make([]int, global)
	for i := range info.ToolToGateMap {
		info.ToolToGateMap[i] = i
		info.Gates[i].MappedTool = i
	}
	return info, nil
}

// afcLane maps a global gate index to the AFC lane parameter.
func afcLane(gate int) string { return fmt.Sprintf("lane%d", gate+1) }

func (afcProtocol) loadCommand(gate int) (string, map[string]any) {
	return "TOOL_LOAD", map[string]any{"LANE": afcLane(gate)}
}

func (afcProtocol) unloadCommand(int) (string, map[string]any) {
	return "TOOL_UNLOAD", nil
}

func (afcProtocol) toolCommand(_, gate int) (string, map[string]any) {
	return "CHANGE_TOOL", map[string]any{"LANE": afcLane(gate)}
}

func (afcProtocol) selectCommand(gate int) (string, map[string]any) {
	return "LANE_MOVE", map[string]any{"LANE": afcLane(gate)}
}

func (afcProtocol) resetCommand() (string, map[string]any) {
	return "AFC_RESET", nil
}

func (afcProtocol) parseStatus(object string, payload map[string]any, info *SystemInfo) statusEvent {
	if object != "AFC" {
		return statusEvent{}
	}
	var ev statusEvent

	sys := jsonMap(payload, "system")
	if sys == nil {
		return ev
	}
	if detail := jsonStr(sys, "current_state"); detail != "" {
		switch detail {
		case "Idle":
			ev.Terminal = true
		case "Error":
			ev.Fault = ResultLoadFailed
		case "Loading to hub":
			ev.Segment = SegmentLane
		case "Loading to toolhead":
			ev.Segment = SegmentToolhead
		case "Unloading":
			ev.Segment = SegmentOutput
		}
	}
	if jsonBool(sys, "lane_jammed") {
		ev.Fault = ResultFilamentJam
	}
	return ev
}
