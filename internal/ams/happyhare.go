package ams

import (
	"context"
	"fmt"
)

// happyHareProtocol drives a Happy Hare MMU (Klipper). Linear selector
// topology; gate -2 is Happy Hare's own bypass convention, which matches the
// common model directly.
type happyHareProtocol struct{}

func (happyHareProtocol) backendType() Type { return TypeHappyHare }

// filament_pos values reported by Happy Hare, mapped onto the common path.
var happyHareSegments = map[int]Segment{
	0:  SegmentNone,     // UNLOADED
	1:  SegmentSpool,    // HOMED_GATE
	2:  SegmentPrep,     // START_BOWDEN
	3:  SegmentLane,     // IN_BOWDEN
	4:  SegmentHub,      // END_BOWDEN
	5:  SegmentHub,      // HOMED_ENTRY
	6:  SegmentOutput,   // HOMED_EXTRUDER
	7:  SegmentToolhead, // EXTRUDER_ENTRY
	8:  SegmentToolhead, // HOMED_TS
	9:  SegmentNozzle,   // IN_EXTRUDER
	10: SegmentNozzle,   // LOADED
}

func (happyHareProtocol) discover(ctx context.Context, d Dispatcher) (SystemInfo, error) {
	mmu, err := d.QueryObject(ctx, "mmu")
	if err != nil {
		return SystemInfo{}, err
	}
	gates := jsonInt(mmu, "num_gates", 0)
	if gates <= 0 {
		return SystemInfo{}, fmt.Errorf("mmu reports no gates")
	}

	info := SystemInfo{
		Type:        TypeHappyHare,
		Topology:    TopologyLinear,
		TotalGates:  gates,
		CurrentTool: ToolNone,
		CurrentGate: GateNone,
		Action:      ActionIdle,

		FilamentSegment: SegmentNone,
		ErrorSegment:    SegmentNone,

		SupportsBypass:          jsonBool(mmu, "has_bypass"),
		SupportsEndlessSpool:    true,
		SupportsSpoolman:        jsonStr(mmu, "spoolman_support") != "" && jsonStr(mmu, "spoolman_support") != "off",
		SupportsToolMapping:     true,
		HasHardwareBypassSensor: jsonBool(mmu, "sensor_bypass"),
	}
	info.Units = []Unit{{
		UnitIndex:         0,
		Name:              "MMU",
		GateCount:         gates,
		FirstGlobalIndex:  0,
		Connected:         true,
		FirmwareVersion:   jsonStr(mmu, "happy_hare_version"),
		HasEncoder:        jsonBool(mmu, "has_encoder"),
		HasToolheadSensor: true,
		HasGateSensors:    true,
		Topology:          TopologyLinear,
	}}

	statuses := jsonSlice(mmu, "gate_status")
	colors := jsonSlice(mmu, "gate_color")
	materials := jsonSlice(mmu, "gate_material")
	spools := jsonSlice(mmu, "gate_spool_id")
	for g := 0; g < gates; g++ {
		gi := GateInfo{GateIndex: g, GlobalIndex: g, Status: GateEmpty, MappedTool: ToolNone}
		if g < len(statuses) {
			// Happy Hare: -1 unknown, 0 empty, 1/2 available
			if toInt(statuses[g], 0) > 0 {
				gi.Status = GateAvailable
			}
		}
		if g < len(colors) {
			gi.Color, _ = colors[g].(string)
		}
		if g < len(materials) {
			gi.Material, _ = materials[g].(string)
		}
		if g < len(spools) {
			gi.SpoolID = toInt(spools[g], 0)
		}
		info.Gates = append(info.Gates, gi)
	}

	ttg := jsonSlice(mmu, "ttg_map")
	if len(ttg) == 0 {
		info.ToolToGateMap = make([]int, gates)
		for i := range info.ToolToGateMap {
			info.ToolToGateMap[i] = i
		}
	} else {
		for t, raw := range ttg {
			g := toInt(raw, GateNone)
			info.ToolToGateMap = append(info.ToolToGateMap, g)
			if g >= 0 && g < gates {
				info.Gates[g].MappedTool = t
			}
		}
	}
	return info, nil
}

func (happyHareProtocol) loadCommand(gate int) (string, map[string]any) {
	return "MMU_LOAD", map[string]any{"GATE": gate}
}

func (happyHareProtocol) unloadCommand(int) (string, map[string]any) {
	return "MMU_EJECT", nil
}

func (happyHareProtocol) toolCommand(tool, _ int) (string, map[string]any) {
	return "MMU_CHANGE_TOOL", map[string]any{"TOOL": tool}
}

func (happyHareProtocol) selectCommand(gate int) (string, map[string]any) {
	return "MMU_SELECT", map[string]any{"GATE": gate}
}

func (happyHareProtocol) resetCommand() (string, map[string]any) {
	return "MMU_RECOVER", nil
}

func (happyHareProtocol) parseStatus(object string, payload map[string]any, info *SystemInfo) statusEvent {
	if object != "mmu" {
		return statusEvent{}
	}
	var ev statusEvent

	if statuses := jsonSlice(payload, "gate_status"); statuses != nil {
		for g, raw := range statuses {
			if g >= len(info.Gates) {
				break
			}
			if info.Gates[g].Status == GateLoaded {
				continue
			}
			if toInt(raw, 0) > 0 {
				info.Gates[g].Status = GateAvailable
			} else {
				info.Gates[g].Status = GateEmpty
			}
		}
	}

	if _, ok := payload["filament_pos"]; ok {
		if seg, known := happyHareSegments[jsonInt(payload, "filament_pos", 0)]; known {
			ev.Segment = seg
		}
	}

	switch jsonStr(payload, "action") {
	case "Idle":
		ev.Terminal = true
	case "Error":
		ev.Fault = happyHareFault(jsonStr(payload, "reason"))
	}
	return ev
}

func happyHareFault(reason string) Result {
	switch reason {
	case "jam", "clog":
		return ResultFilamentJam
	case "encoder":
		return ResultEncoderError
	case "sensor":
		return ResultSensorError
	}
	return ResultLoadFailed
}
