package ams

import (
	"context"
	"fmt"
)

// valgACEProtocol drives an Anycubic ACE Pro through the ValgACE Klipper
// plugin: four slots merged through a hub, with an integrated dryer.
type valgACEProtocol struct{}

func (valgACEProtocol) backendType() Type { return TypeValgACE }

func (valgACEProtocol) discover(ctx context.Context, d Dispatcher) (SystemInfo, error) {
	ace, err := d.QueryObject(ctx, "ace")
	if err != nil {
		return SystemInfo{}, err
	}
	slots := jsonSlice(ace, "slots")
	if len(slots) == 0 {
		return SystemInfo{}, fmt.Errorf("ace reports no slots")
	}

	info := SystemInfo{
		Type:        TypeValgACE,
		Topology:    TopologyHub,
		TotalGates:  len(slots),
		CurrentTool: ToolNone,
		CurrentGate: GateNone,
		Action:      ActionIdle,

		FilamentSegment: SegmentNone,
		ErrorSegment:    SegmentNone,

		SupportsBypass:      false,
		SupportsToolMapping: true,
	}
	info.Units = []Unit{{
		UnitIndex:        0,
		Name:             "ACE",
		GateCount:        len(slots),
		FirstGlobalIndex: 0,
		Connected:        jsonStr(ace, "status") != "disconnected",
		FirmwareVersion:  jsonStr(ace, "firmware"),
		HasGateSensors:   true,
		HasDryer:         jsonMap(ace, "dryer") != nil,
		Topology:         TopologyHub,
	}}

	for i, raw := range slots {
		slot, _ := raw.(map[string]any)
		gi := GateInfo{GateIndex: i, GlobalIndex: i, Status: GateEmpty, MappedTool: i}
		if slot != nil {
			if jsonStr(slot, "status") == "ready" {
				gi.Status = GateAvailable
			}
			gi.Color = jsonStr(slot, "color")
			gi.Material = jsonStr(slot, "type")
			gi.SpoolID = jsonInt(slot, "rfid", 0)
		}
		info.Gates = append(info.Gates, gi)
	}
	info.ToolToGateMap = make([]int, len(slots))
	for i := range info.ToolToGateMap {
		info.ToolToGateMap[i] = i
	}
	return info, nil
}

func (valgACEProtocol) loadCommand(gate int) (string, map[string]any) {
	return "ACE_FEED", map[string]any{"INDEX": gate}
}

func (valgACEProtocol) unloadCommand(gate int) (string, map[string]any) {
	return "ACE_RETRACT", map[string]any{"INDEX": gate}
}

func (valgACEProtocol) toolCommand(tool, _ int) (string, map[string]any) {
	return "ACE_CHANGE_TOOL", map[string]any{"TOOL": tool}
}

func (valgACEProtocol) selectCommand(gate int) (string, map[string]any) {
	return "ACE_SELECT", map[string]any{"INDEX": gate}
}

func (valgACEProtocol) resetCommand() (string, map[string]any) {
	return "ACE_RESET", nil
}

func (valgACEProtocol) parseStatus(object string, payload map[string]any, info *SystemInfo) statusEvent {
	if object != "ace" {
		return statusEvent{}
	}
	var ev statusEvent

	if slots := jsonSlice(payload, "slots"); slots != nil {
		for i, raw := range slots {
			if i >= len(info.Gates) {
				break
			}
			slot, _ := raw.(map[string]any)
			if slot == nil || info.Gates[i].Status == GateLoaded {
				continue
			}
			if jsonStr(slot, "status") == "ready" {
				info.Gates[i].Status = GateAvailable
			} else {
				info.Gates[i].Status = GateEmpty
			}
		}
	}
	if dryer := jsonMap(payload, "dryer"); dryer != nil && len(info.Units) > 0 {
		info.Units[0].HasDryer = true
	}

	switch jsonStr(payload, "status") {
	case "ready":
		ev.Terminal = true
	case "feeding":
		ev.Segment = SegmentLane
	case "assisting":
		ev.Segment = SegmentToolhead
	case "retracting":
		ev.Segment = SegmentOutput
	case "jammed":
		ev.Fault = ResultFilamentJam
	case "error":
		ev.Fault = ResultLoadFailed
	}
	return ev
}
