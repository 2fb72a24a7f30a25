package httpapi

import (
	"amsd/internal/ams"
	"amsd/pkg/types"
)

func statusResponse(info ams.SystemInfo) types.StatusResponse {
	units := make([]types.Unit, 0, len(info.Units))
	for _, u := range info.Units {
		units = append(units, types.Unit{
			UnitIndex:         u.UnitIndex,
			Name:              u.Name,
			GateCount:         u.GateCount,
			FirstGlobalIndex:  u.FirstGlobalIndex,
			Connected:         u.Connected,
			FirmwareVersion:   u.FirmwareVersion,
			HasEncoder:        u.HasEncoder,
			HasToolheadSensor: u.HasToolheadSensor,
			HasGateSensors:    u.HasGateSensors,
			HasBufferHealth:   u.HasBufferHealth,
			HasDryer:          u.HasDryer,
			Topology:          string(u.Topology),
		})
	}
	return types.StatusResponse{
		Type:            string(info.Type),
		Units:           units,
		Gates:           gateDTOs(info.Gates),
		Topology:        string(info.Topology),
		TotalGates:      info.TotalGates,
		CurrentTool:     info.CurrentTool,
		CurrentGate:     info.CurrentGate,
		FilamentLoaded:  info.FilamentLoaded,
		Action:          string(info.Action),
		OperationDetail: info.OperationDetail,
		ToolToGateMap:   info.ToolToGateMap,

		SupportsBypass:          info.SupportsBypass,
		SupportsEndlessSpool:    info.SupportsEndlessSpool,
		SupportsSpoolman:        info.SupportsSpoolman,
		SupportsToolMapping:     info.SupportsToolMapping,
		HasHardwareBypassSensor: info.HasHardwareBypassSensor,

		FilamentSegment: string(info.FilamentSegment),
		ErrorSegment:    string(info.ErrorSegment),
	}
}

func gateDTO(g ams.GateInfo) types.Gate {
	return types.Gate{
		GateIndex:       g.GateIndex,
		GlobalIndex:     g.GlobalIndex,
		Status:          string(g.Status),
		MappedTool:      g.MappedTool,
		Color:           g.Color,
		Material:        g.Material,
		Brand:           g.Brand,
		SpoolID:         g.SpoolID,
		RemainingWeight: g.RemainingWeight,
		TotalWeight:     g.TotalWeight,
		NozzleTempMin:   g.NozzleTempMin,
		NozzleTempMax:   g.NozzleTempMax,
	}
}

func gateDTOs(gates []ams.GateInfo) []types.Gate {
	out := make([]types.Gate, 0, len(gates))
	for _, g := range gates {
		out = append(out, gateDTO(g))
	}
	return out
}
