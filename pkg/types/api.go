package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Backend kind: simulation, happy_hare, afc, valgace or toolchanger.
	// example: happy_hare
	Type string `json:"type" example:"happy_hare"`
	// Physical units making up the system.
	Units []Unit `json:"units"`
	// All gates in global index order.
	Gates []Gate `json:"gates"`
	// System-wide filament routing arrangement.
	// example: linear
	Topology string `json:"topology" example:"linear"`
	// Total number of gates across all units.
	// example: 8
	TotalGates int `json:"total_gates" example:"8"`
	// Currently selected tool, -1 when none.
	// example: 2
	CurrentTool int `json:"current_tool" example:"2"`
	// Currently engaged gate: -1 none, -2 bypass.
	// example: 2
	CurrentGate int `json:"current_gate" example:"2"`
	// Whether filament currently reaches the toolhead.
	// example: true
	FilamentLoaded bool `json:"filament_loaded" example:"true"`
	// In-flight operation class: idle, loading, unloading, resetting or error.
	// example: idle
	Action string `json:"action" example:"idle"`
	// Human-readable progress or error detail for the current action.
	// example: Loading gate 2
	OperationDetail string `json:"operation_detail,omitempty" example:"Loading gate 2"`
	// Tool-to-gate assignments, indexed by tool number.
	ToolToGateMap []int `json:"tool_to_gate_map"`
	// Whether an external bypass spool path exists.
	SupportsBypass bool `json:"supports_bypass"`
	// Whether endless-spool runout chaining is available.
	SupportsEndlessSpool bool `json:"supports_endless_spool"`
	// Whether Spoolman integration is available.
	SupportsSpoolman bool `json:"supports_spoolman"`
	// Whether tool-to-gate remapping is available.
	SupportsToolMapping bool `json:"supports_tool_mapping"`
	// Whether a dedicated bypass sensor is fitted.
	HasHardwareBypassSensor bool `json:"has_hardware_bypass_sensor"`
	// Furthest path checkpoint the filament has reached.
	// example: nozzle
	FilamentSegment string `json:"filament_segment" example:"nozzle"`
	// Path checkpoint a fault localized to, none when healthy.
	// example: none
	ErrorSegment string `json:"error_segment" example:"none"`
}

// GatesResponse wraps the gate list returned by GET /gates.
type GatesResponse struct {
	// All gates in global index order.
	Gates []Gate `json:"gates"`
}

// LoadRequest selects the gate for POST /ops/load.
type LoadRequest struct {
	// Global gate index to load from.
	// example: 2
	Gate int `json:"gate" example:"2"`
}

// SelectRequest selects the gate for POST /ops/select.
type SelectRequest struct {
	// Global gate index to point the selector at.
	// example: 2
	Gate int `json:"gate" example:"2"`
}

// ToolRequest selects the tool for POST /ops/tool.
type ToolRequest struct {
	// Tool number to change to.
	// example: 1
	Tool int `json:"tool" example:"1"`
}

// BypassRequest switches the external bypass path for POST /ops/bypass.
type BypassRequest struct {
	// True to enable bypass, false to disable it.
	// example: true
	Enabled bool `json:"enabled" example:"true"`
}

// GateUpdateRequest replaces a gate's filament metadata for PUT /gates/{index}.
type GateUpdateRequest struct {
	// Filament availability: empty, available, loaded, error or blocked.
	// example: available
	Status string `json:"status" example:"available"`
	// Filament color as a hex string.
	// example: #FF5722
	Color string `json:"color,omitempty" example:"#FF5722"`
	// Filament material.
	// example: PETG
	Material string `json:"material,omitempty" example:"PETG"`
	// Filament brand.
	// example: Prusament
	Brand string `json:"brand,omitempty" example:"Prusament"`
	// Spoolman spool ID, 0 when untracked.
	// example: 42
	SpoolID int `json:"spool_id,omitempty" example:"42"`
	// Remaining filament weight in grams.
	RemainingWeight float64 `json:"remaining_weight,omitempty"`
	// Full spool weight in grams.
	TotalWeight float64 `json:"total_weight,omitempty"`
	// Minimum nozzle temperature for this filament.
	NozzleTempMin int `json:"nozzle_temp_min,omitempty"`
	// Maximum nozzle temperature for this filament.
	NozzleTempMax int `json:"nozzle_temp_max,omitempty"`
}

// ToolMapRequest assigns a gate to a tool for PUT /toolmap/{tool}.
type ToolMapRequest struct {
	// Global gate index to assign, -1 to unmap, -2 for bypass.
	// example: 3
	Gate int `json:"gate" example:"3"`
}

// OpAccepted is returned when an operation is accepted or completed.
type OpAccepted struct {
	// Outcome code, success when the operation was accepted.
	// example: success
	Result string `json:"result" example:"success"`
	// Action now in effect: loading, unloading, resetting or idle.
	// example: loading
	Action string `json:"action" example:"loading"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: gate 9 out of range [0,8)
	Error string `json:"error" example:"gate 9 out of range [0,8)"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Domain outcome code when the error originated in the backend.
	// example: invalid_gate
	Result string `json:"result,omitempty" example:"invalid_gate"`
	// Operator-facing description of the failure.
	// example: That gate does not exist
	UserMessage string `json:"user_message,omitempty" example:"That gate does not exist"`
	// Suggested remedy, when one is known.
	// example: Insert a spool into the gate
	Remedy string `json:"remedy,omitempty" example:"Insert a spool into the gate"`
}

// Event is one server-sent event as delivered on GET /events.
type Event struct {
	// Event name: STATE_CHANGED, LOAD_COMPLETE, UNLOAD_COMPLETE,
	// TOOL_CHANGED, GATE_CHANGED or ERROR.
	// example: LOAD_COMPLETE
	Name string `json:"name" example:"LOAD_COMPLETE"`
	// Event payload: gate index for completion events, error description
	// for ERROR, empty otherwise.
	// example: 2
	Payload string `json:"payload,omitempty" example:"2"`
}
