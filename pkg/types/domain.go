package types

// Gate represents one filament-holding position as exposed over the API.
type Gate struct {
	// Unit-local gate index.
	// example: 1
	GateIndex int `json:"gate_index" example:"1"`
	// System-wide gate index.
	// example: 5
	GlobalIndex int `json:"global_index" example:"5"`
	// Filament availability: empty, available, loaded, error or blocked.
	// example: available
	Status string `json:"status" example:"available"`
	// Tool number mapped to this gate, -1 when unmapped.
	// example: 5
	MappedTool int `json:"mapped_tool" example:"5"`
	// Filament color as a hex string.
	// example: #26A69A
	Color string `json:"color,omitempty" example:"#26A69A"`
	// Filament material.
	// example: PLA
	Material string `json:"material,omitempty" example:"PLA"`
	// Filament brand.
	// example: Polymaker
	Brand string `json:"brand,omitempty" example:"Polymaker"`
	// Spoolman spool ID, 0 when untracked.
	// example: 42
	SpoolID int `json:"spool_id,omitempty" example:"42"`
	// Remaining filament weight in grams.
	// example: 750.5
	RemainingWeight float64 `json:"remaining_weight,omitempty" example:"750.5"`
	// Full spool weight in grams.
	// example: 1000
	TotalWeight float64 `json:"total_weight,omitempty" example:"1000"`
	// Minimum nozzle temperature for this filament.
	// example: 190
	NozzleTempMin int `json:"nozzle_temp_min,omitempty" example:"190"`
	// Maximum nozzle temperature for this filament.
	// example: 220
	NozzleTempMax int `json:"nozzle_temp_max,omitempty" example:"220"`
}

// Unit represents one physical AMS device.
type Unit struct {
	// Index of the unit within the system.
	// example: 0
	UnitIndex int `json:"unit_index" example:"0"`
	// Human-friendly unit name.
	// example: AMS-1
	Name string `json:"name" example:"AMS-1"`
	// Number of gates this unit holds.
	// example: 4
	GateCount int `json:"gate_count" example:"4"`
	// Global index of the unit's first gate.
	// example: 0
	FirstGlobalIndex int `json:"first_global_index" example:"0"`
	// Whether the unit is currently connected.
	// example: true
	Connected bool `json:"connected" example:"true"`
	// Firmware version reported by the unit.
	// example: 3.0
	FirmwareVersion string `json:"firmware_version,omitempty" example:"3.0"`
	// Whether the unit has a filament motion encoder.
	HasEncoder bool `json:"has_encoder"`
	// Whether the unit has a toolhead filament sensor.
	HasToolheadSensor bool `json:"has_toolhead_sensor"`
	// Whether the unit has per-gate filament sensors.
	HasGateSensors bool `json:"has_gate_sensors"`
	// Whether the unit reports buffer health.
	HasBufferHealth bool `json:"has_buffer_health"`
	// Whether the unit has an integrated filament dryer.
	HasDryer bool `json:"has_dryer"`
	// Filament routing arrangement: linear, hub or parallel.
	// example: hub
	Topology string `json:"topology" example:"hub"`
}
