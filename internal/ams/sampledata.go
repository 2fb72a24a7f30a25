package ams

// Sample filament data for the simulation backend. Immutable configuration:
// samplePalette and sampleMaterials are never written after init.

type sampleFilament struct {
	color    string
	material string
	brand    string
	tempMin  int
	tempMax  int
}

var sampleFilaments = []sampleFilament{
	{color: "#E53935", material: "PLA", brand: "Polymaker", tempMin: 190, tempMax: 220},
	{color: "#1E88E5", material: "PETG", brand: "Prusament", tempMin: 230, tempMax: 250},
	{color: "#43A047", material: "PLA", brand: "eSun", tempMin: 195, tempMax: 215},
	{color: "#FDD835", material: "ABS", brand: "Bambu", tempMin: 240, tempMax: 270},
	{color: "#8E24AA", material: "PLA", brand: "Overture", tempMin: 190, tempMax: 220},
	{color: "#FB8C00", material: "TPU", brand: "NinjaTek", tempMin: 220, tempMax: 240},
	{color: "#FFFFFF", material: "PLA", brand: "Polymaker", tempMin: 190, tempMax: 220},
	{color: "#212121", material: "ASA", brand: "Fillamentum", tempMin: 240, tempMax: 265},
}

// sampleGate synthesizes deterministic gate data by rotating through the
// filament table, so the UI has realistic data without hardware.
func sampleGate(local, global int) GateInfo {
	f := sampleFilaments[global%len(sampleFilaments)]
	return GateInfo{
		GateIndex:       local,
		GlobalIndex:     global,
		Status:          GateAvailable,
		MappedTool:      global,
		Color:           f.color,
		Material:        f.material,
		Brand:           f.brand,
		SpoolID:         100 + global,
		RemainingWeight: 750,
		TotalWeight:     1000,
		NozzleTempMin:   f.tempMin,
		NozzleTempMax:   f.tempMax,
	}
}
