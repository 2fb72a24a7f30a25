package ams

import (
	"github.com/rs/zerolog"
)

// FactoryConfig carries the externally supplied demo/test configuration.
// When Demo is set the factory ignores detection and always builds a
// simulation backend shaped by Sim, so UI development needs no hardware.
type FactoryConfig struct {
	Demo bool
	Sim  SimConfig
}

// New selects and constructs the backend for a detection produced by the
// discovery collaborator. A detected vendor without command-dispatch
// handles degrades to a simulation backend with a warning; an unknown type
// degrades the same way.
func New(det Detection, disp Dispatcher, cfg FactoryConfig, log zerolog.Logger) Backend {
	if cfg.Demo {
		log.Info().
			Str("scenario", cfg.Sim.Scenario).
			Str("topology", string(cfg.Sim.Topology)).
			Msg("demo mode: using simulation backend")
		return NewSim(cfg.Sim)
	}
	if disp == nil {
		log.Warn().
			Str("type", string(det.Type)).
			Msg("no command dispatcher available, falling back to simulation backend")
		return NewSim(cfg.Sim)
	}

	switch det.Type {
	case TypeHappyHare:
		return newVendorBackend(happyHareProtocol{}, disp, log)
	case TypeAFC:
		return newVendorBackend(afcProtocol{}, disp, log)
	case TypeValgACE:
		return newVendorBackend(valgACEProtocol{}, disp, log)
	case TypeToolChanger:
		return newVendorBackend(toolChangerProtocol{toolNames: det.ToolNames}, disp, log)
	}

	log.Warn().
		Str("type", string(det.Type)).
		Msg("unknown AMS type, falling back to simulation backend")
	return NewSim(cfg.Sim)
}
