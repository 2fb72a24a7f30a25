package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"amsd/internal/ams"
	"amsd/internal/common/fsutil"
	"amsd/internal/config"
	"amsd/internal/httpapi"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("AMSD_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	configPath := flag.String("config", os.Getenv("AMSD_CONFIG"), "Optional config file (.yaml/.json/.toml)")
	amsType := flag.String("ams-type", "", "AMS type: simulation, happy_hare, afc, valgace, toolchanger")
	demo := flag.Bool("demo", false, "Force the simulation backend")
	units := flag.Int("units", 0, "Simulated AMS units (demo/fallback)")
	gates := flag.Int("gates-per-unit", 0, "Simulated gates per unit (demo/fallback)")
	topology := flag.String("topology", "", "Simulated topology: linear, hub, parallel")
	scenario := flag.String("scenario", "", "Demo scenario: fresh, printing, bypass, error-jam")
	opDelay := flag.Duration("op-delay", 0, "Simulated operation duration (0=default, negative=instant)")
	logLevel := flag.String("log-level", envOr("AMSD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	corsEnabled := flag.Bool("cors-enabled", false, "Enable CORS for browser clients")
	corsOrigins := flag.String("cors-origins", "*", "Comma-separated allowed CORS origins")
	flag.Parse()

	log := newLogger(*logLevel)

	cfg := config.Config{}
	path := *configPath
	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("load config")
		}
		cfg = loaded
	}
	// Flags win over the config file.
	mergeFlags(&cfg, *amsType, *demo, *units, *gates, *topology, *scenario, *corsEnabled, *corsOrigins)

	delay := *opDelay
	if delay == 0 {
		d, err := cfg.ParseOpDelay()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid op_delay in config")
		}
		delay = d
	}

	backend := ams.New(
		ams.Detection{Type: ams.Type(cfg.AMSType), ToolNames: cfg.ToolNames},
		nil, // no printer transport in the standalone daemon
		ams.FactoryConfig{
			Demo: cfg.Demo,
			Sim: ams.SimConfig{
				Units:        cfg.Units,
				GatesPerUnit: cfg.GatesPerUnit,
				Topology:     ams.Topology(cfg.Topology),
				Delay:        delay,
				Scenario:     cfg.Scenario,
				Dryer:        cfg.Dryer,
				BypassSensor: cfg.BypassSensor,
			},
		},
		log,
	)

	hub := httpapi.NewEventHub()
	backend.Subscribe(hub.Publish)
	if err := backend.Start(); err != nil {
		log.Fatal().Err(err).Msg("start backend")
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins,
		[]string{"GET", "POST", "PUT", "OPTIONS"},
		[]string{"Content-Type"})

	mux := httpapi.NewMux(backend, hub)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Info().Str("addr", *addr).Str("backend", string(backend.Type())).Msg("amsd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	backend.Close()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// defaultConfigPath returns the conventional config location when the file
// exists, otherwise empty.
func defaultConfigPath() string {
	p, err := fsutil.ExpandHome("~/.config/amsd/config.yaml")
	if err != nil || !fsutil.PathExists(p) {
		return ""
	}
	return p
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mergeFlags(cfg *config.Config, amsType string, demo bool, units, gates int,
	topology, scenario string, corsEnabled bool, corsOrigins string) {
	if amsType != "" {
		cfg.AMSType = amsType
	}
	if demo {
		cfg.Demo = true
	}
	if units != 0 {
		cfg.Units = units
	}
	if gates != 0 {
		cfg.GatesPerUnit = gates
	}
	if topology != "" {
		cfg.Topology = topology
	}
	if scenario != "" {
		cfg.Scenario = scenario
	}
	if corsEnabled {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = splitCSV(corsOrigins)
	}
}

// splitCSV splits a comma-separated flag value, trimming whitespace and
// dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
