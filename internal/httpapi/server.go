package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"amsd/internal/ams"
	"amsd/pkg/types"
)

// Service defines the methods required by the HTTP API layer. The ams
// backends satisfy it.
type Service interface {
	SystemInfo() ams.SystemInfo
	GateInfo(globalIndex int) ams.GateInfo
	IsRunning() bool

	LoadFilament(gate int) error
	UnloadFilament() error
	SelectGate(gate int) error
	ChangeTool(tool int) error
	Recover() error
	Reset() error
	Cancel() error

	SetGateInfo(gate int, info ams.GateInfo) error
	SetToolMapping(tool, gate int) error

	EnableBypass() error
	DisableBypass() error
}

func NewMux(svc Service, events *EventHub) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger)
	// Compression for JSON endpoints; SSE opts out via Content-Type.
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse(svc.SystemInfo()))
	})

	r.Get("/gates", func(w http.ResponseWriter, r *http.Request) {
		info := svc.SystemInfo()
		writeJSON(w, http.StatusOK, types.GatesResponse{Gates: gateDTOs(info.Gates)})
	})

	r.Get("/gates/{index}", func(w http.ResponseWriter, r *http.Request) {
		idx, ok := pathInt(w, r, "index")
		if !ok {
			return
		}
		gi := svc.GateInfo(idx)
		if gi.GlobalIndex < 0 {
			writeJSONError(w, http.StatusNotFound, "gate "+strconv.Itoa(idx)+" does not exist")
			return
		}
		writeJSON(w, http.StatusOK, gateDTO(gi))
	})

	r.Put("/gates/{index}", func(w http.ResponseWriter, r *http.Request) {
		idx, ok := pathInt(w, r, "index")
		if !ok {
			return
		}
		var req types.GateUpdateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		err := svc.SetGateInfo(idx, ams.GateInfo{
			Status:          ams.GateStatus(req.Status),
			Color:           req.Color,
			Material:        req.Material,
			Brand:           req.Brand,
			SpoolID:         req.SpoolID,
			RemainingWeight: req.RemainingWeight,
			TotalWeight:     req.TotalWeight,
			NozzleTempMin:   req.NozzleTempMin,
			NozzleTempMax:   req.NozzleTempMax,
		})
		respondOp(w, svc, err)
	})

	r.Put("/toolmap/{tool}", func(w http.ResponseWriter, r *http.Request) {
		tool, ok := pathInt(w, r, "tool")
		if !ok {
			return
		}
		var req types.ToolMapRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondOp(w, svc, svc.SetToolMapping(tool, req.Gate))
	})

	r.Route("/ops", func(r chi.Router) {
		r.Post("/load", func(w http.ResponseWriter, r *http.Request) {
			var req types.LoadRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			respondOp(w, svc, svc.LoadFilament(req.Gate))
		})
		r.Post("/unload", func(w http.ResponseWriter, r *http.Request) {
			respondOp(w, svc, svc.UnloadFilament())
		})
		r.Post("/select", func(w http.ResponseWriter, r *http.Request) {
			var req types.SelectRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			respondOp(w, svc, svc.SelectGate(req.Gate))
		})
		r.Post("/tool", func(w http.ResponseWriter, r *http.Request) {
			var req types.ToolRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			respondOp(w, svc, svc.ChangeTool(req.Tool))
		})
		r.Post("/bypass", func(w http.ResponseWriter, r *http.Request) {
			var req types.BypassRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.Enabled {
				respondOp(w, svc, svc.EnableBypass())
				return
			}
			respondOp(w, svc, svc.DisableBypass())
		})
		r.Post("/recover", func(w http.ResponseWriter, r *http.Request) {
			respondOp(w, svc, svc.Recover())
		})
		r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
			respondOp(w, svc, svc.Reset())
		})
		r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
			respondOp(w, svc, svc.Cancel())
		})
	})

	r.Get("/events", events.ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.IsRunning() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// respondOp writes the uniform operation response: the accepted/completed
// action on success, a mapped error payload otherwise.
func respondOp(w http.ResponseWriter, svc Service, err error) {
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.OpAccepted{
		Result: string(ams.ResultSuccess),
		Action: string(svc.SystemInfo().Action),
	})
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
