package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edugate/monitoring-core/internal/auth"
)

// healthCheckTimeout bounds each dependency check on GET /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.accessLogMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodyLimitMiddleware)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Device ingestion
		r.Group(func(r chi.Router) {
			r.Use(s.deviceAuthMiddleware)

			r.Post("/access-events", s.handleRecordAccessEvent)
			r.Post("/access-events/simulate", s.handleSimulateAccessEvent)
			r.Post("/telemetry", s.handleRecordTelemetry)
		})

		// Administration
		r.Group(func(r chi.Router) {
			r.Use(s.adminAuthMiddleware)

			r.With(s.require(auth.PermSettingsRead)).Get("/settings", s.handleGetSettings)
			r.With(s.require(auth.PermSettingsManage)).Put("/settings", s.handleUpdateSettings)

			r.With(s.require(auth.PermHardwareProfile)).Get("/hardware-profile", s.handleGetHardwareProfile)
			r.With(s.require(auth.PermHardwareProfile)).Post("/hardware-profile/resolve", s.handleResolveHardwareProfile)

			r.With(s.require(auth.PermAccessLogRead)).Get("/access-events", s.handleListAccessEvents)
			r.With(s.require(auth.PermTelemetryRead)).Get("/telemetry", s.handleListReadings)

			r.Route("/devices", func(r chi.Router) {
				r.With(s.require(auth.PermDeviceRead)).Get("/", s.handleListDevices)
				r.With(s.require(auth.PermDeviceManage)).Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.require(auth.PermDeviceRead)).Get("/", s.handleGetDevice)
					r.With(s.require(auth.PermDeviceManage)).Patch("/", s.handleUpdateDevice)
					r.With(s.require(auth.PermDeviceManage)).Delete("/", s.handleDeleteDevice)
				})
			})

			r.Route("/rooms", func(r chi.Router) {
				r.With(s.require(auth.PermRoomRead)).Get("/", s.handleListRooms)
				r.With(s.require(auth.PermRoomManage)).Post("/", s.handleCreateRoom)
			})
		})
	})

	return r
}

// handleHealth reports each configured dependency. Any failure yields 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.health[name].HealthCheck(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  overall,
		"version": s.version,
		"checks":  checks,
	})
}
