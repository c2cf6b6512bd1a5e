package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/edugate/monitoring-core/internal/hardware"
)

// settingsRequest is the body of PUT /settings. Absent fields keep their
// current value. The hardware profile accepts any shape; it is resolved
// before storage.
type settingsRequest struct {
	TempMin                  *float64        `json:"tempMin"`
	TempMax                  *float64        `json:"tempMax"`
	HumMin                   *float64        `json:"humMin"`
	HumMax                   *float64        `json:"humMax"`
	TelemetryIntervalSeconds *int            `json:"telemetryIntervalSeconds"`
	UnlockDurationSeconds    *int            `json:"unlockDurationSeconds"`
	AllowOnlyActiveStudents  *bool           `json:"allowOnlyActiveStudents"`
	HardwareProfile          json.RawMessage `json:"hardwareProfile"`
}

// handleGetSettings returns the current settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.service.Settings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "loading settings", err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// handleUpdateSettings merges the body onto the current settings and stores them.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	next, err := s.service.Settings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "loading settings", err)
		return
	}

	if req.TempMin != nil {
		next.TempMin = *req.TempMin
	}
	if req.TempMax != nil {
		next.TempMax = *req.TempMax
	}
	if req.HumMin != nil {
		next.HumMin = *req.HumMin
	}
	if req.HumMax != nil {
		next.HumMax = *req.HumMax
	}
	if req.TelemetryIntervalSeconds != nil {
		next.TelemetryIntervalSeconds = *req.TelemetryIntervalSeconds
	}
	if req.UnlockDurationSeconds != nil {
		next.UnlockDurationSeconds = *req.UnlockDurationSeconds
	}
	if req.AllowOnlyActiveStudents != nil {
		next.AllowOnlyActiveStudents = *req.AllowOnlyActiveStudents
	}
	if len(req.HardwareProfile) > 0 {
		next.HardwareProfile = s.service.ResolveMonitoringHardwareProfile(req.HardwareProfile)
	}

	stored, err := s.service.UpdateSettings(r.Context(), next)
	if err != nil {
		s.writeServiceError(w, r, "updating settings", err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleGetHardwareProfile returns the stored profile.
func (s *Server) handleGetHardwareProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.HardwareProfile(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "loading hardware profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleResolveHardwareProfile normalises an arbitrary body without storing it.
// Malformed JSON resolves to the defaults like any other bad value.
func (s *Server) handleResolveHardwareProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	var p hardware.Profile
	if len(body) == 0 {
		p = s.service.ResolveMonitoringHardwareProfile(nil)
	} else {
		p = s.service.ResolveMonitoringHardwareProfile(body)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":   p,
		"canonical": len(body) > 0 && hardware.IsCanonical(body),
	})
}
