package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edugate/monitoring-core/internal/device"
)

// deviceRequest is the body of POST /devices.
type deviceRequest struct {
	ID       string      `json:"id,omitempty"`
	Name     string      `json:"name"`
	Type     device.Type `json:"type"`
	RoomID   *string     `json:"roomId,omitempty"`
	IsActive *bool       `json:"isActive,omitempty"`
}

// deviceUpdateRequest is the body of PATCH /devices/{id}. Absent fields keep
// their value; "roomId": null unbinds the device.
type deviceUpdateRequest struct {
	Name            *string         `json:"name"`
	Type            *device.Type    `json:"type"`
	RoomID          json.RawMessage `json:"roomId"`
	IsActive        *bool           `json:"isActive"`
	RegenerateToken bool            `json:"regenerateToken"`
}

// handleListDevices returns devices without their tokens.
//
// Query parameters:
//   - type: PORTARIA or SALA
//   - roomId: bound room
//   - active: true to return active devices only
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := device.Filter{
		Type:   device.Type(q.Get("type")),
		RoomID: q.Get("roomId"),
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "active must be a boolean")
			return
		}
		filter.ActiveOnly = active
	}

	devices, err := s.service.ListDevices(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, "listing devices", err)
		return
	}
	out := make([]device.Device, len(devices))
	for i := range devices {
		out[i] = devices[i].Redacted()
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": out, "count": len(out)})
}

// handleGetDevice returns a single device without its token.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "getting device", err)
		return
	}
	writeJSON(w, http.StatusOK, d.Redacted())
}

// handleCreateDevice registers a device. The response is the only time the
// token is shown.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d := &device.Device{
		ID:       req.ID,
		Name:     req.Name,
		Type:     req.Type,
		RoomID:   req.RoomID,
		IsActive: true,
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}

	if err := s.service.CreateDevice(r.Context(), d); err != nil {
		s.writeServiceError(w, r, "creating device", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleUpdateDevice partially updates a device. The token is returned only
// when regenerateToken was set.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.service.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "getting device", err)
		return
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Type != nil {
		d.Type = *req.Type
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if len(req.RoomID) > 0 {
		var roomID *string
		if err := json.Unmarshal(req.RoomID, &roomID); err != nil {
			writeBadRequest(w, "roomId must be a string or null")
			return
		}
		d.RoomID = roomID
	}

	if err := s.service.UpdateDevice(r.Context(), d, req.RegenerateToken); err != nil {
		s.writeServiceError(w, r, "updating device", err)
		return
	}
	if req.RegenerateToken {
		writeJSON(w, http.StatusOK, d)
		return
	}
	writeJSON(w, http.StatusOK, d.Redacted())
}

// handleDeleteDevice removes a device that has no history.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteDevice(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, "deleting device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
