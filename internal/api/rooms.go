package api

import (
	"net/http"
	"strconv"

	"github.com/edugate/monitoring-core/internal/location"
)

// handleListRooms returns rooms. ?active=true limits to active rooms.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "active must be a boolean")
			return
		}
		activeOnly = v
	}

	rooms, err := s.service.ListRooms(r.Context(), activeOnly)
	if err != nil {
		s.writeServiceError(w, r, "listing rooms", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleCreateRoom creates a room. New rooms are active unless isActive is false.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id,omitempty"`
		Name     string `json:"name"`
		Location string `json:"location"`
		IsActive *bool  `json:"isActive,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	room := &location.Room{ID: req.ID, Name: req.Name, Location: req.Location, IsActive: true}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	if err := s.service.CreateRoom(r.Context(), room); err != nil {
		s.writeServiceError(w, r, "creating room", err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}
