package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/apperr"
)

// accessEventRequest is the body of POST /access-events and /access-events/simulate.
// DeviceID is optional; when present it must match the authenticated device.
type accessEventRequest struct {
	DeviceID   string          `json:"deviceId,omitempty"`
	StudentID  string          `json:"studentId"`
	OccurredAt *time.Time      `json:"occurredAt,omitempty"`
	Metadata   access.Metadata `json:"metadata"`
}

// accessEventResponse is the decision returned to the device.
type accessEventResponse struct {
	access.Result
	EventID    string    `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newAccessEventResponse(res access.Result) accessEventResponse {
	out := accessEventResponse{Result: res}
	if res.Event != nil {
		out.EventID = res.Event.ID
		out.OccurredAt = res.Event.OccurredAt
	}
	return out
}

// decodeAccessEvent reads the body and resolves the device ID from the
// authenticated device. It writes the error response itself.
func (s *Server) decodeAccessEvent(w http.ResponseWriter, r *http.Request) (string, accessEventRequest, bool) {
	dev, ok := deviceFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "device authentication required")
		return "", accessEventRequest{}, false
	}

	var req accessEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return "", req, false
	}
	if req.DeviceID != "" && req.DeviceID != dev.ID {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "deviceId does not match the device token")
		return "", req, false
	}
	if req.StudentID == "" {
		s.writeServiceError(w, r, "recording access event", apperr.Invalid("studentId", "is required"))
		return "", req, false
	}
	return dev.ID, req, true
}

// handleRecordAccessEvent decides a manual badge read.
func (s *Server) handleRecordAccessEvent(w http.ResponseWriter, r *http.Request) {
	deviceID, req, ok := s.decodeAccessEvent(w, r)
	if !ok {
		return
	}

	var occurredAt time.Time
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	res, err := s.service.ProcessAccessEvent(r.Context(), deviceID, req.StudentID, occurredAt, req.Metadata)
	if err != nil {
		s.writeServiceError(w, r, "recording access event", err)
		return
	}
	writeJSON(w, http.StatusCreated, newAccessEventResponse(res))
}

// handleSimulateAccessEvent generates an auto event unless the device is
// inside the simulation interval, in which case it answers 429.
func (s *Server) handleSimulateAccessEvent(w http.ResponseWriter, r *http.Request) {
	deviceID, req, ok := s.decodeAccessEvent(w, r)
	if !ok {
		return
	}

	sim, err := s.service.SimulateAccessEvent(r.Context(), deviceID, req.StudentID, req.Metadata)
	if err != nil {
		s.writeServiceError(w, r, "simulating access event", err)
		return
	}

	if sim.Skipped {
		seconds := int64(math.Ceil(float64(sim.RetryAfterMs) / 1000)) //nolint:mnd // ms to s
		w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"skipped":      true,
			"retryAfterMs": sim.RetryAfterMs,
			"code":         ErrCodeRateLimited,
		})
		return
	}
	writeJSON(w, http.StatusCreated, newAccessEventResponse(*sim.Result))
}

// handleListAccessEvents pages through the access log.
//
// Query parameters:
//   - deviceId, studentId: exact match
//   - result: ALLOW or DENY
//   - source: manual or auto
//   - limit, offset: paging
func (s *Server) handleListAccessEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, ok := parsePaging(w, r)
	if !ok {
		return
	}

	filter := access.Filter{
		DeviceID:  q.Get("deviceId"),
		StudentID: q.Get("studentId"),
		Result:    access.Decision(q.Get("result")),
		Source:    access.Source(q.Get("source")),
		Limit:     limit,
		Offset:    offset,
	}
	if filter.Source != "" && !filter.Source.Valid() {
		writeBadRequest(w, "source must be manual or auto")
		return
	}

	page, err := s.service.ListAccessEvents(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, "listing access events", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// parsePaging reads limit and offset. Absent values are zero; the
// repositories apply their own defaults and caps.
func parsePaging(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &limit}, {"offset", &offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, p.name+" must be a non-negative integer")
			return 0, 0, false
		}
		*p.dst = n
	}
	return limit, offset, true
}
