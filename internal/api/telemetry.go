package api

import (
	"math"
	"net/http"
	"time"

	"github.com/edugate/monitoring-core/internal/telemetry"
)

// telemetryRequest is the body of POST /telemetry. Missing readings are
// rejected by the ingestor, not by JSON decoding.
type telemetryRequest struct {
	DeviceID    string             `json:"deviceId,omitempty"`
	RoomID      string             `json:"roomId,omitempty"`
	Temperature *float64           `json:"temperature"`
	Humidity    *float64           `json:"humidity"`
	MeasuredAt  *time.Time         `json:"measuredAt,omitempty"`
	Metadata    telemetry.Metadata `json:"metadata"`
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// handleRecordTelemetry stores a reading. Rejections answer 422 with the reason.
func (s *Server) handleRecordTelemetry(w http.ResponseWriter, r *http.Request) {
	dev, ok := deviceFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "device authentication required")
		return
	}

	var req telemetryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID != "" && req.DeviceID != dev.ID {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "deviceId does not match the device token")
		return
	}

	var measuredAt time.Time
	if req.MeasuredAt != nil {
		measuredAt = *req.MeasuredAt
	}

	out, err := s.service.ProcessTelemetryReading(r.Context(), dev.ID, req.RoomID,
		valueOrNaN(req.Temperature), valueOrNaN(req.Humidity), measuredAt, req.Metadata)
	if err != nil {
		s.writeServiceError(w, r, "recording telemetry", err)
		return
	}

	if !out.OK {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"ok":     false,
			"reason": out.Reason,
			"code":   ErrCodeRejected,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":      true,
		"reading": out.Reading,
	})
}

// handleListReadings pages through readings with their current status.
//
// Query parameters:
//   - deviceId, roomId: exact match
//   - since, until: RFC 3339 bounds on measuredAt
//   - limit, offset: paging
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, ok := parsePaging(w, r)
	if !ok {
		return
	}

	filter := telemetry.Filter{
		DeviceID: q.Get("deviceId"),
		RoomID:   q.Get("roomId"),
		Limit:    limit,
		Offset:   offset,
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &filter.Since}, {"until", &filter.Until}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(w, p.name+" must be an RFC 3339 timestamp")
			return
		}
		*p.dst = t
	}

	page, err := s.service.ListReadings(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, "listing readings", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
