package access

import (
	"time"
)

// Decision is the outcome of an access request.
type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionDeny  Decision = "DENY"
)

// Reason explains a decision.
type Reason string

const (
	ReasonOK              Reason = "ok"
	ReasonInactiveDevice  Reason = "inactive_device"
	ReasonInactiveStudent Reason = "inactive_student"
)

// Source records who generated the request.
type Source string

const (
	// SourceManual is a badge read or an operator action.
	SourceManual Source = "manual"

	// SourceAuto is a simulated event; subject to the rate limiter.
	SourceAuto Source = "auto"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceManual || s == SourceAuto
}

// Metadata is stored with the event exactly as the caller supplied it.
type Metadata struct {
	CardUID      string  `json:"cardUid,omitempty"`
	ReaderModel  string  `json:"readerModel,omitempty"`
	FrequencyMHz float64 `json:"frequencyMHz,omitempty"`
	Transport    string  `json:"transport,omitempty"`
	Connectivity string  `json:"connectivity,omitempty"`
}

// Event is one row of the append-only access log.
type Event struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"deviceId"`
	StudentID  string    `json:"studentId"`
	Result     Decision  `json:"result"`
	Reason     Reason    `json:"reason"`
	Source     Source    `json:"source"`
	OccurredAt time.Time `json:"occurredAt"`
	CreatedAt  time.Time `json:"createdAt"`
	Metadata   Metadata  `json:"metadata"`
}

// Request is the input to Engine.Process.
type Request struct {
	DeviceID   string
	StudentID  string
	OccurredAt time.Time // zero means now
	Source     Source    // empty means SourceManual
	Metadata   Metadata
}

// Result is returned for every processed request, ALLOW or DENY.
type Result struct {
	Decision              Decision `json:"result"`
	Reason                Reason   `json:"reason"`
	UnlockDurationSeconds int      `json:"unlockDurationSeconds"`

	// Event is the row that was written.
	Event *Event `json:"-"`
}

// Filter narrows List results.
type Filter struct {
	DeviceID  string
	StudentID string
	Result    Decision
	Source    Source
	Limit     int // default 50, max 200
	Offset    int
}

// ListResult is a page of events, newest first.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
