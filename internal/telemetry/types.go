package telemetry

import "time"

// Metadata is stored with the reading exactly as the device sent it.
type Metadata struct {
	SensorModel  string `json:"sensorModel,omitempty"`
	I2CAddress   string `json:"i2cAddress,omitempty"`
	Transport    string `json:"transport,omitempty"`
	Connectivity string `json:"connectivity,omitempty"`
}

// Reading is one row of the append-only telemetry log.
type Reading struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"deviceId"`
	RoomID      string    `json:"roomId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	MeasuredAt  time.Time `json:"measuredAt"`
	CreatedAt   time.Time `json:"createdAt"`
	Metadata    Metadata  `json:"metadata"`
}

// Submission is the input to Ingestor.Ingest.
type Submission struct {
	DeviceID    string
	RoomID      string // empty means the device's own room
	Temperature float64
	Humidity    float64
	MeasuredAt  time.Time // zero means now
	Metadata    Metadata
}

// Outcome reports whether a submission was stored. A rejected submission
// carries a human-readable Reason and wrote nothing.
type Outcome struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`

	// Reading is the stored row when OK.
	Reading *Reading `json:"-"`
}

// EvaluatedReading pairs a stored reading with its current classification.
type EvaluatedReading struct {
	Reading
	Status Status `json:"status"`
}

// Filter narrows List results.
type Filter struct {
	DeviceID string
	RoomID   string
	Since    time.Time // inclusive, zero means unbounded
	Until    time.Time // exclusive, zero means unbounded
	Limit    int       // default 50, max 500
	Offset   int
}

// ListResult is a page of readings, newest measurement first.
type ListResult struct {
	Readings []Reading `json:"readings"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// EvaluatedPage is a ListResult classified under one settings snapshot.
type EvaluatedPage struct {
	Readings []EvaluatedReading `json:"readings"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}
