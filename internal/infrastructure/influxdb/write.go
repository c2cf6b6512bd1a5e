package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementTelemetry      = "telemetry"
	MeasurementAccessDecision = "access_decision"
)

// WriteReading records a stored telemetry reading with the status it had
// when it was ingested.
func (c *Client) WriteReading(deviceID, roomID string, temperature, humidity float64, status string, measuredAt time.Time) {
	c.WritePointWithTime(MeasurementTelemetry,
		map[string]string{
			"device_id": deviceID,
			"room_id":   roomID,
			"status":    status,
		},
		map[string]any{
			"temperature": temperature,
			"humidity":    humidity,
		},
		measuredAt,
	)
}

// WriteAccessDecision records one access decision. The count field lets
// dashboards sum decisions per tag combination.
func (c *Client) WriteAccessDecision(deviceID, result, reason, source string, occurredAt time.Time) {
	c.WritePointWithTime(MeasurementAccessDecision,
		map[string]string{
			"device_id": deviceID,
			"result":    result,
			"reason":    reason,
			"source":    source,
		},
		map[string]any{
			"count": 1,
		},
		occurredAt,
	)
}

// WritePointWithTime writes a point with an explicit timestamp. Dropped
// silently when the client is not connected.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
