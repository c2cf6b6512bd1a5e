package mqtt

import "fmt"

// TopicPrefix is the root of every topic the core publishes.
const TopicPrefix = "monitoring"

// Topics builds monitoring topic names.
type Topics struct{}

// AccessDecision returns the topic for decisions taken at a device.
//
// Example: monitoring/access/gate-1
func (Topics) AccessDecision(deviceID string) string {
	return fmt.Sprintf("%s/access/%s", TopicPrefix, deviceID)
}

// SimulationSkipped returns the topic for throttled simulation requests.
//
// Example: monitoring/access/gate-1/skipped
func (Topics) SimulationSkipped(deviceID string) string {
	return fmt.Sprintf("%s/access/%s/skipped", TopicPrefix, deviceID)
}

// Telemetry returns the topic for readings stored for a room.
//
// Example: monitoring/telemetry/sala-1
func (Topics) Telemetry(roomID string) string {
	return fmt.Sprintf("%s/telemetry/%s", TopicPrefix, roomID)
}

// SystemStatus returns the retained online/offline topic.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// AllAccessDecisions is the subscription wildcard for every device.
func (Topics) AllAccessDecisions() string {
	return TopicPrefix + "/access/+"
}

// AllTelemetry is the subscription wildcard for every room.
func (Topics) AllTelemetry() string {
	return TopicPrefix + "/telemetry/+"
}
