// Package hardware describes the monitoring hardware bill of materials
// (ESP32 boards, SHT3x temperature/humidity sensors and PN532 RFID readers)
// and normalises stored profiles into a canonical, versioned shape.
//
// The profile is descriptive metadata for operators and device firmware
// authors. Nothing in the core talks to the hardware directly.
package hardware

// CurrentVersion is the only profile layout Resolve emits.
const CurrentVersion = 1

// Transport is how devices reach the core.
type Transport string

// TransportHTTPREST is the only supported transport.
const TransportHTTPREST Transport = "HTTP_REST"

// Connectivity is the ESP32 network link.
type Connectivity string

// ConnectivityWiFi is the only supported connectivity.
const ConnectivityWiFi Connectivity = "WIFI"

// SensorModel is a temperature/humidity sensor part number.
type SensorModel string

// Known sensor models, in canonical order.
const (
	SensorSHT31 SensorModel = "SHT31"
	SensorSHT35 SensorModel = "SHT35"
)

// KnownSensorModels lists every sensor model the firmware supports.
var KnownSensorModels = []SensorModel{SensorSHT31, SensorSHT35}

// ReaderModel is an RFID reader part number.
type ReaderModel string

// ReaderPN532 is the only supported reader.
const ReaderPN532 ReaderModel = "PN532"

// Defaults applied when a stored value is missing or malformed.
const (
	DefaultSensorModel       = SensorSHT31
	DefaultI2CAddress        = "0x44"
	DefaultTelemetryEndpoint = "/api/v1/telemetry"
	DefaultAccessEndpoint    = "/api/v1/access-events"
	DefaultFrequencyMHz      = 13.56
)

// Profile is the canonical hardware profile.
type Profile struct {
	Version   int              `json:"version"`
	Transport Transport        `json:"transport"`
	ESP32     ESP32Profile     `json:"esp32"`
	Telemetry TelemetryProfile `json:"telemetry"`
	Access    AccessProfile    `json:"access"`
}

// ESP32Profile describes the microcontroller board.
type ESP32Profile struct {
	Connectivity Connectivity `json:"connectivity"`
}

// TelemetryProfile describes the environmental sensor and its endpoint.
type TelemetryProfile struct {
	SensorModel           SensorModel   `json:"sensorModel"`
	SupportedSensorModels []SensorModel `json:"supportedSensorModels"`
	I2CAddress            string        `json:"i2cAddress"`
	Endpoint              string        `json:"endpoint"`
}

// AccessProfile describes the RFID reader and its endpoint.
type AccessProfile struct {
	ReaderModel  ReaderModel `json:"readerModel"`
	FrequencyMHz float64     `json:"frequencyMHz"`
	Endpoint     string      `json:"endpoint"`
}

// Default returns the profile used when nothing is stored.
func Default() Profile {
	return Resolve(nil)
}

// Supports reports whether model is in the profile's supported list.
func (p Profile) Supports(model SensorModel) bool {
	for _, m := range p.Telemetry.SupportedSensorModels {
		if m == model {
			return true
		}
	}
	return false
}

// Equal reports whether two profiles are identical field by field.
func (p Profile) Equal(o Profile) bool {
	if p.Version != o.Version || p.Transport != o.Transport || p.ESP32 != o.ESP32 || p.Access != o.Access {
		return false
	}
	a, b := p.Telemetry, o.Telemetry
	if a.SensorModel != b.SensorModel || a.I2CAddress != b.I2CAddress || a.Endpoint != b.Endpoint {
		return false
	}
	if len(a.SupportedSensorModels) != len(b.SupportedSensorModels) {
		return false
	}
	for i := range a.SupportedSensorModels {
		if a.SupportedSensorModels[i] != b.SupportedSensorModels[i] {
			return false
		}
	}
	return true
}
