package hardware

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/edugate/monitoring-core/internal/apperr"
)

var canonicalI2C = regexp.MustCompile(`^0x[0-9A-F]{2}$`)

func assertValid(t *testing.T, p Profile) {
	t.Helper()
	if p.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", p.Version, CurrentVersion)
	}
	if p.Transport != TransportHTTPREST {
		t.Errorf("Transport = %q", p.Transport)
	}
	if p.ESP32.Connectivity != ConnectivityWiFi {
		t.Errorf("Connectivity = %q", p.ESP32.Connectivity)
	}
	if len(p.Telemetry.SupportedSensorModels) == 0 {
		t.Error("SupportedSensorModels is empty")
	}
	if !p.Supports(p.Telemetry.SensorModel) {
		t.Errorf("SensorModel %q not in %v", p.Telemetry.SensorModel, p.Telemetry.SupportedSensorModels)
	}
	if !canonicalI2C.MatchString(p.Telemetry.I2CAddress) {
		t.Errorf("I2CAddress = %q", p.Telemetry.I2CAddress)
	}
	if p.Telemetry.Endpoint == "" || p.Access.Endpoint == "" {
		t.Errorf("endpoints = %q, %q", p.Telemetry.Endpoint, p.Access.Endpoint)
	}
	if p.Access.ReaderModel != ReaderPN532 {
		t.Errorf("ReaderModel = %q", p.Access.ReaderModel)
	}
	if f := p.Access.FrequencyMHz; f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		t.Errorf("FrequencyMHz = %v", f)
	}
}

func TestResolve_TotalAndIdempotent(t *testing.T) {
	inputs := map[string]any{
		"nil":             nil,
		"empty map":       map[string]any{},
		"empty json":      []byte(`{}`),
		"malformed json":  []byte(`{"telemetry":`),
		"json string":     `{"telemetry":{"sensorModel":"sht35"}}`,
		"number":          42,
		"slice":           []int{1, 2, 3},
		"channel":         make(chan int),
		"nil profile ptr": (*Profile)(nil),
		"wrong types": map[string]any{
			"version":   "seven",
			"telemetry": "not an object",
			"access":    []any{1, 2},
		},
		"garbage fields": map[string]any{
			"telemetry": map[string]any{
				"sensorModel":           "DHT22",
				"supportedSensorModels": []any{"BME280", 7, nil},
				"i2cAddress":            "0x4",
				"endpoint":              "   ",
			},
			"access": map[string]any{
				"readerModel":  "RC522",
				"frequencyMHz": -1.0,
				"endpoint":     17,
			},
		},
		"nan frequency": map[string]any{"access": map[string]any{"frequencyMHz": math.NaN()}},
		"legacy flat": map[string]any{
			"sensorModel":       "sht35",
			"i2cAddress":        "0X45",
			"readerModel":       "PN532",
			"frequencyMHz":      "13.56",
			"telemetryEndpoint": "/ingest/telemetry",
			"accessEndpoint":    "/ingest/access",
		},
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			first := Resolve(raw)
			assertValid(t, first)

			second := Resolve(first)
			if !second.Equal(first) {
				t.Errorf("Resolve(Resolve(x)) = %+v, want %+v", second, first)
			}

			data, err := json.Marshal(first)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !ResolveJSON(data).Equal(first) {
				t.Errorf("ResolveJSON(marshal(Resolve(x))) differs from Resolve(x)")
			}
			if !IsCanonical(data) {
				t.Errorf("IsCanonical(marshal(Resolve(x))) = false")
			}
		})
	}
}

func TestResolve_Defaults(t *testing.T) {
	p := Default()

	if p.Telemetry.SensorModel != SensorSHT31 {
		t.Errorf("SensorModel = %q, want SHT31", p.Telemetry.SensorModel)
	}
	if len(p.Telemetry.SupportedSensorModels) != 2 {
		t.Errorf("SupportedSensorModels = %v", p.Telemetry.SupportedSensorModels)
	}
	if p.Telemetry.I2CAddress != "0x44" {
		t.Errorf("I2CAddress = %q", p.Telemetry.I2CAddress)
	}
	if p.Telemetry.Endpoint != "/api/v1/telemetry" {
		t.Errorf("Telemetry.Endpoint = %q", p.Telemetry.Endpoint)
	}
	if p.Access.Endpoint != "/api/v1/access-events" {
		t.Errorf("Access.Endpoint = %q", p.Access.Endpoint)
	}
	if p.Access.FrequencyMHz != 13.56 {
		t.Errorf("FrequencyMHz = %v", p.Access.FrequencyMHz)
	}
}

func TestResolve_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		check func(t *testing.T, p Profile)
	}{
		{
			name: "sensor model is case insensitive",
			raw:  map[string]any{"telemetry": map[string]any{"sensorModel": " sht35 "}},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.SensorModel != SensorSHT35 {
					t.Errorf("SensorModel = %q", p.Telemetry.SensorModel)
				}
			},
		},
		{
			name: "unknown sensor model falls back to default",
			raw:  map[string]any{"telemetry": map[string]any{"sensorModel": "DHT22"}},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.SensorModel != DefaultSensorModel {
					t.Errorf("SensorModel = %q, want %q", p.Telemetry.SensorModel, DefaultSensorModel)
				}
			},
		},
		{
			name: "sensor outside supported list falls back",
			raw: map[string]any{"telemetry": map[string]any{
				"sensorModel":           "SHT31",
				"supportedSensorModels": []any{"SHT35"},
			}},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.SensorModel != SensorSHT35 {
					t.Errorf("SensorModel = %q, want first supported", p.Telemetry.SensorModel)
				}
				if len(p.Telemetry.SupportedSensorModels) != 1 {
					t.Errorf("SupportedSensorModels = %v", p.Telemetry.SupportedSensorModels)
				}
			},
		},
		{
			name: "supported list is deduplicated and ordered",
			raw: map[string]any{"telemetry": map[string]any{
				"supportedSensorModels": []string{"sht35", "SHT31", "SHT35"},
			}},
			check: func(t *testing.T, p Profile) {
				got := p.Telemetry.SupportedSensorModels
				if len(got) != 2 || got[0] != SensorSHT31 || got[1] != SensorSHT35 {
					t.Errorf("SupportedSensorModels = %v", got)
				}
			},
		},
		{
			name: "upper-case hex prefix is normalised",
			raw:  map[string]any{"telemetry": map[string]any{"i2cAddress": "0X4a"}},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.I2CAddress != "0x4A" {
					t.Errorf("I2CAddress = %q", p.Telemetry.I2CAddress)
				}
			},
		},
		{
			name: "numeric address",
			raw:  map[string]any{"telemetry": map[string]any{"i2cAddress": 69}},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.I2CAddress != "0x45" {
					t.Errorf("I2CAddress = %q", p.Telemetry.I2CAddress)
				}
			},
		},
		{
			name: "out of range address",
			raw:  map[string]any{"telemetry": map[string]any{"i2cAddress": 300}},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.I2CAddress != DefaultI2CAddress {
					t.Errorf("I2CAddress = %q", p.Telemetry.I2CAddress)
				}
			},
		},
		{
			name: "numeric string frequency",
			raw:  map[string]any{"access": map[string]any{"frequencyMHz": "125"}},
			check: func(t *testing.T, p Profile) {
				if p.Access.FrequencyMHz != 125 {
					t.Errorf("FrequencyMHz = %v", p.Access.FrequencyMHz)
				}
			},
		},
		{
			name: "custom endpoints kept",
			raw: map[string]any{
				"telemetry": map[string]any{"endpoint": "/t"},
				"access":    map[string]any{"endpoint": "/a"},
			},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.Endpoint != "/t" || p.Access.Endpoint != "/a" {
					t.Errorf("endpoints = %q, %q", p.Telemetry.Endpoint, p.Access.Endpoint)
				}
			},
		},
		{
			name: "legacy flat keys are lifted",
			raw: map[string]any{
				"sensorModel":       "SHT35",
				"i2cAddress":        "0x45",
				"frequencyMHz":      13.0,
				"telemetryEndpoint": "/legacy/t",
				"accessEndpoint":    "/legacy/a",
			},
			check: func(t *testing.T, p Profile) {
				if p.Telemetry.SensorModel != SensorSHT35 || p.Telemetry.I2CAddress != "0x45" {
					t.Errorf("Telemetry = %+v", p.Telemetry)
				}
				if p.Telemetry.Endpoint != "/legacy/t" || p.Access.Endpoint != "/legacy/a" {
					t.Errorf("endpoints = %q, %q", p.Telemetry.Endpoint, p.Access.Endpoint)
				}
				if p.Access.FrequencyMHz != 13.0 {
					t.Errorf("FrequencyMHz = %v", p.Access.FrequencyMHz)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.raw)
			assertValid(t, p)
			tt.check(t, p)
		})
	}
}

func TestIsCanonical(t *testing.T) {
	if IsCanonical([]byte(`{"telemetry":{"i2cAddress":"0x4a"}}`)) {
		t.Error("IsCanonical() = true for a partial profile")
	}
	if IsCanonical([]byte(`not json`)) {
		t.Error("IsCanonical() = true for malformed JSON")
	}
}

func TestCheckStored(t *testing.T) {
	canonical, err := json.Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := CheckStored(canonical); err != nil {
		t.Errorf("CheckStored(canonical) = %v, want nil", err)
	}

	for name, data := range map[string]string{
		"malformed": `{"telemetry":`,
		"partial":   `{"telemetry":{"i2cAddress":"0x4a"}}`,
	} {
		if err := CheckStored([]byte(data)); !errors.Is(err, apperr.ErrConfig) {
			t.Errorf("CheckStored(%s) = %v, want ErrConfig", name, err)
		}
	}
}
