package hardware

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/edugate/monitoring-core/internal/apperr"
)

var i2cAddressPattern = regexp.MustCompile(`^0[xX]([0-9a-fA-F]{2})$`)

// legacyKeys are the flat keys written by version 0 profiles.
var legacyKeys = map[string]string{
	"sensorModel":           "telemetry",
	"supportedSensorModels": "telemetry",
	"i2cAddress":            "telemetry",
	"telemetryEndpoint":     "telemetry",
	"readerModel":           "access",
	"frequencyMHz":          "access",
	"accessEndpoint":        "access",
}

// Resolve normalises an arbitrary stored value into a valid version 1
// profile. It never fails: unknown shapes, wrong types and malformed values
// fall back to defaults field by field. Resolve(Resolve(x)) == Resolve(x).
//
// Accepted inputs are nil, Profile, *Profile, map[string]any, JSON text
// ([]byte, json.RawMessage or string) and anything encoding/json can marshal.
func Resolve(raw any) Profile {
	m := toMap(raw)
	if isLegacy(m) {
		m = liftLegacy(m)
	}

	tel := section(m, "telemetry")
	acc := section(m, "access")

	p := Profile{
		Version:   CurrentVersion,
		Transport: TransportHTTPREST,
		ESP32:     ESP32Profile{Connectivity: ConnectivityWiFi},
		Telemetry: TelemetryProfile{
			SupportedSensorModels: resolveSupported(tel["supportedSensorModels"]),
			I2CAddress:            resolveI2CAddress(tel["i2cAddress"]),
			Endpoint:              resolveEndpoint(tel["endpoint"], DefaultTelemetryEndpoint),
		},
		Access: AccessProfile{
			ReaderModel:  ReaderPN532,
			FrequencyMHz: resolveFrequency(acc["frequencyMHz"]),
			Endpoint:     resolveEndpoint(acc["endpoint"], DefaultAccessEndpoint),
		},
	}
	p.Telemetry.SensorModel = resolveSensorModel(tel["sensorModel"], p)
	return p
}

// ResolveJSON resolves a profile stored as JSON text.
func ResolveJSON(data []byte) Profile {
	return Resolve(data)
}

// IsCanonical reports whether data already decodes to exactly what Resolve
// produces, i.e. no field had to be defaulted or normalised.
func IsCanonical(data []byte) bool {
	return CheckStored(data) == nil
}

// CheckStored explains why a stored profile is not canonical. The error wraps
// apperr.ErrConfig. Resolve still yields a usable profile for the same data.
func CheckStored(data []byte) error {
	var stored Profile
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("%w: hardware profile: %w", apperr.ErrConfig, err)
	}
	if !stored.Equal(ResolveJSON(data)) {
		return fmt.Errorf("%w: hardware profile has missing or out of range fields", apperr.ErrConfig)
	}
	return nil
}

func toMap(raw any) (m map[string]any) {
	defer func() {
		if recover() != nil {
			m = nil
		}
	}()

	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case []byte:
		return decode(v)
	case json.RawMessage:
		return decode(v)
	case string:
		return decode([]byte(v))
	case *Profile:
		if v == nil {
			return nil
		}
		return toMap(*v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return decode(data)
	}
}

func decode(data []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func section(m map[string]any, key string) map[string]any {
	s, _ := m[key].(map[string]any)
	return s
}

func isLegacy(m map[string]any) bool {
	if m == nil {
		return false
	}
	if _, ok := m["telemetry"].(map[string]any); ok {
		return false
	}
	if _, ok := m["access"].(map[string]any); ok {
		return false
	}
	for key := range legacyKeys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

func liftLegacy(m map[string]any) map[string]any {
	tel := map[string]any{}
	acc := map[string]any{}
	for key, target := range legacyKeys {
		v, ok := m[key]
		if !ok {
			continue
		}
		name := key
		switch key {
		case "telemetryEndpoint", "accessEndpoint":
			name = "endpoint"
		}
		if target == "telemetry" {
			tel[name] = v
		} else {
			acc[name] = v
		}
	}
	return map[string]any{"version": CurrentVersion, "telemetry": tel, "access": acc}
}

func resolveSupported(v any) []SensorModel {
	seen := make(map[SensorModel]bool)
	mark := func(s string) {
		seen[SensorModel(strings.ToUpper(strings.TrimSpace(s)))] = true
	}
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				mark(s)
			}
		}
	case []string:
		for _, s := range list {
			mark(s)
		}
	case []SensorModel:
		for _, s := range list {
			mark(string(s))
		}
	}

	supported := make([]SensorModel, 0, len(KnownSensorModels))
	for _, known := range KnownSensorModels {
		if seen[known] {
			supported = append(supported, known)
		}
	}
	if len(supported) == 0 {
		return append(supported, KnownSensorModels...)
	}
	return supported
}

// resolveSensorModel picks the requested model when p supports it, then the
// default, then the first supported model.
func resolveSensorModel(v any, p Profile) SensorModel {
	if s, ok := v.(string); ok {
		if model := SensorModel(strings.ToUpper(strings.TrimSpace(s))); p.Supports(model) {
			return model
		}
	}
	if p.Supports(DefaultSensorModel) {
		return DefaultSensorModel
	}
	return p.Telemetry.SupportedSensorModels[0]
}

func resolveI2CAddress(v any) string {
	switch a := v.(type) {
	case string:
		if match := i2cAddressPattern.FindStringSubmatch(strings.TrimSpace(a)); match != nil {
			return "0x" + strings.ToUpper(match[1])
		}
	case float64:
		if a == math.Trunc(a) && a >= 0 && a <= 0xFF {
			return fmt.Sprintf("0x%02X", int(a))
		}
	case int:
		if a >= 0 && a <= 0xFF {
			return fmt.Sprintf("0x%02X", a)
		}
	}
	return DefaultI2CAddress
}

func resolveFrequency(v any) float64 {
	var f float64
	switch a := v.(type) {
	case float64:
		f = a
	case int:
		f = float64(a)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return DefaultFrequencyMHz
		}
		f = parsed
	default:
		return DefaultFrequencyMHz
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return DefaultFrequencyMHz
	}
	return f
}

func resolveEndpoint(v any, fallback string) string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}
