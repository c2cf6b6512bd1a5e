// Package settings stores the school-wide monitoring settings: comfort
// thresholds, device timing, the access policy switch and the hardware
// profile.
//
// There is exactly one settings row. It is created on first use from the
// configured defaults and then updated in place (last write wins). Callers
// take one snapshot per operation with Get and pass the value down, so a
// concurrent Update never changes a decision half way through.
package settings

import (
	"math"
	"time"

	"github.com/edugate/monitoring-core/internal/apperr"
	"github.com/edugate/monitoring-core/internal/hardware"
	"github.com/edugate/monitoring-core/internal/infrastructure/config"
)

// MonitoringSettings is one snapshot of the settings row.
type MonitoringSettings struct {
	TempMin                  float64          `json:"tempMin"`
	TempMax                  float64          `json:"tempMax"`
	HumMin                   float64          `json:"humMin"`
	HumMax                   float64          `json:"humMax"`
	TelemetryIntervalSeconds int              `json:"telemetryIntervalSeconds"`
	UnlockDurationSeconds    int              `json:"unlockDurationSeconds"`
	AllowOnlyActiveStudents  bool             `json:"allowOnlyActiveStudents"`
	HardwareProfile          hardware.Profile `json:"hardwareProfile"`
	UpdatedAt                time.Time        `json:"updatedAt"`
}

// Defaults returns the built-in settings.
func Defaults() MonitoringSettings {
	return MonitoringSettings{
		TempMin:                  18,
		TempMax:                  28,
		HumMin:                   40,
		HumMax:                   70,
		TelemetryIntervalSeconds: 10,
		UnlockDurationSeconds:    5,
		AllowOnlyActiveStudents:  true,
		HardwareProfile:          hardware.Default(),
	}
}

// FromConfig builds the bootstrap settings from the monitoring.defaults section.
func FromConfig(d config.MonitoringDefaults) MonitoringSettings {
	return MonitoringSettings{
		TempMin:                  d.TempMin,
		TempMax:                  d.TempMax,
		HumMin:                   d.HumMin,
		HumMax:                   d.HumMax,
		TelemetryIntervalSeconds: d.TelemetryIntervalSeconds,
		UnlockDurationSeconds:    d.UnlockDurationSeconds,
		AllowOnlyActiveStudents:  d.AllowOnlyActiveStudents,
		HardwareProfile:          hardware.Default(),
	}
}

// Validate checks ranges and durations. The hardware profile is not
// validated here; it is normalised by hardware.Resolve before storage.
func (s MonitoringSettings) Validate() error {
	var ve apperr.ValidationError

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"tempMin", s.TempMin}, {"tempMax", s.TempMax},
		{"humMin", s.HumMin}, {"humMax", s.HumMax},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			ve.Add(f.name, "must be a finite number")
		}
	}
	if !(s.TempMin < s.TempMax) {
		ve.Add("tempMin", "must be less than tempMax")
	}
	if !(s.HumMin < s.HumMax) {
		ve.Add("humMin", "must be less than humMax")
	}
	if s.TelemetryIntervalSeconds <= 0 {
		ve.Add("telemetryIntervalSeconds", "must be positive")
	}
	if s.UnlockDurationSeconds <= 0 {
		ve.Add("unlockDurationSeconds", "must be positive")
	}

	return ve.OrNil()
}
