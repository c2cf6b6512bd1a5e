package telemetry

import (
	"github.com/edugate/monitoring-core/internal/settings"
)

// Status is the comfort classification of a reading.
type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// Evaluate classifies a reading: OK when both values are inside their closed
// ranges, WARNING when exactly one is outside, CRITICAL when both are.
// NaN is never inside a range.
func Evaluate(temperature, humidity float64, s settings.MonitoringSettings) Status {
	out := 0
	if !within(temperature, s.TempMin, s.TempMax) {
		out++
	}
	if !within(humidity, s.HumMin, s.HumMax) {
		out++
	}

	switch out {
	case 0:
		return StatusOK
	case 1:
		return StatusWarning
	default:
		return StatusCritical
	}
}

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
