package telemetry

import (
	"math"
	"testing"

	"github.com/edugate/monitoring-core/internal/settings"
)

func TestEvaluate(t *testing.T) {
	s := settings.Defaults() // 18-28 °C, 40-70 %

	tests := []struct {
		name string
		temp float64
		hum  float64
		want Status
	}{
		{"comfortable", 22, 55, StatusOK},
		{"lower bounds inclusive", 18, 40, StatusOK},
		{"upper bounds inclusive", 28, 70, StatusOK},
		{"hot", 28.1, 55, StatusWarning},
		{"cold", 17.9, 55, StatusWarning},
		{"dry", 22, 39.9, StatusWarning},
		{"humid", 22, 70.5, StatusWarning},
		{"hot and humid", 31, 85, StatusCritical},
		{"cold and dry", 10, 20, StatusCritical},
		{"nan temperature", math.NaN(), 55, StatusWarning},
		{"nan both", math.NaN(), math.NaN(), StatusCritical},
		{"infinite humidity", 22, math.Inf(1), StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.temp, tt.hum, s); got != tt.want {
				t.Errorf("Evaluate(%v, %v) = %s, want %s", tt.temp, tt.hum, got, tt.want)
			}
		})
	}
}

func TestEvaluate_FollowsSettings(t *testing.T) {
	s := settings.Defaults()
	if got := Evaluate(27, 55, s); got != StatusOK {
		t.Fatalf("Evaluate() = %s under defaults", got)
	}
	s.TempMax = 26
	if got := Evaluate(27, 55, s); got != StatusWarning {
		t.Errorf("Evaluate() = %s after lowering TempMax, want WARNING", got)
	}
}

func TestEvaluate_ClassroomThresholds(t *testing.T) {
	s := settings.Defaults()
	s.TempMin, s.TempMax = 20, 28
	s.HumMin, s.HumMax = 40, 70

	tests := []struct {
		temp, hum float64
		want      Status
	}{
		{25, 55, StatusOK},
		{30, 55, StatusWarning},
		{30, 80, StatusCritical},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.temp, tt.hum, s); got != tt.want {
			t.Errorf("Evaluate(%v, %v) = %s, want %s", tt.temp, tt.hum, got, tt.want)
		}
	}
}
