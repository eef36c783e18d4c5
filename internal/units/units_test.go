package units

import (
	"math"
	"testing"
)

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		name     string
		meters   float64
		units    string
		expected float64
	}{
		{"1500 m to km", 1500, Kilometers, 1.5},
		{"one mile", 1609.344, Miles, 1},
		{"marathon to mi", 42195, Miles, 26.2188},
		{"m stays m", 12.5, Meters, 12.5},
		{"unknown units default to m", 12.5, "furlong", 12.5},
		{"zero", 0, Kilometers, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertDistance(tt.meters, tt.units)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("ConvertDistance(%f, %s) = %f, want %f", tt.meters, tt.units, result, tt.expected)
			}
		})
	}
}

func TestConvertArea(t *testing.T) {
	tests := []struct {
		name     string
		sqMeters float64
		units    string
		expected float64
	}{
		{"one hectare", 10000, Hectares, 1},
		{"degree square to km2", 12321, SquareKilometers, 0.012321},
		{"m2 stays m2", 42, SquareMeters, 42},
		{"unknown units default to m2", 42, "acre", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertArea(tt.sqMeters, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertArea(%f, %s) = %f, want %f", tt.sqMeters, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		distance bool
		area     bool
	}{
		{"meters", Meters, true, false},
		{"kilometers", Kilometers, true, false},
		{"miles", Miles, true, false},
		{"square meters", SquareMeters, false, true},
		{"hectares", Hectares, false, true},
		{"square kilometers", SquareKilometers, false, true},
		{"empty string", "", false, false},
		{"case sensitive", "KM", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidDistance(tt.unit); got != tt.distance {
				t.Errorf("IsValidDistance(%q) = %v, want %v", tt.unit, got, tt.distance)
			}
			if got := IsValidArea(tt.unit); got != tt.area {
				t.Errorf("IsValidArea(%q) = %v, want %v", tt.unit, got, tt.area)
			}
		})
	}
}

func TestValidUnitsStrings(t *testing.T) {
	if got := GetValidDistanceUnitsString(); got != "m, km, mi" {
		t.Errorf("GetValidDistanceUnitsString() = %q", got)
	}
	if got := GetValidAreaUnitsString(); got != "m2, ha, km2" {
		t.Errorf("GetValidAreaUnitsString() = %q", got)
	}
}
