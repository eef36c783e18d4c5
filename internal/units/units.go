// Package units provides shared constants and conversion for distance and
// area units used in trajectory reports.
package units

import "strings"

// Distance unit constants
const (
	Meters     = "m"
	Kilometers = "km"
	Miles      = "mi"
)

// Area unit constants
const (
	SquareMeters     = "m2"
	Hectares         = "ha"
	SquareKilometers = "km2"
)

// ValidDistanceUnits contains all valid distance unit values
var ValidDistanceUnits = []string{Meters, Kilometers, Miles}

// ValidAreaUnits contains all valid area unit values
var ValidAreaUnits = []string{SquareMeters, Hectares, SquareKilometers}

// IsValidDistance checks if the given unit is a valid distance unit
func IsValidDistance(unit string) bool {
	return contains(ValidDistanceUnits, unit)
}

// IsValidArea checks if the given unit is a valid area unit
func IsValidArea(unit string) bool {
	return contains(ValidAreaUnits, unit)
}

// GetValidDistanceUnitsString returns a comma-separated string of valid distance units for error messages
func GetValidDistanceUnitsString() string {
	return strings.Join(ValidDistanceUnits, ", ")
}

// GetValidAreaUnitsString returns a comma-separated string of valid area units for error messages
func GetValidAreaUnitsString() string {
	return strings.Join(ValidAreaUnits, ", ")
}

// ConvertDistance converts a distance in meters to the target units.
// Unknown units leave the value in meters.
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Kilometers:
		return meters / 1000
	case Miles:
		return meters / 1609.344
	default:
		return meters
	}
}

// ConvertArea converts an area in square meters to the target units.
// Unknown units leave the value in square meters.
func ConvertArea(sqMeters float64, targetUnits string) float64 {
	switch targetUnits {
	case Hectares:
		return sqMeters / 1e4
	case SquareKilometers:
		return sqMeters / 1e6
	default:
		return sqMeters
	}
}

func contains(list []string, unit string) bool {
	for _, u := range list {
		if u == unit {
			return true
		}
	}
	return false
}
