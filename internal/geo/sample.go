// Package geo validates raw GPS fixes and derives trajectory metrics from
// them: great-circle distances, path length and enclosed area.
package geo

import (
	"errors"
	"fmt"
)

// ErrNoUsableData is reported when validation leaves no samples. It marks a
// normal "no usable fix" outcome rather than a fault.
var ErrNoUsableData = errors.New("no usable GPS fixes")

// Sample is one GPS fix. Altitude is meaningful only when HasAltitude is set.
type Sample struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Altitude    float64 `json:"altitude,omitempty"`
	HasAltitude bool    `json:"has_altitude,omitempty"`
}

// LatLon returns a Sample without altitude.
func LatLon(lat, lon float64) Sample {
	return Sample{Latitude: lat, Longitude: lon}
}

// WithAltitude returns a copy of s carrying altitude alt.
func (s Sample) WithAltitude(alt float64) Sample {
	s.Altitude = alt
	s.HasAltitude = true
	return s
}

// SamePosition reports whether a and b have identical coordinates.
// Altitude is ignored.
func SamePosition(a, b Sample) bool {
	return a.Latitude == b.Latitude && a.Longitude == b.Longitude
}

func (s Sample) String() string {
	if s.HasAltitude {
		return fmt.Sprintf("(%.7f, %.7f, %.2fm)", s.Latitude, s.Longitude, s.Altitude)
	}
	return fmt.Sprintf("(%.7f, %.7f)", s.Latitude, s.Longitude)
}
