package geo

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
	EarthRadiusMeters = 6371000.0
	// MetersPerDegree converts degrees to meters in the flat-Earth area estimates.
	MetersPerDegree = 111000.0
)

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance in meters between a and b.
func Haversine(a, b Sample) float64 {
	if SamePosition(a, b) {
		return 0
	}
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// SegmentDistances returns the distance of each consecutive pair, len-1
// values for len >= 2 and none otherwise.
func SegmentDistances(samples []Sample) []float64 {
	if len(samples) < 2 {
		return []float64{}
	}
	out := make([]float64, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		out[i-1] = Haversine(samples[i-1], samples[i])
	}
	return out
}

// CumulativeDistances returns the running path length at each sample. The
// first value is 0 and the result has the same length as samples.
func CumulativeDistances(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i := 1; i < len(samples); i++ {
		out[i] = out[i-1] + Haversine(samples[i-1], samples[i])
	}
	return out
}

// PolygonArea closes samples into a ring and returns its shoelace area,
// computed over (longitude, latitude) degrees and scaled by
// MetersPerDegree². This flat-Earth estimate holds only for small extents.
// Fewer than three samples enclose no area.
func PolygonArea(samples []Sample) float64 {
	n := len(samples)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, b := samples[i], samples[(i+1)%n]
		sum += a.Longitude*b.Latitude - b.Longitude*a.Latitude
	}
	return math.Abs(sum) / 2 * MetersPerDegree * MetersPerDegree
}

// BoundingBoxArea approximates the covered area as the latitude range times
// the longitude range, with longitude scaled by cos(mean latitude). It is an
// O(n) alternative to PolygonArea for large inputs. Fewer than three samples
// yield 0.
func BoundingBoxArea(samples []Sample) float64 {
	if len(samples) < 3 {
		return 0
	}
	lats, lons := columns(samples)
	latMeters := (floats.Max(lats) - floats.Min(lats)) * MetersPerDegree
	lonMeters := (floats.Max(lons) - floats.Min(lons)) * MetersPerDegree * math.Cos(radians(stat.Mean(lats, nil)))
	return math.Abs(latMeters * lonMeters)
}

// columns splits samples into latitude and longitude slices.
func columns(samples []Sample) (lats, lons []float64) {
	lats = make([]float64, len(samples))
	lons = make([]float64, len(samples))
	for i, s := range samples {
		lats[i] = s.Latitude
		lons[i] = s.Longitude
	}
	return lats, lons
}
