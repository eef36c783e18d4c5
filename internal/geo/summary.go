package geo

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AreaMethod names the estimator behind Summary.ApproximateAreaSqMeters.
type AreaMethod string

const (
	AreaNone        AreaMethod = "none"
	AreaPolygon     AreaMethod = "polygon"
	AreaBoundingBox AreaMethod = "bounding_box"
)

// Bounds is the latitude/longitude extent of a set of samples.
type Bounds struct {
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// Center is a latitude/longitude pair.
type Center struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Summary is the table-ready description of a trajectory.
type Summary struct {
	TotalPoints              int        `json:"total_points"`
	LatRange                 float64    `json:"lat_range"`
	LonRange                 float64    `json:"lon_range"`
	Bounds                   Bounds     `json:"bounds"`
	Center                   Center     `json:"center"`
	CumulativeDistanceMeters float64    `json:"cumulative_distance_m"`
	ApproximateAreaSqMeters  float64    `json:"approximate_area_m2"`
	AreaMethod               AreaMethod `json:"area_method"`
	PolygonPoints            int        `json:"polygon_points"`
}

// SummaryOptions controls the area estimate.
type SummaryOptions struct {
	// PolygonMaxPoints bounds the ring passed to PolygonArea.
	PolygonMaxPoints int
	// BBoxAreaThreshold switches to BoundingBoxArea when the trajectory has
	// more points than this. Zero always uses the polygon estimate.
	BBoxAreaThreshold int
}

// ComputeBounds returns the extent of samples. It is the zero Bounds for an
// empty input.
func ComputeBounds(samples []Sample) Bounds {
	if len(samples) == 0 {
		return Bounds{}
	}
	lats, lons := columns(samples)
	return Bounds{
		MinLatitude:  floats.Min(lats),
		MaxLatitude:  floats.Max(lats),
		MinLongitude: floats.Min(lons),
		MaxLongitude: floats.Max(lons),
	}
}

// MeanCenter returns the mean latitude and longitude of samples.
func MeanCenter(samples []Sample) Center {
	if len(samples) == 0 {
		return Center{}
	}
	lats, lons := columns(samples)
	return Center{Latitude: stat.Mean(lats, nil), Longitude: stat.Mean(lons, nil)}
}

// Summarize derives the summary of t.
func Summarize(t *Trajectory, opts SummaryOptions) Summary {
	b := ComputeBounds(t.samples)
	s := Summary{
		TotalPoints:              t.Len(),
		LatRange:                 b.MaxLatitude - b.MinLatitude,
		LonRange:                 b.MaxLongitude - b.MinLongitude,
		Bounds:                   b,
		Center:                   MeanCenter(t.samples),
		CumulativeDistanceMeters: t.TotalDistance(),
		AreaMethod:               AreaNone,
	}
	if t.Len() < 3 {
		return s
	}

	if opts.BBoxAreaThreshold > 0 && t.Len() > opts.BBoxAreaThreshold {
		s.ApproximateAreaSqMeters = t.BoundingBoxArea()
		s.AreaMethod = AreaBoundingBox
		return s
	}
	ring := t
	if opts.PolygonMaxPoints > 0 && t.Len() > opts.PolygonMaxPoints {
		ring = t.Downsample(opts.PolygonMaxPoints)
	}
	s.ApproximateAreaSqMeters = ring.PolygonArea()
	s.AreaMethod = AreaPolygon
	s.PolygonPoints = ring.Len()
	return s
}
