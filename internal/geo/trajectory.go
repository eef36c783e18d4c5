package geo

import "sync"

// Trajectory is an immutable sequence of fixes in which no two adjacent
// samples share a position. Distances and area are computed on first use
// and cached; every change produces a new Trajectory, so a cache never
// outlives the samples it was computed from.
type Trajectory struct {
	samples []Sample

	distOnce   sync.Once
	segments   []float64
	cumulative []float64

	areaOnce sync.Once
	area     float64
}

// NewTrajectory copies samples into a Trajectory, collapsing runs of
// adjacent samples with the same position to their first element.
func NewTrajectory(samples []Sample) *Trajectory {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if n := len(out); n > 0 && SamePosition(out[n-1], s) {
			continue
		}
		out = append(out, s)
	}
	return &Trajectory{samples: out}
}

// Len returns the number of samples.
func (t *Trajectory) Len() int { return len(t.samples) }

// At returns sample i.
func (t *Trajectory) At(i int) Sample { return t.samples[i] }

// Samples returns a copy of the samples.
func (t *Trajectory) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// First and Last return the endpoints; ok is false for an empty trajectory.
func (t *Trajectory) First() (s Sample, ok bool) {
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	return t.samples[0], true
}

func (t *Trajectory) Last() (s Sample, ok bool) {
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	return t.samples[len(t.samples)-1], true
}

// Append returns a new Trajectory with more samples at the end.
func (t *Trajectory) Append(more ...Sample) *Trajectory {
	all := make([]Sample, 0, len(t.samples)+len(more))
	all = append(all, t.samples...)
	all = append(all, more...)
	return NewTrajectory(all)
}

// Filter returns a new Trajectory holding the samples for which keep is true.
func (t *Trajectory) Filter(keep func(Sample) bool) *Trajectory {
	kept := make([]Sample, 0, len(t.samples))
	for _, s := range t.samples {
		if keep(s) {
			kept = append(kept, s)
		}
	}
	return NewTrajectory(kept)
}

// Downsample returns a new Trajectory bounded to maxCount samples.
func (t *Trajectory) Downsample(maxCount int) *Trajectory {
	return NewTrajectory(Downsample(t.samples, maxCount))
}

func (t *Trajectory) distances() {
	t.distOnce.Do(func() {
		t.segments = SegmentDistances(t.samples)
		t.cumulative = CumulativeDistances(t.samples)
	})
}

// SegmentDistances returns the meters between consecutive samples.
func (t *Trajectory) SegmentDistances() []float64 {
	t.distances()
	return append([]float64(nil), t.segments...)
}

// CumulativeDistances returns the running path length at each sample.
func (t *Trajectory) CumulativeDistances() []float64 {
	t.distances()
	return append([]float64(nil), t.cumulative...)
}

// TotalDistance returns the path length in meters.
func (t *Trajectory) TotalDistance() float64 {
	t.distances()
	if len(t.cumulative) == 0 {
		return 0
	}
	return t.cumulative[len(t.cumulative)-1]
}

// PolygonArea returns the shoelace area of the closed ring in square meters.
func (t *Trajectory) PolygonArea() float64 {
	t.areaOnce.Do(func() {
		t.area = PolygonArea(t.samples)
	})
	return t.area
}

// BoundingBoxArea returns the bounding-box area estimate in square meters.
func (t *Trajectory) BoundingBoxArea() float64 {
	return BoundingBoxArea(t.samples)
}
