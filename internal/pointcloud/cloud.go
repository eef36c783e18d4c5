// Package pointcloud turns decoded LiDAR records into XYZ + intensity
// geometry ready for 3D scatter rendering.
package pointcloud

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/nova-lidar/nova/internal/record"
)

// Field names of a PointCloud2 geometry payload.
const (
	FieldX         = "x"
	FieldY         = "y"
	FieldZ         = "z"
	FieldIntensity = "intensity"
)

// ResolveOptions returns the layout options for geometry decoding: x, y, z
// are required and intensity falls back to intensityDefault.
func ResolveOptions(intensityDefault float64) record.ResolveOptions {
	return record.ResolveOptions{
		Wanted:   []string{FieldX, FieldY, FieldZ, FieldIntensity},
		Required: []string{FieldX, FieldY, FieldZ},
		Defaults: map[string]float64{FieldIntensity: intensityDefault},
	}
}

// Cloud holds one point per index across its four columns.
type Cloud struct {
	X, Y, Z   []float64
	Intensity []float64
}

// Box is an axis-aligned bounding box.
type Box struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// ColorMode selects the per-point scalar used for colouring.
type ColorMode int

const (
	ColorByHeight ColorMode = iota
	ColorByIntensity
	ColorFlat
)

// ParseColorMode maps "height", "intensity" or "flat" onto a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "height", "z":
		return ColorByHeight, nil
	case "intensity":
		return ColorByIntensity, nil
	case "flat":
		return ColorFlat, nil
	}
	return 0, fmt.Errorf("unknown color mode %q (want height, intensity or flat)", s)
}

// FromPointSet builds a Cloud from a decoded set. The set must carry x, y
// and z; a missing intensity column is filled with zeros.
func FromPointSet(ps *record.PointSet) (*Cloud, error) {
	c := &Cloud{}
	for _, col := range []struct {
		name string
		dst  *[]float64
	}{
		{FieldX, &c.X}, {FieldY, &c.Y}, {FieldZ, &c.Z},
	} {
		v, ok := ps.Column(col.name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", record.ErrMissingRequiredField, col.name)
		}
		*col.dst = v
	}
	if v, ok := ps.Column(FieldIntensity); ok {
		c.Intensity = v
	} else {
		c.Intensity = make([]float64, ps.Len)
	}
	return c, nil
}

// Len returns the number of points.
func (c *Cloud) Len() int { return len(c.X) }

// ZBounds returns the lowest and highest z. Both are 0 for an empty cloud.
func (c *Cloud) ZBounds() (lo, hi float64) {
	if c.Len() == 0 {
		return 0, 0
	}
	return floats.Min(c.Z), floats.Max(c.Z)
}

// Bounds returns the bounding box of the cloud.
func (c *Cloud) Bounds() Box {
	if c.Len() == 0 {
		return Box{}
	}
	return Box{
		MinX: floats.Min(c.X), MaxX: floats.Max(c.X),
		MinY: floats.Min(c.Y), MaxY: floats.Max(c.Y),
		MinZ: floats.Min(c.Z), MaxZ: floats.Max(c.Z),
	}
}

// FilterZ returns a new cloud with the points whose z lies in [zMin, zMax].
func (c *Cloud) FilterZ(zMin, zMax float64) *Cloud {
	out := &Cloud{}
	for i, z := range c.Z {
		if z < zMin || z > zMax {
			continue
		}
		out.X = append(out.X, c.X[i])
		out.Y = append(out.Y, c.Y[i])
		out.Z = append(out.Z, z)
		out.Intensity = append(out.Intensity, c.Intensity[i])
	}
	return out
}

// ColorValues returns one colour scalar per point.
func (c *Cloud) ColorValues(mode ColorMode) []float64 {
	out := make([]float64, c.Len())
	switch mode {
	case ColorByHeight:
		copy(out, c.Z)
	case ColorByIntensity:
		copy(out, c.Intensity)
	default:
		for i := range out {
			out[i] = 1
		}
	}
	return out
}

// MeanIntensity returns the average intensity, or 0 for an empty cloud.
func (c *Cloud) MeanIntensity() float64 {
	if c.Len() == 0 {
		return 0
	}
	return floats.Sum(c.Intensity) / float64(c.Len())
}
