// Package imu reads accelerometer and gyroscope channels out of decoded IMU
// records.
package imu

import (
	"fmt"
	"math"

	"github.com/nova-lidar/nova/internal/record"
)

// Column names, in the order they are reported.
const (
	FieldTime   = "time"
	FieldAccelX = "linear_acceleration.x"
	FieldAccelY = "linear_acceleration.y"
	FieldAccelZ = "linear_acceleration.z"
	FieldGyroX  = "angular_velocity.x"
	FieldGyroY  = "angular_velocity.y"
	FieldGyroZ  = "angular_velocity.z"
)

var channelFields = []string{FieldAccelX, FieldAccelY, FieldAccelZ, FieldGyroX, FieldGyroY, FieldGyroZ}

// ResolveOptions requires the six motion channels; time is optional.
func ResolveOptions() record.ResolveOptions {
	return record.ResolveOptions{
		Wanted:   append([]string{FieldTime}, channelFields...),
		Required: append([]string(nil), channelFields...),
	}
}

// Series is a columnar IMU log.
type Series struct {
	Time                   []float64
	AccelX, AccelY, AccelZ []float64
	GyroX, GyroY, GyroZ    []float64
}

// FromPointSet extracts a Series from a decoded set.
func FromPointSet(ps *record.PointSet) (*Series, error) {
	s := &Series{}
	dst := []*[]float64{&s.AccelX, &s.AccelY, &s.AccelZ, &s.GyroX, &s.GyroY, &s.GyroZ}
	for i, name := range channelFields {
		v, ok := ps.Column(name)
		if !ok {
			return nil, fmt.Errorf("imu: %w: %q", record.ErrMissingRequiredField, name)
		}
		*dst[i] = v
	}
	if v, ok := ps.Column(FieldTime); ok {
		s.Time = v
	} else {
		s.Time = make([]float64, ps.Len)
	}
	return s, nil
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.AccelX) }

// Columns returns the column names and values in report order.
func (s *Series) Columns() ([]string, [][]float64) {
	names := append([]string{FieldTime}, channelFields...)
	return names, [][]float64{s.Time, s.AccelX, s.AccelY, s.AccelZ, s.GyroX, s.GyroY, s.GyroZ}
}

// AccelMagnitude returns |a| per sample.
func (s *Series) AccelMagnitude() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = math.Sqrt(s.AccelX[i]*s.AccelX[i] + s.AccelY[i]*s.AccelY[i] + s.AccelZ[i]*s.AccelZ[i])
	}
	return out
}
