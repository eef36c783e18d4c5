// Package topic picks the topic of a recording that carries a given kind of
// sensor data.
package topic

import "strings"

// Descriptor is a topic name and its message type, as listed by a recording.
type Descriptor struct {
	Name     string `json:"name"`
	TypeName string `json:"type"`
}

// Criteria is an ordered pattern list plus fallback keywords.
type Criteria struct {
	Patterns []string
	Keywords []string
}

// Built-in criteria for the sensor kinds the pipelines process.
var (
	GPS = Criteria{
		Patterns: []string{"NavSatFix", "gps/fix", "gnss"},
		Keywords: []string{"gps", "fix", "nav"},
	}
	PointCloud = Criteria{
		Patterns: []string{"PointCloud2", "LIDAR", "points"},
		Keywords: []string{"lidar", "cloud", "velodyne", "hesai"},
	}
	IMU = Criteria{
		Patterns: []string{"sensor_msgs/Imu", "imu/data"},
		Keywords: []string{"imu"},
	}
)

// Select returns the best match for c among topics. See Select.
func (c Criteria) Select(topics []Descriptor) (Descriptor, bool) {
	return Select(topics, c.Patterns, c.Keywords)
}

// Select picks a topic in two passes. First, for each pattern in priority
// order, the first topic whose type or name contains the pattern
// (case-sensitive). Failing that, the first topic whose name or type
// contains any keyword, compared case-insensitively. Topic order breaks ties
// in both passes, so the result is deterministic.
func Select(topics []Descriptor, patterns []string, fallbackKeywords []string) (Descriptor, bool) {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		for _, t := range topics {
			if strings.Contains(t.TypeName, p) || strings.Contains(t.Name, p) {
				return t, true
			}
		}
	}

	keys := make([]string, 0, len(fallbackKeywords))
	for _, k := range fallbackKeywords {
		if k != "" {
			keys = append(keys, strings.ToLower(k))
		}
	}
	if len(keys) == 0 {
		return Descriptor{}, false
	}
	for _, t := range topics {
		name := strings.ToLower(t.Name)
		typ := strings.ToLower(t.TypeName)
		for _, k := range keys {
			if strings.Contains(name, k) || strings.Contains(typ, k) {
				return t, true
			}
		}
	}
	return Descriptor{}, false
}

// Find returns the topic with exactly the given name.
func Find(topics []Descriptor, name string) (Descriptor, bool) {
	for _, t := range topics {
		if t.Name == name {
			return t, true
		}
	}
	return Descriptor{}, false
}
