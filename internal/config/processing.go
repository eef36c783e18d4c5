package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/nova-lidar/nova/internal/fsutil"
	"github.com/nova-lidar/nova/internal/topic"
)

// ProcessingConfig holds the knobs shared by the decode and trajectory
// pipelines. Every field is optional; the Get* methods supply defaults.
type ProcessingConfig struct {
	// Trajectory params
	TrajectoryMaxPoints *int     `json:"trajectory_max_points,omitempty"`
	PolygonMaxPoints    *int     `json:"polygon_max_points,omitempty"`
	BBoxAreaThreshold   *int     `json:"bbox_area_threshold,omitempty"`
	IntensityDefault    *float64 `json:"intensity_default,omitempty"`

	// Decoder params
	DecodeWorkers      *int `json:"decode_workers,omitempty"` // 0 means GOMAXPROCS
	DecodeChunkRecords *int `json:"decode_chunk_records,omitempty"`
	MaxMessages        *int `json:"max_messages,omitempty"`

	// Topic selection overrides
	GPSPatterns        []string `json:"gps_patterns,omitempty"`
	GPSKeywords        []string `json:"gps_keywords,omitempty"`
	PointCloudPatterns []string `json:"pointcloud_patterns,omitempty"`
	PointCloudKeywords []string `json:"pointcloud_keywords,omitempty"`
	IMUPatterns        []string `json:"imu_patterns,omitempty"`
	IMUKeywords        []string `json:"imu_keywords,omitempty"`
}

const maxFileSize = 1 * 1024 * 1024 // 1MB

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyProcessingConfig returns a config with every field unset.
func EmptyProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{}
}

// DefaultProcessingConfig returns a config with every scalar field set to
// its default value.
func DefaultProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{
		TrajectoryMaxPoints: ptrInt(1000),
		PolygonMaxPoints:    ptrInt(100),
		BBoxAreaThreshold:   ptrInt(10000),
		IntensityDefault:    ptrFloat64(0),
		DecodeWorkers:       ptrInt(0),
		DecodeChunkRecords:  ptrInt(4096),
		MaxMessages:         ptrInt(1),
	}
}

// LoadProcessingConfig loads a ProcessingConfig from a JSON file on disk.
func LoadProcessingConfig(path string) (*ProcessingConfig, error) {
	return LoadProcessingConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadProcessingConfigFS loads a ProcessingConfig through fsys.
// The file must have a .json extension and be at most 1MB. Fields omitted
// from the JSON keep their defaults via the Get* methods.
func LoadProcessingConfigFS(fsys fsutil.FileSystem, path string) (*ProcessingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyProcessingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ProcessingConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    *int
	}{
		{"trajectory_max_points", c.TrajectoryMaxPoints},
		{"polygon_max_points", c.PolygonMaxPoints},
		{"bbox_area_threshold", c.BBoxAreaThreshold},
		{"decode_workers", c.DecodeWorkers},
		{"decode_chunk_records", c.DecodeChunkRecords},
		{"max_messages", c.MaxMessages},
	} {
		if f.v != nil && *f.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", f.name, *f.v)
		}
	}

	if c.GetPolygonMaxPoints() > c.GetTrajectoryMaxPoints() {
		return fmt.Errorf("polygon_max_points (%d) must not exceed trajectory_max_points (%d)",
			c.GetPolygonMaxPoints(), c.GetTrajectoryMaxPoints())
	}
	return nil
}

// GetTrajectoryMaxPoints returns the trajectory_max_points value or the default.
func (c *ProcessingConfig) GetTrajectoryMaxPoints() int {
	if c.TrajectoryMaxPoints == nil {
		return 1000
	}
	return *c.TrajectoryMaxPoints
}

// GetPolygonMaxPoints returns the polygon_max_points value or the default.
func (c *ProcessingConfig) GetPolygonMaxPoints() int {
	if c.PolygonMaxPoints == nil {
		return 100
	}
	return *c.PolygonMaxPoints
}

// GetBBoxAreaThreshold returns the bbox_area_threshold value or the default.
func (c *ProcessingConfig) GetBBoxAreaThreshold() int {
	if c.BBoxAreaThreshold == nil {
		return 10000
	}
	return *c.BBoxAreaThreshold
}

// GetIntensityDefault returns the intensity_default value or the default.
func (c *ProcessingConfig) GetIntensityDefault() float64 {
	if c.IntensityDefault == nil {
		return 0
	}
	return *c.IntensityDefault
}

// GetDecodeWorkers returns the decoder's worker count, resolving 0 to
// GOMAXPROCS.
func (c *ProcessingConfig) GetDecodeWorkers() int {
	if c.DecodeWorkers == nil || *c.DecodeWorkers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.DecodeWorkers
}

// GetDecodeChunkRecords returns the decode_chunk_records value or the default.
func (c *ProcessingConfig) GetDecodeChunkRecords() int {
	if c.DecodeChunkRecords == nil || *c.DecodeChunkRecords == 0 {
		return 4096
	}
	return *c.DecodeChunkRecords
}

// GetMaxMessages returns how many messages a topic decode reads.
func (c *ProcessingConfig) GetMaxMessages() int {
	if c.MaxMessages == nil || *c.MaxMessages == 0 {
		return 1
	}
	return *c.MaxMessages
}

// GPSCriteria returns the GPS topic criteria, with configured lists
// replacing the built-in ones.
func (c *ProcessingConfig) GPSCriteria() topic.Criteria {
	return override(topic.GPS, c.GPSPatterns, c.GPSKeywords)
}

// PointCloudCriteria returns the point cloud topic criteria.
func (c *ProcessingConfig) PointCloudCriteria() topic.Criteria {
	return override(topic.PointCloud, c.PointCloudPatterns, c.PointCloudKeywords)
}

// IMUCriteria returns the IMU topic criteria.
func (c *ProcessingConfig) IMUCriteria() topic.Criteria {
	return override(topic.IMU, c.IMUPatterns, c.IMUKeywords)
}

func override(base topic.Criteria, patterns, keywords []string) topic.Criteria {
	if len(patterns) > 0 {
		base.Patterns = patterns
	}
	if len(keywords) > 0 {
		base.Keywords = keywords
	}
	return base
}
