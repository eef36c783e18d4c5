package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-lidar/nova/internal/fsutil"
	"github.com/nova-lidar/nova/internal/topic"
)

func TestDefaultProcessingConfig(t *testing.T) {
	cfg := DefaultProcessingConfig()

	if cfg.TrajectoryMaxPoints == nil || *cfg.TrajectoryMaxPoints != 1000 {
		t.Errorf("Expected TrajectoryMaxPoints 1000, got %v", cfg.TrajectoryMaxPoints)
	}
	if cfg.GetPolygonMaxPoints() != 100 {
		t.Errorf("GetPolygonMaxPoints() = %d, want 100", cfg.GetPolygonMaxPoints())
	}
	if cfg.GetBBoxAreaThreshold() != 10000 {
		t.Errorf("GetBBoxAreaThreshold() = %d, want 10000", cfg.GetBBoxAreaThreshold())
	}
	if cfg.GetDecodeWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("GetDecodeWorkers() = %d, want GOMAXPROCS", cfg.GetDecodeWorkers())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEmptyConfigMatchesDefaults(t *testing.T) {
	empty, def := EmptyProcessingConfig(), DefaultProcessingConfig()
	assert.Equal(t, def.GetTrajectoryMaxPoints(), empty.GetTrajectoryMaxPoints())
	assert.Equal(t, def.GetPolygonMaxPoints(), empty.GetPolygonMaxPoints())
	assert.Equal(t, def.GetBBoxAreaThreshold(), empty.GetBBoxAreaThreshold())
	assert.Equal(t, def.GetIntensityDefault(), empty.GetIntensityDefault())
	assert.Equal(t, def.GetDecodeWorkers(), empty.GetDecodeWorkers())
	assert.Equal(t, def.GetDecodeChunkRecords(), empty.GetDecodeChunkRecords())
	assert.Equal(t, def.GetMaxMessages(), empty.GetMaxMessages())
	assert.Equal(t, topic.GPS, empty.GPSCriteria())
	assert.Equal(t, topic.PointCloud, empty.PointCloudCriteria())
	assert.Equal(t, topic.IMU, empty.IMUCriteria())
}

func TestLoadProcessingConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "processing.json")
	testJSON := `{
  "trajectory_max_points": 500,
  "intensity_default": 1.5,
  "decode_workers": 2,
  "max_messages": 3,
  "gps_keywords": ["rtk"]
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0o644))

	cfg, err := LoadProcessingConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.GetTrajectoryMaxPoints())
	assert.Equal(t, 100, cfg.GetPolygonMaxPoints(), "omitted field keeps default")
	assert.Equal(t, 1.5, cfg.GetIntensityDefault())
	assert.Equal(t, 2, cfg.GetDecodeWorkers())
	assert.Equal(t, 3, cfg.GetMaxMessages())

	gps := cfg.GPSCriteria()
	assert.Equal(t, topic.GPS.Patterns, gps.Patterns)
	assert.Equal(t, []string{"rtk"}, gps.Keywords)
}

func TestLoadProcessingConfigFS_Errors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/cfg/bad.json", []byte(`{not json`))
	fsys.WriteFile("/cfg/neg.json", []byte(`{"max_messages": -1}`))
	fsys.WriteFile("/cfg/poly.json", []byte(`{"trajectory_max_points": 10, "polygon_max_points": 20}`))
	fsys.WriteFile("/cfg/big.json", []byte(strings.Repeat(" ", maxFileSize+1)))
	fsys.WriteFile("/cfg/cfg.yaml", []byte(`{}`))

	tests := []struct {
		path    string
		wantErr string
	}{
		{"/cfg/cfg.yaml", ".json extension"},
		{"/cfg/missing.json", "failed to stat"},
		{"/cfg/big.json", "too large"},
		{"/cfg/bad.json", "failed to parse"},
		{"/cfg/neg.json", "max_messages must be non-negative"},
		{"/cfg/poly.json", "must not exceed"},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			_, err := LoadProcessingConfigFS(fsys, tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
