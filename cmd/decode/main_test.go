package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-lidar/nova/internal/monitoring"
	"github.com/nova-lidar/nova/internal/pointcloud"
	"github.com/nova-lidar/nova/internal/record"
	"github.com/nova-lidar/nova/internal/source"
	"github.com/nova-lidar/nova/internal/store"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func writeCapture(t *testing.T) string {
	t.Helper()
	fields := []record.FieldDescriptor{
		{Name: "x", Offset: 0, Type: record.Float32},
		{Name: "y", Offset: 4, Type: record.Float32},
		{Name: "z", Offset: 8, Type: record.Float32},
	}
	buf := make([]byte, 12*3+2)
	for i, p := range [][3]float64{{0, 0, -1}, {1, 2, 0.5}, {2, 4, 3}} {
		for j, v := range p {
			require.NoError(t, record.EncodeScalar(record.Float32, buf, i*12+j*4, v))
		}
	}
	c := source.NewCapture().
		AddTopic("/hesai/pandar", "sensor_msgs/PointCloud2").
		SetSchema("sensor_msgs/PointCloud2", 12, fields).
		AddMessage("/hesai/pandar", buf)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "capture.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRun_PointCloud(t *testing.T) {
	path := writeCapture(t)
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	var out bytes.Buffer
	err := run(context.Background(), []string{"-capture", path, "-zmin", "0", "-db", dbPath}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "/hesai/pandar (sensor_msgs/PointCloud2)")
	assert.Regexp(t, `records\s+3\n`, text)
	assert.Regexp(t, `trailing bytes\s+2\n`, text)
	assert.Contains(t, text, "x, y, z, intensity")
	assert.Contains(t, text, "2 of 3")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	sessions, err := st.ListDecodeSessions(context.Background(), "/hesai/pandar")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestRun_ExportASC(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := run(context.Background(), []string{"-capture", writeCapture(t), "-export-dir", dir, "-color", "flat"}, &out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "hesai_pandar.asc"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2.000000 4.000000 3.000000 0\n")
	assert.Contains(t, out.String(), "hesai_pandar.asc")
}

func TestRun_ExportParquetFromCompressedCapture(t *testing.T) {
	data, err := os.ReadFile(writeCapture(t))
	require.NoError(t, err)
	c, err := source.ParseCapture(data)
	require.NoError(t, err)
	packed, err := source.CompressCapture(c)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "capture.json.zst")
	require.NoError(t, os.WriteFile(path, packed, 0o644))

	dir := t.TempDir()
	var out bytes.Buffer
	err = run(context.Background(), []string{"-capture", path, "-export-dir", dir, "-export-format", "parquet"}, &out)
	require.NoError(t, err)

	rows, err := parquet.ReadFile[pointcloud.PointRow](filepath.Join(dir, "hesai_pandar.parquet"))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Contains(t, out.String(), "hesai_pandar.parquet")
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &out))
	assert.Contains(t, out.String(), "nova-decode dev")
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing capture", nil},
		{"bad kind", []string{"-capture", "c.json", "-kind", "radar"}},
		{"bad export format", []string{"-capture", "c.json", "-export-format", "ply"}},
		{"bad log format", []string{"-capture", "c.json", "-log-format", "xml"}},
		{"inverted z range", []string{"-capture", "c.json", "-zmin", "5", "-zmax", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestRun_IMUTopicMissing(t *testing.T) {
	err := run(context.Background(), []string{"-capture", writeCapture(t), "-kind", "imu"}, &bytes.Buffer{})
	assert.Error(t, err)
}
