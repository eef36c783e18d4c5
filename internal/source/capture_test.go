package source

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-lidar/nova/internal/fsutil"
	"github.com/nova-lidar/nova/internal/geo"
	"github.com/nova-lidar/nova/internal/record"
	"github.com/nova-lidar/nova/internal/topic"
)

const captureJSON = `{
  "topics": [
    {"name": "/lidar/points", "type": "sensor_msgs/PointCloud2"},
    {"name": "/gps/fix", "type": "sensor_msgs/NavSatFix"}
  ],
  "schemas": {
    "sensor_msgs/PointCloud2": {
      "point_step": 16,
      "fields": [
        {"name": "x", "offset": 0, "datatype": 7, "count": 1},
        {"name": "y", "offset": 4, "datatype": 7, "count": 1},
        {"name": "z", "offset": 8, "datatype": 7, "count": 1},
        {"name": "intensity", "offset": 12, "datatype": 7, "count": 1}
      ]
    }
  },
  "messages": {"/lidar/points": ["AAAAAA==", "AQIDBA=="]},
  "coordinates": {
    "/gps/fix": [
      {"latitude": 37.5, "longitude": -122.25, "altitude": 12},
      {"latitude": 37.6, "longitude": -122.2}
    ]
  }
}`

func TestParseCapture(t *testing.T) {
	c, err := ParseCapture([]byte(captureJSON))
	require.NoError(t, err)

	topics, err := c.ListTopics()
	require.NoError(t, err)
	want := []topic.Descriptor{
		{Name: "/lidar/points", TypeName: "sensor_msgs/PointCloud2"},
		{Name: "/gps/fix", TypeName: "sensor_msgs/NavSatFix"},
	}
	if diff := cmp.Diff(want, topics); diff != "" {
		t.Errorf("ListTopics mismatch (-want +got):\n%s", diff)
	}

	stride, fields, err := c.FieldDescriptorsFor("sensor_msgs/PointCloud2")
	require.NoError(t, err)
	assert.Equal(t, 16, stride)
	require.Len(t, fields, 4)
	assert.Equal(t, record.FieldDescriptor{Name: "intensity", Offset: 12, Type: record.Float32, Count: 1}, fields[3])

	bufs, err := c.RawBuffersFor("/lidar/points", 0)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0, 0, 0, 0}, {1, 2, 3, 4}}, bufs)

	coords, err := c.RawCoordinateStreamFor("/gps/fix")
	require.NoError(t, err)
	assert.Equal(t, []geo.Sample{
		geo.LatLon(37.5, -122.25).WithAltitude(12),
		geo.LatLon(37.6, -122.2),
	}, coords)
}

func TestParseCapture_Errors(t *testing.T) {
	_, err := ParseCapture([]byte(`{"topics": [`))
	assert.Error(t, err)

	bad := `{"topics": [], "schemas": {"T": {"point_step": 4, "fields": [{"name": "x", "offset": 0, "datatype": 9}]}}}`
	_, err = ParseCapture([]byte(bad))
	assert.ErrorIs(t, err, record.ErrInvalidLayout)
}

func TestCapture_Lookups(t *testing.T) {
	c := NewCapture().
		AddTopic("/a", "T").
		AddMessage("/a", []byte{1}).
		AddMessage("/a", []byte{2}).
		AddMessage("/a", []byte{3})

	bufs, err := c.RawBuffersFor("/a", 2)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1}, {2}}, bufs)

	// Returned buffers are copies.
	bufs[0][0] = 9
	again, _ := c.RawBuffersFor("/a", 1)
	assert.Equal(t, byte(1), again[0][0])

	_, err = c.RawBuffersFor("/missing", 1)
	assert.True(t, errors.Is(err, ErrUnknownTopic))
	_, err = c.RawCoordinateStreamFor("/missing")
	assert.ErrorIs(t, err, ErrUnknownTopic)
	_, _, err = c.FieldDescriptorsFor("T")
	assert.ErrorIs(t, err, ErrUnknownSchema)

	coords, err := c.RawCoordinateStreamFor("/a")
	require.NoError(t, err)
	assert.Empty(t, coords)

	c.AddTopic("/a", "U")
	topics, _ := c.ListTopics()
	assert.Equal(t, []topic.Descriptor{{Name: "/a", TypeName: "U"}}, topics)
}

func TestCapture_JSONRoundTrip(t *testing.T) {
	orig, err := ParseCapture([]byte(captureJSON))
	require.NoError(t, err)

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/tmp/run.json", data)
	loaded, err := LoadCapture(fsys, "/tmp/run.json")
	require.NoError(t, err)

	for _, name := range []string{"/lidar/points", "/gps/fix"} {
		a, _ := orig.RawBuffersFor(name, 0)
		b, _ := loaded.RawBuffersFor(name, 0)
		assert.Equal(t, a, b, name)
		ca, _ := orig.RawCoordinateStreamFor(name)
		cb, _ := loaded.RawCoordinateStreamFor(name)
		assert.Equal(t, ca, cb, name)
	}
}

func TestLoadCapture_Checks(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/c/run.bag", []byte(`{}`))
	fsys.WriteFile("/c/huge.json", []byte(strings.Repeat(" ", MaxCaptureSize+1)))

	_, err := LoadCapture(fsys, "/c/run.bag")
	assert.ErrorContains(t, err, ".json or .json.zst extension")
	_, err = LoadCapture(fsys, "/c/huge.json")
	assert.ErrorContains(t, err, "too large")
	_, err = LoadCapture(fsys, "/c/none.json")
	assert.ErrorContains(t, err, "failed to stat")
}

func TestLoadCapture_Zstd(t *testing.T) {
	orig, err := ParseCapture([]byte(captureJSON))
	require.NoError(t, err)
	packed, err := CompressCapture(orig)
	require.NoError(t, err)

	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/c/run.json.zst", packed)
	fsys.WriteFile("/c/bad.json.zst", []byte("not zstd"))

	loaded, err := LoadCapture(fsys, "/c/run.json.zst")
	require.NoError(t, err)
	want, _ := orig.ListTopics()
	got, _ := loaded.ListTopics()
	assert.Equal(t, want, got)
	a, _ := orig.RawBuffersFor("/lidar/points", 0)
	b, _ := loaded.RawBuffersFor("/lidar/points", 0)
	assert.Equal(t, a, b)

	_, err = LoadCapture(fsys, "/c/bad.json.zst")
	assert.ErrorContains(t, err, "failed to decompress")
}
