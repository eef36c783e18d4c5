// Package pipeline wires a Source to the decoders and the geodetic
// processing: pick a topic, resolve its layout, decode, post-process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nova-lidar/nova/internal/config"
	"github.com/nova-lidar/nova/internal/geo"
	"github.com/nova-lidar/nova/internal/imu"
	"github.com/nova-lidar/nova/internal/monitoring"
	"github.com/nova-lidar/nova/internal/pointcloud"
	"github.com/nova-lidar/nova/internal/record"
	"github.com/nova-lidar/nova/internal/source"
	"github.com/nova-lidar/nova/internal/store"
	"github.com/nova-lidar/nova/internal/timeutil"
	"github.com/nova-lidar/nova/internal/topic"
)

var (
	// ErrTopicNotFound is returned when no topic matches the request.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrNoMessages is returned when the chosen topic has no payloads.
	ErrNoMessages = errors.New("topic has no messages")
)

// Decode session kinds.
const (
	KindPointCloud  = "pointcloud"
	KindIMU         = "imu"
	KindNavSat      = "navsat"
	KindCoordinates = "coordinates"
)

var logf = monitoring.Prefixed("pipeline")

// Recorder receives one DecodeSession per topic read. *store.Store
// satisfies it.
type Recorder interface {
	RecordDecodeSession(ctx context.Context, s store.DecodeSession) error
}

// Pipeline runs decode and trajectory jobs against one Source.
type Pipeline struct {
	src      source.Source
	cfg      *config.ProcessingConfig
	decoder  record.Decoder
	recorder Recorder
	clock    timeutil.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDecoder replaces the decoder derived from the config.
func WithDecoder(d record.Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// WithRecorder reports decode sessions to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithClock sets the clock used to time and stamp decode sessions.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New returns a Pipeline over src. A nil cfg uses the defaults.
func New(src source.Source, cfg *config.ProcessingConfig, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.EmptyProcessingConfig()
	}
	p := &Pipeline{
		src:   src,
		cfg:   cfg,
		clock: timeutil.RealClock{},
		decoder: record.Decoder{
			Workers:      cfg.GetDecodeWorkers(),
			ChunkRecords: cfg.GetDecodeChunkRecords(),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DecodeStats describes one topic decode.
type DecodeStats struct {
	Messages      int `json:"messages"`
	Records       int `json:"records"`
	TrailingBytes int `json:"trailing_bytes"`
	Skipped       int `json:"skipped"`
}

// PointCloudResult is the output of PointCloud.
type PointCloudResult struct {
	Topic  topic.Descriptor
	Cloud  *pointcloud.Cloud
	Points *record.PointSet
	Stats  DecodeStats
}

// IMUResult is the output of IMU.
type IMUResult struct {
	Topic  topic.Descriptor
	Series *imu.Series
	Stats  DecodeStats
}

// TrajectoryResult is the output of Trajectory and TrajectoryFromRecords.
type TrajectoryResult struct {
	Topic      topic.Descriptor
	Trajectory *geo.Trajectory
	Summary    geo.Summary
	Validation geo.ValidationStats
	// Stats is set by TrajectoryFromRecords.
	Stats      DecodeStats
}

// PointCloud decodes the geometry of a point cloud topic. An empty name
// selects the topic with the configured point cloud criteria.
func (p *Pipeline) PointCloud(ctx context.Context, topicName string) (*PointCloudResult, error) {
	t, err := p.resolveTopic(topicName, p.cfg.PointCloudCriteria())
	if err != nil {
		return nil, err
	}
	ps, _, stats, err := p.decodeTopic(ctx, KindPointCloud, t, pointcloud.ResolveOptions(p.cfg.GetIntensityDefault()), nil)
	if err != nil {
		return nil, err
	}
	cloud, err := pointcloud.FromPointSet(ps)
	if err != nil {
		return nil, err
	}
	return &PointCloudResult{Topic: t, Cloud: cloud, Points: ps, Stats: stats}, nil
}

// IMU decodes an IMU topic.
func (p *Pipeline) IMU(ctx context.Context, topicName string) (*IMUResult, error) {
	t, err := p.resolveTopic(topicName, p.cfg.IMUCriteria())
	if err != nil {
		return nil, err
	}
	ps, _, stats, err := p.decodeTopic(ctx, KindIMU, t, imu.ResolveOptions(), nil)
	if err != nil {
		return nil, err
	}
	series, err := imu.FromPointSet(ps)
	if err != nil {
		return nil, err
	}
	return &IMUResult{Topic: t, Series: series, Stats: stats}, nil
}

// Trajectory builds a trajectory from the source's coordinate stream for a
// GPS topic.
func (p *Pipeline) Trajectory(ctx context.Context, topicName string) (*TrajectoryResult, error) {
	t, err := p.resolveTopic(topicName, p.cfg.GPSCriteria())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := p.clock.Now()
	raw, err := p.src.RawCoordinateStreamFor(t.Name)
	sess := store.DecodeSession{Topic: t.Name, TypeName: t.TypeName, Kind: KindCoordinates, Records: len(raw)}
	if err == nil && len(raw) == 0 {
		err = fmt.Errorf("%s: %w", t.Name, ErrNoMessages)
	}
	p.record(ctx, sess, start, err)
	if err != nil {
		return nil, err
	}
	return p.process(t, raw)
}

// Field names of a NavSatFix record after normalisation.
const (
	fieldLatitude  = "latitude"
	fieldLongitude = "longitude"
	fieldAltitude  = "altitude"
)

// TrajectoryFromRecords decodes NavSatFix records of a GPS topic and builds
// a trajectory from their latitude, longitude and, if present, altitude
// columns. Field names are matched case-insensitively.
func (p *Pipeline) TrajectoryFromRecords(ctx context.Context, topicName string) (*TrajectoryResult, error) {
	t, err := p.resolveTopic(topicName, p.cfg.GPSCriteria())
	if err != nil {
		return nil, err
	}
	opts := record.ResolveOptions{
		Wanted:   []string{fieldLatitude, fieldLongitude, fieldAltitude},
		Required: []string{fieldLatitude, fieldLongitude},
	}
	ps, layout, stats, err := p.decodeTopic(ctx, KindNavSat, t, opts, normaliseNavSatFields)
	if err != nil {
		return nil, err
	}

	lats, _ := ps.Column(fieldLatitude)
	lons, _ := ps.Column(fieldLongitude)
	// A missing altitude resolves to a defaulted column of zeros.
	alts, _ := ps.Column(fieldAltitude)
	hasAlt := layout.HasField(fieldAltitude)
	raw := make([]geo.Sample, ps.Len)
	for i := range raw {
		raw[i] = geo.LatLon(lats[i], lons[i])
		if hasAlt {
			raw[i] = raw[i].WithAltitude(alts[i])
		}
	}
	res, err := p.process(t, raw)
	if err != nil {
		return nil, err
	}
	res.Stats = stats
	return res, nil
}

func normaliseNavSatFields(fields []record.FieldDescriptor) {
	for i := range fields {
		for _, canonical := range []string{fieldLatitude, fieldLongitude, fieldAltitude} {
			if strings.EqualFold(fields[i].Name, canonical) {
				fields[i].Name = canonical
			}
		}
	}
}

func (p *Pipeline) process(t topic.Descriptor, raw []geo.Sample) (*TrajectoryResult, error) {
	clean, stats := geo.Clean(raw)
	if len(clean) == 0 {
		return nil, fmt.Errorf("%s: %w", t.Name, geo.ErrNoUsableData)
	}
	traj := geo.NewTrajectory(clean).Downsample(p.cfg.GetTrajectoryMaxPoints())
	summary := geo.Summarize(traj, geo.SummaryOptions{
		PolygonMaxPoints:  p.cfg.GetPolygonMaxPoints(),
		BBoxAreaThreshold: p.cfg.GetBBoxAreaThreshold(),
	})
	logf("%s: %d fixes, %d kept, %d in trajectory", t.Name, stats.Input, stats.Kept, traj.Len())
	return &TrajectoryResult{Topic: t, Trajectory: traj, Summary: summary, Validation: stats}, nil
}

func (p *Pipeline) resolveTopic(name string, crit topic.Criteria) (topic.Descriptor, error) {
	topics, err := p.src.ListTopics()
	if err != nil {
		return topic.Descriptor{}, fmt.Errorf("list topics: %w", err)
	}
	var (
		t  topic.Descriptor
		ok bool
	)
	if name != "" {
		t, ok = topic.Find(topics, name)
	} else {
		t, ok = crit.Select(topics)
	}
	if !ok {
		if name == "" {
			return topic.Descriptor{}, ErrTopicNotFound
		}
		return topic.Descriptor{}, fmt.Errorf("%q: %w", name, ErrTopicNotFound)
	}
	return t, nil
}

// decodeTopic resolves t's layout, decodes up to MaxMessages payloads and
// concatenates them. rename, if set, may rewrite field names before
// resolution.
func (p *Pipeline) decodeTopic(ctx context.Context, kind string, t topic.Descriptor, opts record.ResolveOptions, rename func([]record.FieldDescriptor)) (*record.PointSet, *record.Layout, DecodeStats, error) {
	start := p.clock.Now()
	sess := store.DecodeSession{Topic: t.Name, TypeName: t.TypeName, Kind: kind}

	ps, layout, err := p.decodeBuffers(ctx, t, opts, rename, &sess)
	p.record(ctx, sess, start, err)
	if err != nil {
		return nil, nil, DecodeStats{}, err
	}
	stats := DecodeStats{Messages: sess.Messages, Records: ps.Len, TrailingBytes: ps.TrailingBytes, Skipped: ps.Skipped}
	logf("%s: decoded %d records from %d messages (%d trailing bytes)", t.Name, stats.Records, stats.Messages, stats.TrailingBytes)
	return ps, layout, stats, nil
}

func (p *Pipeline) decodeBuffers(ctx context.Context, t topic.Descriptor, opts record.ResolveOptions, rename func([]record.FieldDescriptor), sess *store.DecodeSession) (*record.PointSet, *record.Layout, error) {
	stride, fields, err := p.src.FieldDescriptorsFor(t.TypeName)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	if rename != nil {
		rename(fields)
	}
	layout, err := record.Resolve(stride, fields, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", t.Name, err)
	}

	bufs, err := p.src.RawBuffersFor(t.Name, p.cfg.GetMaxMessages())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	if len(bufs) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", t.Name, ErrNoMessages)
	}
	sess.Messages = len(bufs)

	sets := make([]*record.PointSet, 0, len(bufs))
	for i, buf := range bufs {
		ps, err := p.decoder.Decode(ctx, buf, layout)
		if err != nil {
			return nil, nil, fmt.Errorf("%s message %d: %w", t.Name, i, err)
		}
		sets = append(sets, ps)
	}
	out, err := record.Concat(sets...)
	if err != nil {
		return nil, nil, err
	}
	sess.Records = out.Len
	sess.TrailingBytes = out.TrailingBytes
	sess.Skipped = out.Skipped
	return out, layout, nil
}

func (p *Pipeline) record(ctx context.Context, sess store.DecodeSession, start time.Time, err error) {
	if p.recorder == nil {
		return
	}
	sess.CreatedAt = start.UnixNano()
	sess.DurationNanos = p.clock.Since(start).Nanoseconds()
	if err != nil {
		sess.Error = err.Error()
	}
	// A cancelled job still gets its session written.
	if rerr := p.recorder.RecordDecodeSession(context.WithoutCancel(ctx), sess); rerr != nil {
		logf("failed to record decode session for %s: %v", sess.Topic, rerr)
	}
}
