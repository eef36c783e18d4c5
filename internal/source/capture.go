package source

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/nova-lidar/nova/internal/fsutil"
	"github.com/nova-lidar/nova/internal/geo"
	"github.com/nova-lidar/nova/internal/record"
	"github.com/nova-lidar/nova/internal/topic"
)

// MaxCaptureSize bounds the capture files LoadCapture accepts.
const MaxCaptureSize = 1 * 1024 * 1024 // 1MB

type schema struct {
	stride int
	fields []record.FieldDescriptor
}

// Capture is an in-memory Source. Builder methods may be chained and are
// safe to call concurrently with the Source methods.
type Capture struct {
	mu       sync.RWMutex
	topics   []topic.Descriptor
	schemas  map[string]schema
	messages map[string][][]byte
	coords   map[string][]geo.Sample
}

var _ Source = (*Capture)(nil)

// NewCapture returns an empty capture.
func NewCapture() *Capture {
	return &Capture{
		schemas:  make(map[string]schema),
		messages: make(map[string][][]byte),
		coords:   make(map[string][]geo.Sample),
	}
}

// AddTopic lists a topic. Adding a known name replaces its type.
func (c *Capture) AddTopic(name, typeName string) *Capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.topics {
		if c.topics[i].Name == name {
			c.topics[i].TypeName = typeName
			return c
		}
	}
	c.topics = append(c.topics, topic.Descriptor{Name: name, TypeName: typeName})
	return c
}

// SetSchema sets the record stride and field table for a message type.
func (c *Capture) SetSchema(typeName string, stride int, fields []record.FieldDescriptor) *Capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas[typeName] = schema{stride: stride, fields: append([]record.FieldDescriptor(nil), fields...)}
	return c
}

// AddMessage appends a raw payload to a topic.
func (c *Capture) AddMessage(topicName string, payload []byte) *Capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[topicName] = append(c.messages[topicName], append([]byte(nil), payload...))
	return c
}

// AddCoordinates appends decoded fixes to a topic's coordinate stream.
func (c *Capture) AddCoordinates(topicName string, samples ...geo.Sample) *Capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coords[topicName] = append(c.coords[topicName], samples...)
	return c
}

// ListTopics returns the topics in the order they were added.
func (c *Capture) ListTopics() ([]topic.Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]topic.Descriptor(nil), c.topics...), nil
}

// FieldDescriptorsFor returns the stride and field table of typeName.
func (c *Capture) FieldDescriptorsFor(typeName string) (int, []record.FieldDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[typeName]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", ErrUnknownSchema, typeName)
	}
	return s.stride, append([]record.FieldDescriptor(nil), s.fields...), nil
}

// RawBuffersFor returns up to maxMessages payloads of topicName.
func (c *Capture) RawBuffersFor(topicName string, maxMessages int) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasTopic(topicName) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topicName)
	}
	msgs := c.messages[topicName]
	if maxMessages > 0 && len(msgs) > maxMessages {
		msgs = msgs[:maxMessages]
	}
	out := make([][]byte, len(msgs))
	for i, m := range msgs {
		out[i] = append([]byte(nil), m...)
	}
	return out, nil
}

// RawCoordinateStreamFor returns the coordinate stream of topicName,
// unvalidated.
func (c *Capture) RawCoordinateStreamFor(topicName string) ([]geo.Sample, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasTopic(topicName) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topicName)
	}
	return append([]geo.Sample(nil), c.coords[topicName]...), nil
}

func (c *Capture) hasTopic(name string) bool {
	_, ok := topic.Find(c.topics, name)
	return ok
}

// captureFile is the JSON form of a capture. Payloads are base64 through
// encoding/json's []byte handling.
type captureFile struct {
	Topics      []topic.Descriptor          `json:"topics"`
	Schemas     map[string]schemaFile       `json:"schemas,omitempty"`
	Messages    map[string][][]byte         `json:"messages,omitempty"`
	Coordinates map[string][]coordinateFile `json:"coordinates,omitempty"`
}

type schemaFile struct {
	PointStep int         `json:"point_step"`
	Fields    []fieldFile `json:"fields"`
}

type fieldFile struct {
	Name     string `json:"name"`
	Offset   int    `json:"offset"`
	Datatype uint8  `json:"datatype"`
	Count    int    `json:"count,omitempty"`
}

type coordinateFile struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// LoadCapture reads a JSON capture through fsys. The file must have a .json
// or .json.zst extension and, once decompressed, be at most MaxCaptureSize
// bytes.
func LoadCapture(fsys fsutil.FileSystem, path string) (*Capture, error) {
	cleanPath := filepath.Clean(path)
	compressed := strings.HasSuffix(cleanPath, ".json.zst")
	if ext := filepath.Ext(cleanPath); ext != ".json" && !compressed {
		return nil, fmt.Errorf("capture file must have .json or .json.zst extension, got %q", ext)
	}
	fi, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat capture file: %w", err)
	}
	if fi.Size() > MaxCaptureSize {
		return nil, fmt.Errorf("capture file too large: %d bytes (max %d)", fi.Size(), MaxCaptureSize)
	}
	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture file: %w", err)
	}
	if compressed {
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("failed to decompress capture file: %w", err)
		}
	}
	return ParseCapture(data)
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxCaptureSize))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	if len(out) > MaxCaptureSize {
		return nil, fmt.Errorf("decompressed capture too large: %d bytes (max %d)", len(out), MaxCaptureSize)
	}
	return out, nil
}

// CompressCapture returns the zstd-compressed JSON form of c, suitable for a
// .json.zst file.
func CompressCapture(c *Capture) ([]byte, error) {
	data, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// ParseCapture decodes a JSON capture document.
func ParseCapture(data []byte) (*Capture, error) {
	var f captureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse capture JSON: %w", err)
	}

	c := NewCapture()
	for _, t := range f.Topics {
		c.AddTopic(t.Name, t.TypeName)
	}
	for typeName, s := range f.Schemas {
		fields := make([]record.FieldDescriptor, 0, len(s.Fields))
		for _, ff := range s.Fields {
			typ, err := record.ScalarTypeFromCode(ff.Datatype)
			if err != nil {
				return nil, fmt.Errorf("schema %q field %q: %w", typeName, ff.Name, err)
			}
			fields = append(fields, record.FieldDescriptor{Name: ff.Name, Offset: ff.Offset, Type: typ, Count: ff.Count})
		}
		c.SetSchema(typeName, s.PointStep, fields)
	}
	for name, msgs := range f.Messages {
		for _, m := range msgs {
			c.AddMessage(name, m)
		}
	}
	for name, coords := range f.Coordinates {
		samples := make([]geo.Sample, len(coords))
		for i, p := range coords {
			samples[i] = geo.LatLon(p.Latitude, p.Longitude)
			if p.Altitude != nil {
				samples[i] = samples[i].WithAltitude(*p.Altitude)
			}
		}
		c.AddCoordinates(name, samples...)
	}
	return c, nil
}

// MarshalJSON encodes the capture in the format ParseCapture reads.
func (c *Capture) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f := captureFile{
		Topics:      c.topics,
		Schemas:     make(map[string]schemaFile, len(c.schemas)),
		Messages:    c.messages,
		Coordinates: make(map[string][]coordinateFile, len(c.coords)),
	}
	if f.Topics == nil {
		f.Topics = []topic.Descriptor{}
	}
	for typeName, s := range c.schemas {
		sf := schemaFile{PointStep: s.stride, Fields: make([]fieldFile, len(s.fields))}
		for i, d := range s.fields {
			sf.Fields[i] = fieldFile{Name: d.Name, Offset: d.Offset, Datatype: uint8(d.Type), Count: d.Count}
		}
		f.Schemas[typeName] = sf
	}
	for name, samples := range c.coords {
		out := make([]coordinateFile, len(samples))
		for i, s := range samples {
			out[i] = coordinateFile{Latitude: s.Latitude, Longitude: s.Longitude}
			if s.HasAltitude {
				alt := s.Altitude
				out[i].Altitude = &alt
			}
		}
		f.Coordinates[name] = out
	}
	return json.Marshal(f)
}
