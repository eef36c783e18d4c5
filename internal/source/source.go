// Package source defines the boundary to the recording container and an
// in-memory Capture that implements it.
package source

import (
	"errors"

	"github.com/nova-lidar/nova/internal/geo"
	"github.com/nova-lidar/nova/internal/record"
	"github.com/nova-lidar/nova/internal/topic"
)

var (
	// ErrUnknownTopic is returned for a topic the source does not list.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrUnknownSchema is returned for a message type with no field table.
	ErrUnknownSchema = errors.New("unknown message schema")
)

// Source is a recording: topics, per-type field tables, raw record buffers
// and decoded coordinate streams.
type Source interface {
	ListTopics() ([]topic.Descriptor, error)
	FieldDescriptorsFor(typeName string) (stride int, fields []record.FieldDescriptor, err error)
	// RawBuffersFor returns up to maxMessages payloads in recording order.
	// maxMessages <= 0 returns every payload.
	RawBuffersFor(topicName string, maxMessages int) ([][]byte, error)
	RawCoordinateStreamFor(topicName string) ([]geo.Sample, error)
}
