package record

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLayout is returned when a field table does not fit its record
	// stride, names an unknown type, or repeats a field name.
	ErrInvalidLayout = errors.New("invalid record layout")

	// ErrMissingRequiredField is returned when a mandatory field (for example
	// the x/y/z geometry of a point cloud) is absent from the schema.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrOutOfBounds is returned when a read would run past the end of the
	// buffer.
	ErrOutOfBounds = errors.New("read out of bounds")
)

// LayoutError describes the field that made a layout invalid.
type LayoutError struct {
	Field  string
	Offset int
	Extent int
	Stride int
	Reason string
}

func (e *LayoutError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid record layout: %s (stride %d)", e.Reason, e.Stride)
	}
	return fmt.Sprintf("invalid record layout: field %q at offset %d (extent %d, stride %d): %s",
		e.Field, e.Offset, e.Extent, e.Stride, e.Reason)
}

func (e *LayoutError) Unwrap() error { return ErrInvalidLayout }

// OutOfBoundsError reports a read that would pass the end of a buffer.
// Record is -1 when the read was not part of a record decode.
type OutOfBoundsError struct {
	Record int
	Offset int
	Width  int
	Len    int
}

func (e *OutOfBoundsError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("read out of bounds: %d bytes at offset %d, buffer length %d", e.Width, e.Offset, e.Len)
	}
	return fmt.Sprintf("read out of bounds: record %d needs %d bytes at offset %d, buffer length %d",
		e.Record, e.Width, e.Offset, e.Len)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }
