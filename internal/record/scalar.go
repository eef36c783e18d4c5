package record

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ScalarType is the closed set of numeric field types a record may carry.
// The zero value is not a valid type.
type ScalarType uint8

// Scalar types, numbered as the PointCloud2 datatype codes (1..8).
const (
	Int8 ScalarType = iota + 1
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
)

// scalarInfo holds the fixed per-type width and wire name.
var scalarInfo = [...]struct {
	width int
	name  string
}{
	Int8:    {1, "int8"},
	UInt8:   {1, "uint8"},
	Int16:   {2, "int16"},
	UInt16:  {2, "uint16"},
	Int32:   {4, "int32"},
	UInt32:  {4, "uint32"},
	Float32: {4, "float32"},
	Float64: {8, "float64"},
}

// ScalarTypeFromCode maps a wire datatype code onto a ScalarType.
// Unknown codes are rejected here so the decode loop never sees them.
func ScalarTypeFromCode(code uint8) (ScalarType, error) {
	t := ScalarType(code)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: unknown scalar type code %d", ErrInvalidLayout, code)
	}
	return t, nil
}

// Valid reports whether t is one of the eight supported types.
func (t ScalarType) Valid() bool {
	return t >= Int8 && t <= Float64
}

// Width returns the byte width of t, or 0 for an invalid type.
func (t ScalarType) Width() int {
	if !t.Valid() {
		return 0
	}
	return scalarInfo[t].width
}

func (t ScalarType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ScalarType(%d)", uint8(t))
	}
	return scalarInfo[t].name
}

// DecodeScalar reads one little-endian value of type t at offset in buf.
func DecodeScalar(t ScalarType, buf []byte, offset int) (float64, error) {
	w := t.Width()
	if w == 0 {
		return 0, fmt.Errorf("%w: invalid scalar type %d", ErrInvalidLayout, uint8(t))
	}
	if offset < 0 || offset+w > len(buf) {
		return 0, &OutOfBoundsError{Record: -1, Offset: offset, Width: w, Len: len(buf)}
	}
	return decodeUnchecked(t, buf[offset:offset+w]), nil
}

// decodeUnchecked decodes b, which must be exactly t.Width() bytes.
func decodeUnchecked(t ScalarType, b []byte) float64 {
	switch t {
	case Int8:
		return float64(int8(b[0]))
	case UInt8:
		return float64(b[0])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case UInt16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case UInt32:
		return float64(binary.LittleEndian.Uint32(b))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// EncodeScalar writes v as a little-endian value of type t at offset in buf.
// Integer types truncate toward zero and wrap like a Go conversion.
func EncodeScalar(t ScalarType, buf []byte, offset int, v float64) error {
	w := t.Width()
	if w == 0 {
		return fmt.Errorf("%w: invalid scalar type %d", ErrInvalidLayout, uint8(t))
	}
	if offset < 0 || offset+w > len(buf) {
		return &OutOfBoundsError{Record: -1, Offset: offset, Width: w, Len: len(buf)}
	}
	b := buf[offset : offset+w]
	switch t {
	case Int8:
		b[0] = byte(int8(v))
	case UInt8:
		b[0] = byte(v)
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case UInt16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case UInt32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
	return nil
}
