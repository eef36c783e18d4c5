package record

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// xyziLayout is a 16-byte float32 x, y, z, intensity record.
func xyziLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := Resolve(16, []FieldDescriptor{
		{Name: "x", Offset: 0, Type: Float32},
		{Name: "y", Offset: 4, Type: Float32},
		{Name: "z", Offset: 8, Type: Float32},
		{Name: "intensity", Offset: 12, Type: Float32},
	}, ResolveOptions{})
	require.NoError(t, err)
	return l
}

// encodeXYZI builds n records where record i holds (i, -i, i/2, i*10).
func encodeXYZI(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n*16)
	for i := 0; i < n; i++ {
		base := i * 16
		vals := []float64{float64(i), -float64(i), float64(i) / 2, float64(i) * 10}
		for j, v := range vals {
			require.NoError(t, EncodeScalar(Float32, buf, base+j*4, v))
		}
	}
	return buf
}

func TestDecode_RecordCountDropsTrailingBytes(t *testing.T) {
	l := xyziLayout(t)
	buf := make([]byte, 100)
	ps, err := Decode(buf, l)
	require.NoError(t, err)
	assert.Equal(t, 6, ps.Len)
	assert.Equal(t, 4, ps.TrailingBytes)
	for _, name := range ps.Names {
		assert.Len(t, ps.Columns[name], 6, name)
	}
}

func TestDecode_EmptyBuffer(t *testing.T) {
	ps, err := Decode(nil, xyziLayout(t))
	require.NoError(t, err)
	assert.Equal(t, 0, ps.Len)
	assert.Empty(t, ps.Columns["x"])
}

func TestDecode_RoundTripMixedTypes(t *testing.T) {
	fields := []FieldDescriptor{
		{Name: "t", Offset: 0, Type: Float64},
		{Name: "a", Offset: 8, Type: Int8},
		{Name: "b", Offset: 9, Type: UInt8},
		{Name: "c", Offset: 10, Type: Int16},
		{Name: "d", Offset: 12, Type: UInt16},
		{Name: "e", Offset: 14, Type: Int32},
		{Name: "f", Offset: 18, Type: UInt32},
		{Name: "g", Offset: 22, Type: Float32},
	}
	const stride = 28
	l, err := Resolve(stride, fields, ResolveOptions{})
	require.NoError(t, err)

	want := [][]float64{
		{1234.5678901234, -5, 200, -1000, 60000, -123456, 4000000000, float64(float32(0.1))},
		{math.Inf(1), 127, 0, 32767, 0, math.MinInt32, 0, float64(float32(-3.25))},
		{0, -128, 255, -32768, 65535, math.MaxInt32, math.MaxUint32, float64(float32(1e10))},
	}
	buf := make([]byte, stride*len(want))
	for i, row := range want {
		for j, f := range fields {
			require.NoError(t, EncodeScalar(f.Type, buf, i*stride+f.Offset, row[j]))
		}
	}

	ps, err := Decode(buf, l)
	require.NoError(t, err)
	require.Equal(t, len(want), ps.Len)
	for i, row := range want {
		for j, f := range fields {
			got := ps.Columns[f.Name][i]
			if math.Float64bits(got) != math.Float64bits(row[j]) {
				t.Errorf("record %d field %s = %v, want %v", i, f.Name, got, row[j])
			}
		}
	}
}

func TestDecode_DefaultColumn(t *testing.T) {
	l, err := Resolve(12, []FieldDescriptor{
		{Name: "x", Offset: 0, Type: Float32},
		{Name: "y", Offset: 4, Type: Float32},
		{Name: "z", Offset: 8, Type: Float32},
	}, ResolveOptions{
		Wanted:   []string{"x", "y", "z", "intensity", "ring"},
		Defaults: map[string]float64{"ring": -1},
	})
	require.NoError(t, err)

	ps, err := Decode(make([]byte, 36), l)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, ps.Columns["intensity"])
	assert.Equal(t, []float64{-1, -1, -1}, ps.Columns["ring"])
}

func TestDecoder_ParallelMatchesSerial(t *testing.T) {
	l := xyziLayout(t)
	buf := encodeXYZI(t, 10007)

	serial, err := Decoder{Workers: 1}.Decode(context.Background(), buf, l)
	require.NoError(t, err)
	parallel, err := Decoder{Workers: 8, ChunkRecords: 97}.Decode(context.Background(), buf, l)
	require.NoError(t, err)

	require.Equal(t, serial.Len, parallel.Len)
	for _, name := range serial.Names {
		assert.Equal(t, serial.Columns[name], parallel.Columns[name], name)
	}
	// Order follows the input records.
	for i := 0; i < parallel.Len; i++ {
		if parallel.Columns["x"][i] != float64(i) {
			t.Fatalf("record %d out of order: x=%v", i, parallel.Columns["x"][i])
		}
	}
}

func TestDecodeDeclared_ShortBufferKeepsDecodedRecords(t *testing.T) {
	l := xyziLayout(t)
	buf := encodeXYZI(t, 5)

	ps, err := Decoder{}.DecodeDeclared(context.Background(), buf, l, 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	require.NotNil(t, ps)
	assert.Equal(t, 5, ps.Len)
	assert.Equal(t, 3, ps.Skipped)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, ps.Columns["x"])

	var oob *OutOfBoundsError
	require.True(t, errors.As(err, &oob))
	assert.Equal(t, 5, oob.Record)
}

func TestDecodeRange_Window(t *testing.T) {
	l := xyziLayout(t)
	buf := encodeXYZI(t, 20)

	ps, err := DecodeRange(buf, l, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12, 13}, ps.Columns["x"])
	assert.Equal(t, []float64{100, 110, 120, 130}, ps.Columns["intensity"])

	_, err = DecodeRange(buf, l, -1, 4)
	assert.Error(t, err)
}

func TestDecoder_MaxRecordsTakesPrefix(t *testing.T) {
	l := xyziLayout(t)
	ps, err := Decoder{MaxRecords: 3}.Decode(context.Background(), encodeXYZI(t, 50), l)
	require.NoError(t, err)
	assert.Equal(t, 3, ps.Len)
	assert.Equal(t, 0, ps.Skipped)
	assert.Equal(t, []float64{0, -1, -2}, ps.Columns["y"])
}

func TestDecoder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Decoder{Workers: 4, ChunkRecords: 8}.Decode(ctx, encodeXYZI(t, 100), xyziLayout(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecode_NilLayout(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestConcat(t *testing.T) {
	l := xyziLayout(t)
	a, err := Decode(encodeXYZI(t, 2), l)
	require.NoError(t, err)
	b, err := DecodeRange(encodeXYZI(t, 4), l, 2, 2)
	require.NoError(t, err)

	ps, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 4, ps.Len)
	assert.Equal(t, []float64{0, 1, 2, 3}, ps.Columns["x"])
	assert.Equal(t, l.Columns(), ps.Names)

	empty, err := Concat()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len)

	other := &PointSet{Names: []string{"lat"}, Columns: map[string][]float64{"lat": {1}}, Len: 1}
	_, err = Concat(a, other)
	assert.Error(t, err)
}
