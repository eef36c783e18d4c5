package record

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkRecords is the number of records handed to one decode worker
// at a time.
const DefaultChunkRecords = 4096

// PointSet is a columnar decode result. Every column has length Len.
type PointSet struct {
	// Names lists the columns in layout order.
	Names []string
	// Columns maps a column name to its dense values.
	Columns map[string][]float64
	// Len is the number of decoded records.
	Len int
	// TrailingBytes counts bytes past the last whole record. They are
	// dropped, not decoded.
	TrailingBytes int
	// Skipped counts declared records that lay past the end of the buffer.
	Skipped int
}

// Column returns the values of the named column.
func (p *PointSet) Column(name string) ([]float64, bool) {
	c, ok := p.Columns[name]
	return c, ok
}

// Decoder applies a Layout across a raw buffer. The zero value decodes with
// GOMAXPROCS workers in DefaultChunkRecords chunks.
type Decoder struct {
	// Workers bounds the decode goroutines; values <= 0 use GOMAXPROCS.
	Workers int
	// ChunkRecords is the records per worker task; values <= 0 use
	// DefaultChunkRecords.
	ChunkRecords int
	// MaxRecords caps the records decoded from one buffer. The cap takes a
	// prefix, so callers can bound the time a decode takes. Zero means no cap.
	MaxRecords int
}

// Decode decodes every whole record of buf with the default Decoder.
func Decode(buf []byte, layout *Layout) (*PointSet, error) {
	return Decoder{}.Decode(context.Background(), buf, layout)
}

// DecodeRange decodes n records starting at record first.
func DecodeRange(buf []byte, layout *Layout, first, n int) (*PointSet, error) {
	return Decoder{}.DecodeRange(context.Background(), buf, layout, first, n)
}

// Decode decodes len(buf)/stride records. Trailing bytes that do not make a
// whole record are reported in TrailingBytes and otherwise ignored.
func (d Decoder) Decode(ctx context.Context, buf []byte, layout *Layout) (*PointSet, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrInvalidLayout)
	}
	return d.DecodeRange(ctx, buf, layout, 0, len(buf)/layout.stride)
}

// DecodeDeclared decodes a caller-declared number of records, such as the
// width*height of a point cloud message. When the buffer holds fewer records
// the missing ones are skipped: the returned set keeps everything decoded and
// the error wraps ErrOutOfBounds.
func (d Decoder) DecodeDeclared(ctx context.Context, buf []byte, layout *Layout, declared int) (*PointSet, error) {
	return d.DecodeRange(ctx, buf, layout, 0, declared)
}

// DecodeRange decodes n records starting at record first. Records outside
// the buffer are skipped as in DecodeDeclared.
func (d Decoder) DecodeRange(ctx context.Context, buf []byte, layout *Layout, first, n int) (*PointSet, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrInvalidLayout)
	}
	if first < 0 || n < 0 {
		return nil, fmt.Errorf("invalid record range [%d, +%d)", first, n)
	}
	if d.MaxRecords > 0 && n > d.MaxRecords {
		n = d.MaxRecords
	}

	stride := layout.stride
	available := len(buf)/stride - first
	if available < 0 {
		available = 0
	}
	valid := min(n, available)

	ps := newPointSet(layout, valid)
	ps.TrailingBytes = len(buf) % stride
	ps.Skipped = n - valid

	if err := d.decodeInto(ctx, ps, buf, layout, first, valid); err != nil {
		return nil, err
	}

	if ps.Skipped > 0 {
		rec := first + valid
		oob := &OutOfBoundsError{Record: rec, Offset: rec * stride, Width: stride, Len: len(buf)}
		return ps, fmt.Errorf("decoded %d of %d records: %w", valid, n, oob)
	}
	return ps, nil
}

func newPointSet(layout *Layout, n int) *PointSet {
	ps := &PointSet{
		Names:   layout.Columns(),
		Columns: make(map[string][]float64, len(layout.fields)+len(layout.defaults)),
		Len:     n,
	}
	for _, f := range layout.fields {
		ps.Columns[f.Name] = make([]float64, n)
	}
	for _, dc := range layout.defaults {
		col := make([]float64, n)
		if dc.Value != 0 {
			for i := range col {
				col[i] = dc.Value
			}
		}
		ps.Columns[dc.Name] = col
	}
	return ps
}

// decodeInto fills the decoded columns of ps with records [first, first+n).
// Each worker owns a disjoint index range of the pre-sized columns.
func (d Decoder) decodeInto(ctx context.Context, ps *PointSet, buf []byte, layout *Layout, first, n int) error {
	cols := make([][]float64, len(layout.fields))
	for i, f := range layout.fields {
		cols[i] = ps.Columns[f.Name]
	}

	chunk := d.ChunkRecords
	if chunk <= 0 {
		chunk = DefaultChunkRecords
	}
	workers := d.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if workers == 1 || n <= chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		decodeChunk(cols, buf, layout, first, 0, n)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		if gctx.Err() != nil {
			break
		}
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decodeChunk(cols, buf, layout, first, lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// decodeChunk decodes output rows [lo, hi), which map to buffer records
// first+lo .. first+hi-1. Bounds were checked by the caller.
func decodeChunk(cols [][]float64, buf []byte, layout *Layout, first, lo, hi int) {
	stride := layout.stride
	fields := layout.fields
	for i := lo; i < hi; i++ {
		rec := buf[(first+i)*stride : (first+i+1)*stride]
		for fi, f := range fields {
			cols[fi][i] = decodeUnchecked(f.Type, rec[f.Offset:f.Offset+f.Type.Width()])
		}
	}
}

// Concat joins point sets decoded with the same layout, in argument order.
func Concat(sets ...*PointSet) (*PointSet, error) {
	out := &PointSet{Columns: make(map[string][]float64)}
	if len(sets) == 0 {
		return out, nil
	}
	out.Names = append([]string(nil), sets[0].Names...)
	total := 0
	for _, s := range sets {
		if len(s.Names) != len(out.Names) {
			return nil, fmt.Errorf("concat: column count %d differs from %d", len(s.Names), len(out.Names))
		}
		for _, name := range out.Names {
			if _, ok := s.Columns[name]; !ok {
				return nil, fmt.Errorf("concat: column %q missing", name)
			}
		}
		total += s.Len
		out.TrailingBytes += s.TrailingBytes
		out.Skipped += s.Skipped
	}
	for _, name := range out.Names {
		col := make([]float64, 0, total)
		for _, s := range sets {
			col = append(col, s.Columns[name]...)
		}
		out.Columns[name] = col
	}
	out.Len = total
	return out, nil
}
