package record

import (
	"fmt"
	"strconv"
)

// FieldDescriptor names where a value lives within one record.
// Count of 0 or 1 describes a single scalar; a larger Count describes a
// fixed array of Count consecutive scalars.
type FieldDescriptor struct {
	Name   string
	Offset int
	Type   ScalarType
	Count  int
}

// extent is the number of bytes the descriptor covers.
func (d FieldDescriptor) extent() int {
	n := d.Count
	if n < 1 {
		n = 1
	}
	return d.Type.Width() * n
}

// isPadding reports whether the descriptor is an unnamed filler field, as
// emitted by PCL for alignment.
func (d FieldDescriptor) isPadding() bool {
	return d.Name == "" || d.Name == "_"
}

// Field is one decodable column of a resolved layout.
type Field struct {
	Name   string
	Offset int
	Type   ScalarType
}

// DefaultColumn is a wanted column the schema does not carry. Decoding fills
// it with Value for every record.
type DefaultColumn struct {
	Name  string
	Value float64
}

// ResolveOptions selects and constrains the fields of a layout.
type ResolveOptions struct {
	// Wanted limits the layout to these names. Nil keeps every named field.
	Wanted []string
	// Required names must be present in the schema. They are implicitly wanted.
	Required []string
	// Defaults gives the fill value for wanted names the schema lacks.
	// Missing entries default to 0.
	Defaults map[string]float64
}

// Layout is an immutable decode plan for records of a fixed stride.
type Layout struct {
	stride   int
	fields   []Field
	index    map[string]int
	defaults []DefaultColumn
}

// Resolve validates descriptors against stride and builds a Layout holding
// the subset selected by opts.
func Resolve(stride int, descriptors []FieldDescriptor, opts ResolveOptions) (*Layout, error) {
	if stride <= 0 {
		return nil, &LayoutError{Stride: stride, Reason: "record stride must be positive"}
	}

	present := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		present[d.Name] = true
	}
	for _, name := range opts.Required {
		if !present[name] {
			return nil, fmt.Errorf("%w: %q", ErrMissingRequiredField, name)
		}
	}

	var wanted map[string]bool
	if opts.Wanted != nil {
		wanted = make(map[string]bool, len(opts.Wanted)+len(opts.Required))
		for _, name := range opts.Wanted {
			wanted[name] = true
		}
		for _, name := range opts.Required {
			wanted[name] = true
		}
	}

	l := &Layout{stride: stride, index: make(map[string]int)}
	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		if err := checkDescriptor(d, stride); err != nil {
			return nil, err
		}
		if wanted != nil && !wanted[d.Name] {
			continue
		}
		if d.isPadding() {
			continue
		}
		if seen[d.Name] {
			return nil, &LayoutError{Field: d.Name, Offset: d.Offset, Extent: d.extent(), Stride: stride, Reason: "duplicate field name"}
		}
		seen[d.Name] = true
		l.addField(d)
	}

	names := opts.Wanted
	if names == nil {
		return l, nil
	}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		l.defaults = append(l.defaults, DefaultColumn{Name: name, Value: opts.Defaults[name]})
	}
	return l, nil
}

func checkDescriptor(d FieldDescriptor, stride int) error {
	le := &LayoutError{Field: d.Name, Offset: d.Offset, Extent: d.extent(), Stride: stride}
	switch {
	case !d.Type.Valid():
		le.Reason = fmt.Sprintf("unknown scalar type %d", uint8(d.Type))
	case d.Offset < 0:
		le.Reason = "negative offset"
	case d.Count < 0:
		le.Reason = "negative count"
	case d.Offset+d.extent() > stride:
		le.Reason = "field exceeds record stride"
	default:
		return nil
	}
	return le
}

func (l *Layout) addField(d FieldDescriptor) {
	if d.Count <= 1 {
		l.index[d.Name] = len(l.fields)
		l.fields = append(l.fields, Field{Name: d.Name, Offset: d.Offset, Type: d.Type})
		return
	}
	w := d.Type.Width()
	for i := 0; i < d.Count; i++ {
		name := d.Name + "[" + strconv.Itoa(i) + "]"
		l.index[name] = len(l.fields)
		l.fields = append(l.fields, Field{Name: name, Offset: d.Offset + i*w, Type: d.Type})
	}
}

// Stride returns the byte length of one record.
func (l *Layout) Stride() int { return l.stride }

// Fields returns the decoded fields in schema order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Defaults returns the columns filled with a constant value.
func (l *Layout) Defaults() []DefaultColumn {
	out := make([]DefaultColumn, len(l.defaults))
	copy(out, l.defaults)
	return out
}

// Field looks up a decoded field by name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// HasField reports whether name is decoded from the record bytes.
func (l *Layout) HasField(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Columns returns every output column name: decoded fields first, then
// defaulted columns.
func (l *Layout) Columns() []string {
	out := make([]string, 0, len(l.fields)+len(l.defaults))
	for _, f := range l.fields {
		out = append(out, f.Name)
	}
	for _, d := range l.defaults {
		out = append(out, d.Name)
	}
	return out
}
