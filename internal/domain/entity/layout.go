package entity

import "fmt"

// FieldSpec is one column of a fixed-width record.
type FieldSpec struct {
	Name   string `json:"name"`
	Start  int    `json:"start"` // 1-based offset
	Width  int    `json:"width"`
	IsText bool   `json:"is_text"`
}

// End returns the 0-based exclusive end offset of the field.
func (f FieldSpec) End() int {
	return f.Start - 1 + f.Width
}

// Layout is the ordered list of fields of a fixed-width file.
type Layout struct {
	Fields []FieldSpec `json:"fields"`
	index  map[string]int
}

// NewLayout builds a Layout keeping the order of fields. When a name repeats,
// lookups resolve to its first occurrence.
func NewLayout(fields []FieldSpec) Layout {
	l := Layout{Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, ok := l.index[f.Name]; !ok {
			l.index[f.Name] = i
		}
	}
	return l
}

// Len returns the number of fields.
func (l Layout) Len() int {
	return len(l.Fields)
}

// Index returns the position of the named field.
func (l Layout) Index(name string) (int, bool) {
	if l.index == nil {
		for i, f := range l.Fields {
			if f.Name == name {
				return i, true
			}
		}
		return -1, false
	}
	i, ok := l.index[name]
	return i, ok
}

// Has reports whether the layout declares the named field.
func (l Layout) Has(name string) bool {
	_, ok := l.Index(name)
	return ok
}

// Names returns the field names in layout order.
func (l Layout) Names() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns an independent copy of the layout.
func (l Layout) Clone() Layout {
	fields := make([]FieldSpec, len(l.Fields))
	copy(fields, l.Fields)
	return NewLayout(fields)
}

// Overlap describes two fields sharing character positions.
type Overlap struct {
	First  FieldSpec
	Second FieldSpec
}

func (o Overlap) String() string {
	return fmt.Sprintf("%s [%d,%d) overlaps %s [%d,%d)",
		o.First.Name, o.First.Start-1, o.First.End(),
		o.Second.Name, o.Second.Start-1, o.Second.End())
}

// Overlaps returns every pair of fields whose ranges intersect, in layout order.
func (l Layout) Overlaps() []Overlap {
	var out []Overlap
	for i := 0; i < len(l.Fields); i++ {
		a := l.Fields[i]
		for j := i + 1; j < len(l.Fields); j++ {
			b := l.Fields[j]
			if a.Start-1 < b.End() && b.Start-1 < a.End() {
				out = append(out, Overlap{First: a, Second: b})
			}
		}
	}
	return out
}
