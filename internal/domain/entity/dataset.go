package entity

// Cell is one decoded value of a record.
type Cell struct {
	Text   string `json:"text,omitempty"`
	Num    Value  `json:"num"`
	IsText bool   `json:"is_text"`
}

// Present reports whether the cell carries a value.
func (c Cell) Present() bool {
	if c.IsText {
		return c.Text != ""
	}
	return c.Num.Valid
}

// Record is one decoded row, cells in layout order.
type Record []Cell

// SourceStatus tells how the raw file of a period was found.
type SourceStatus string

const (
	SourceOK         SourceStatus = "ok"
	SourceMissing    SourceStatus = "missing"
	SourceUnreadable SourceStatus = "unreadable"
)

// Dataset holds the decoded records of one period.
type Dataset struct {
	Layout       Layout
	Records      []Record
	WeightFields []string
	RegionField  string
	Source       string
	Status       SourceStatus
	// Decoded is the number of records read before the region filter.
	Decoded int
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Empty reports whether the dataset has no records.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Num returns the numeric value of the named field for record i. Fields
// absent from the layout or stored as text yield a missing Value.
func (d *Dataset) Num(i int, name string) Value {
	idx, ok := d.Layout.Index(name)
	if !ok {
		return Value{}
	}
	c := d.Records[i][idx]
	if c.IsText {
		return Value{}
	}
	return c.Num
}

// Cell returns the named cell of record i.
func (d *Dataset) Cell(i int, name string) (Cell, bool) {
	idx, ok := d.Layout.Index(name)
	if !ok {
		return Cell{}, false
	}
	return d.Records[i][idx], true
}
