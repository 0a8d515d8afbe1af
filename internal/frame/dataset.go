// Package frame holds the in-memory tabular model shared by the loader,
// reconciler, normalizer, row filter and writer.
//
// A Dataset is an ordered list of named columns. Duplicate names are allowed
// until reconciliation collapses them; lookups always resolve to the leftmost
// column with a given name.
package frame

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound is returned when a named column is absent.
var ErrColumnNotFound = errors.New("column not found")

// Type is the physical type of a column.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeBytes
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBytes:
		return "bytes"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Kind is the semantic kind of a column. It decides how the normalizer
// treats the column and is assigned once during reconciliation.
type Kind int

const (
	KindRaw Kind = iota
	KindPercent
	KindNumeric
	KindCode
	KindForcedString
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindPercent:
		return "percent"
	case KindNumeric:
		return "numeric"
	case KindCode:
		return "code"
	case KindForcedString:
		return "forced-string"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Column is a named sequence of cells.
type Column struct {
	Name string
	// Header is the name the column had when it was loaded.
	Header string
	Type   Type
	Kind   Kind
	// Normalized is set once the column's cells have been coerced by its Kind.
	Normalized bool
	Values     []Value
}

// NewColumn builds a column whose loaded header equals its name.
func NewColumn(name string, typ Type, values ...Value) *Column {
	return &Column{Name: name, Header: name, Type: typ, Values: values}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	out := *c
	out.Values = make([]Value, len(c.Values))
	copy(out.Values, c.Values)
	return &out
}

// Dataset is an ordered set of columns of equal length.
type Dataset struct {
	Name    string
	Columns []*Column
}

// New builds a dataset and checks that every column has the same length.
func New(name string, cols ...*Column) (*Dataset, error) {
	ds := &Dataset{Name: name, Columns: cols}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks that all columns share one length.
func (d *Dataset) Validate() error {
	if len(d.Columns) == 0 {
		return nil
	}
	want := d.Columns[0].Len()
	for _, c := range d.Columns[1:] {
		if c.Len() != want {
			return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), want)
		}
	}
	return nil
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// NumColumns returns the column count.
func (d *Dataset) NumColumns() int { return len(d.Columns) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the leftmost column called name, or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the leftmost column called name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i := d.Index(name)
	if i < 0 {
		return nil, false
	}
	return d.Columns[i], true
}

// MustColumn is like Column but returns ErrColumnNotFound when absent.
func (d *Dataset) MustColumn(name string) (*Column, error) {
	c, ok := d.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return c, nil
}

// Rename renames every column called from. It reports how many were renamed.
func (d *Dataset) Rename(from, to string) int {
	n := 0
	for _, c := range d.Columns {
		if c.Name == from {
			c.Name = to
			n++
		}
	}
	return n
}

// Drop removes every column with one of the given names.
// All names must exist.
func (d *Dataset) Drop(names ...string) error {
	remove := make(map[string]bool, len(names))
	for _, n := range names {
		if d.Index(n) < 0 {
			return fmt.Errorf("drop: %w: %q", ErrColumnNotFound, n)
		}
		remove[n] = true
	}
	kept := d.Columns[:0]
	for _, c := range d.Columns {
		if !remove[c.Name] {
			kept = append(kept, c)
		}
	}
	d.Columns = kept
	return nil
}

// DropDuplicateColumns keeps the leftmost column for every name and removes
// the rest. It returns the removed names in the order they were found.
func (d *Dataset) DropDuplicateColumns() []string {
	seen := make(map[string]bool, len(d.Columns))
	var removed []string
	kept := d.Columns[:0]
	for _, c := range d.Columns {
		if seen[c.Name] {
			removed = append(removed, c.Name)
			continue
		}
		seen[c.Name] = true
		kept = append(kept, c)
	}
	d.Columns = kept
	return removed
}

// Filter returns a new dataset holding the rows for which keep returns true.
// The receiver is not modified and the result shares no cell storage with it.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	var rows []int
	for r := 0; r < d.NumRows(); r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return d.Take(rows)
}

// Take returns a new dataset with the given rows in the given order.
func (d *Dataset) Take(rows []int) *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		nc := *c
		nc.Values = make([]Value, len(rows))
		for j, r := range rows {
			nc.Values[j] = c.Values[r]
		}
		out.Columns[i] = &nc
	}
	return out
}

// Clone returns a deep copy of the column structure.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}
