// Package normalize coerces loosely formatted spreadsheet columns into
// numeric columns.
//
// Coercion is lenient: a cell that cannot be parsed (blank, a suppression
// code such as "SUPP", "NE" or "DNS", stray text) becomes the null marker and
// is counted, never reported as an error. Only structural problems such as a
// missing column produce errors.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/shopspring/decimal"
)

// PercentPrefix marks a percent column when it starts the column name.
const PercentPrefix = "P"

// numericRegex validates that a string is a plain number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

var hundred = decimal.NewFromInt(100)

// Stats counts what happened to the cells of one column.
type Stats struct {
	Parsed     int // cells that hold a number afterwards
	Empty      int // cells that were already null or blank
	Unparsable int // cells that held text which did not parse
	Skipped    bool
}

// Nulls returns the number of null cells the column holds afterwards.
func (s Stats) Nulls() int { return s.Empty + s.Unparsable }

// ClassifyByPrefix picks the coercion policy from a column name: names that
// begin with "P" are percentages, everything else is plain numeric.
// The match is case-sensitive.
func ClassifyByPrefix(name string) frame.Kind {
	if strings.HasPrefix(name, PercentPrefix) {
		return frame.KindPercent
	}
	return frame.KindNumeric
}

// Numeric always picks the plain-numeric policy.
func Numeric(string) frame.Kind { return frame.KindNumeric }

// ParsePercent converts a percent cell to a fraction. "12.5%" becomes 0.125.
// The cell is always read through its text form, so a loaded 25 and a
// loaded "25" both become 0.25.
func ParsePercent(v frame.Value) frame.Value {
	if v.IsNull() {
		return v
	}
	s := strings.TrimSpace(v.Text())
	s = strings.TrimSpace(strings.TrimRight(s, "%"))
	if !numericRegex.MatchString(s) {
		return frame.Null()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return frame.Null()
	}
	f, _ := d.Div(hundred).Float64()
	return frame.Float(f)
}

// ParseNumeric converts a cell to an int or float cell.
func ParseNumeric(v frame.Value) frame.Value {
	if v.IsNull() || v.IsNumeric() {
		return v
	}
	s := strings.TrimSpace(v.Text())
	if !numericRegex.MatchString(s) {
		return frame.Null()
	}
	if integerRegex.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return frame.Int(i)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return frame.Null()
	}
	return frame.Float(f)
}

// Column normalizes the named column in place using its Kind. A column that
// has not been classified yet is classified by its name first.
// Forced-string and code columns are left untouched, and so is a column
// that was normalized before.
func Column(ds *frame.Dataset, name string) (Stats, error) {
	col, err := ds.MustColumn(name)
	if err != nil {
		return Stats{}, err
	}
	if col.Normalized {
		n := col.NullCount()
		return Stats{Parsed: col.Len() - n, Empty: n, Skipped: true}, nil
	}
	if col.Kind == frame.KindRaw {
		col.Kind = ClassifyByPrefix(col.Name)
	}
	switch col.Kind {
	case frame.KindPercent:
		return apply(col, ParsePercent), nil
	case frame.KindNumeric:
		return apply(col, ParseNumeric), nil
	}
	return Stats{Skipped: true}, nil
}

// Coerce assigns kind to each named column and normalizes it.
func Coerce(ds *frame.Dataset, kind frame.Kind, names ...string) (map[string]Stats, error) {
	out := make(map[string]Stats, len(names))
	for _, n := range names {
		col, err := ds.MustColumn(n)
		if err != nil {
			return out, err
		}
		col.Kind = kind
		st, err := Column(ds, n)
		if err != nil {
			return out, err
		}
		out[n] = st
	}
	return out, nil
}

// Dataset normalizes every percent and numeric column.
func Dataset(ds *frame.Dataset) (map[string]Stats, error) {
	out := make(map[string]Stats)
	for _, c := range ds.Columns {
		if c.Kind != frame.KindPercent && c.Kind != frame.KindNumeric {
			continue
		}
		st, err := Column(ds, c.Name)
		if err != nil {
			return out, err
		}
		out[c.Name] = st
	}
	return out, nil
}

func apply(col *frame.Column, parse func(frame.Value) frame.Value) Stats {
	var st Stats
	col.Normalized = true
	allInt := col.Kind != frame.KindPercent
	for i, v := range col.Values {
		if v.IsNull() || strings.TrimSpace(v.Text()) == "" {
			col.Values[i] = frame.Null()
			st.Empty++
			continue
		}
		nv := parse(v)
		if nv.IsNull() {
			st.Unparsable++
		} else {
			st.Parsed++
			if !nv.IsInt() {
				allInt = false
			}
		}
		col.Values[i] = nv
	}

	if allInt {
		col.Type = frame.TypeInt
		return st
	}
	col.Type = frame.TypeFloat
	for i, v := range col.Values {
		if f, ok := v.Float64(); ok {
			col.Values[i] = frame.Float(f)
		}
	}
	return st
}
