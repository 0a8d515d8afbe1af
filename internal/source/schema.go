package source

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/JonMunkholm/tessa/internal/normalize"
)

var (
	// ErrSchemaColumn is returned when a declared column is absent from the file.
	ErrSchemaColumn = errors.New("declared schema column missing from file")

	// ErrSchemaValue is returned when a cell does not fit its declared type.
	ErrSchemaValue = errors.New("value does not match declared type")
)

// Schema maps column names to the type they are loaded as. Columns that are
// not listed get an inferred type.
type Schema map[string]frame.Type

// Strings declares every name as a string column.
func Strings(names ...string) Schema {
	s := make(Schema, len(names))
	for _, n := range names {
		s[n] = frame.TypeString
	}
	return s
}

// With returns a copy of s with the given names set to typ.
func (s Schema) With(typ frame.Type, names ...string) Schema {
	out := make(Schema, len(s)+len(names))
	for k, v := range s {
		out[k] = v
	}
	for _, n := range names {
		out[n] = typ
	}
	return out
}

// missingValues are the cell texts read as absent, matching the defaults of
// common data frame readers.
var missingValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true,
	"None": true, "n/a": true, "nan": true, "null": true,
}

// IsMissing reports whether a raw cell reads as absent.
func IsMissing(cell string) bool { return missingValues[cell] }

// build turns a header and raw records into a dataset, applying the schema
// and text rule of opts.
func build(name string, header []string, records [][]string, opts Options) (*frame.Dataset, error) {
	header = nameColumns(header, records)
	schema := opts.Schema

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for col := range schema {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("%w: %s", ErrSchemaColumn, strings.Join(missing, ", "))
	}

	cols := make([]*frame.Column, len(header))
	for i, h := range header {
		raw := make([]string, len(records))
		for r, rec := range records {
			if i < len(rec) {
				raw[r] = rec[i]
			}
		}

		typ, declared := schema[h]
		if !declared && opts.Text != nil && opts.Text(h) {
			typ, declared = frame.TypeString, true
		}
		var (
			values []frame.Value
			err    error
		)
		if declared {
			values, err = typed(raw, typ)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", h, err)
			}
		} else {
			typ, values = inferred(raw)
		}
		cols[i] = frame.NewColumn(h, typ, values...)
	}

	return frame.New(name, cols...)
}

// nameColumns fills blank headers and extends the header when a record is
// wider than it, using the "Unnamed: N" convention.
func nameColumns(header []string, records [][]string) []string {
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	out := make([]string, width)
	for i := range out {
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			out[i] = header[i]
			continue
		}
		out[i] = "Unnamed: " + strconv.Itoa(i)
	}
	return out
}

func typed(raw []string, typ frame.Type) ([]frame.Value, error) {
	values := make([]frame.Value, len(raw))
	for r, cell := range raw {
		if IsMissing(cell) {
			if typ == frame.TypeInt {
				return nil, fmt.Errorf("row %d: integer column holds a missing value: %w", r+1, ErrSchemaValue)
			}
			continue
		}
		switch typ {
		case frame.TypeString:
			values[r] = frame.String(cell)
		case frame.TypeBytes:
			values[r] = frame.Bytes([]byte(cell))
		case frame.TypeInt:
			v := normalize.ParseNumeric(frame.String(cell))
			i, ok := v.Int64()
			if !ok {
				return nil, fmt.Errorf("row %d: %q is not an integer: %w", r+1, cell, ErrSchemaValue)
			}
			values[r] = frame.Int(i)
		case frame.TypeFloat:
			f, ok := normalize.ParseNumeric(frame.String(cell)).Float64()
			if !ok {
				return nil, fmt.Errorf("row %d: %q is not a number: %w", r+1, cell, ErrSchemaValue)
			}
			values[r] = frame.Float(f)
		}
	}
	return values, nil
}

// inferred picks int when every present cell is an integer, float when every
// present cell is a number, and string otherwise.
func inferred(raw []string) (frame.Type, []frame.Value) {
	parsed := make([]frame.Value, len(raw))
	allInt, allNum := true, true
	for r, cell := range raw {
		if IsMissing(cell) {
			continue
		}
		v := normalize.ParseNumeric(frame.String(cell))
		if v.IsNull() {
			allInt, allNum = false, false
			break
		}
		if !v.IsInt() {
			allInt = false
		}
		parsed[r] = v
	}

	switch {
	case allInt:
		return frame.TypeInt, parsed
	case allNum:
		for r, v := range parsed {
			if f, ok := v.Float64(); ok {
				parsed[r] = frame.Float(f)
			}
		}
		return frame.TypeFloat, parsed
	}

	values := make([]frame.Value, len(raw))
	for r, cell := range raw {
		if !IsMissing(cell) {
			values[r] = frame.String(cell)
		}
	}
	return frame.TypeString, values
}
