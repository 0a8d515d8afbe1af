package normalize

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/tessa/internal/frame"
)

// ErrCast is returned when a strict cast meets a value it cannot convert.
var ErrCast = errors.New("invalid value for strict cast")

// CastInt converts each named column to an integer column. Unlike the
// lenient coercions every cell must hold an integer; the first offending
// cell aborts the cast and leaves the column unchanged.
func CastInt(ds *frame.Dataset, names ...string) error {
	for _, n := range names {
		col, err := ds.MustColumn(n)
		if err != nil {
			return fmt.Errorf("cast int: %w", err)
		}
		out := make([]frame.Value, len(col.Values))
		for row, v := range col.Values {
			i, ok := ParseNumeric(v).Int64()
			if !ok {
				return fmt.Errorf("cast int: column %q row %d (%q): %w", n, row, v.Text(), ErrCast)
			}
			out[row] = frame.Int(i)
		}
		col.Values = out
		col.Type = frame.TypeInt
		col.Kind = frame.KindCode
	}
	return nil
}
