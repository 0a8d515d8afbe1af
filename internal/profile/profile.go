// Package profile summarizes the columns of a dataset after cleaning.
package profile

import (
	"log/slog"

	"github.com/JonMunkholm/tessa/internal/frame"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Column describes one column.
type Column struct {
	Name   string
	Type   frame.Type
	Kind   frame.Kind
	Count  int
	Nulls  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Numeric reports whether the summary statistics are populated.
func (c Column) Numeric() bool {
	return (c.Type == frame.TypeInt || c.Type == frame.TypeFloat) && c.Count > c.Nulls
}

// LogValue implements slog.LogValuer.
func (c Column) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", c.Type.String()),
		slog.String("kind", c.Kind.String()),
		slog.Int("nulls", c.Nulls),
	}
	if c.Numeric() {
		attrs = append(attrs,
			slog.Float64("mean", c.Mean),
			slog.Float64("min", c.Min),
			slog.Float64("max", c.Max),
		)
	}
	return slog.GroupValue(attrs...)
}

// Summary is the profile of a whole dataset.
type Summary struct {
	Rows    int
	Columns []Column
}

// Nulls returns the total null count across all columns.
func (s Summary) Nulls() int {
	n := 0
	for _, c := range s.Columns {
		n += c.Nulls
	}
	return n
}

// Dataset profiles every column of ds.
func Dataset(ds *frame.Dataset) Summary {
	s := Summary{Rows: ds.NumRows(), Columns: make([]Column, len(ds.Columns))}
	for i, c := range ds.Columns {
		s.Columns[i] = Of(c)
	}
	return s
}

// Of profiles a single column.
func Of(c *frame.Column) Column {
	p := Column{Name: c.Name, Type: c.Type, Kind: c.Kind, Count: c.Len()}

	xs := make([]float64, 0, c.Len())
	for _, v := range c.Values {
		if v.IsNull() {
			p.Nulls++
			continue
		}
		if f, ok := v.Float64(); ok {
			xs = append(xs, f)
		}
	}
	if len(xs) == 0 {
		return p
	}

	p.Mean, p.StdDev = stat.MeanStdDev(xs, nil)
	p.Min = floats.Min(xs)
	p.Max = floats.Max(xs)
	return p
}

// Log writes the summary at debug level, one line per column.
func (s Summary) Log(logger *slog.Logger) {
	logger.Debug("dataset profile", "rows", s.Rows, "columns", len(s.Columns), "nulls", s.Nulls())
	for _, c := range s.Columns {
		logger.Debug("column profile", "column", c.Name, "profile", c)
	}
}
