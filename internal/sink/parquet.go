// Package sink writes cleaned datasets to Parquet files.
//
// Files are written to a temporary name in the destination directory and
// renamed into place once complete, so a failed write never leaves a partial
// file behind and a rerun replaces the previous output.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ErrValue is returned when a cell cannot be stored in its column's type.
var ErrValue = errors.New("value does not fit column type")

// Writer serializes datasets as Parquet.
type Writer struct {
	alloc       memory.Allocator
	compression compress.Compression
}

// Option configures a Writer.
type Option func(*Writer)

// WithAllocator sets the arrow allocator, mainly for leak checks in tests.
func WithAllocator(a memory.Allocator) Option {
	return func(w *Writer) { w.alloc = a }
}

// WithCompression sets the Parquet page compression codec.
func WithCompression(c compress.Compression) Option {
	return func(w *Writer) { w.compression = c }
}

// NewWriter returns a Parquet writer using snappy compression.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		alloc:       memory.DefaultAllocator,
		compression: compress.Codecs.Snappy,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Schema returns the arrow schema used for ds.
func Schema(ds *frame.Dataset) *arrow.Schema {
	fields := make([]arrow.Field, len(ds.Columns))
	for i, c := range ds.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t frame.Type) arrow.DataType {
	switch t {
	case frame.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case frame.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case frame.TypeBytes:
		return arrow.BinaryTypes.Binary
	}
	return arrow.BinaryTypes.String
}

// Write stores ds at path, replacing any existing file.
func (w *Writer) Write(ctx context.Context, ds *frame.Dataset, path string) (err error) {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	rec, err := w.record(ds)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer rec.Release()

	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	props := parquet.NewWriterProperties(parquet.WithCompression(w.compression))
	fw, err := pqarrow.NewFileWriter(rec.Schema(), tmp, props, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(w.alloc)))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	// The parquet writer closes its sink; a second close is harmless.
	if err := tmp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (w *Writer) record(ds *frame.Dataset) (arrow.Record, error) {
	b := array.NewRecordBuilder(w.alloc, Schema(ds))
	defer b.Release()

	for i, c := range ds.Columns {
		if err := appendColumn(b.Field(i), c); err != nil {
			return nil, err
		}
	}
	return b.NewRecord(), nil
}

func appendColumn(fb array.Builder, c *frame.Column) error {
	fb.Reserve(len(c.Values))
	for row, v := range c.Values {
		if v.IsNull() {
			fb.AppendNull()
			continue
		}
		switch b := fb.(type) {
		case *array.Int64Builder:
			i, ok := v.Int64()
			if !ok {
				return fmt.Errorf("column %q row %d (%q): %w", c.Name, row, v.Text(), ErrValue)
			}
			b.Append(i)
		case *array.Float64Builder:
			f, ok := v.Float64()
			if !ok {
				return fmt.Errorf("column %q row %d (%q): %w", c.Name, row, v.Text(), ErrValue)
			}
			b.Append(f)
		case *array.BinaryBuilder:
			if raw, ok := v.BytesValue(); ok {
				b.Append(raw)
			} else {
				b.Append([]byte(v.Text()))
			}
		case *array.StringBuilder:
			b.Append(v.Text())
		default:
			return fmt.Errorf("column %q: unsupported builder %T", c.Name, fb)
		}
	}
	return nil
}
