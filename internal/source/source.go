// Package source loads spreadsheet and delimited-text extracts into
// frame datasets.
//
// XLSX workbooks are read with excelize using raw cell values, so numbers
// arrive unformatted. CSV files are decoded from their declared character
// encoding to UTF-8 before parsing. Both paths share the same header
// handling and schema typing.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrFormat is returned for a file extension the loader cannot read.
	ErrFormat = errors.New("unsupported file format")

	// ErrSheet is returned when the requested worksheet does not exist.
	ErrSheet = errors.New("worksheet not found")

	// ErrEmpty is returned when a file has no header row.
	ErrEmpty = errors.New("file has no header row")
)

// Options controls how a file is loaded.
type Options struct {
	// Sheet is the zero-based worksheet index for workbooks.
	Sheet int
	// Schema declares column types applied at load time.
	Schema Schema
	// Encoding names the character encoding of delimited text. Empty means UTF-8.
	Encoding string
	// Text keeps undeclared columns whose header it matches as strings
	// instead of inferring a numeric type.
	Text func(header string) bool
}

// Load reads the file at path into a dataset named after the file.
func Load(ctx context.Context, path string, opts Options) (*frame.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var (
		header  []string
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		header, records, err = readWorkbook(path, opts.Sheet)
	case ".csv", ".txt":
		header, records, err = readDelimited(path, opts.Encoding)
	default:
		err = fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := build(name, header, records, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

func readDelimited(path, encName string) ([]string, [][]string, error) {
	enc, err := LookupEncoding(encName)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return ReadCSV(decode(f, enc))
}

// ReadCSV parses UTF-8 delimited text into a header and records. Records may
// be shorter than the header; missing trailing cells read as absent.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmpty
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return header, records, nil
}

func readWorkbook(path string, sheet int) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet < 0 || sheet >= len(sheets) {
		return nil, nil, fmt.Errorf("%w: index %d of %d", ErrSheet, sheet, len(sheets))
	}

	rows, err := f.GetRows(sheets[sheet], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[sheet], err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmpty
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		records = append(records, row)
	}
	return rows[0], records, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
