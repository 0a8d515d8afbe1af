// Package rollup removes aggregate rows (local authority and national
// totals) that attainment extracts mix in with per-school rows.
package rollup

import (
	"fmt"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/JonMunkholm/tessa/internal/normalize"
)

// RecTypeColumn holds the record type code in KS2 extracts.
const RecTypeColumn = "RECTYPE"

// Record type codes.
const (
	RecTypeMainstream          int64 = 1
	RecTypeSpecial             int64 = 2
	RecTypeLA                  int64 = 3
	RecTypeNational            int64 = 4
	RecTypeNationalStateFunded int64 = 5
)

// RollupCodes are the record types that describe aggregates.
var RollupCodes = []int64{RecTypeLA, RecTypeNational, RecTypeNationalStateFunded}

// Filter returns a new dataset without the rows whose code column holds one
// of codes. Row order is kept and ds is not modified. Cells that are null or
// not numeric never match a code and are kept.
func Filter(ds *frame.Dataset, column string, codes ...int64) (*frame.Dataset, error) {
	col, err := ds.MustColumn(column)
	if err != nil {
		return nil, fmt.Errorf("filter rows: %w", err)
	}

	drop := make(map[int64]bool, len(codes))
	for _, c := range codes {
		drop[c] = true
	}

	return ds.Filter(func(row int) bool {
		code, ok := normalize.ParseNumeric(col.Values[row]).Int64()
		return !ok || !drop[code]
	}), nil
}

// FilterRollups drops local authority and national rows using RECTYPE.
func FilterRollups(ds *frame.Dataset) (*frame.Dataset, error) {
	return Filter(ds, RecTypeColumn, RollupCodes...)
}
