package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/JonMunkholm/tessa/internal/reconcile"
	"github.com/JonMunkholm/tessa/internal/source"
	"github.com/google/uuid"
)

var (
	// ErrUnknownTable is returned for a table key that is not registered.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownGroup is returned for a group no table belongs to.
	ErrUnknownGroup = errors.New("unknown table group")
)

// Stage names the pipeline step an import failed in.
type Stage string

const (
	StageLoad      Stage = "load"
	StageReconcile Stage = "reconcile"
	StageFilter    Stage = "filter"
	StageCast      Stage = "cast"
	StageNormalize Stage = "normalize"
	StageWrite     Stage = "write"
)

// TableInfo contains display information about a table.
type TableInfo struct {
	Key    string // Unique identifier: "schools_finance"
	Group  string // Data source: "attainment", "finance"
	Label  string // Display name: "Schools finance"
	Order  int    // Position in a full run
	Input  string // Source path relative to the data directory
	Output string // Output file name in the output directory
}

// RowFilter drops rows that must not reach the output.
type RowFilter func(ds *frame.Dataset) (*frame.Dataset, error)

// TableDefinition contains everything needed to import a table.
type TableDefinition struct {
	Info TableInfo

	// Load configures the reader for the source file.
	Load source.Options

	// Plan reconciles headers and classifies columns after loading.
	Plan reconcile.Plan

	// Filter is applied after reconciliation when set.
	Filter RowFilter

	// IntCasts are cast strictly to integers after filtering.
	IntCasts []string

	// NumericCasts are coerced to numbers after filtering; bad cells become null.
	NumericCasts []string
}

// ImportError is a structural failure of one import routine.
type ImportError struct {
	Table string
	Stage Stage
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %s: %v", e.Table, e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ImportResult describes one finished import routine.
type ImportResult struct {
	RunID    uuid.UUID
	Key      string
	Input    string
	Output   string
	RowsIn   int
	RowsOut  int
	Columns  int
	Nulls    int
	Duration time.Duration
	Err      error
}

// Succeeded reports whether the routine wrote its output.
func (r ImportResult) Succeeded() bool { return r.Err == nil }
