// Package core runs the import routines that turn school finance and
// attainment extracts into Parquet files.
//
// This package holds the orchestration logic independent of the CLI. It can
// be driven by cmd/tessa or by tests without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Table Definitions: registered via the registry, each table names its
//     source file, load options, reconciliation plan, row filter and casts.
//   - Service: the entry point that runs one routine ([Service.Import]) or a
//     whole run ([Service.ImportAll]).
//   - Error mapping: structural failures carry the table and stage in an
//     [ImportError] and map to coded user messages with [MapError].
//
// # Table Registry
//
// Tables are registered at init time using [Register]:
//
//	core.Register(core.TableDefinition{
//	    Info:   core.TableInfo{Key: "schools_finance", Group: "finance", Order: 50,
//	                           Input: "School_total_spend_2022-23_Full_Data_Workbook.xlsx"},
//	    Load:   source.Options{Sheet: 3},
//	    Plan:   reconcile.Plan{Splits: []reconcile.SplitRule{reconcile.CodePrefix}},
//	})
//
// # Pipeline
//
// Every routine runs the same stages in order:
//
//  1. load the source file with its schema and encoding
//  2. reconcile headers, drop and deduplicate columns, classify columns
//  3. drop roll-up rows (attainment extracts)
//  4. strict and soft casts of identifier columns
//  5. normalize percent and numeric columns; bad cells become null
//  6. profile the result and write it atomically to <output dir>/<key>.parquet
//
// A failure in any stage aborts that routine without touching its output.
// [Service.ImportAll] keeps going with the other routines and returns all
// failures joined.
package core
