// Package tables registers all import routines with the core registry.
// Import this package for its side effects to make the tables available:
//
//	import _ "github.com/JonMunkholm/tessa/internal/core/tables"
package tables

// This file exists to provide a single import point.
// Each group file uses init() to register its tables in run order.
