// Package core runs the import routines.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When an import fails, the CLI prints the mapped message and code
// next to the table key; the full technical error goes to the log.
//
// Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Missing file: Source file was not found
//	          Action: Check DATA_DIR and the table's source path
//	          Patterns: "no such file", "file does not exist"
//
//	FILE002 - Unsupported format: File type cannot be read
//	          Action: Provide an .xlsx or .csv file
//	          Patterns: "unsupported file format"
//
//	FILE003 - Missing worksheet: Workbook does not have the configured sheet
//	          Action: Check the sheet index in the sources file
//	          Patterns: "worksheet not found"
//
//	FILE004 - Unknown encoding: Character encoding is not supported
//	          Action: Use utf-8, latin-1, windows-1252 or another IANA name
//	          Patterns: "unsupported encoding"
//
//	FILE005 - Empty file: File has no header row
//	          Action: Check that the export completed
//	          Patterns: "no header row"
//
//	FILE006 - Unreadable file: File could not be parsed
//	          Action: Open the file to check it is not corrupt
//	          Patterns: "open workbook", "read header", "read record"
//
//	FILE007 - Permission denied: File could not be opened
//	          Action: Check file permissions
//	          Patterns: "permission denied"
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Missing schema column: A declared column is absent from the file
//	         Action: The source layout changed; update the table schema
//	         Patterns: "declared schema column missing"
//
//	SCH002 - Missing column: A column used by the import is absent
//	         Action: The source layout changed; update the column selection
//	         Patterns: "column not found"
//
//	SCH003 - Missing rename source: A column to rename is absent
//	         Action: The source layout changed; update the rename list
//	         Patterns: "rename target missing"
//
// # Value Errors (VAL001-VAL099)
//
//	VAL001 - Schema value: A cell does not match its declared type
//	         Action: Check the row named in the log
//	         Patterns: "does not match declared type"
//
//	VAL002 - Strict cast: An identifier column holds a blank or non-integer value
//	         Action: Check the row named in the log
//	         Patterns: "strict cast"
//
// # Output Errors (OUT001-OUT099)
//
//	OUT001 - Value does not fit: A value could not be written to its column type
//	         Action: Report the table and column to support
//	         Patterns: "does not fit column type"
//
//	OUT002 - No space: Output disk is full
//	         Action: Free disk space in OUTPUT_DIR
//	         Patterns: "no space left"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to the history database
//	DB002 - Authentication: History database rejected the credentials
//	DB003 - Timeout: Operation timed out
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Unknown table: Table key is not registered
//	RUN002 - Cancelled: The run was cancelled
//	RUN003 - Deadline: The run exceeded RUN_TIMEOUT
//	RUN004 - Unknown group: Table group is not registered
//
// # Unknown Errors (ERR000)
//
//	ERR000 - Fallback for unmatched errors; check the log for details.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage represents a user-friendly error message.
type UserMessage struct {
	Message string // User-friendly description of what went wrong
	Action  string // Suggested action for the user to take
	Code    string // Error code for support reference (e.g., "FILE001")
}

// errorPattern maps error substrings to user messages.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns lists known error patterns and their user-friendly messages.
// Patterns are matched case-insensitively. Order matters: the first match wins,
// so more specific patterns come before the general ones they contain.
var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "Source file was not found",
			Action:  "Check DATA_DIR and the table's source path",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "Source file was not found",
			Action:  "Check DATA_DIR and the table's source path",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File type cannot be read",
			Action:  "Provide an .xlsx or .csv file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "worksheet not found",
		msg: UserMessage{
			Message: "Workbook does not have the configured sheet",
			Action:  "Check the sheet index in the sources file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "unsupported encoding",
		msg: UserMessage{
			Message: "Character encoding is not supported",
			Action:  "Use utf-8, latin-1, windows-1252 or another IANA name",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no header row",
		msg: UserMessage{
			Message: "File has no header row",
			Action:  "Check that the export completed",
			Code:    "FILE005",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "File could not be opened",
			Action:  "Check file permissions",
			Code:    "FILE007",
		},
	},
	{
		pattern: "no space left",
		msg: UserMessage{
			Message: "Output disk is full",
			Action:  "Free disk space in OUTPUT_DIR",
			Code:    "OUT002",
		},
	},

	// Schema errors
	{
		pattern: "declared schema column missing",
		msg: UserMessage{
			Message: "A declared column is absent from the file",
			Action:  "The source layout changed; update the table schema",
			Code:    "SCH001",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "A column used by the import is absent",
			Action:  "The source layout changed; update the column selection",
			Code:    "SCH002",
		},
	},
	{
		pattern: "rename target missing",
		msg: UserMessage{
			Message: "A column to rename is absent",
			Action:  "The source layout changed; update the rename list",
			Code:    "SCH003",
		},
	},

	// Value errors
	{
		pattern: "does not match declared type",
		msg: UserMessage{
			Message: "A cell does not match its declared type",
			Action:  "Check the row named in the log",
			Code:    "VAL001",
		},
	},
	{
		pattern: "strict cast",
		msg: UserMessage{
			Message: "An identifier column holds a blank or non-integer value",
			Action:  "Check the row named in the log",
			Code:    "VAL002",
		},
	},
	{
		pattern: "does not fit column type",
		msg: UserMessage{
			Message: "A value could not be written to its column type",
			Action:  "Report the table and column to support",
			Code:    "OUT001",
		},
	},

	// Parse errors come after the more specific file errors above.
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "File could not be parsed",
			Action:  "Open the file to check it is not corrupt",
			Code:    "FILE006",
		},
	},
	{
		pattern: "read header",
		msg: UserMessage{
			Message: "File could not be parsed",
			Action:  "Open the file to check it is not corrupt",
			Code:    "FILE006",
		},
	},
	{
		pattern: "read record",
		msg: UserMessage{
			Message: "File could not be parsed",
			Action:  "Open the file to check it is not corrupt",
			Code:    "FILE006",
		},
	},

	// Database errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the history database",
			Action:  "Check DATABASE_URL or unset it to run without history",
			Code:    "DB001",
		},
	},
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "History database rejected the credentials",
			Action:  "Check the user and password in DATABASE_URL",
			Code:    "DB002",
		},
	},

	// Run errors
	{
		pattern: "unknown table group",
		msg: UserMessage{
			Message: "Table group is not registered",
			Action:  "Run `tessa tables` to see the GROUP column",
			Code:    "RUN004",
		},
	},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Table key is not registered",
			Action:  "Run `tessa tables` to list valid keys",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Run the import again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Raise RUN_TIMEOUT or import fewer tables at once",
			Code:    "RUN003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Check that the history database is reachable",
			Code:    "DB003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for the technical error",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action", prefixed with the table key
// when err is an *ImportError.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	s := fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)

	var ie *ImportError
	if errors.As(err, &ie) {
		s = ie.Table + ": " + s
	}
	return s
}

// IsUserFacing checks if an error matches a known pattern.
// Returns false for nil and for the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
