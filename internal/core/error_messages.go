package core

// error_messages.go maps technical errors to short user-facing messages
// with a code support staff can look up.
//
//	INV001 - Duplicate order_id: the orders table repeats a primary key
//	VAL002 - Invalid cell: a value does not fit its column type
//	VAL004 - Missing column: a required column is absent
//	VAL007 - Unknown column: the header has a column the table does not define
//	FILE001 - File too large
//	FILE002 - Invalid CSV: malformed quoting or ragged rows
//	FILE004 - No file: one of the three files was not provided
//	FILE005 - Empty file: no header row
//	ERR000 - Anything else; check the logs for the original error
//
// Sentinel errors are matched first with errors.Is; the remaining codes
// fall back to case-insensitive substring patterns.

import (
	"errors"
	"strings"
)

// ErrNoFile is returned when an expected input file is absent.
var ErrNoFile = errors.New("no file provided")

// ErrFileTooLarge is returned when an input exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrDuplicateKey, UserMessage{
		Message: "order_id is not unique in the orders file",
		Action:  "Remove the repeated orders and validate again",
		Code:    "INV001",
	}},
	{ErrInvalidCell, UserMessage{
		Message: "A value does not match its column type",
		Action:  "Check the reported line and column",
		Code:    "VAL002",
	}},
	{ErrMissingColumn, UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Check that all required columns are present in your file",
		Code:    "VAL004",
	}},
	{ErrUnknownColumn, UserMessage{
		Message: "The file has a column this table does not define",
		Action:  "Remove the extra column or check you uploaded the right file",
		Code:    "VAL007",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Run the sanitizer from the command line for large files",
		Code:    "FILE001",
	}},
	{ErrNoFile, UserMessage{
		Message: "A required file was not provided",
		Action:  "Upload orders, order_products and products together",
		Code:    "FILE004",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The file is empty",
		Action:  "Upload a CSV file with a header row",
		Code:    "FILE005",
	}},
}

var patternMessages = []struct {
	pattern string
	msg     UserMessage
}{
	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure file is comma-separated with consistent columns",
		Code:    "FILE002",
	}},
	{"multipart", UserMessage{
		Message: "The upload could not be read",
		Action:  "Send the files as multipart/form-data",
		Code:    "FILE002",
	}},
}

var unknownMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to a UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return unknownMessage
	}
	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}
	lower := strings.ToLower(err.Error())
	for _, p := range patternMessages {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}
	return unknownMessage
}
