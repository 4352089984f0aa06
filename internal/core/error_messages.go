package core

// error_messages.go maps technical errors to messages an operator can act on.
//
// Codes, grouped by category:
//
//	AUTH001  Not signed in                     ErrNotAuthenticated, "token"
//	AUTH002  Admin only                        ErrNotAuthorized
//	AUTH003  Account has no retailer           ErrRetailerNotFound
//	IMP001   No rows provided                  ErrNoRows
//	IMP002   Too many rows in one import       "too many rows"
//	IMP003   System busy with other imports    ErrTooManyImports
//	IMP004   Import report expired or unknown  ErrReportNotFound
//	FILE001  File too large                    "file too large", "request body too large"
//	FILE002  Unsupported file type             ErrUnsupportedFile
//	FILE003  Unreadable CSV                    "invalid csv"
//	FILE004  Unreadable spreadsheet            "invalid xlsx"
//	FILE005  No file in the upload             "no file provided"
//	LKP001   Identifier missing                ErrLookupIdentifierRequired
//	LKP002   Bad Aadhaar                       ErrInvalidAadhaar
//	LKP003   Bad mobile                        ErrInvalidMobile
//	LKP004   No matching customer              ErrCustomerNotFound
//	LKP005   Mobile shared by several loans    ErrAmbiguousMobile
//	LKP006   Unknown customer id               ErrUnknownCustomer
//	DB001    Database unreachable              "connection refused"
//	DB002    Database connection dropped       "connection reset"
//	DB003    Database timeout                  "timeout", "context deadline exceeded"
//	RATE001  Rate limited                      "rate limit"
//	ERR000   Anything else
//
// Sentinels are matched with errors.Is first; message patterns are matched
// case-insensitively afterwards, first match wins. When a user quotes ERR000,
// the original error is in the server log next to the request id.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrNotAuthenticated, UserMessage{"Not authenticated", "Sign in and try again", "AUTH001"}},
	{ErrNotAuthorized, UserMessage{"Admin only", "Ask an administrator to run this for you", "AUTH002"}},
	{ErrRetailerNotFound, UserMessage{ErrRetailerNotFound.Error(), "Ask an administrator to link your account to a retailer", "AUTH003"}},
	{ErrTooManyImports, UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP003"}},
	{ErrReportNotFound, UserMessage{"Import report not found", "Reports expire after a while. Re-run the import if needed", "IMP004"}},
	{ErrUnsupportedFile, UserMessage{"Unsupported file type", "Upload a .csv or .xlsx file", "FILE002"}},
	{ErrLookupIdentifierRequired, UserMessage{ErrLookupIdentifierRequired.Error(), "Enter your Aadhaar or registered mobile number", "LKP001"}},
	{ErrInvalidAadhaar, UserMessage{ErrInvalidAadhaar.Error(), "Check the number on your Aadhaar card", "LKP002"}},
	{ErrInvalidMobile, UserMessage{ErrInvalidMobile.Error(), "Enter the 10 digit number without country code", "LKP003"}},
	{ErrCustomerNotFound, UserMessage{ErrCustomerNotFound.Error(), "Contact your retailer if the problem continues", "LKP004"}},
	{ErrAmbiguousMobile, UserMessage{ErrAmbiguousMobile.Error(), "Login with your Aadhaar number", "LKP005"}},
	{ErrUnknownCustomer, UserMessage{"Customer not found", "Check the customer id", "LKP006"}},
}

// ErrNoRows is matched here rather than by identity because the
// "too many rows" error wraps it and must win.
var errorPatterns = []errorPattern{
	{"too many rows", UserMessage{"Too many rows in one import", "Split the file into smaller batches", "IMP002"}},
	{"no rows provided", UserMessage{"No rows provided", "Add at least one customer row below the header", "IMP001"}},
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller batches", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller batches", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Save the sheet as comma-separated values and retry", "FILE003"}},
	{"invalid xlsx", UserMessage{"Spreadsheet could not be read", "Re-save the workbook as .xlsx and retry", "FILE004"}},
	{"no file provided", UserMessage{"No file was selected", "Choose a .csv or .xlsx file to upload", "FILE005"}},
	{"token", UserMessage{"Not authenticated", "Sign in and try again", "AUTH001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB001"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB002"}},
	{"context deadline exceeded", UserMessage{"Operation timed out", "Try a smaller batch or try again later", "DB003"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller batch or try again later", "DB003"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error returns the
// user text; Unwrap returns the technical error for logging and errors.Is.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err; it returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
