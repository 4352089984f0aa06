package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"not authenticated", ErrNotAuthenticated, "AUTH001"},
		{"wrapped not authorized", fmt.Errorf("import: %w", ErrNotAuthorized), "AUTH002"},
		{"retailer not found", fmt.Errorf("export: %w", ErrRetailerNotFound), "AUTH003"},
		{"no rows", ErrNoRows, "IMP001"},
		{"too many rows wins over no rows", fmt.Errorf("too many rows (9000, limit 5000): %w", ErrNoRows), "IMP002"},
		{"busy limiter", ErrTooManyImports, "IMP003"},
		{"report missing", ErrReportNotFound, "IMP004"},
		{"unsupported file", fmt.Errorf("%w: %q", ErrUnsupportedFile, ".pdf"), "FILE002"},
		{"bad csv", errors.New("invalid csv: record on line 3: wrong number of fields"), "FILE003"},
		{"body too large", errors.New("http: request body too large"), "FILE001"},
		{"lookup identifier", ErrLookupIdentifierRequired, "LKP001"},
		{"ambiguous mobile", ErrAmbiguousMobile, "LKP005"},
		{"unknown customer", ErrUnknownCustomer, "LKP006"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB001"},
		{"deadline", fmt.Errorf("find customers: %w", errors.New("context deadline exceeded")), "DB003"},
		{"case insensitive", errors.New("RATE LIMIT exceeded"), "RATE001"},
		{"unknown error returns default", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_LookupMessagesAreVerbatim(t *testing.T) {
	got := MapError(ErrAmbiguousMobile)
	want := "Multiple accounts found with this mobile. Please login with your Aadhaar number instead."
	if got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyImports)
	want := "System is busy processing other imports (Code: IMP003). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(ErrNoRows) {
		t.Error("ErrNoRows should be user facing")
	}
	if IsUserFacing(errors.New("random internal error xyz")) {
		t.Error("unknown error should not be user facing")
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	tech := fmt.Errorf("ping: %w", errors.New("connection reset by peer"))
	ue := NewUserError(tech)
	if ue.Error() != "Database connection was interrupted" {
		t.Errorf("Error() = %q", ue.Error())
	}
	if !errors.Is(ue, tech) {
		t.Error("Unwrap() should return the technical error")
	}
}
