package core

import "errors"

// Batch-level rejections. These stop an import before any row is read.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotAuthorized    = errors.New("admin only")
	ErrNoRows           = errors.New("no rows provided")
	ErrTooManyImports   = errors.New("too many concurrent imports, please try again later")
	ErrUnsupportedFile  = errors.New("unsupported import file type")
	ErrReportNotFound   = errors.New("import report not found")
)

// ErrRetailerNotFound is returned to a retailer account with no retailer row.
var ErrRetailerNotFound = errors.New("Retailer not found")

// Portal lookup errors.
var (
	ErrLookupIdentifierRequired = errors.New("Provide Aadhaar or mobile number to login")
	ErrInvalidAadhaar           = errors.New("Aadhaar must be exactly 12 digits")
	ErrInvalidMobile            = errors.New("Mobile must be exactly 10 digits")
	ErrCustomerNotFound         = errors.New("No matching customer found. Check your Aadhaar or Mobile number.")
	ErrAmbiguousMobile          = errors.New("Multiple accounts found with this mobile. Please login with your Aadhaar number instead.")
)

// ErrUnknownCustomer is returned for customer ids that do not exist or that
// the caller may not see.
var ErrUnknownCustomer = errors.New("customer not found")
