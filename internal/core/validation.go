package core

// validation.go checks a single import row before any store access.
//
// Rules run in a fixed order and stop at the first failure, so a row with
// both a bad mobile and a bad IMEI always reports the mobile. The reason
// strings are read by operators and by downstream tooling that matches them
// literally; do not reword them.

import (
	"fmt"
	"strings"
)

// Row failure and skip reasons.
const (
	ReasonCustomerNameRequired  = "customer_name is required"
	ReasonMobileInvalid         = "mobile must be 10 digits"
	ReasonIMEIInvalid           = "imei must be 15 digits"
	ReasonPurchaseValueRequired = "purchase_value is required"
	ReasonPurchaseDateRequired  = "purchase_date is required"
	ReasonEMIAmountRequired     = "emi_amount is required"
	ReasonEMITenureRequired     = "emi_tenure is required"
	ReasonEMIDueDayRequired     = "emi_due_day is required"
	ReasonDuplicateIMEI         = "IMEI already exists — skipped"
)

const (
	mobileDigits  = 10
	imeiDigits    = 15
	aadhaarDigits = 12
)

// RetailerNotFoundReason echoes both supplied retailer values verbatim.
func RetailerNotFoundReason(row ImportRow) string {
	return fmt.Sprintf("retailer not found (username: %s, id: %s)",
		row.RetailerUsername.echo(), row.RetailerID.echo())
}

// ValidateRow applies the row rules in order. On success it returns the
// resolved retailer id and an empty reason.
func ValidateRow(row ImportRow, roster []RetailerRef) (retailerID, reason string) {
	switch {
	case row.CustomerName.Trimmed() == "":
		return "", ReasonCustomerNameRequired
	case len(row.Mobile.Digits()) != mobileDigits:
		return "", ReasonMobileInvalid
	case len(row.IMEI.Digits()) != imeiDigits:
		return "", ReasonIMEIInvalid
	case !isNumeric(row.PurchaseValue):
		return "", ReasonPurchaseValueRequired
	case row.PurchaseDate.Trimmed() == "":
		return "", ReasonPurchaseDateRequired
	case !isNumeric(row.EMIAmount):
		return "", ReasonEMIAmountRequired
	case !isNumeric(row.EMITenure):
		return "", ReasonEMITenureRequired
	case !isNumeric(row.EMIDueDay):
		return "", ReasonEMIDueDayRequired
	}

	id, ok := ResolveRetailer(row, roster)
	if !ok {
		return "", RetailerNotFoundReason(row)
	}
	return id, ""
}

// ResolveRetailer prefers a direct retailer_id over a username lookup.
// A username resolves only when exactly one roster entry carries it.
func ResolveRetailer(row ImportRow, roster []RetailerRef) (string, bool) {
	if id := row.RetailerID.Trimmed(); id != "" {
		return id, true
	}
	if !row.RetailerUsername.Valid || row.RetailerUsername.Value == "" {
		return "", false
	}

	var match string
	found := 0
	for _, r := range roster {
		if r.Username == row.RetailerUsername.Value {
			match = r.ID
			found++
		}
	}
	if found != 1 || strings.TrimSpace(match) == "" {
		return "", false
	}
	return match, true
}

func isNumeric(c Cell) bool {
	_, ok := ParseNumber(c.Value)
	return ok
}
