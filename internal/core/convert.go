package core

// convert.go turns untrusted import cells into store-ready values.
//
// Phone, Aadhaar and IMEI values are reduced to their digits so "98765-43210"
// and "98765 43210" compare equal. Numeric values parse as base-10 decimals
// after trimming; anything else is rejected rather than guessed at.

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DigitsOnly strips every character outside 0-9.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Bounds on parsed numbers. The widest column is numeric(12,2); anything
// past these limits cannot be stored and is costly to render as text.
const (
	maxIntegerDigits = 20
	maxFractionScale = 30
)

// ParseNumber parses a trimmed base-10 number. Empty input, exponents with
// no mantissa, thousands separators and words like "NaN" all fail, as do
// values with more than maxIntegerDigits integer digits or a scale past
// maxFractionScale ("1e200000000", "1e-200000000").
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	exp := int64(d.Exponent())
	if exp < -maxFractionScale || int64(d.NumDigits())+exp > maxIntegerDigits {
		return decimal.Zero, false
	}
	return d, true
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDigits converts a string to its digits as pgtype.Text.
// Returns invalid if no digits remain.
func ToPgDigits(s string) pgtype.Text {
	d := DigitsOnly(s)
	if d == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: d, Valid: true}
}

// optionalNumber parses an optional numeric cell. Empty cells take def
// (which may itself be NULL); unparseable cells become NULL.
func optionalNumber(c Cell, def decimal.NullDecimal) decimal.NullDecimal {
	if c.Trimmed() == "" {
		return def
	}
	d, ok := ParseNumber(c.Value)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// NormalizeRow projects a validated row onto a CustomerRecord. The caller
// must have run ValidateRow first; required numerics are assumed to parse.
func NormalizeRow(row ImportRow, retailerID string) CustomerRecord {
	zero := decimal.NewNullDecimal(decimal.Zero)
	purchaseValue, _ := ParseNumber(row.PurchaseValue.Value)
	emiDueDay, _ := ParseNumber(row.EMIDueDay.Value)
	emiAmount, _ := ParseNumber(row.EMIAmount.Value)
	emiTenure, _ := ParseNumber(row.EMITenure.Value)

	return CustomerRecord{
		RetailerID:           retailerID,
		CustomerName:         row.CustomerName.Trimmed(),
		FatherName:           ToPgText(row.FatherName.Value),
		Mobile:               row.Mobile.Digits(),
		Aadhaar:              ToPgDigits(row.Aadhaar.Value),
		VoterID:              ToPgText(row.VoterID.Value),
		Address:              ToPgText(row.Address.Value),
		Landmark:             ToPgText(row.Landmark.Value),
		AlternateNumber1:     ToPgDigits(row.AlternateNumber1.Value),
		AlternateNumber2:     ToPgDigits(row.AlternateNumber2.Value),
		ModelNo:              ToPgText(row.ModelNo.Value),
		IMEI:                 row.IMEI.Digits(),
		BoxNo:                ToPgText(row.BoxNo.Value),
		PurchaseValue:        purchaseValue,
		DownPayment:          optionalNumber(row.DownPayment, zero),
		DisburseAmount:       optionalNumber(row.DisburseAmount, decimal.NullDecimal{}),
		PurchaseDate:         row.PurchaseDate.Trimmed(),
		EMIDueDay:            emiDueDay,
		EMIAmount:            emiAmount,
		EMITenure:            emiTenure,
		FirstEMIChargeAmount: optionalNumber(row.FirstEMIChargeAmount, zero),
	}
}
