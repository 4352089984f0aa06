package database

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Numeric columns are read as text so shopspring/decimal keeps exact values.

// mustDecimal parses a NOT NULL numeric column; PostgreSQL's text form
// always parses, so a failure yields zero.
func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func textToNullDecimal(t pgtype.Text) decimal.NullDecimal {
	if !t.Valid {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(t.String)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// nullDecimalText is the query argument for a nullable numeric.
func nullDecimalText(d decimal.NullDecimal) pgtype.Text {
	if !d.Valid {
		return pgtype.Text{}
	}
	return pgtype.Text{String: d.Decimal.String(), Valid: true}
}
