// Package core provides the business logic for the EMI portal.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Cell is one untrusted import value. Valid is false when the column was
// absent from the row (or sent as JSON null); an empty but present column is
// Valid with an empty Value.
type Cell struct {
	Value string
	Valid bool
}

// Text returns a present cell holding s.
func Text(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// UnmarshalJSON accepts strings, numbers, booleans and null.
// Numbers keep their literal text so "007" style values survive.
func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = Cell{}
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Text(s)
	case '{', '[':
		return fmt.Errorf("import cell must be a scalar, got %s", b[:1])
	default:
		*c = Text(string(b))
	}
	return nil
}

// MarshalJSON writes absent cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// Trimmed returns the value with surrounding whitespace removed.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.Value)
}

// Digits returns the value with every non-digit removed.
func (c Cell) Digits() string {
	return DigitsOnly(c.Value)
}

// echo renders the raw value for operator-facing messages; absent cells
// render as "undefined".
func (c Cell) echo() string {
	if !c.Valid {
		return "undefined"
	}
	return c.Value
}

// ImportRow is one candidate customer from a bulk import. Every field is
// optional untrusted text; coercion happens in NormalizeRow.
type ImportRow struct {
	CustomerName         Cell `json:"customer_name"`
	FatherName           Cell `json:"father_name"`
	Mobile               Cell `json:"mobile"`
	Aadhaar              Cell `json:"aadhaar"`
	VoterID              Cell `json:"voter_id"`
	Address              Cell `json:"address"`
	Landmark             Cell `json:"landmark"`
	AlternateNumber1     Cell `json:"alternate_number_1"`
	AlternateNumber2     Cell `json:"alternate_number_2"`
	ModelNo              Cell `json:"model_no"`
	IMEI                 Cell `json:"imei"`
	BoxNo                Cell `json:"box_no"`
	PurchaseValue        Cell `json:"purchase_value"`
	DownPayment          Cell `json:"down_payment"`
	DisburseAmount       Cell `json:"disburse_amount"`
	PurchaseDate         Cell `json:"purchase_date"`
	EMIDueDay            Cell `json:"emi_due_day"`
	EMIAmount            Cell `json:"emi_amount"`
	EMITenure            Cell `json:"emi_tenure"`
	FirstEMIChargeAmount Cell `json:"first_emi_charge_amount"`
	RetailerUsername     Cell `json:"retailer_username"`
	RetailerID           Cell `json:"retailer_id"`
}

// ImportColumns lists the recognised import column names in file order.
var ImportColumns = []string{
	"customer_name", "father_name", "mobile", "aadhaar", "voter_id",
	"address", "landmark", "alternate_number_1", "alternate_number_2",
	"model_no", "imei", "box_no", "purchase_value", "down_payment",
	"disburse_amount", "purchase_date", "emi_due_day", "emi_amount",
	"emi_tenure", "first_emi_charge_amount", "retailer_username", "retailer_id",
}

// field returns a pointer to the cell for a column name, or nil if unknown.
func (r *ImportRow) field(column string) *Cell {
	switch column {
	case "customer_name":
		return &r.CustomerName
	case "father_name":
		return &r.FatherName
	case "mobile":
		return &r.Mobile
	case "aadhaar":
		return &r.Aadhaar
	case "voter_id":
		return &r.VoterID
	case "address":
		return &r.Address
	case "landmark":
		return &r.Landmark
	case "alternate_number_1":
		return &r.AlternateNumber1
	case "alternate_number_2":
		return &r.AlternateNumber2
	case "model_no":
		return &r.ModelNo
	case "imei":
		return &r.IMEI
	case "box_no":
		return &r.BoxNo
	case "purchase_value":
		return &r.PurchaseValue
	case "down_payment":
		return &r.DownPayment
	case "disburse_amount":
		return &r.DisburseAmount
	case "purchase_date":
		return &r.PurchaseDate
	case "emi_due_day":
		return &r.EMIDueDay
	case "emi_amount":
		return &r.EMIAmount
	case "emi_tenure":
		return &r.EMITenure
	case "first_emi_charge_amount":
		return &r.FirstEMIChargeAmount
	case "retailer_username":
		return &r.RetailerUsername
	case "retailer_id":
		return &r.RetailerID
	}
	return nil
}

// RetailerRef is one roster entry used to resolve retailer_username.
type RetailerRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CustomerRecord is the validated, normalized projection of an ImportRow.
// Optional text columns are NULL when empty.
type CustomerRecord struct {
	RetailerID           string
	CustomerName         string
	FatherName           pgtype.Text
	Mobile               string
	Aadhaar              pgtype.Text
	VoterID              pgtype.Text
	Address              pgtype.Text
	Landmark             pgtype.Text
	AlternateNumber1     pgtype.Text
	AlternateNumber2     pgtype.Text
	ModelNo              pgtype.Text
	IMEI                 string
	BoxNo                pgtype.Text
	PurchaseValue        decimal.Decimal
	DownPayment          decimal.NullDecimal
	DisburseAmount       decimal.NullDecimal
	PurchaseDate         string
	EMIDueDay            decimal.Decimal
	EMIAmount            decimal.Decimal
	EMITenure            decimal.Decimal
	FirstEMIChargeAmount decimal.NullDecimal
}

// OutcomeKind classifies a reconciled row.
type OutcomeKind int

const (
	OutcomeInserted OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// RowOutcome is the classification of exactly one input row.
type RowOutcome struct {
	Kind   OutcomeKind
	Row    int // index + 2, matching spreadsheet line numbers under a header
	IMEI   string
	Reason string
}

// RowIssue is a skipped or failed row as reported to operators.
type RowIssue struct {
	Row    int    `json:"row"`
	IMEI   string `json:"imei"`
	Reason string `json:"reason"`
}

// ImportReport summarizes one reconciliation pass. All lists preserve input order.
type ImportReport struct {
	ImportID      string     `json:"import_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitzero"`
	Total         int        `json:"total"`
	Inserted      int        `json:"inserted"`
	Skipped       int        `json:"skipped"`
	Failed        int        `json:"failed"`
	InsertedIMEIs []string   `json:"inserted_imeis"`
	SkippedList   []RowIssue `json:"skipped_list"`
	FailedList    []RowIssue `json:"failed_list"`
}

// NewImportReport folds outcomes into a report. Lists are never nil so
// they encode as [] rather than null.
func NewImportReport(outcomes []RowOutcome) ImportReport {
	report := ImportReport{
		Total:         len(outcomes),
		InsertedIMEIs: []string{},
		SkippedList:   []RowIssue{},
		FailedList:    []RowIssue{},
	}

	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeInserted:
			report.InsertedIMEIs = append(report.InsertedIMEIs, o.IMEI)
		case OutcomeSkipped:
			report.SkippedList = append(report.SkippedList, RowIssue{Row: o.Row, IMEI: o.IMEI, Reason: o.Reason})
		case OutcomeFailed:
			report.FailedList = append(report.FailedList, RowIssue{Row: o.Row, IMEI: o.IMEI, Reason: o.Reason})
		}
	}

	report.Inserted = len(report.InsertedIMEIs)
	report.Skipped = len(report.SkippedList)
	report.Failed = len(report.FailedList)
	return report
}
