package core

// export.go builds the customer workbook: one sheet per loan status, rows
// ordered by customer name, with the originating retailer flattened in.

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportKind selects which loan statuses an export covers.
type ExportKind string

const (
	ExportAll      ExportKind = "all"
	ExportRunning  ExportKind = "running"
	ExportComplete ExportKind = "complete"
)

// ParseExportKind maps the export type parameter; anything unrecognised
// exports everything.
func ParseExportKind(s string) ExportKind {
	switch k := ExportKind(s); k {
	case ExportRunning, ExportComplete:
		return k
	default:
		return ExportAll
	}
}

// Filename is the attachment name for the workbook.
func (k ExportKind) Filename() string {
	return "customers-" + string(k) + ".xlsx"
}

type exportSheetSpec struct {
	name   string
	status string
}

func (k ExportKind) sheets() []exportSheetSpec {
	running := exportSheetSpec{name: "Running", status: "RUNNING"}
	complete := exportSheetSpec{name: "Complete", status: "COMPLETE"}
	switch k {
	case ExportRunning:
		return []exportSheetSpec{running}
	case ExportComplete:
		return []exportSheetSpec{complete}
	default:
		return []exportSheetSpec{running, complete}
	}
}

// ExportColumns is the workbook header row, in order.
var ExportColumns = []string{
	"customer_name", "father_name", "mobile", "alternate_number_1", "alternate_number_2",
	"aadhaar", "voter_id", "address", "landmark", "model_no", "imei", "box_no",
	"purchase_value", "down_payment", "disburse_amount", "purchase_date",
	"emi_due_day", "emi_amount", "emi_tenure", "first_emi_charge_amount",
	"first_emi_charge_paid_at", "status", "completion_date", "completion_remark",
	"retailer_name", "retailer_mobile",
}

// CustomerExport is one customer row of an export.
type CustomerExport struct {
	CustomerName         string
	FatherName           pgtype.Text
	Mobile               string
	AlternateNumber1     pgtype.Text
	AlternateNumber2     pgtype.Text
	Aadhaar              pgtype.Text
	VoterID              pgtype.Text
	Address              pgtype.Text
	Landmark             pgtype.Text
	ModelNo              pgtype.Text
	IMEI                 string
	BoxNo                pgtype.Text
	PurchaseValue        decimal.Decimal
	DownPayment          decimal.NullDecimal
	DisburseAmount       decimal.NullDecimal
	PurchaseDate         pgtype.Date
	EMIDueDay            int16
	EMIAmount            decimal.Decimal
	EMITenure            int16
	FirstEMIChargeAmount decimal.NullDecimal
	FirstEMIChargePaidAt pgtype.Timestamptz
	Status               string
	CompletionDate       pgtype.Date
	CompletionRemark     pgtype.Text
	RetailerName         pgtype.Text
	RetailerMobile       pgtype.Text
}

// Cells renders the row in ExportColumns order. Missing text and dates are
// blank; missing down payment and first EMI charge count as 0.
func (c CustomerExport) Cells() []any {
	return []any{
		c.CustomerName, exportText(c.FatherName), c.Mobile,
		exportText(c.AlternateNumber1), exportText(c.AlternateNumber2),
		exportText(c.Aadhaar), exportText(c.VoterID), exportText(c.Address),
		exportText(c.Landmark), exportText(c.ModelNo), c.IMEI, exportText(c.BoxNo),
		c.PurchaseValue.InexactFloat64(), exportNumber(c.DownPayment, true),
		exportNumber(c.DisburseAmount, false), exportDate(c.PurchaseDate),
		int(c.EMIDueDay), c.EMIAmount.InexactFloat64(), int(c.EMITenure),
		exportNumber(c.FirstEMIChargeAmount, true), exportTime(c.FirstEMIChargePaidAt),
		c.Status, exportDate(c.CompletionDate), exportText(c.CompletionRemark),
		exportText(c.RetailerName), exportText(c.RetailerMobile),
	}
}

func exportText(t pgtype.Text) any {
	if !t.Valid {
		return ""
	}
	return t.String
}

func exportNumber(d decimal.NullDecimal, zeroIfNull bool) any {
	switch {
	case d.Valid:
		return d.Decimal.InexactFloat64()
	case zeroIfNull:
		return 0
	default:
		return ""
	}
}

func exportDate(d pgtype.Date) any {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(time.DateOnly)
}

func exportTime(t pgtype.Timestamptz) any {
	if !t.Valid {
		return ""
	}
	return t.Time.UTC().Format(time.RFC3339)
}

// ExportSheet is one named sheet of an export.
type ExportSheet struct {
	Name string
	Rows []CustomerExport
}

// exportScope returns the retailer an export is limited to; admins see
// every retailer's customers.
func exportScope(ctx context.Context) (string, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", ErrNotAuthenticated
	}
	if p.IsAdmin() {
		return "", nil
	}
	if p.Role == RoleRetailer && p.RetailerID == "" {
		return "", ErrRetailerNotFound
	}
	return requireRetailer(ctx)
}

// ExportCustomers collects the sheets for an export of kind.
func (s *Service) ExportCustomers(ctx context.Context, kind ExportKind) ([]ExportSheet, error) {
	retailerID, err := exportScope(ctx)
	if err != nil {
		return nil, err
	}

	specs := kind.sheets()
	sheets := make([]ExportSheet, 0, len(specs))
	for _, spec := range specs {
		rows, err := s.store.ExportCustomers(ctx, retailerID, spec.status)
		if err != nil {
			return nil, fmt.Errorf("export %s customers: %w", spec.status, err)
		}
		sheets = append(sheets, ExportSheet{Name: spec.name, Rows: rows})
	}
	return sheets, nil
}

// WriteExportWorkbook writes sheets as an xlsx workbook, each headed by
// ExportColumns.
func WriteExportWorkbook(w io.Writer, sheets []ExportSheet) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("name sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet.Name, err)
		}
		if err := writeExportSheet(f, sheet); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeExportSheet(f *excelize.File, sheet ExportSheet) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return fmt.Errorf("sheet %s: %w", sheet.Name, err)
	}

	header := make([]any, len(ExportColumns))
	for i, col := range ExportColumns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("sheet %s header: %w", sheet.Name, err)
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row.Cells()); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet.Name, i+2, err)
		}
	}
	return sw.Flush()
}
