package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func exportRow(name, status string) CustomerExport {
	return CustomerExport{
		CustomerName:  name,
		Mobile:        "9876543210",
		IMEI:          imeiA,
		PurchaseValue: decimal.RequireFromString("18999"),
		PurchaseDate:  pgtype.Date{Time: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), Valid: true},
		EMIDueDay:     5,
		EMIAmount:     decimal.RequireFromString("1899.50"),
		EMITenure:     10,
		Status:        status,
		RetailerName:  pgtype.Text{String: "Sharma Mobiles", Valid: true},
	}
}

func exportStore() *fakeStore {
	store := newFakeStore()
	store.exports = []exportFixture{
		{"r-1", exportRow("Sita", "RUNNING")},
		{"r-1", exportRow("Arun", "RUNNING")},
		{"r-1", exportRow("Mohan", "COMPLETE")},
		{"r-2", exportRow("Bala", "RUNNING")},
	}
	return store
}

func sheetNames(sheets []ExportSheet) []string {
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name
	}
	return names
}

func TestParseExportKind(t *testing.T) {
	tests := []struct {
		in   string
		want ExportKind
	}{
		{"running", ExportRunning},
		{"complete", ExportComplete},
		{"all", ExportAll},
		{"", ExportAll},
		{"RUNNING", ExportAll},
		{"bogus", ExportAll},
	}
	for _, tt := range tests {
		if got := ParseExportKind(tt.in); got != tt.want {
			t.Errorf("ParseExportKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := ExportRunning.Filename(); got != "customers-running.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestExportCustomers_Scoping(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		kind       ExportKind
		wantErr    error
		wantSheets []string
		wantRows   []int
	}{
		{"admin all", adminCtx(), ExportAll, nil, []string{"Running", "Complete"}, []int{3, 1}},
		{"admin running", adminCtx(), ExportRunning, nil, []string{"Running"}, []int{3}},
		{"retailer own only", retailerCtx("r-1"), ExportAll, nil, []string{"Running", "Complete"}, []int{2, 1}},
		{"retailer complete", retailerCtx("r-2"), ExportComplete, nil, []string{"Complete"}, []int{0}},
		{"anonymous", context.Background(), ExportAll, ErrNotAuthenticated, nil, nil},
		{"retailer without retailer row", ContextWithPrincipal(context.Background(),
			Principal{UserID: "u-9", Role: RoleRetailer}), ExportAll, ErrRetailerNotFound, nil, nil},
		{"unknown role", ContextWithPrincipal(context.Background(),
			Principal{UserID: "u-9", Role: "customer"}), ExportAll, ErrNotAuthorized, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(exportStore())
			sheets, err := svc.ExportCustomers(tt.ctx, tt.kind)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExportCustomers() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			got := sheetNames(sheets)
			if len(got) != len(tt.wantSheets) {
				t.Fatalf("sheets = %v, want %v", got, tt.wantSheets)
			}
			for i := range got {
				if got[i] != tt.wantSheets[i] {
					t.Errorf("sheet %d = %q, want %q", i, got[i], tt.wantSheets[i])
				}
				if n := len(sheets[i].Rows); n != tt.wantRows[i] {
					t.Errorf("sheet %s has %d rows, want %d", got[i], n, tt.wantRows[i])
				}
			}
		})
	}
}

func TestExportCustomers_StoreError(t *testing.T) {
	store := exportStore()
	store.exportErr = errStoreDown
	svc, _, _ := newTestService(store)

	if _, err := svc.ExportCustomers(adminCtx(), ExportAll); !errors.Is(err, errStoreDown) {
		t.Errorf("error = %v, want wrapped store error", err)
	}
}

func TestCustomerExportCells(t *testing.T) {
	row := exportRow("Ravi", "RUNNING")
	cells := row.Cells()
	if len(cells) != len(ExportColumns) {
		t.Fatalf("got %d cells for %d columns", len(cells), len(ExportColumns))
	}

	want := map[string]any{
		"customer_name":            "Ravi",
		"father_name":              "",
		"purchase_value":           18999.0,
		"down_payment":             0,
		"disburse_amount":          "",
		"purchase_date":            "2026-01-15",
		"emi_amount":               1899.5,
		"first_emi_charge_amount":  0,
		"first_emi_charge_paid_at": "",
		"retailer_name":            "Sharma Mobiles",
		"retailer_mobile":          "",
	}
	for i, col := range ExportColumns {
		if w, ok := want[col]; ok && cells[i] != w {
			t.Errorf("%s = %#v, want %#v", col, cells[i], w)
		}
	}
}

func TestWriteExportWorkbook(t *testing.T) {
	svc, _, _ := newTestService(exportStore())
	sheets, err := svc.ExportCustomers(adminCtx(), ExportAll)
	if err != nil {
		t.Fatalf("ExportCustomers() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteExportWorkbook(&buf, sheets); err != nil {
		t.Fatalf("WriteExportWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != "Running" || got[1] != "Complete" {
		t.Fatalf("sheets = %v, want [Running Complete]", got)
	}

	rows, err := f.GetRows("Running")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("Running has %d rows, want header + 3", len(rows))
	}
	for i, col := range ExportColumns {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	// Ordered by customer name.
	for i, name := range []string{"Arun", "Bala", "Sita"} {
		if rows[i+1][0] != name {
			t.Errorf("row %d name = %q, want %q", i+1, rows[i+1][0], name)
		}
	}
}

func TestWriteExportWorkbook_EmptySheet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExportWorkbook(&buf, []ExportSheet{{Name: "Complete"}}); err != nil {
		t.Fatalf("WriteExportWorkbook() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Complete")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || len(rows[0]) != len(ExportColumns) {
		t.Errorf("rows = %v, want only the header", rows)
	}
}

func TestRecentPaymentRequests(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 12; i++ {
		store.requests["r-1"] = append(store.requests["r-1"], PaymentRequest{ID: string(rune('a' + i)), CustomerName: "Ravi", IMEI: imeiA})
	}
	svc, _, _ := newTestService(store)

	got, err := svc.RecentPaymentRequests(retailerCtx("r-1"))
	if err != nil {
		t.Fatalf("RecentPaymentRequests() error = %v", err)
	}
	if len(got) != 10 || store.lastLimit != 10 {
		t.Errorf("got %d requests with limit %d, want 10", len(got), store.lastLimit)
	}
	if got[0].ID != "a" {
		t.Errorf("first = %q, want newest first order kept", got[0].ID)
	}

	got, err = svc.RecentPaymentRequests(retailerCtx("r-2"))
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("no requests = (%v, %v), want empty non-nil", got, err)
	}

	if _, err := svc.RecentPaymentRequests(adminCtx()); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("admin error = %v, want ErrNotAuthorized", err)
	}
}
