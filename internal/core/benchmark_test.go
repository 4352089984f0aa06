package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseNumber covers the numeric columns of every imported row.
func BenchmarkParseNumber(b *testing.B) {
	testCases := []string{
		"18999",
		"1899.90",
		"  5  ",
		"1e3",
		"abc",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseNumber(tc)
		}
	}
}

func BenchmarkDigitsOnly(b *testing.B) {
	testCases := []string{
		"9876543210",
		"+91 98765-43210",
		"3569 3803 5643 809",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			DigitsOnly(tc)
		}
	}
}

// ============================================================================
// Row Benchmarks
// ============================================================================

func BenchmarkValidateRow(b *testing.B) {
	roster := benchRoster(200)
	row := validRow(imeiA)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateRow(row, roster)
	}
}

func BenchmarkNormalizeRow(b *testing.B) {
	row := validRow(imeiA)
	row.DownPayment = Text("2000")
	row.Aadhaar = Text("1234 5678 9012")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeRow(row, "r-1")
	}
}

// BenchmarkReconcile_1000 runs a full batch against the in-memory store.
func BenchmarkReconcile_1000(b *testing.B) {
	rows := make([]ImportRow, 1000)
	for i := range rows {
		rows[i] = validRow(fmt.Sprintf("35693803%07d", i))
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store := newFakeStore()
		NewReconciler(store, logger).Run(ctx, rows, store.retailers)
	}
}

// ============================================================================
// File Parsing Benchmarks
// ============================================================================

func BenchmarkParseImportFile_CSV(b *testing.B) {
	data := generateImportCSV(1000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseImportFile("customers.csv", bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func benchRoster(n int) []RetailerRef {
	roster := make([]RetailerRef, 0, n+1)
	for i := 0; i < n; i++ {
		roster = append(roster, RetailerRef{ID: fmt.Sprintf("r-%d", i+10), Username: fmt.Sprintf("retailer_%d", i)})
	}
	return append(roster, RetailerRef{ID: "r-1", Username: "sharma_mobiles"})
}

// generateImportCSV builds an import file with the given number of data rows.
func generateImportCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"customer_name", "mobile", "imei", "purchase_value", "purchase_date",
		"emi_amount", "emi_tenure", "emi_due_day", "retailer_username"})
	for i := 0; i < rows; i++ {
		w.Write([]string{
			"Ravi Kumar",
			"9876543210",
			fmt.Sprintf("35693803%07d", i),
			"18999",
			"2026-01-15",
			"1899.90",
			"10",
			"5",
			"sharma_mobiles",
		})
	}
	w.Flush()

	return buf.Bytes()
}
