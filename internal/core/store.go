package core

import (
	"context"
	"encoding/json"
	"time"
)

// RetailerDirectory lists the retailer roster used to resolve usernames.
type RetailerDirectory interface {
	ListRetailers(ctx context.Context) ([]RetailerRef, error)
}

// RecordStore is the customer store the reconciler writes through.
type RecordStore interface {
	CountByIMEI(ctx context.Context, imei string) (int64, error)
	InsertCustomer(ctx context.Context, rec CustomerRecord) error
}

// PortalStore serves the read-only customer and retailer portal queries.
type PortalStore interface {
	FindRunningCustomers(ctx context.Context, m CustomerMatch) ([]PortalCustomer, error)
	EMISchedule(ctx context.Context, customerID string) ([]EMIEntry, error)
	DueBreakdown(ctx context.Context, customerID string) (json.RawMessage, error)
	CustomerRetailerID(ctx context.Context, customerID string) (string, error)
	SearchCustomers(ctx context.Context, retailerID string, f SearchFilter, limit int) ([]CustomerSummary, error)
	UpcomingEMIs(ctx context.Context, retailerID string, from, to time.Time) ([]UpcomingEMI, error)
	RecentPaymentRequests(ctx context.Context, retailerID string, limit int) ([]PaymentRequest, error)

	// ExportCustomers lists customers with status, ordered by name. An
	// empty retailerID covers every retailer.
	ExportCustomers(ctx context.Context, retailerID, status string) ([]CustomerExport, error)
}

// Store is everything Service needs from persistence.
type Store interface {
	RetailerDirectory
	RecordStore
	PortalStore
}

// ReportStore keeps finished import reports for later retrieval.
// GetReport returns ErrReportNotFound for unknown or expired ids.
type ReportStore interface {
	SaveReport(ctx context.Context, report ImportReport) error
	GetReport(ctx context.Context, importID string) (ImportReport, error)
}
