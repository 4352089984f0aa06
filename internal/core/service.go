package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/telepoint/emi-portal/internal/logging"
)

// Defaults applied when ServiceConfig leaves a field zero.
const (
	DefaultImportTimeout = 4 * time.Minute
	DefaultMaxRows       = 5000
	DefaultUpcomingDays  = 5
	DefaultSearchLimit   = 20
)

// ServiceConfig holds the tunables Service reads from configuration.
type ServiceConfig struct {
	MaxRows       int
	ImportTimeout time.Duration
	UpcomingDays  int
	SearchLimit   int
	Location      *time.Location // portal timezone for "today"
}

// ImportObserver receives a finished import. Implemented by the metrics package.
type ImportObserver interface {
	ObserveImport(report ImportReport, elapsed time.Duration)
}

// Service provides the portal's business operations.
type Service struct {
	store    Store
	reports  ReportStore
	limiter  *ImportLimiter
	observer ImportObserver
	cfg      ServiceConfig
	now      func() time.Time
}

// NewService wires a Service. observer may be nil.
func NewService(store Store, reports ReportStore, limiter *ImportLimiter, observer ImportObserver, cfg ServiceConfig) *Service {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = DefaultImportTimeout
	}
	if cfg.UpcomingDays < 0 {
		cfg.UpcomingDays = DefaultUpcomingDays
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if limiter == nil {
		limiter = NewImportLimiter(0, 0)
	}
	return &Service{
		store:    store,
		reports:  reports,
		limiter:  limiter,
		observer: observer,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Limiter exposes the import limiter for shutdown draining and health output.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// requireAdmin enforces the import gate.
func requireAdmin(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, ErrNotAuthenticated
	}
	if !p.IsAdmin() {
		return p, ErrNotAuthorized
	}
	return p, nil
}

// ImportCustomers reconciles a batch of customer rows and stores the report.
// Batch rejections (caller, empty batch, busy limiter) happen before any store
// access; once rows are being processed every problem lands in the report.
func (s *Service) ImportCustomers(ctx context.Context, rows []ImportRow) (ImportReport, error) {
	p, err := requireAdmin(ctx)
	if err != nil {
		return ImportReport{}, err
	}
	if len(rows) == 0 {
		return ImportReport{}, ErrNoRows
	}
	if len(rows) > s.cfg.MaxRows {
		return ImportReport{}, fmt.Errorf("too many rows (%d, limit %d): %w", len(rows), s.cfg.MaxRows, ErrNoRows)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return ImportReport{}, err
	}
	defer s.limiter.Release()

	importID := uuid.NewString()
	logger := logging.WithFields(ctx,
		"import_id", importID,
		"user_id", p.UserID,
		"rows", len(rows),
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)
	logger.Info("import started")
	start := s.now()

	importCtx, cancel := context.WithTimeout(ctx, s.cfg.ImportTimeout)
	defer cancel()

	roster, err := s.store.ListRetailers(importCtx)
	if err != nil {
		// Rows naming a retailer_id still resolve; username rows fail per row.
		logger.Warn("retailer roster unavailable", "error", err)
		roster = nil
	}

	outcomes := NewReconciler(s.store, logger).Run(importCtx, rows, roster)

	report := NewImportReport(outcomes)
	report.ImportID = importID
	report.CreatedAt = start.UTC()
	elapsed := s.now().Sub(start)

	if s.reports != nil {
		if err := s.reports.SaveReport(ctx, report); err != nil {
			logger.Error("save import report failed", "error", err)
		}
	}
	if s.observer != nil {
		s.observer.ObserveImport(report, elapsed)
	}

	logger.Info("import completed",
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration_ms", elapsed.Milliseconds(),
	)
	return report, nil
}

// GetImportReport returns a previously stored report.
func (s *Service) GetImportReport(ctx context.Context, importID string) (ImportReport, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return ImportReport{}, err
	}
	if s.reports == nil {
		return ImportReport{}, ErrReportNotFound
	}
	return s.reports.GetReport(ctx, importID)
}

// today returns midnight of the current portal-local day.
func (s *Service) today() time.Time {
	now := s.now().In(s.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
}
