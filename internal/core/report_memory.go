package core

import (
	"context"
	"sync"
	"time"
)

// MemoryReportStore keeps import reports in process memory. It is used when
// no Redis is configured; reports are lost on restart.
type MemoryReportStore struct {
	retention time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	reports map[string]storedReport
}

type storedReport struct {
	report    ImportReport
	expiresAt time.Time
}

// NewMemoryReportStore creates a store whose entries expire after retention.
func NewMemoryReportStore(retention time.Duration) *MemoryReportStore {
	return &MemoryReportStore{
		retention: retention,
		now:       time.Now,
		reports:   make(map[string]storedReport),
	}
}

// SaveReport stores report under its ImportID.
func (s *MemoryReportStore) SaveReport(_ context.Context, report ImportReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ImportID] = storedReport{
		report:    report,
		expiresAt: s.now().Add(s.retention),
	}
	return nil
}

// GetReport returns a stored report, or ErrReportNotFound once it expired.
func (s *MemoryReportStore) GetReport(_ context.Context, importID string) (ImportReport, error) {
	s.mu.RLock()
	entry, ok := s.reports[importID]
	s.mu.RUnlock()

	if !ok || !s.now().Before(entry.expiresAt) {
		return ImportReport{}, ErrReportNotFound
	}
	return entry.report, nil
}

// Prune drops expired reports and returns how many were removed.
func (s *MemoryReportStore) Prune(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.reports {
		if !now.Before(entry.expiresAt) {
			delete(s.reports, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored reports, expired or not.
func (s *MemoryReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}
