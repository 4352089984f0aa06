// Package cache keeps import reports in Redis so any server instance can
// return them until they expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telepoint/emi-portal/internal/core"
)

const reportKeyFmt = "%simport:report:%s"

// ReportStore is a core.ReportStore backed by Redis. Reports expire after
// the configured retention.
type ReportStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

var _ core.ReportStore = (*ReportStore)(nil)

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewReportStore creates a ReportStore. Keys are namespaced with prefix.
func NewReportStore(client *redis.Client, prefix string, retention time.Duration) *ReportStore {
	return &ReportStore{client: client, prefix: prefix, retention: retention}
}

func (s *ReportStore) key(importID string) string {
	return fmt.Sprintf(reportKeyFmt, s.prefix, importID)
}

// SaveReport stores report under its import id.
func (s *ReportStore) SaveReport(ctx context.Context, report core.ImportReport) error {
	data, err := encodeReport(report)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(report.ImportID), data, s.retention).Err(); err != nil {
		return fmt.Errorf("save report %s: %w", report.ImportID, err)
	}
	return nil
}

// GetReport loads a report; a missing or expired key is core.ErrReportNotFound.
func (s *ReportStore) GetReport(ctx context.Context, importID string) (core.ImportReport, error) {
	data, err := s.client.Get(ctx, s.key(importID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.ImportReport{}, core.ErrReportNotFound
	}
	if err != nil {
		return core.ImportReport{}, fmt.Errorf("get report %s: %w", importID, err)
	}
	return decodeReport(data)
}

// Ping checks the Redis connection for health probes.
func (s *ReportStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func encodeReport(report core.ImportReport) ([]byte, error) {
	if report.ImportID == "" {
		return nil, errors.New("report has no import id")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

func decodeReport(data []byte) (core.ImportReport, error) {
	var report core.ImportReport
	if err := json.Unmarshal(data, &report); err != nil {
		return core.ImportReport{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}
