package core

// scheduler.go runs periodic maintenance in the background.
//
// The only job today prunes expired import reports from the in-memory report
// store. Redis-backed stores expire keys on their own and need no pruning.
// A failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// Pruner removes expired entries and reports how many it dropped.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// StartReportPruner prunes immediately, then every interval, until ctx is
// cancelled. Run it in its own goroutine.
func StartReportPruner(ctx context.Context, p Pruner, interval time.Duration) {
	slog.Info("report pruner started", "interval", interval.String())

	runPrune(ctx, p)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("report pruner stopped")
			return
		case <-ticker.C:
			runPrune(ctx, p)
		}
	}
}

func runPrune(ctx context.Context, p Pruner) {
	start := time.Now()
	removed, err := p.Prune(ctx)
	if err != nil {
		slog.Error("report prune failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("pruned import reports",
			"removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
