package core

// reconcile.go classifies a batch of import rows against the customer store.
//
// Each row runs validate -> normalize -> uniqueness check -> insert before the
// next row starts. Nothing a row does can abort the batch: validation
// problems, duplicates and store errors all become outcomes.

import (
	"context"
	"log/slog"
)

// Reconciler turns import rows into one RowOutcome each.
type Reconciler struct {
	store  RecordStore
	logger *slog.Logger
}

// NewReconciler creates a reconciler writing through store.
// A nil logger uses slog.Default.
func NewReconciler(store RecordStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

// Run processes rows in order against a roster snapshot. The returned slice
// has exactly len(rows) entries, outcome i belonging to rows[i].
//
// An IMEI inserted earlier in the same batch is skipped without consulting
// the store, so a batch never inserts the same IMEI twice even when the
// store cannot see its own pending writes.
func (r *Reconciler) Run(ctx context.Context, rows []ImportRow, roster []RetailerRef) []RowOutcome {
	outcomes := make([]RowOutcome, len(rows))
	inserted := make(map[string]struct{})

	for i, row := range rows {
		outcomes[i] = r.reconcileRow(ctx, i+2, row, roster, inserted)
		if outcomes[i].Kind != OutcomeInserted {
			r.logger.Debug("import row not inserted",
				"row", outcomes[i].Row,
				"outcome", outcomes[i].Kind.String(),
				"reason", outcomes[i].Reason,
			)
		}
	}

	return outcomes
}

func (r *Reconciler) reconcileRow(ctx context.Context, rowNum int, row ImportRow, roster []RetailerRef, inserted map[string]struct{}) RowOutcome {
	imei := row.IMEI.Digits()

	retailerID, reason := ValidateRow(row, roster)
	if reason != "" {
		return RowOutcome{Kind: OutcomeFailed, Row: rowNum, IMEI: imei, Reason: reason}
	}

	rec := NormalizeRow(row, retailerID)

	if _, dup := inserted[rec.IMEI]; dup {
		return RowOutcome{Kind: OutcomeSkipped, Row: rowNum, IMEI: rec.IMEI, Reason: ReasonDuplicateIMEI}
	}

	count, err := r.store.CountByIMEI(ctx, rec.IMEI)
	if err != nil {
		return RowOutcome{Kind: OutcomeFailed, Row: rowNum, IMEI: rec.IMEI, Reason: err.Error()}
	}
	if count > 0 {
		return RowOutcome{Kind: OutcomeSkipped, Row: rowNum, IMEI: rec.IMEI, Reason: ReasonDuplicateIMEI}
	}

	if err := r.store.InsertCustomer(ctx, rec); err != nil {
		return RowOutcome{Kind: OutcomeFailed, Row: rowNum, IMEI: rec.IMEI, Reason: err.Error()}
	}

	inserted[rec.IMEI] = struct{}{}
	return RowOutcome{Kind: OutcomeInserted, Row: rowNum, IMEI: rec.IMEI}
}
