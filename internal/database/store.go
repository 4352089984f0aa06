// Package database implements the core store interfaces on PostgreSQL.
//
// Values that come straight from an import (ids, dates, small integers) are
// sent as text and cast in SQL, so a bad value fails with PostgreSQL's own
// message, which the import report shows to operators unchanged.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/telepoint/emi-portal/internal/core"
)

// Store is a core.Store backed by a pgx pool or transaction.
type Store struct {
	db core.DBTX
}

var _ core.Store = (*Store)(nil)

// New creates a Store.
func New(db core.DBTX) *Store {
	return &Store{db: db}
}

// StoreError carries a PostgreSQL error; its text is the server message alone.
type StoreError struct {
	Code    string // SQLSTATE
	Message string
	Detail  string
}

func (e *StoreError) Error() string {
	return e.Message
}

// storeError unwraps PostgreSQL errors so callers see the server message
// without the "ERROR: ... (SQLSTATE ...)" decoration.
func storeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &StoreError{Code: pgErr.Code, Message: pgErr.Message, Detail: pgErr.Detail}
	}
	return err
}

const listRetailersSQL = `SELECT id::text, username FROM retailers ORDER BY username`

// ListRetailers returns the full retailer roster.
func (s *Store) ListRetailers(ctx context.Context) ([]core.RetailerRef, error) {
	rows, err := s.db.Query(ctx, listRetailersSQL)
	if err != nil {
		return nil, fmt.Errorf("list retailers: %w", storeError(err))
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.RetailerRef, error) {
		var r core.RetailerRef
		err := row.Scan(&r.ID, &r.Username)
		return r, err
	})
}

const countByIMEISQL = `SELECT count(*) FROM customers WHERE imei = $1`

// CountByIMEI returns how many customers carry imei.
func (s *Store) CountByIMEI(ctx context.Context, imei string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, countByIMEISQL, imei).Scan(&n); err != nil {
		return 0, storeError(err)
	}
	return n, nil
}

const insertCustomerSQL = `
INSERT INTO customers (
    retailer_id, customer_name, father_name, mobile, aadhaar, voter_id,
    address, landmark, alternate_number_1, alternate_number_2, model_no,
    imei, box_no, purchase_value, down_payment, disburse_amount,
    purchase_date, emi_due_day, emi_amount, emi_tenure, first_emi_charge_amount
) VALUES (
    $1::text::uuid, $2, $3, $4, $5, $6,
    $7, $8, $9, $10, $11,
    $12, $13, $14::text::numeric, $15::text::numeric, $16::text::numeric,
    $17::text::date, $18::text::smallint, $19::text::numeric, $20::text::smallint, $21::text::numeric
)`

// InsertCustomer writes one normalized import record.
func (s *Store) InsertCustomer(ctx context.Context, rec core.CustomerRecord) error {
	_, err := s.db.Exec(ctx, insertCustomerSQL,
		rec.RetailerID, rec.CustomerName, rec.FatherName, rec.Mobile, rec.Aadhaar, rec.VoterID,
		rec.Address, rec.Landmark, rec.AlternateNumber1, rec.AlternateNumber2, rec.ModelNo,
		rec.IMEI, rec.BoxNo, rec.PurchaseValue.String(), nullDecimalText(rec.DownPayment), nullDecimalText(rec.DisburseAmount),
		rec.PurchaseDate, rec.EMIDueDay.String(), rec.EMIAmount.String(), rec.EMITenure.String(), nullDecimalText(rec.FirstEMIChargeAmount),
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

const findRunningCustomersSQL = `
SELECT c.id::text, c.customer_name, c.father_name, c.aadhaar, c.mobile,
       c.alternate_number_1, c.alternate_number_2, c.model_no, c.imei,
       c.purchase_value::text, c.down_payment::text, c.disburse_amount::text,
       c.purchase_date, c.emi_due_day, c.emi_amount::text, c.emi_tenure,
       c.first_emi_charge_amount::text, c.first_emi_charge_paid_at,
       c.customer_photo_url, c.status, r.name, r.mobile
FROM customers c
LEFT JOIN retailers r ON r.id = c.retailer_id
WHERE c.status = 'RUNNING'
  AND ($1::text = '' OR c.aadhaar = $1::text)
  AND ($2::text = '' OR c.mobile = $2::text)
ORDER BY c.created_at`

// FindRunningCustomers returns RUNNING customers matching m.
func (s *Store) FindRunningCustomers(ctx context.Context, m core.CustomerMatch) ([]core.PortalCustomer, error) {
	rows, err := s.db.Query(ctx, findRunningCustomersSQL, m.Aadhaar, m.Mobile)
	if err != nil {
		return nil, storeError(err)
	}
	return pgx.CollectRows(rows, scanPortalCustomer)
}

func scanPortalCustomer(row pgx.CollectableRow) (core.PortalCustomer, error) {
	var (
		c                                        core.PortalCustomer
		purchaseValue, emiAmount                 string
		downPayment, disburseAmount, firstCharge pgtype.Text
		retailerName, retailerMobile             pgtype.Text
	)
	err := row.Scan(
		&c.ID, &c.CustomerName, &c.FatherName, &c.Aadhaar, &c.Mobile,
		&c.AlternateNumber1, &c.AlternateNumber2, &c.ModelNo, &c.IMEI,
		&purchaseValue, &downPayment, &disburseAmount,
		&c.PurchaseDate, &c.EMIDueDay, &emiAmount, &c.EMITenure,
		&firstCharge, &c.FirstEMIChargePaidAt,
		&c.CustomerPhotoURL, &c.Status, &retailerName, &retailerMobile,
	)
	if err != nil {
		return c, err
	}

	c.PurchaseValue = mustDecimal(purchaseValue)
	c.EMIAmount = mustDecimal(emiAmount)
	c.DownPayment = textToNullDecimal(downPayment)
	c.DisburseAmount = textToNullDecimal(disburseAmount)
	c.FirstEMIChargeAmount = textToNullDecimal(firstCharge)
	if retailerName.Valid || retailerMobile.Valid {
		c.Retailer = &core.RetailerContact{Name: retailerName, Mobile: retailerMobile}
	}
	return c, nil
}

const emiScheduleSQL = `
SELECT id::text, emi_no, due_date, amount::text, status, paid_at, mode,
       fine_amount::text, fine_waived
FROM emi_schedule
WHERE customer_id = $1::text::uuid
ORDER BY emi_no`

// EMISchedule returns a customer's installments in order.
func (s *Store) EMISchedule(ctx context.Context, customerID string) ([]core.EMIEntry, error) {
	rows, err := s.db.Query(ctx, emiScheduleSQL, customerID)
	if err != nil {
		return nil, storeError(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.EMIEntry, error) {
		var (
			e          core.EMIEntry
			amount     string
			fineAmount pgtype.Text
		)
		err := row.Scan(&e.ID, &e.EMINo, &e.DueDate, &amount, &e.Status, &e.PaidAt, &e.Mode, &fineAmount, &e.FineWaived)
		e.Amount = mustDecimal(amount)
		e.FineAmount = textToNullDecimal(fineAmount)
		return e, err
	})
}

const dueBreakdownSQL = `SELECT get_due_breakdown($1::text::uuid)`

// DueBreakdown relays get_due_breakdown's JSON as-is; SQL NULL becomes JSON null.
func (s *Store) DueBreakdown(ctx context.Context, customerID string) (json.RawMessage, error) {
	var raw []byte
	if err := s.db.QueryRow(ctx, dueBreakdownSQL, customerID).Scan(&raw); err != nil {
		return nil, storeError(err)
	}
	if raw == nil {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(raw), nil
}

const customerRetailerSQL = `SELECT retailer_id::text FROM customers WHERE id = $1::text::uuid`

// CustomerRetailerID returns the owning retailer of a customer.
func (s *Store) CustomerRetailerID(ctx context.Context, customerID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, customerRetailerSQL, customerID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", core.ErrUnknownCustomer
	}
	if err != nil {
		return "", storeError(err)
	}
	return id, nil
}

const searchCustomersSQL = `
SELECT id::text, customer_name, father_name, mobile, aadhaar, imei, model_no,
       purchase_date, emi_amount::text, emi_tenure, emi_due_day, status
FROM customers
WHERE retailer_id = $1::text::uuid AND %s
ORDER BY customer_name
LIMIT $3`

// searchClause renders the match condition for f as parameter $2.
func searchClause(f core.SearchFilter) (string, string) {
	switch f.Kind {
	case core.SearchByIMEI:
		return "imei = $2", f.Value
	case core.SearchByAadhaar:
		return "aadhaar = $2", f.Value
	default:
		return `customer_name ILIKE $2 ESCAPE '\'`, "%" + escapeLike(f.Value) + "%"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SearchCustomers searches one retailer's customers.
func (s *Store) SearchCustomers(ctx context.Context, retailerID string, f core.SearchFilter, limit int) ([]core.CustomerSummary, error) {
	clause, arg := searchClause(f)
	rows, err := s.db.Query(ctx, fmt.Sprintf(searchCustomersSQL, clause), retailerID, arg, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.CustomerSummary, error) {
		var (
			c         core.CustomerSummary
			emiAmount string
		)
		err := row.Scan(&c.ID, &c.CustomerName, &c.FatherName, &c.Mobile, &c.Aadhaar, &c.IMEI, &c.ModelNo,
			&c.PurchaseDate, &emiAmount, &c.EMITenure, &c.EMIDueDay, &c.Status)
		c.EMIAmount = mustDecimal(emiAmount)
		return c, err
	})
}

const upcomingEMIsSQL = `
SELECT e.id::text, e.emi_no, e.due_date, e.amount::text,
       c.customer_name, c.imei, c.mobile
FROM emi_schedule e
JOIN customers c ON c.id = e.customer_id
WHERE c.retailer_id = $1::text::uuid
  AND e.status = 'UNPAID'
  AND e.due_date BETWEEN $2::date AND $3::date
ORDER BY e.due_date, e.emi_no`

// UpcomingEMIs lists a retailer's unpaid installments due within [from, to].
func (s *Store) UpcomingEMIs(ctx context.Context, retailerID string, from, to time.Time) ([]core.UpcomingEMI, error) {
	rows, err := s.db.Query(ctx, upcomingEMIsSQL, retailerID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, storeError(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.UpcomingEMI, error) {
		var (
			u      core.UpcomingEMI
			amount string
		)
		err := row.Scan(&u.ID, &u.EMINo, &u.DueDate, &amount, &u.CustomerName, &u.IMEI, &u.Mobile)
		u.Amount = mustDecimal(amount)
		return u, err
	})
}

const recentPaymentRequestsSQL = `
SELECT p.id::text, p.customer_id::text, p.total_amount::text, p.mode, p.status,
       p.created_at, c.customer_name, c.imei
FROM payment_requests p
JOIN customers c ON c.id = p.customer_id
WHERE p.retailer_id = $1::text::uuid
ORDER BY p.created_at DESC
LIMIT $2`

// RecentPaymentRequests returns a retailer's newest payment requests.
func (s *Store) RecentPaymentRequests(ctx context.Context, retailerID string, limit int) ([]core.PaymentRequest, error) {
	rows, err := s.db.Query(ctx, recentPaymentRequestsSQL, retailerID, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.PaymentRequest, error) {
		var (
			p     core.PaymentRequest
			total string
		)
		err := row.Scan(&p.ID, &p.CustomerID, &total, &p.Mode, &p.Status, &p.CreatedAt, &p.CustomerName, &p.IMEI)
		p.TotalAmount = mustDecimal(total)
		return p, err
	})
}

const exportCustomersSQL = `
SELECT c.customer_name, c.father_name, c.mobile, c.alternate_number_1, c.alternate_number_2,
       c.aadhaar, c.voter_id, c.address, c.landmark, c.model_no, c.imei, c.box_no,
       c.purchase_value::text, c.down_payment::text, c.disburse_amount::text, c.purchase_date,
       c.emi_due_day, c.emi_amount::text, c.emi_tenure, c.first_emi_charge_amount::text,
       c.first_emi_charge_paid_at, c.status, c.completion_date, c.completion_remark,
       r.name, r.mobile
FROM customers c
LEFT JOIN retailers r ON r.id = c.retailer_id
WHERE c.status = $1
  AND ($2::text = '' OR c.retailer_id = NULLIF($2::text, '')::uuid)
ORDER BY c.customer_name`

// ExportCustomers lists customers with status for a workbook export.
func (s *Store) ExportCustomers(ctx context.Context, retailerID, status string) ([]core.CustomerExport, error) {
	rows, err := s.db.Query(ctx, exportCustomersSQL, status, retailerID)
	if err != nil {
		return nil, storeError(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.CustomerExport, error) {
		var (
			c                                        core.CustomerExport
			purchaseValue, emiAmount                 string
			downPayment, disburseAmount, firstCharge pgtype.Text
		)
		err := row.Scan(
			&c.CustomerName, &c.FatherName, &c.Mobile, &c.AlternateNumber1, &c.AlternateNumber2,
			&c.Aadhaar, &c.VoterID, &c.Address, &c.Landmark, &c.ModelNo, &c.IMEI, &c.BoxNo,
			&purchaseValue, &downPayment, &disburseAmount, &c.PurchaseDate,
			&c.EMIDueDay, &emiAmount, &c.EMITenure, &firstCharge,
			&c.FirstEMIChargePaidAt, &c.Status, &c.CompletionDate, &c.CompletionRemark,
			&c.RetailerName, &c.RetailerMobile,
		)
		if err != nil {
			return c, err
		}
		c.PurchaseValue = mustDecimal(purchaseValue)
		c.EMIAmount = mustDecimal(emiAmount)
		c.DownPayment = textToNullDecimal(downPayment)
		c.DisburseAmount = textToNullDecimal(disburseAmount)
		c.FirstEMIChargeAmount = textToNullDecimal(firstCharge)
		return c, nil
	})
}

// dateOnly keeps the calendar date of t in its own zone.
func dateOnly(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// Ping checks database connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "SELECT 1")
	return err
}
