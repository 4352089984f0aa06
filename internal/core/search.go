package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// minSearchLength is the shortest query that runs a search.
const minSearchLength = 3

// SearchKind is how a search query is matched.
type SearchKind int

const (
	SearchByName SearchKind = iota
	SearchByIMEI
	SearchByAadhaar
)

// SearchFilter is a classified search query.
type SearchFilter struct {
	Kind  SearchKind
	Value string
}

// ClassifySearch maps a query to a filter: 15 digits is an IMEI, 12 digits
// an Aadhaar, anything else a name substring. Queries shorter than three
// characters are not searchable.
func ClassifySearch(q string) (SearchFilter, bool) {
	q = strings.TrimSpace(q)
	if len(q) < minSearchLength {
		return SearchFilter{}, false
	}
	if isAllDigits(q) {
		switch len(q) {
		case imeiDigits:
			return SearchFilter{Kind: SearchByIMEI, Value: q}, true
		case aadhaarDigits:
			return SearchFilter{Kind: SearchByAadhaar, Value: q}, true
		}
	}
	return SearchFilter{Kind: SearchByName, Value: q}, true
}

func isAllDigits(s string) bool {
	return s != "" && DigitsOnly(s) == s
}

// CustomerSummary is one retailer search hit.
type CustomerSummary struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	FatherName   pgtype.Text     `json:"father_name"`
	Mobile       string          `json:"mobile"`
	Aadhaar      pgtype.Text     `json:"aadhaar"`
	IMEI         string          `json:"imei"`
	ModelNo      pgtype.Text     `json:"model_no"`
	PurchaseDate pgtype.Date     `json:"purchase_date"`
	EMIAmount    decimal.Decimal `json:"emi_amount"`
	EMITenure    int16           `json:"emi_tenure"`
	EMIDueDay    int16           `json:"emi_due_day"`
	Status       string          `json:"status"`
}

// UpcomingEMI is an unpaid installment falling due soon.
type UpcomingEMI struct {
	ID           string          `json:"id"`
	EMINo        int16           `json:"emi_no"`
	DueDate      pgtype.Date     `json:"due_date"`
	Amount       decimal.Decimal `json:"amount"`
	CustomerName string          `json:"customer_name"`
	IMEI         string          `json:"imei"`
	Mobile       string          `json:"mobile"`
	DaysLeft     int             `json:"days_left"`
}

// requireRetailer returns the caller's retailer id.
func requireRetailer(ctx context.Context) (string, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", ErrNotAuthenticated
	}
	if p.Role != RoleRetailer || p.RetailerID == "" {
		return "", ErrNotAuthorized
	}
	return p.RetailerID, nil
}

// SearchCustomers searches the calling retailer's own customers, ordered by
// name. Unsearchable queries return an empty result, not an error.
func (s *Service) SearchCustomers(ctx context.Context, query string) ([]CustomerSummary, error) {
	retailerID, err := requireRetailer(ctx)
	if err != nil {
		return nil, err
	}

	filter, ok := ClassifySearch(query)
	if !ok {
		return []CustomerSummary{}, nil
	}

	results, err := s.store.SearchCustomers(ctx, retailerID, filter, s.cfg.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	if results == nil {
		results = []CustomerSummary{}
	}
	return results, nil
}

// UpcomingEMIs lists the calling retailer's unpaid installments due from
// today through today plus the configured window, soonest first.
func (s *Service) UpcomingEMIs(ctx context.Context) ([]UpcomingEMI, error) {
	retailerID, err := requireRetailer(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	until := today.AddDate(0, 0, s.cfg.UpcomingDays)

	emis, err := s.store.UpcomingEMIs(ctx, retailerID, today, until)
	if err != nil {
		return nil, fmt.Errorf("upcoming emis: %w", err)
	}
	if emis == nil {
		emis = []UpcomingEMI{}
	}
	for i := range emis {
		emis[i].DaysLeft = daysBetween(today, emis[i].DueDate.Time)
	}
	return emis, nil
}

// daysBetween counts calendar days from a to b, ignoring clock time and zone.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
