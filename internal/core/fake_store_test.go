package core

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeStore is an in-memory Store. Inserted IMEIs become visible to later
// CountByIMEI calls, like a committed write.
type fakeStore struct {
	mu sync.Mutex

	retailers []RetailerRef
	rosterErr error
	countErr  error
	insertErr map[string]error // by IMEI

	existing map[string]int64
	inserted []CustomerRecord

	listCalls   int
	countCalls  int
	insertCalls int

	customers  []PortalCustomer
	owners     map[string]string // customer id -> retailer id
	schedules  map[string][]EMIEntry
	breakdowns map[string]json.RawMessage
	summaries  map[string][]CustomerSummary // retailer id -> customers
	upcoming   []UpcomingEMI
	exports    []exportFixture
	exportErr  error
	requests   map[string][]PaymentRequest // retailer id -> newest first

	lastMatch  CustomerMatch
	lastFilter SearchFilter
	lastLimit  int
	lastFrom   time.Time
	lastTo     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		retailers: []RetailerRef{
			{ID: "r-1", Username: "sharma_mobiles"},
			{ID: "r-2", Username: "gupta_telecom"},
		},
		insertErr:  map[string]error{},
		existing:   map[string]int64{},
		owners:     map[string]string{},
		schedules:  map[string][]EMIEntry{},
		breakdowns: map[string]json.RawMessage{},
		summaries:  map[string][]CustomerSummary{},
		requests:   map[string][]PaymentRequest{},
	}
}

func (f *fakeStore) storeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls + f.countCalls + f.insertCalls
}

func (f *fakeStore) ListRetailers(context.Context) ([]RetailerRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return append([]RetailerRef(nil), f.retailers...), nil
}

func (f *fakeStore) CountByIMEI(_ context.Context, imei string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.existing[imei], nil
}

func (f *fakeStore) InsertCustomer(_ context.Context, rec CustomerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if err := f.insertErr[rec.IMEI]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, rec)
	f.existing[rec.IMEI]++
	return nil
}

func (f *fakeStore) FindRunningCustomers(_ context.Context, m CustomerMatch) ([]PortalCustomer, error) {
	f.lastMatch = m
	var out []PortalCustomer
	for _, c := range f.customers {
		if c.Status != "RUNNING" {
			continue
		}
		if m.Aadhaar != "" && c.Aadhaar.String != m.Aadhaar {
			continue
		}
		if m.Mobile != "" && c.Mobile != m.Mobile {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) EMISchedule(_ context.Context, customerID string) ([]EMIEntry, error) {
	return f.schedules[customerID], nil
}

func (f *fakeStore) DueBreakdown(_ context.Context, customerID string) (json.RawMessage, error) {
	if b, ok := f.breakdowns[customerID]; ok {
		return b, nil
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeStore) CustomerRetailerID(_ context.Context, customerID string) (string, error) {
	owner, ok := f.owners[customerID]
	if !ok {
		return "", ErrUnknownCustomer
	}
	return owner, nil
}

func (f *fakeStore) SearchCustomers(_ context.Context, retailerID string, filter SearchFilter, limit int) ([]CustomerSummary, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	var out []CustomerSummary
	for _, c := range f.summaries[retailerID] {
		var hit bool
		switch filter.Kind {
		case SearchByIMEI:
			hit = c.IMEI == filter.Value
		case SearchByAadhaar:
			hit = c.Aadhaar.String == filter.Value
		default:
			hit = strings.Contains(strings.ToLower(c.CustomerName), strings.ToLower(filter.Value))
		}
		if hit && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpcomingEMIs(_ context.Context, _ string, from, to time.Time) ([]UpcomingEMI, error) {
	f.lastFrom, f.lastTo = from, to
	return append([]UpcomingEMI(nil), f.upcoming...), nil
}

// exportFixture is a stored customer as the export query sees it.
type exportFixture struct {
	retailerID string
	row        CustomerExport
}

func (f *fakeStore) ExportCustomers(_ context.Context, retailerID, status string) ([]CustomerExport, error) {
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	var out []CustomerExport
	for _, e := range f.exports {
		if e.row.Status != status || (retailerID != "" && e.retailerID != retailerID) {
			continue
		}
		out = append(out, e.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerName < out[j].CustomerName })
	return out, nil
}

func (f *fakeStore) RecentPaymentRequests(_ context.Context, retailerID string, limit int) ([]PaymentRequest, error) {
	f.lastLimit = limit
	reqs := f.requests[retailerID]
	if len(reqs) > limit {
		reqs = reqs[:limit]
	}
	return reqs, nil
}

var errStoreDown = errors.New("connection reset by peer")

func adminCtx() context.Context {
	return ContextWithPrincipal(context.Background(), Principal{UserID: "u-admin", Role: RoleAdmin})
}

func retailerCtx(retailerID string) context.Context {
	return ContextWithPrincipal(context.Background(), Principal{UserID: "u-" + retailerID, Role: RoleRetailer, RetailerID: retailerID})
}

// validRow returns a row that passes every rule.
func validRow(imei string) ImportRow {
	return ImportRow{
		CustomerName:     Text("Ravi Kumar"),
		Mobile:           Text("98765-43210"),
		IMEI:             Text(imei),
		PurchaseValue:    Text("18999"),
		PurchaseDate:     Text("2026-01-15"),
		EMIAmount:        Text("1899.90"),
		EMITenure:        Text("10"),
		EMIDueDay:        Text("5"),
		RetailerUsername: Text("sharma_mobiles"),
	}
}
