package core

// lookup.go serves the customer self-service portal, where a customer
// identifies with Aadhaar and/or mobile instead of a password. Only RUNNING
// loans are visible there.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CustomerMatch selects RUNNING customers. Empty fields are not filtered on.
type CustomerMatch struct {
	Aadhaar string
	Mobile  string
}

// RetailerContact is the originating retailer as shown to a customer.
type RetailerContact struct {
	Name   pgtype.Text `json:"name"`
	Mobile pgtype.Text `json:"mobile"`
}

// PortalCustomer is the customer view returned by a portal lookup.
type PortalCustomer struct {
	ID                   string              `json:"id"`
	CustomerName         string              `json:"customer_name"`
	FatherName           pgtype.Text         `json:"father_name"`
	Aadhaar              pgtype.Text         `json:"aadhaar"`
	Mobile               string              `json:"mobile"`
	AlternateNumber1     pgtype.Text         `json:"alternate_number_1"`
	AlternateNumber2     pgtype.Text         `json:"alternate_number_2"`
	ModelNo              pgtype.Text         `json:"model_no"`
	IMEI                 string              `json:"imei"`
	PurchaseValue        decimal.Decimal     `json:"purchase_value"`
	DownPayment          decimal.NullDecimal `json:"down_payment"`
	DisburseAmount       decimal.NullDecimal `json:"disburse_amount"`
	PurchaseDate         pgtype.Date         `json:"purchase_date"`
	EMIDueDay            int16               `json:"emi_due_day"`
	EMIAmount            decimal.Decimal     `json:"emi_amount"`
	EMITenure            int16               `json:"emi_tenure"`
	FirstEMIChargeAmount decimal.NullDecimal `json:"first_emi_charge_amount"`
	FirstEMIChargePaidAt pgtype.Timestamptz  `json:"first_emi_charge_paid_at"`
	CustomerPhotoURL     pgtype.Text         `json:"customer_photo_url"`
	Status               string              `json:"status"`
	Retailer             *RetailerContact    `json:"retailer"`
}

// EMIEntry is one installment of a customer's schedule.
type EMIEntry struct {
	ID         string              `json:"id"`
	EMINo      int16               `json:"emi_no"`
	DueDate    pgtype.Date         `json:"due_date"`
	Amount     decimal.Decimal     `json:"amount"`
	Status     string              `json:"status"`
	PaidAt     pgtype.Timestamptz  `json:"paid_at"`
	Mode       pgtype.Text         `json:"mode"`
	FineAmount decimal.NullDecimal `json:"fine_amount"`
	FineWaived bool                `json:"fine_waived"`
}

// LookupResult is what a customer sees after identifying.
type LookupResult struct {
	Customer  PortalCustomer  `json:"customer"`
	EMIs      []EMIEntry      `json:"emis"`
	Breakdown json.RawMessage `json:"breakdown"`
}

// LookupCustomer finds a RUNNING customer by Aadhaar and/or mobile.
// With Aadhaar, mobile (if given) narrows the match; mobile alone must be
// unambiguous.
func (s *Service) LookupCustomer(ctx context.Context, aadhaar, mobile string) (LookupResult, error) {
	m := CustomerMatch{Aadhaar: DigitsOnly(aadhaar), Mobile: DigitsOnly(mobile)}

	switch {
	case m.Aadhaar == "" && m.Mobile == "":
		return LookupResult{}, ErrLookupIdentifierRequired
	case m.Aadhaar != "" && len(m.Aadhaar) != aadhaarDigits:
		return LookupResult{}, ErrInvalidAadhaar
	case m.Mobile != "" && len(m.Mobile) != mobileDigits:
		return LookupResult{}, ErrInvalidMobile
	}

	customers, err := s.store.FindRunningCustomers(ctx, m)
	if err != nil {
		return LookupResult{}, fmt.Errorf("find customers: %w", err)
	}
	if len(customers) == 0 {
		return LookupResult{}, ErrCustomerNotFound
	}
	if m.Aadhaar == "" && len(customers) > 1 {
		return LookupResult{}, ErrAmbiguousMobile
	}

	customer := customers[0]

	emis, err := s.store.EMISchedule(ctx, customer.ID)
	if err != nil {
		return LookupResult{}, fmt.Errorf("load emi schedule: %w", err)
	}
	if emis == nil {
		emis = []EMIEntry{}
	}

	breakdown, err := s.store.DueBreakdown(ctx, customer.ID)
	if err != nil {
		return LookupResult{}, fmt.Errorf("due breakdown: %w", err)
	}

	return LookupResult{Customer: customer, EMIs: emis, Breakdown: breakdown}, nil
}

// DueBreakdown returns the database-computed due summary for a customer.
// Admins see any customer; retailers only their own.
func (s *Service) DueBreakdown(ctx context.Context, customerID string) (json.RawMessage, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	switch p.Role {
	case RoleAdmin:
	case RoleRetailer:
		owner, err := s.store.CustomerRetailerID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if owner != p.RetailerID {
			return nil, ErrUnknownCustomer
		}
	default:
		return nil, ErrNotAuthorized
	}

	breakdown, err := s.store.DueBreakdown(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("due breakdown: %w", err)
	}
	return breakdown, nil
}
