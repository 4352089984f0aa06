package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// recentPaymentRequestLimit is how many requests the retailer dashboard shows.
const recentPaymentRequestLimit = 10

// PaymentRequest is a retailer-submitted EMI collection awaiting or past
// admin review, with the customer it was collected from.
type PaymentRequest struct {
	ID           string             `json:"id"`
	CustomerID   string             `json:"customer_id"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Mode         string             `json:"mode"`
	Status       string             `json:"status"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	CustomerName string             `json:"customer_name"`
	IMEI         string             `json:"imei"`
}

// RecentPaymentRequests lists the calling retailer's latest payment
// requests, newest first.
func (s *Service) RecentPaymentRequests(ctx context.Context) ([]PaymentRequest, error) {
	retailerID, err := requireRetailer(ctx)
	if err != nil {
		return nil, err
	}

	reqs, err := s.store.RecentPaymentRequests(ctx, retailerID, recentPaymentRequestLimit)
	if err != nil {
		return nil, fmt.Errorf("recent payment requests: %w", err)
	}
	if reqs == nil {
		reqs = []PaymentRequest{}
	}
	return reqs, nil
}
