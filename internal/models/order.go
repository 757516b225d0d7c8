package models

import (
	"math"
	"time"
)

// order status
// pending   — checkout session created, waiting for the provider callback;
// completed — payment verified, content deliverable, seller is owed;
// refunded  — verification or delivery failed, money goes back.
// completed and refunded are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusRefunded  = "refunded"
)

// seller-side deduction rates, fixed at order creation
const (
	PlatformFeeRate  = 0.15
	ProcessorFeeRate = 0.035
)

// Order is the ledger entry for one buyer's payment for one listing
type Order struct {
	ID           string
	BuyerEmail   string
	SellerEmail  string
	ListingID    string
	ListingTitle string
	PricePaid    float64
	Currency     string
	PaymentRef   *string
	PlatformFee  float64
	ProcessorFee float64
	Status       string
	CreatedAt    time.Time
}

// Terminal reports whether the order status permits no further transition
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusRefunded
}

// round2 rounds to currency precision (two decimal places)
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeFees derives the fee breakdown from price. It is called once at
// order creation and the result is never recomputed afterwards.
func ComputeFees(price float64) (platformFee, processorFee float64) {
	return round2(price * PlatformFeeRate), round2(price * ProcessorFeeRate)
}
