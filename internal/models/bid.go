package models

import "time"

// Bid is append-only: once recorded it is never mutated or deleted
type Bid struct {
	ID          string
	ListingID   string
	BidderEmail string
	BidderName  string
	Amount      float64
	CreatedAt   time.Time
}
