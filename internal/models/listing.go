package models

import "time"

// listing type
const (
	ListingTypeFixed   = "fixed"
	ListingTypeAuction = "auction"
)

// Listing is owned by the catalog component. The order and bid ledgers
// read it and write only the auction-scoped fields.
type Listing struct {
	ID                 string
	Title              string
	PriceUSD           float64
	PriceINR           float64
	SellerEmail        string
	SellerName         string
	Status             string
	ListingType        string
	AuctionEndTime     *time.Time
	StartingBid        *float64
	CurrentBid         *float64
	BidCount           int
	HighestBidderEmail *string
	AuctionSettled     bool
	CreatedAt          time.Time
}

// HighestBid returns the amount a new bid has to beat
func (l *Listing) HighestBid() float64 {
	if l.CurrentBid != nil {
		return *l.CurrentBid
	}
	if l.StartingBid != nil {
		return *l.StartingBid
	}
	return 0
}

// PriceIn returns the listing price in the requested currency, falling
// back to converting the USD price with the given rate when no INR price
// was set by the seller.
func (l *Listing) PriceIn(currency string, usdToINR float64) float64 {
	if currency == "USD" {
		return l.PriceUSD
	}
	if l.PriceINR != 0 {
		return l.PriceINR
	}
	return l.PriceUSD * usdToINR
}
