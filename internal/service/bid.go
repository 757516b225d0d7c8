package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avocadohq/marketplace/internal/models"
)

// BidService enforces the auction invariants: bids only on auctions,
// only before the end time, only strictly above the standing bid
type BidService struct {
	listings ListingRepository
	bids     BidRepository
}

// NewBidService creates new BidService instance
func NewBidService(listings ListingRepository, bids BidRepository) *BidService {
	return &BidService{
		listings: listings,
		bids:     bids,
	}
}

// PlaceBid validates the bid against the listing's auction state and
// applies it through a conditional update keyed on the standing bid the
// validation read. A concurrent winning bid turns into ErrBidConflict,
// which callers treat as retryable. The bid record is appended only
// after the update sticks, keeping accepted amounts strictly increasing.
func (bs *BidService) PlaceBid(ctx context.Context, listingID string, bidder *models.TokenPayload, amount float64) (*models.Bid, error) {
	listing, err := bs.listings.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.ListingType != models.ListingTypeAuction {
		return nil, models.ErrNotAnAuction
	}

	if listing.AuctionEndTime != nil && !time.Now().Before(*listing.AuctionEndTime) {
		return nil, models.ErrAuctionClosed
	}

	standing := listing.HighestBid()
	if amount <= standing {
		return nil, models.ErrBidTooLow
	}

	if err := bs.listings.ApplyBid(ctx, listing.ID, standing, amount, bidder.Email); err != nil {
		return nil, err
	}

	bid := &models.Bid{
		ID:          uuid.NewString(),
		ListingID:   listing.ID,
		BidderEmail: bidder.Email,
		BidderName:  bidder.Name,
		Amount:      amount,
	}

	return bs.bids.CreateBid(ctx, bid)
}

// ListBids returns the listing's bid history, newest first
func (bs *BidService) ListBids(ctx context.Context, listingID string) ([]models.Bid, error) {
	if _, err := bs.listings.GetListingByID(ctx, listingID); err != nil {
		return nil, err
	}
	return bs.bids.GetBidsByListingID(ctx, listingID)
}
