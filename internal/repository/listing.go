package repository

import (
	"context"

	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/repository/postgres"
)

const (
	selectListingByIDQuery = `
						SELECT id, title, price_usd, price_inr, seller_email, seller_name, status, listing_type, auction_end_time, starting_bid, current_bid, bid_count, highest_bidder_email, auction_settled, created_at FROM listings
						WHERE id = $1
`
	applyBidQuery = `
						UPDATE listings
						SET current_bid = $3, highest_bidder_email = $4, bid_count = bid_count + 1
						WHERE id = $1
						  AND listing_type = 'auction'
						  AND COALESCE(current_bid, starting_bid, 0) = $2
						  AND (auction_end_time IS NULL OR auction_end_time > now())
`
	selectEndedAuctionsQuery = `
						SELECT id, title, price_usd, price_inr, seller_email, seller_name, status, listing_type, auction_end_time, starting_bid, current_bid, bid_count, highest_bidder_email, auction_settled, created_at FROM listings
						WHERE listing_type = 'auction'
						  AND auction_settled = FALSE
						  AND auction_end_time <= now()
`
	settleAuctionQuery = `
						UPDATE listings
						SET auction_settled = TRUE
						WHERE id = $1 AND auction_settled = FALSE
`
)

// ListingRepository gives the order and bid ledgers their narrow,
// field-scoped view of the catalog's listings
type ListingRepository struct {
	db *postgres.DB
}

// NewListingRepository creates new ListingRepository instance
func NewListingRepository(db *postgres.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (lr *ListingRepository) scanListing(row interface {
	Scan(dest ...any) error
}, listing *models.Listing) error {
	return row.Scan(&listing.ID, &listing.Title, &listing.PriceUSD, &listing.PriceINR,
		&listing.SellerEmail, &listing.SellerName, &listing.Status, &listing.ListingType,
		&listing.AuctionEndTime, &listing.StartingBid, &listing.CurrentBid, &listing.BidCount,
		&listing.HighestBidderEmail, &listing.AuctionSettled, &listing.CreatedAt)
}

// GetListingByID returns listing by id
func (lr *ListingRepository) GetListingByID(ctx context.Context, id string) (*models.Listing, error) {
	listing := models.Listing{}
	if err := lr.scanListing(lr.db.QueryRow(ctx, selectListingByIDQuery, id), &listing); err != nil {
		if lr.db.IsNoRows(err) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &listing, nil
}

// GetListingsByIDs returns listings for the given ids
func (lr *ListingRepository) GetListingsByIDs(ctx context.Context, ids []string) ([]models.Listing, error) {
	rows, err := lr.db.Query(ctx, `
						SELECT id, title, price_usd, price_inr, seller_email, seller_name, status, listing_type, auction_end_time, starting_bid, current_bid, bid_count, highest_bidder_email, auction_settled, created_at FROM listings
						WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}

	for rows.Next() {
		listing := models.Listing{}
		if err := lr.scanListing(rows, &listing); err != nil {
			continue
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return listings, nil
}

// ApplyBid updates the listing's auction fields in a single conditional
// statement keyed on the bid amount the caller read. A concurrent bid
// changes current_bid and the update affects zero rows, which is
// surfaced as ErrBidConflict for the caller to retry or reject.
func (lr *ListingRepository) ApplyBid(ctx context.Context, listingID string, expectedBid, newBid float64, bidderEmail string) error {
	cmd, err := lr.db.Exec(ctx, applyBidQuery, listingID, expectedBid, newBid, bidderEmail)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrBidConflict
	}

	return nil
}

// GetEndedAuctions returns auction listings past their end time that
// have not been settled yet
func (lr *ListingRepository) GetEndedAuctions(ctx context.Context) ([]models.Listing, error) {
	rows, err := lr.db.Query(ctx, selectEndedAuctionsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}

	for rows.Next() {
		listing := models.Listing{}
		if err := lr.scanListing(rows, &listing); err != nil {
			continue
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return listings, nil
}

// SettleAuction marks an ended auction as settled. Conditional on it not
// being settled already, so only one worker instance wins.
func (lr *ListingRepository) SettleAuction(ctx context.Context, listingID string) error {
	cmd, err := lr.db.Exec(ctx, settleAuctionQuery, listingID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrConflictData
	}

	return nil
}
