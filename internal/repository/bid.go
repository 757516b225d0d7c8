package repository

import (
	"context"

	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/repository/postgres"
)

const (
	insertBidQuery = `
						INSERT INTO bids (id, listing_id, bidder_email, bidder_name, amount)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING id, listing_id, bidder_email, bidder_name, amount, created_at
`
	selectBidsByListingQuery = `
						SELECT id, listing_id, bidder_email, bidder_name, amount, created_at FROM bids
						WHERE listing_id = $1
						ORDER BY created_at DESC
`
)

// BidRepository is the append-only bid store
type BidRepository struct {
	db *postgres.DB
}

// NewBidRepository creates new BidRepository instance
func NewBidRepository(db *postgres.DB) *BidRepository {
	return &BidRepository{db: db}
}

// CreateBid appends a bid record. Bids are never updated or deleted.
func (br *BidRepository) CreateBid(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	err := br.db.QueryRow(ctx, insertBidQuery, bid.ID, bid.ListingID, bid.BidderEmail, bid.BidderName, bid.Amount).
		Scan(&bid.ID, &bid.ListingID, &bid.BidderEmail, &bid.BidderName, &bid.Amount, &bid.CreatedAt)
	if err != nil {
		if errCode := br.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return bid, nil
}

// GetBidsByListingID returns bids for listing, newest first
func (br *BidRepository) GetBidsByListingID(ctx context.Context, listingID string) ([]models.Bid, error) {
	rows, err := br.db.Query(ctx, selectBidsByListingQuery, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []models.Bid{}

	for rows.Next() {
		bid := models.Bid{}
		err = rows.Scan(&bid.ID, &bid.ListingID, &bid.BidderEmail, &bid.BidderName, &bid.Amount, &bid.CreatedAt)
		if err != nil {
			continue
		}
		bids = append(bids, bid)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bids, nil
}
