package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avocadohq/marketplace/internal/models"
)

type BidService interface {
	// PlaceBid validates and applies a bid on an auction listing
	PlaceBid(ctx context.Context, listingID string, bidder *models.TokenPayload, amount float64) (*models.Bid, error)
	// ListBids returns the listing's bid history
	ListBids(ctx context.Context, listingID string) ([]models.Bid, error)
}

// BidHandler represents HTTP handler for auction bid requests
type BidHandler struct {
	svc BidService
}

// NewBidHandler creates new BidHandler instance
func NewBidHandler(svc BidService) *BidHandler {
	return &BidHandler{svc: svc}
}

type bidRequest struct {
	Amount float64 `json:"amount"`
}

type bidResponse struct {
	ID          string  `json:"id"`
	ListingID   string  `json:"listing_id"`
	BidderEmail string  `json:"bidder_email"`
	BidderName  string  `json:"bidder_name"`
	Amount      float64 `json:"amount"`
	CreatedAt   string  `json:"created_at"`
}

// PlaceBid places a bid on an auction listing
// 200 — bid accepted;
// 400 — not an auction, auction ended, or bid too low;
// 401 — caller is not authenticated;
// 404 — listing not found;
// 409 — lost to a concurrent bid, retry with a fresh read;
// 500 — internal error.
func (bh *BidHandler) PlaceBid() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bidder, ok := identityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		listingID := chi.URLParam(r, "id")
		if listingID == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var req bidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		bid, err := bh.svc.PlaceBid(r.Context(), listingID, bidder, req.Amount)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "listing not found", http.StatusNotFound)
			case errors.Is(err, models.ErrNotAnAuction):
				http.Error(w, "this listing is not an auction", http.StatusBadRequest)
			case errors.Is(err, models.ErrAuctionClosed):
				http.Error(w, "auction has ended", http.StatusBadRequest)
			case errors.Is(err, models.ErrBidTooLow):
				http.Error(w, "bid must be higher than current bid", http.StatusBadRequest)
			case errors.Is(err, models.ErrBidConflict):
				http.Error(w, "outbid by a concurrent bid, try again", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toBidResponse(bid)); err != nil {
			return
		}
	}
}

func toBidResponse(bid *models.Bid) bidResponse {
	return bidResponse{
		ID:          bid.ID,
		ListingID:   bid.ListingID,
		BidderEmail: bid.BidderEmail,
		BidderName:  bid.BidderName,
		Amount:      bid.Amount,
		CreatedAt:   bid.CreatedAt.Format(time.RFC3339),
	}
}

// ListBids returns the listing's bid history, newest first
// 200 — list returned;
// 404 — listing not found;
// 500 — internal error.
func (bh *BidHandler) ListBids() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := chi.URLParam(r, "id")
		if listingID == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		bids, err := bh.svc.ListBids(r.Context(), listingID)
		if err != nil {
			if errors.Is(err, models.ErrDataNotFound) {
				http.Error(w, "listing not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := []bidResponse{}
		for i := range bids {
			resp = append(resp, toBidResponse(&bids[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}
