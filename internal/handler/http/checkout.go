package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avocadohq/marketplace/internal/gateway"
	"github.com/avocadohq/marketplace/internal/models"
)

type CheckoutService interface {
	// CreateSession creates a checkout session and the pending ledger entries
	CreateSession(ctx context.Context, buyer *models.TokenPayload, listingIDs []string, currency string) (*gateway.Session, error)
}

// CheckoutHandler represents HTTP handler for checkout-related requests
type CheckoutHandler struct {
	svc CheckoutService
}

// NewCheckoutHandler creates new CheckoutHandler instance
func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutSessionRequest struct {
	ListingIDs []string `json:"listing_ids"`
	Currency   string   `json:"currency"`
}

type checkoutSessionResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// CreateSession creates a provider-hosted checkout session
// 200 — session created;
// 400 — malformed request;
// 401 — caller is not authenticated;
// 404 — none of the listings exist;
// 500 — gateway rejected session creation or internal error.
func (ch *CheckoutHandler) CreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyer, ok := identityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req checkoutSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if len(req.ListingIDs) == 0 {
			http.Error(w, "listing_ids is required", http.StatusBadRequest)
			return
		}
		if req.Currency == "" {
			req.Currency = "USD"
		}

		session, err := ch.svc.CreateSession(r.Context(), buyer, req.ListingIDs, req.Currency)
		if err != nil {
			if errors.Is(err, models.ErrListingUnavailable) {
				http.Error(w, "no listings found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(checkoutSessionResponse{
			CheckoutURL: session.CheckoutURL,
			SessionID:   session.ID,
		}); err != nil {
			return
		}
	}
}
