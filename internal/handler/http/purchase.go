package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/service"
)

type PurchaseService interface {
	// Purchase executes the synchronous direct-charge flow
	Purchase(ctx context.Context, req *service.PurchaseRequest) (*models.Order, error)
	// ListOrders returns the caller's orders for the requested role
	ListOrders(ctx context.Context, email, role string) ([]models.Order, error)
}

// PurchaseHandler represents HTTP handler for purchase-related requests
type PurchaseHandler struct {
	svc PurchaseService
}

// NewPurchaseHandler creates new PurchaseHandler instance
func NewPurchaseHandler(svc PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

type purchaseRequest struct {
	BuyerEmail string `json:"buyer_email"`
	ListingID  string `json:"listing_id"`
	Currency   string `json:"currency"`
	PaymentRef string `json:"payment_ref,omitempty"`
}

type orderResponse struct {
	ID           string  `json:"id"`
	BuyerEmail   string  `json:"buyer_email"`
	SellerEmail  string  `json:"seller_email"`
	ListingID    string  `json:"listing_id"`
	ListingTitle string  `json:"listing_title"`
	PricePaid    float64 `json:"price_paid"`
	Currency     string  `json:"currency"`
	PaymentRef   string  `json:"payment_ref,omitempty"`
	PlatformFee  float64 `json:"platform_fee"`
	ProcessorFee float64 `json:"processor_fee"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

func toOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:           order.ID,
		BuyerEmail:   order.BuyerEmail,
		SellerEmail:  order.SellerEmail,
		ListingID:    order.ListingID,
		ListingTitle: order.ListingTitle,
		PricePaid:    order.PricePaid,
		Currency:     order.Currency,
		PlatformFee:  order.PlatformFee,
		ProcessorFee: order.ProcessorFee,
		Status:       order.Status,
		CreatedAt:    order.CreatedAt.Format(time.RFC3339),
	}
	if order.PaymentRef != nil {
		resp.PaymentRef = *order.PaymentRef
	}
	return resp
}

// CreatePurchase executes a synchronous purchase. The response always
// carries a definitive order status: completed or refunded.
// 200 — purchase processed;
// 400 — malformed request;
// 404 — listing not found;
// 500 — internal error.
func (ph *PurchaseHandler) CreatePurchase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if req.BuyerEmail == "" || req.ListingID == "" {
			http.Error(w, "buyer_email and listing_id are required", http.StatusBadRequest)
			return
		}
		if req.Currency == "" {
			req.Currency = "USD"
		}

		order, err := ph.svc.Purchase(r.Context(), &service.PurchaseRequest{
			BuyerEmail: req.BuyerEmail,
			ListingID:  req.ListingID,
			Currency:   req.Currency,
			PaymentRef: req.PaymentRef,
		})
		if err != nil {
			if errors.Is(err, models.ErrListingUnavailable) {
				http.Error(w, "listing not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toOrderResponse(order)); err != nil {
			return
		}
	}
}

// ListPurchases returns the caller's orders
// 200 — list returned;
// 401 — caller is not authenticated;
// 500 — internal error.
func (ph *PurchaseHandler) ListPurchases() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		role := r.URL.Query().Get("role")
		if role != "seller" {
			role = "buyer"
		}

		orders, err := ph.svc.ListOrders(r.Context(), caller.Email, role)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := []orderResponse{}
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}
