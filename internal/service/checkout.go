package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avocadohq/marketplace/internal/gateway"
	"github.com/avocadohq/marketplace/internal/logger"
	"github.com/avocadohq/marketplace/internal/models"
)

// CheckoutService initiates provider-hosted checkout flows and records
// the pending ledger entries the webhook reconciler later resolves
type CheckoutService struct {
	orders      OrderRepository
	listings    ListingRepository
	gateway     PaymentGateway
	frontendURL string
	usdToINR    float64
}

// NewCheckoutService creates new CheckoutService instance
func NewCheckoutService(orders OrderRepository, listings ListingRepository, gateway PaymentGateway,
	frontendURL string, usdToINR float64) *CheckoutService {
	return &CheckoutService{
		orders:      orders,
		listings:    listings,
		gateway:     gateway,
		frontendURL: frontendURL,
		usdToINR:    usdToINR,
	}
}

// CreateSession creates a checkout session for the listings and records
// one pending order per listing. The gateway call happens first: a
// rejected session leaves no ledger state behind.
func (cs *CheckoutService) CreateSession(ctx context.Context, buyer *models.TokenPayload, listingIDs []string, currency string) (*gateway.Session, error) {
	listings, err := cs.listings.GetListingsByIDs(ctx, listingIDs)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, models.ErrListingUnavailable
	}

	var total float64
	for _, listing := range listings {
		total += listing.PriceIn(currency, cs.usdToINR)
	}

	productName := fmt.Sprintf("Purchase %s", listings[0].Title)
	if len(listings) > 1 {
		productName = fmt.Sprintf("Cart Purchase (%d items)", len(listings))
	}

	ids := make([]string, 0, len(listings))
	for _, listing := range listings {
		ids = append(ids, listing.ID)
	}

	session, err := cs.gateway.CreateCheckoutSession(ctx, gateway.SessionRequest{
		// round, don't truncate: 29.99*100 is 2998.999... in floats
		Amount:      int64(math.Round(total * 100)),
		Currency:    currency,
		Customer:    gateway.Customer{Email: buyer.Email, Name: buyer.Name},
		ProductName: productName,
		ListingIDs:  ids,
		SuccessURL:  cs.frontendURL + "/purchases",
		CancelURL:   cs.frontendURL + "/checkout",
	})
	if err != nil {
		return nil, err
	}

	for _, listing := range listings {
		price := listing.PriceIn(currency, cs.usdToINR)
		platformFee, processorFee := models.ComputeFees(price)

		order := &models.Order{
			ID:           uuid.NewString(),
			BuyerEmail:   buyer.Email,
			SellerEmail:  listing.SellerEmail,
			ListingID:    listing.ID,
			ListingTitle: listing.Title,
			PricePaid:    price,
			Currency:     currency,
			PlatformFee:  platformFee,
			ProcessorFee: processorFee,
			Status:       models.OrderStatusPending,
		}

		if _, err := cs.orders.CreateOrder(ctx, order); err != nil {
			logger.Log.Error("recording pending order failed",
				zap.String("listing_id", listing.ID),
				zap.String("session_id", session.ID),
				zap.Error(err))
			return nil, err
		}
	}

	return session, nil
}
