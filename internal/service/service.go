package service

import (
	"context"

	"github.com/avocadohq/marketplace/internal/gateway"
	"github.com/avocadohq/marketplace/internal/models"
)

// OrderRepository is interface for interacting with the order ledger
type OrderRepository interface {
	// CreateOrder inserts new order to database
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// GetOrderByID returns order by id
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	// Resolve moves a pending order to a terminal status
	Resolve(ctx context.Context, id string, outcome string, paymentRef string) (bool, error)
	// FindPendingFor locates the newest pending order for listing/buyer pair
	FindPendingFor(ctx context.Context, listingID, buyerEmail string) (*models.Order, error)
	// GetOrdersByBuyer gets buyer orders
	GetOrdersByBuyer(ctx context.Context, buyerEmail string) ([]models.Order, error)
	// GetOrdersBySeller gets seller sales
	GetOrdersBySeller(ctx context.Context, sellerEmail string) ([]models.Order, error)
}

// ListingRepository is the narrow view over catalog listings the core needs
type ListingRepository interface {
	// GetListingByID returns listing by id
	GetListingByID(ctx context.Context, id string) (*models.Listing, error)
	// GetListingsByIDs returns listings for the given ids
	GetListingsByIDs(ctx context.Context, ids []string) ([]models.Listing, error)
	// ApplyBid conditionally updates the listing's auction fields
	ApplyBid(ctx context.Context, listingID string, expectedBid, newBid float64, bidderEmail string) error
	// GetEndedAuctions returns ended, unsettled auction listings
	GetEndedAuctions(ctx context.Context) ([]models.Listing, error)
	// SettleAuction marks an ended auction as settled
	SettleAuction(ctx context.Context, listingID string) error
}

// BidRepository is interface for the append-only bid store
type BidRepository interface {
	// CreateBid appends a bid record
	CreateBid(ctx context.Context, bid *models.Bid) (*models.Bid, error)
	// GetBidsByListingID returns bids for listing, newest first
	GetBidsByListingID(ctx context.Context, listingID string) ([]models.Bid, error)
}

// NotificationRepository stores in-app notifications
type NotificationRepository interface {
	// CreateNotification inserts new in-app notification
	CreateNotification(ctx context.Context, notification *models.Notification) (*models.Notification, error)
	// GetNotificationsByUser returns user notifications, newest first
	GetNotificationsByUser(ctx context.Context, userEmail string) ([]models.Notification, error)
}

// PaymentGateway is the external payment processor adapter
type PaymentGateway interface {
	// CreateCheckoutSession creates a provider-hosted checkout session
	CreateCheckoutSession(ctx context.Context, req gateway.SessionRequest) (*gateway.Session, error)
	// VerifyPayment reports whether the provider considers paymentRef paid
	VerifyPayment(ctx context.Context, paymentRef string) (bool, error)
	// RefundPayment issues a compensating refund
	RefundPayment(ctx context.Context, paymentRef, reason string) error
}

// Mailer delivers transactional email through the notification endpoint
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, toEmail, orderID, listingTitle string) error
	SendRefundNotification(ctx context.Context, toEmail, orderID, listingTitle, reason string) error
	SendSaleNotification(ctx context.Context, toEmail, buyerName, itemTitle string, amount float64, currency string) error
	SendAuctionWonNotification(ctx context.Context, toEmail, listingTitle string, amount float64) error
}

// DedupStore tracks seen webhook events and sent order notifications
type DedupStore interface {
	// MarkEvent records a webhook event id, false when seen before
	MarkEvent(ctx context.Context, eventID string) (bool, error)
	// ClearEvent removes an event mark so a provider retry is processed
	ClearEvent(ctx context.Context, eventID string) error
	// MarkNotified records emitted side effects for an order, false when already emitted
	MarkNotified(ctx context.Context, orderID string) (bool, error)
}
