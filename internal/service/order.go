package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avocadohq/marketplace/internal/logger"
	"github.com/avocadohq/marketplace/internal/models"
)

// deliveryFailMarker marks listings whose content cannot be delivered.
// The default feasibility check refuses to fulfill them.
const deliveryFailMarker = "Buggy"

const refundReason = "System Verification / Delivery Failed"

// FeasibilityCheck decides whether a paid order can actually be
// fulfilled. Checks are pluggable; with none registered every order is
// assumed feasible.
type FeasibilityCheck func(ctx context.Context, listing *models.Listing) error

// DeliveryCheck fails for listings carrying the delivery-failure marker
// in their title
func DeliveryCheck(ctx context.Context, listing *models.Listing) error {
	if strings.Contains(listing.Title, deliveryFailMarker) {
		return fmt.Errorf("content of %q is not deliverable", listing.Title)
	}
	return nil
}

// PurchaseRequest is a synchronous direct-charge purchase intent
type PurchaseRequest struct {
	BuyerEmail string
	BuyerName  string
	ListingID  string
	Currency   string
	PaymentRef string
}

// OrderService is the fulfillment orchestrator: it decides a purchase
// intent's terminal status, triggers refund-on-failure and fans out the
// side effects that go with the decision.
type OrderService struct {
	orders        OrderRepository
	listings      ListingRepository
	notifications NotificationRepository
	gateway       PaymentGateway
	mailer        Mailer
	dedup         DedupStore
	checks        []FeasibilityCheck
	usdToINR      float64
}

// NewOrderService creates new OrderService instance
func NewOrderService(orders OrderRepository, listings ListingRepository, notifications NotificationRepository,
	gateway PaymentGateway, mailer Mailer, dedup DedupStore, usdToINR float64) *OrderService {
	return &OrderService{
		orders:        orders,
		listings:      listings,
		notifications: notifications,
		gateway:       gateway,
		mailer:        mailer,
		dedup:         dedup,
		checks:        []FeasibilityCheck{DeliveryCheck},
		usdToINR:      usdToINR,
	}
}

// RegisterFeasibilityCheck adds a feasibility check to the decision
func (os *OrderService) RegisterFeasibilityCheck(check FeasibilityCheck) {
	os.checks = append(os.checks, check)
}

// Purchase executes the synchronous direct-charge flow: verify payment,
// verify feasibility, record the order already terminal and emit the
// side effects of the outcome. Verification failures of any kind drive
// the refunded branch, they are never fatal.
func (os *OrderService) Purchase(ctx context.Context, req *PurchaseRequest) (*models.Order, error) {
	listing, err := os.listings.GetListingByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return nil, models.ErrListingUnavailable
		}
		return nil, err
	}

	paymentRef := req.PaymentRef
	if paymentRef == "" {
		// legacy flow without a provider reference
		paymentRef = "mock_pid_" + uuid.NewString()
	}

	verified, err := os.gateway.VerifyPayment(ctx, paymentRef)
	if err != nil {
		// gateway errors and timeouts count as verification failure
		logger.Log.Warn("payment verification errored",
			zap.String("payment_ref", paymentRef), zap.Error(err))
		verified = false
	}

	feasible := true
	for _, check := range os.checks {
		if err := check(ctx, listing); err != nil {
			logger.Log.Warn("feasibility check failed",
				zap.String("listing_id", listing.ID), zap.Error(err))
			feasible = false
			break
		}
	}

	price := listing.PriceIn(req.Currency, os.usdToINR)
	platformFee, processorFee := models.ComputeFees(price)

	status := models.OrderStatusCompleted
	if !verified || !feasible {
		status = models.OrderStatusRefunded
	}

	order := &models.Order{
		ID:           uuid.NewString(),
		BuyerEmail:   req.BuyerEmail,
		SellerEmail:  listing.SellerEmail,
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		PricePaid:    price,
		Currency:     req.Currency,
		PaymentRef:   &paymentRef,
		PlatformFee:  platformFee,
		ProcessorFee: processorFee,
		Status:       status,
	}

	order, err = os.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if status == models.OrderStatusRefunded {
		runEffects(ctx, os.refundEffects(order, paymentRef))
	} else {
		os.NotifyCompleted(ctx, order, req.BuyerName)
	}

	return order, nil
}

// NotifyCompleted fans out the side effects of a completed order: buyer
// receipt, seller sale email, seller in-app notification. Emission is
// deduplicated per order id so replayed resolutions stay observably
// single-shot; with the dedup store down, delivery goes ahead because
// the consumers are idempotent.
func (os *OrderService) NotifyCompleted(ctx context.Context, order *models.Order, buyerName string) {
	fresh, err := os.dedup.MarkNotified(ctx, order.ID)
	if err != nil {
		logger.Log.Warn("notification dedup unavailable", zap.Error(err))
		fresh = true
	}
	if !fresh {
		logger.Log.Debug("notifications already emitted", zap.String("order_id", order.ID))
		return
	}

	runEffects(ctx, os.completionEffects(order, buyerName))
}

// refundEffects compensates a failed purchase: refund the money, tell the
// buyer why. The ledger already says refunded; a failing refund call is an
// operator problem, not a state transition.
func (os *OrderService) refundEffects(order *models.Order, paymentRef string) []Effect {
	return []Effect{
		{
			Name: "gateway refund",
			Run: func(ctx context.Context) error {
				if err := os.gateway.RefundPayment(ctx, paymentRef, refundReason); err != nil {
					logger.Log.Error("refund call failed, manual reconciliation required",
						zap.String("order_id", order.ID),
						zap.String("payment_ref", paymentRef),
						zap.Error(err))
				}
				return nil
			},
		},
		{
			Name: "buyer refund email",
			Run: func(ctx context.Context) error {
				return os.mailer.SendRefundNotification(ctx, order.BuyerEmail, order.ID, order.ListingTitle, refundReason)
			},
		},
	}
}

// completionEffects notifies both sides of a completed sale
func (os *OrderService) completionEffects(order *models.Order, buyerName string) []Effect {
	if buyerName == "" {
		buyerName = "A Buyer"
	}

	return []Effect{
		{
			Name: "buyer receipt email",
			Run: func(ctx context.Context) error {
				return os.mailer.SendOrderConfirmation(ctx, order.BuyerEmail, order.ID, order.ListingTitle)
			},
		},
		{
			Name: "seller sale email",
			Run: func(ctx context.Context) error {
				return os.mailer.SendSaleNotification(ctx, order.SellerEmail, buyerName, order.ListingTitle, order.PricePaid, order.Currency)
			},
		},
		{
			Name: "seller in-app notification",
			Run: func(ctx context.Context) error {
				_, err := os.notifications.CreateNotification(ctx, &models.Notification{
					ID:        uuid.NewString(),
					UserEmail: order.SellerEmail,
					Type:      models.NotificationTypeSale,
					Title:     "New Sale!",
					Message:   fmt.Sprintf("You sold '%s' for %s %.2f.", order.ListingTitle, order.Currency, order.PricePaid),
					Link:      "/dashboard",
				})
				return err
			},
		},
	}
}

// ListOrders returns the caller's orders for the requested role
func (os *OrderService) ListOrders(ctx context.Context, email, role string) ([]models.Order, error) {
	if role == "seller" {
		return os.orders.GetOrdersBySeller(ctx, email)
	}
	return os.orders.GetOrdersByBuyer(ctx, email)
}
