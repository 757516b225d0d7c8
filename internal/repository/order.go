package repository

import (
	"context"

	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/repository/postgres"
)

const pgErrUniqueViolationCode = "23505"

const (
	insertOrderQuery = `
						INSERT INTO orders (id, buyer_email, seller_email, listing_id, listing_title, price_paid, currency, payment_ref, platform_fee, processor_fee, status)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
						RETURNING id, buyer_email, seller_email, listing_id, listing_title, price_paid, currency, payment_ref, platform_fee, processor_fee, status, created_at
`
	selectOrderByIDQuery = `
						SELECT id, buyer_email, seller_email, listing_id, listing_title, price_paid, currency, payment_ref, platform_fee, processor_fee, status, created_at FROM orders
						WHERE id = $1
`
	resolveOrderQuery = `
						UPDATE orders
						SET status = $2, payment_ref = $3
						WHERE id = $1 AND status = 'pending'
`
	selectPendingOrderQuery = `
						SELECT id, buyer_email, seller_email, listing_id, listing_title, price_paid, currency, payment_ref, platform_fee, processor_fee, status, created_at FROM orders
						WHERE listing_id = $1 AND buyer_email = $2 AND status = 'pending'
						ORDER BY created_at DESC
						LIMIT 1
`
	selectOrdersByBuyerQuery = `
						SELECT id, buyer_email, seller_email, listing_id, listing_title, price_paid, currency, payment_ref, platform_fee, processor_fee, status, created_at FROM orders
						WHERE buyer_email = $1
						ORDER BY created_at DESC
`
	selectOrdersBySellerQuery = `
						SELECT id, buyer_email, seller_email, listing_id, listing_title, price_paid, currency, payment_ref, platform_fee, processor_fee, status, created_at FROM orders
						WHERE seller_email = $1
						ORDER BY created_at DESC
`
	selectAllOrdersQuery = `
						SELECT id, buyer_email, seller_email, listing_id, listing_title, price_paid, currency, payment_ref, platform_fee, processor_fee, status, created_at FROM orders
						ORDER BY created_at DESC
`
)

// OrderRepository is the authoritative store of purchase ledger entries
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (or *OrderRepository) scanOrder(row interface {
	Scan(dest ...any) error
}, order *models.Order) error {
	return row.Scan(&order.ID, &order.BuyerEmail, &order.SellerEmail, &order.ListingID, &order.ListingTitle,
		&order.PricePaid, &order.Currency, &order.PaymentRef, &order.PlatformFee, &order.ProcessorFee,
		&order.Status, &order.CreatedAt)
}

// CreateOrder inserts new order to database. The status carried by the
// order is stored as-is: pending for the checkout-session path, already
// terminal for the legacy direct-charge path.
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	row := or.db.QueryRow(ctx, insertOrderQuery,
		order.ID, order.BuyerEmail, order.SellerEmail, order.ListingID, order.ListingTitle,
		order.PricePaid, order.Currency, order.PaymentRef, order.PlatformFee, order.ProcessorFee, order.Status)
	if err := or.scanOrder(row, order); err != nil {
		if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return order, nil
}

// GetOrderByID returns order by id
func (or *OrderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order := models.Order{}
	if err := or.scanOrder(or.db.QueryRow(ctx, selectOrderByIDQuery, id), &order); err != nil {
		if or.db.IsNoRows(err) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &order, nil
}

// Resolve moves a pending order to a terminal status. The update is
// conditional on the stored status still being pending, so concurrent
// resolve attempts serialize: only the first transition sticks. It
// returns applied=true when this call performed the transition. When the
// order is already terminal, a re-delivery carrying the same outcome and
// payment reference is an idempotent no-op (applied=false, nil error);
// anything else is ErrAlreadyResolved.
func (or *OrderRepository) Resolve(ctx context.Context, id string, outcome string, paymentRef string) (bool, error) {
	cmd, err := or.db.Exec(ctx, resolveOrderQuery, id, outcome, paymentRef)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() > 0 {
		return true, nil
	}

	// lost the race or a re-delivery: check what is stored
	order, err := or.GetOrderByID(ctx, id)
	if err != nil {
		return false, err
	}
	if resolutionMatches(order, outcome, paymentRef) {
		return false, nil
	}

	return false, models.ErrAlreadyResolved
}

// resolutionMatches reports whether a stored terminal order already
// carries the requested outcome and payment reference, which makes a
// repeated resolve a no-op rather than a conflict.
func resolutionMatches(order *models.Order, outcome string, paymentRef string) bool {
	if order.Status != outcome {
		return false
	}
	return order.PaymentRef != nil && *order.PaymentRef == paymentRef
}

// FindPendingFor locates the newest pending order for listing/buyer pair.
// The reconciler uses it to match asynchronous confirmations to orders
// created during checkout-session initiation.
func (or *OrderRepository) FindPendingFor(ctx context.Context, listingID, buyerEmail string) (*models.Order, error) {
	order := models.Order{}
	if err := or.scanOrder(or.db.QueryRow(ctx, selectPendingOrderQuery, listingID, buyerEmail), &order); err != nil {
		if or.db.IsNoRows(err) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &order, nil
}

func (or *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := or.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order := models.Order{}
		if err := or.scanOrder(rows, &order); err != nil {
			continue
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetOrdersByBuyer gets buyer orders, newest first
func (or *OrderRepository) GetOrdersByBuyer(ctx context.Context, buyerEmail string) ([]models.Order, error) {
	return or.listOrders(ctx, selectOrdersByBuyerQuery, buyerEmail)
}

// GetOrdersBySeller gets seller sales, newest first
func (or *OrderRepository) GetOrdersBySeller(ctx context.Context, sellerEmail string) ([]models.Order, error) {
	return or.listOrders(ctx, selectOrdersBySellerQuery, sellerEmail)
}

// GetOrders returns all orders, newest first
func (or *OrderRepository) GetOrders(ctx context.Context) ([]models.Order, error) {
	return or.listOrders(ctx, selectAllOrdersQuery)
}
