package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/avocadohq/marketplace/internal/logger"
	"github.com/avocadohq/marketplace/internal/models"
)

// eventPaymentSucceeded is the only event type that drives order
// resolution; everything else is acknowledged and dropped
const eventPaymentSucceeded = "payment.succeeded"

type eventCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type eventData struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
	Customer eventCustomer     `json:"customer"`
}

type providerEvent struct {
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

// CompletionNotifier emits the side effects of a completed order
type CompletionNotifier interface {
	NotifyCompleted(ctx context.Context, order *models.Order, buyerName string)
}

// WebhookService reconciles asynchronous provider callbacks against
// pending ledger entries. Delivery is at least once and possibly out of
// order, so every step here has to tolerate replay.
type WebhookService struct {
	orders   OrderRepository
	listings ListingRepository
	notifier CompletionNotifier
	dedup    DedupStore
	secret   string
}

// NewWebhookService creates new WebhookService instance
func NewWebhookService(orders OrderRepository, listings ListingRepository, notifier CompletionNotifier,
	dedup DedupStore, secret string) *WebhookService {
	return &WebhookService{
		orders:   orders,
		listings: listings,
		notifier: notifier,
		dedup:    dedup,
		secret:   secret,
	}
}

// verifySignature checks the HMAC-SHA256 hex signature of the raw payload
func (ws *WebhookService) verifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(ws.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleEvent processes one signed provider event. Signature failure
// aborts before any state is touched. Re-delivery of an already-seen
// event, or of one whose orders are already completed, is a no-op.
func (ws *WebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if ws.secret != "" {
		if !ws.verifySignature(payload, signature) {
			return models.ErrInvalidSignature
		}
	} else {
		// explicit degraded mode: no shared secret configured
		logger.Log.Warn("webhook secret not configured, processing event unverified")
	}

	event := providerEvent{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.ErrInvalidEvent
	}

	logger.Log.Info("received payment event", zap.String("type", event.Type))

	if event.Type != eventPaymentSucceeded {
		// accepted and acknowledged, no state change
		return nil
	}

	sessionID := event.Data.ID
	buyerEmail := event.Data.Customer.Email
	buyerName := event.Data.Customer.Name

	marked := false
	if fresh, err := ws.dedup.MarkEvent(ctx, sessionID); err != nil {
		// the ledger's conditional resolve still guards correctness
		logger.Log.Warn("event dedup unavailable", zap.Error(err))
	} else if !fresh {
		logger.Log.Info("replayed payment event, skipping", zap.String("session_id", sessionID))
		return nil
	} else {
		marked = true
	}

	for _, listingID := range splitListingIDs(event.Data.Metadata["listing_ids"]) {
		if err := ws.reconcileListing(ctx, listingID, buyerEmail, buyerName, sessionID); err != nil {
			// release the mark: the provider retries on non-2xx and the
			// retry has to be processed, not dropped as a replay
			if marked {
				if clearErr := ws.dedup.ClearEvent(ctx, sessionID); clearErr != nil {
					logger.Log.Error("clearing event mark failed, provider retry will be skipped",
						zap.String("session_id", sessionID), zap.Error(clearErr))
				}
			}
			return err
		}
	}

	return nil
}

// reconcileListing resolves the pending order for one paid listing
func (ws *WebhookService) reconcileListing(ctx context.Context, listingID, buyerEmail, buyerName, sessionID string) error {
	listing, err := ws.listings.GetListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			logger.Log.Warn("paid listing not found, skipping", zap.String("listing_id", listingID))
			return nil
		}
		return err
	}

	order, err := ws.orders.FindPendingFor(ctx, listing.ID, buyerEmail)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			// the direct-charge path may have resolved this purchase already
			logger.Log.Info("no pending order for paid listing, skipping",
				zap.String("listing_id", listingID),
				zap.String("buyer_email", buyerEmail))
			return nil
		}
		return err
	}

	applied, err := ws.orders.Resolve(ctx, order.ID, models.OrderStatusCompleted, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyResolved) {
			logger.Log.Warn("order resolved to a different outcome, skipping",
				zap.String("order_id", order.ID))
			return nil
		}
		return err
	}
	if !applied {
		// already completed by an earlier delivery
		return nil
	}

	order.Status = models.OrderStatusCompleted
	order.PaymentRef = &sessionID

	ws.notifier.NotifyCompleted(ctx, order, buyerName)

	return nil
}

func splitListingIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
