package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix  = "event:"
	notifyKeyPrefix = "notify:"
	dedupKeyTTL     = 24 * time.Hour
)

// DedupStore tracks already-seen webhook events and already-sent order
// notifications in redis. Keys expire after a day; provider retries land
// well inside that window.
type DedupStore struct {
	client *redis.Client
}

// NewDedupStore creates new DedupStore instance
func NewDedupStore(client *redis.Client) *DedupStore {
	return &DedupStore{client: client}
}

// MarkEvent records a webhook event id. Returns false when the event was
// seen before.
func (ds *DedupStore) MarkEvent(ctx context.Context, eventID string) (bool, error) {
	return ds.client.SetNX(ctx, eventKeyPrefix+eventID, 1, dedupKeyTTL).Result()
}

// ClearEvent removes an event mark. The reconciler calls it when
// processing fails after the mark was set, so the provider's retry is
// treated as a fresh delivery.
func (ds *DedupStore) ClearEvent(ctx context.Context, eventID string) error {
	return ds.client.Del(ctx, eventKeyPrefix+eventID).Err()
}

// MarkNotified records that side effects for an order were emitted.
// Returns false when they already were.
func (ds *DedupStore) MarkNotified(ctx context.Context, orderID string) (bool, error) {
	return ds.client.SetNX(ctx, notifyKeyPrefix+orderID, 1, dedupKeyTTL).Result()
}
