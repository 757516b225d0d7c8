package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/service/mocks"
)

const testWebhookSecret = "whsec_test"

func sign(t *testing.T, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type webhookServiceMocks struct {
	orders   *mocks.MockOrderRepository
	listings *mocks.MockListingRepository
	notifier *mocks.MockCompletionNotifier
	dedup    *mocks.MockDedupStore
}

func newWebhookServiceMocks(t *testing.T) *webhookServiceMocks {
	ctrl := gomock.NewController(t)
	return &webhookServiceMocks{
		orders:   mocks.NewMockOrderRepository(ctrl),
		listings: mocks.NewMockListingRepository(ctrl),
		notifier: mocks.NewMockCompletionNotifier(ctrl),
		dedup:    mocks.NewMockDedupStore(ctrl),
	}
}

func (m *webhookServiceMocks) service(secret string) *WebhookService {
	return NewWebhookService(m.orders, m.listings, m.notifier, m.dedup, secret)
}

func succeededPayload(sessionID, listingIDs string) []byte {
	return []byte(`{
		"type": "payment.succeeded",
		"data": {
			"id": "` + sessionID + `",
			"metadata": {"listing_ids": "` + listingIDs + `"},
			"customer": {"email": "buyer@example.com", "name": "Jordan"}
		}
	}`)
}

func TestWebhookService_HandleEvent_ResolvesPendingOrder(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_001", "listing-1")

	m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_001").Return(true, nil)
	m.listings.EXPECT().GetListingByID(gomock.Any(), "listing-1").
		Return(&models.Listing{ID: "listing-1", Title: "AI Resume Builder Pro"}, nil)
	m.orders.EXPECT().FindPendingFor(gomock.Any(), "listing-1", "buyer@example.com").
		Return(&models.Order{ID: "order-1", Status: models.OrderStatusPending}, nil)
	m.orders.EXPECT().Resolve(gomock.Any(), "order-1", models.OrderStatusCompleted, "cs_001").
		Return(true, nil)
	m.notifier.EXPECT().NotifyCompleted(gomock.Any(), gomock.Any(), "Jordan").
		Do(func(_ context.Context, order *models.Order, _ string) {
			assert.Equal(t, models.OrderStatusCompleted, order.Status)
			require.NotNil(t, order.PaymentRef)
			assert.Equal(t, "cs_001", *order.PaymentRef)
		})

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	require.NoError(t, err)
}

func TestWebhookService_HandleEvent_BadSignature(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_002", "listing-1")

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, "deadbeef")
	assert.ErrorIs(t, err, models.ErrInvalidSignature)
}

func TestWebhookService_HandleEvent_MalformedPayload(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := []byte(`{"type": "payment.succeeded",`)

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
}

func TestWebhookService_HandleEvent_IgnoresOtherEventTypes(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := []byte(`{"type": "payment.failed", "data": {"id": "cs_003"}}`)

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	assert.NoError(t, err)
}

func TestWebhookService_HandleEvent_ReplayedEventSkipped(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_004", "listing-1")

	m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_004").Return(false, nil)

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	assert.NoError(t, err)
}

func TestWebhookService_HandleEvent_ReplayAfterResolveIsNoOp(t *testing.T) {
	// an event slipping past dedup still emits nothing when the ledger
	// reports the transition as already applied
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_005", "listing-1")

	m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_005").Return(true, nil)
	m.listings.EXPECT().GetListingByID(gomock.Any(), "listing-1").
		Return(&models.Listing{ID: "listing-1"}, nil)
	m.orders.EXPECT().FindPendingFor(gomock.Any(), "listing-1", "buyer@example.com").
		Return(&models.Order{ID: "order-1", Status: models.OrderStatusPending}, nil)
	m.orders.EXPECT().Resolve(gomock.Any(), "order-1", models.OrderStatusCompleted, "cs_005").
		Return(false, nil)
	m.notifier.EXPECT().NotifyCompleted(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	assert.NoError(t, err)
}

func TestWebhookService_HandleEvent_ConflictingOutcomeSkipped(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_006", "listing-1")

	m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_006").Return(true, nil)
	m.listings.EXPECT().GetListingByID(gomock.Any(), "listing-1").
		Return(&models.Listing{ID: "listing-1"}, nil)
	m.orders.EXPECT().FindPendingFor(gomock.Any(), "listing-1", "buyer@example.com").
		Return(&models.Order{ID: "order-1"}, nil)
	m.orders.EXPECT().Resolve(gomock.Any(), "order-1", models.OrderStatusCompleted, "cs_006").
		Return(false, models.ErrAlreadyResolved)
	m.notifier.EXPECT().NotifyCompleted(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	assert.NoError(t, err)
}

func TestWebhookService_HandleEvent_NoPendingOrder(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_007", "listing-1")

	m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_007").Return(true, nil)
	m.listings.EXPECT().GetListingByID(gomock.Any(), "listing-1").
		Return(&models.Listing{ID: "listing-1"}, nil)
	m.orders.EXPECT().FindPendingFor(gomock.Any(), "listing-1", "buyer@example.com").
		Return(nil, models.ErrDataNotFound)

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	assert.NoError(t, err)
}

func TestWebhookService_HandleEvent_MultipleListings(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_008", "listing-1, listing-2")

	m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_008").Return(true, nil)
	for _, id := range []string{"listing-1", "listing-2"} {
		id := id
		m.listings.EXPECT().GetListingByID(gomock.Any(), id).
			Return(&models.Listing{ID: id}, nil)
		m.orders.EXPECT().FindPendingFor(gomock.Any(), id, "buyer@example.com").
			Return(&models.Order{ID: "order-" + id}, nil)
		m.orders.EXPECT().Resolve(gomock.Any(), "order-"+id, models.OrderStatusCompleted, "cs_008").
			Return(true, nil)
	}
	m.notifier.EXPECT().NotifyCompleted(gomock.Any(), gomock.Any(), "Jordan").Times(2)

	err := m.service(testWebhookSecret).HandleEvent(context.Background(), payload, sign(t, payload))
	require.NoError(t, err)
}

func TestWebhookService_HandleEvent_TransientFailureClearsMark(t *testing.T) {
	// a delivery failing mid-reconciliation releases the event mark, so
	// the provider's retry is processed instead of dropped as a replay
	m := newWebhookServiceMocks(t)
	payload := succeededPayload("cs_010", "listing-1")

	firstDelivery := m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_010").Return(true, nil)
	firstRead := m.listings.EXPECT().GetListingByID(gomock.Any(), "listing-1").
		Return(nil, errors.New("storage unavailable")).After(firstDelivery)
	cleared := m.dedup.EXPECT().ClearEvent(gomock.Any(), "cs_010").Return(nil).After(firstRead)

	svc := m.service(testWebhookSecret)
	err := svc.HandleEvent(context.Background(), payload, sign(t, payload))
	require.Error(t, err)

	// retry after the transient failure
	m.dedup.EXPECT().MarkEvent(gomock.Any(), "cs_010").Return(true, nil).After(cleared)
	m.listings.EXPECT().GetListingByID(gomock.Any(), "listing-1").
		Return(&models.Listing{ID: "listing-1"}, nil)
	m.orders.EXPECT().FindPendingFor(gomock.Any(), "listing-1", "buyer@example.com").
		Return(&models.Order{ID: "order-1", Status: models.OrderStatusPending}, nil)
	m.orders.EXPECT().Resolve(gomock.Any(), "order-1", models.OrderStatusCompleted, "cs_010").
		Return(true, nil)
	m.notifier.EXPECT().NotifyCompleted(gomock.Any(), gomock.Any(), "Jordan")

	err = svc.HandleEvent(context.Background(), payload, sign(t, payload))
	require.NoError(t, err)
}

func TestWebhookService_HandleEvent_NoSecretProcessesUnverified(t *testing.T) {
	m := newWebhookServiceMocks(t)
	payload := []byte(`{"type": "payment.failed", "data": {"id": "cs_009"}}`)

	err := m.service("").HandleEvent(context.Background(), payload, "")
	assert.NoError(t, err)
}
