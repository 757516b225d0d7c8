package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avocadohq/marketplace/internal/handler/http/mocks"
	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/service"
)

func TestPurchaseHandler_CreatePurchase(t *testing.T) {
	paymentRef := "pay_123"

	tests := []struct {
		name           string
		body           string
		setup          func(t *testing.T) *mocks.MockPurchaseService
		wantStatusCode int
		wantStatus     string
	}{
		{
			// 200 — purchase completed
			name: "completed_purchase_return_200",
			body: `{"buyer_email":"buyer@example.com","listing_id":"listing-1","currency":"USD","payment_ref":"pay_123"}`,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().Purchase(gomock.Any(), &service.PurchaseRequest{
					BuyerEmail: "buyer@example.com",
					ListingID:  "listing-1",
					Currency:   "USD",
					PaymentRef: "pay_123",
				}).Return(&models.Order{
					ID:           "order-1",
					BuyerEmail:   "buyer@example.com",
					ListingID:    "listing-1",
					ListingTitle: "AI Resume Builder Pro",
					PricePaid:    100,
					Currency:     "USD",
					PaymentRef:   &paymentRef,
					PlatformFee:  15,
					ProcessorFee: 3.5,
					Status:       models.OrderStatusCompleted,
				}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     models.OrderStatusCompleted,
		},
		{
			// 200 — purchase refunded, still a definitive answer
			name: "refunded_purchase_return_200",
			body: `{"buyer_email":"buyer@example.com","listing_id":"listing-2"}`,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(&models.Order{
					ID:     "order-2",
					Status: models.OrderStatusRefunded,
				}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     models.OrderStatusRefunded,
		},
		{
			// 400 — malformed body
			name: "malformed_body_return_400",
			body: `{"buyer_email":`,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().Purchase(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 400 — listing_id is required
			name: "missing_listing_id_return_400",
			body: `{"buyer_email":"buyer@example.com"}`,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().Purchase(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 404 — listing not found
			name: "listing_not_found_return_404",
			body: `{"buyer_email":"buyer@example.com","listing_id":"ghost"}`,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().Purchase(gomock.Any(), gomock.Any()).
					Return(nil, models.ErrListingUnavailable)
				return svcMock
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// 500 — internal error
			name: "internal_error_return_500",
			body: `{"buyer_email":"buyer@example.com","listing_id":"listing-1"}`,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().Purchase(gomock.Any(), gomock.Any()).
					Return(nil, models.ErrInternalError)
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler := NewPurchaseHandler(tt.setup(t))
			handler.CreatePurchase()(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if res.StatusCode == http.StatusOK {
				var body orderResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
				assert.Equal(t, tt.wantStatus, body.Status)
			}
		})
	}
}

func TestPurchaseHandler_ListPurchases(t *testing.T) {
	createdAt := time.Now()
	caller := &models.TokenPayload{Email: "buyer@example.com"}

	tests := []struct {
		name           string
		token          *models.TokenPayload
		query          string
		setup          func(t *testing.T) *mocks.MockPurchaseService
		wantStatusCode int
		wantBody       []orderResponse
	}{
		{
			// 200 — buyer's purchases
			name:  "buyer_orders_return_200",
			token: caller,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().ListOrders(gomock.Any(), "buyer@example.com", "buyer").
					Return([]models.Order{
						{
							ID:           "order-1",
							BuyerEmail:   "buyer@example.com",
							ListingID:    "listing-1",
							ListingTitle: "AI Resume Builder Pro",
							PricePaid:    100,
							Currency:     "USD",
							PlatformFee:  15,
							ProcessorFee: 3.5,
							Status:       models.OrderStatusCompleted,
							CreatedAt:    createdAt,
						},
					}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody: []orderResponse{{
				ID:           "order-1",
				BuyerEmail:   "buyer@example.com",
				ListingID:    "listing-1",
				ListingTitle: "AI Resume Builder Pro",
				PricePaid:    100,
				Currency:     "USD",
				PlatformFee:  15,
				ProcessorFee: 3.5,
				Status:       models.OrderStatusCompleted,
				CreatedAt:    createdAt.Format(time.RFC3339),
			}},
		},
		{
			// 200 — seller side via role query param
			name:  "seller_orders_return_200",
			token: caller,
			query: "?role=seller",
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().ListOrders(gomock.Any(), "buyer@example.com", "seller").
					Return([]models.Order{}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody:       []orderResponse{},
		},
		{
			// 401 — caller is not authenticated
			name: "unauthorized_return_401",
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().ListOrders(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// 500 — internal error
			name:  "internal_error_return_500",
			token: caller,
			setup: func(t *testing.T) *mocks.MockPurchaseService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockPurchaseService(ctrl)
				svcMock.EXPECT().ListOrders(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrInternalError)
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/purchases"+tt.query, nil)
			ctx := req.Context()
			if tt.token != nil {
				ctx = context.WithValue(ctx, contextKeyIdentity, tt.token)
			}

			w := httptest.NewRecorder()

			handler := NewPurchaseHandler(tt.setup(t))
			handler.ListPurchases()(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if res.StatusCode == http.StatusOK {
				var body []orderResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
				if diff := cmp.Diff(tt.wantBody, body); diff != "" {
					t.Errorf("body mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
