package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avocadohq/marketplace/internal/gateway"
	"github.com/avocadohq/marketplace/internal/handler/http/mocks"
	"github.com/avocadohq/marketplace/internal/models"
)

func TestCheckoutHandler_CreateSession(t *testing.T) {
	buyer := &models.TokenPayload{Email: "buyer@example.com", Name: "Jordan"}

	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T) *mocks.MockCheckoutService
		wantStatusCode int
	}{
		{
			// 200 — session created
			name:  "session_created_return_200",
			token: buyer,
			body:  `{"listing_ids":["listing-1","listing-2"],"currency":"USD"}`,
			setup: func(t *testing.T) *mocks.MockCheckoutService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCheckoutService(ctrl)
				svcMock.EXPECT().CreateSession(gomock.Any(), buyer, []string{"listing-1", "listing-2"}, "USD").
					Return(&gateway.Session{ID: "cs_100", CheckoutURL: "https://pay.example.com/cs_100"}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// 200 — missing currency defaults to USD
			name:  "default_currency_return_200",
			token: buyer,
			body:  `{"listing_ids":["listing-1"]}`,
			setup: func(t *testing.T) *mocks.MockCheckoutService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCheckoutService(ctrl)
				svcMock.EXPECT().CreateSession(gomock.Any(), buyer, []string{"listing-1"}, "USD").
					Return(&gateway.Session{ID: "cs_101", CheckoutURL: "https://pay.example.com/cs_101"}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// 400 — listing_ids is required
			name:  "empty_listing_ids_return_400",
			token: buyer,
			body:  `{"listing_ids":[]}`,
			setup: func(t *testing.T) *mocks.MockCheckoutService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCheckoutService(ctrl)
				svcMock.EXPECT().CreateSession(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 401 — caller is not authenticated
			name: "unauthorized_return_401",
			body: `{"listing_ids":["listing-1"]}`,
			setup: func(t *testing.T) *mocks.MockCheckoutService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCheckoutService(ctrl)
				svcMock.EXPECT().CreateSession(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// 404 — none of the listings exist
			name:  "no_listings_return_404",
			token: buyer,
			body:  `{"listing_ids":["ghost"]}`,
			setup: func(t *testing.T) *mocks.MockCheckoutService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCheckoutService(ctrl)
				svcMock.EXPECT().CreateSession(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrListingUnavailable)
				return svcMock
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// 500 — gateway rejected the session
			name:  "gateway_rejection_return_500",
			token: buyer,
			body:  `{"listing_ids":["listing-1"]}`,
			setup: func(t *testing.T) *mocks.MockCheckoutService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCheckoutService(ctrl)
				svcMock.EXPECT().CreateSession(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrSessionRejected)
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", strings.NewReader(tt.body))
			ctx := req.Context()
			if tt.token != nil {
				ctx = context.WithValue(ctx, contextKeyIdentity, tt.token)
			}

			w := httptest.NewRecorder()

			handler := NewCheckoutHandler(tt.setup(t))
			handler.CreateSession()(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.name == "session_created_return_200" {
				var body checkoutSessionResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
				want := checkoutSessionResponse{
					CheckoutURL: "https://pay.example.com/cs_100",
					SessionID:   "cs_100",
				}
				if diff := cmp.Diff(want, body); diff != "" {
					t.Errorf("body mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
