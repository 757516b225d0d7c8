package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/service/mocks"
)

func ptrString(s string) *string { return &s }

func TestAuctionService_SettleEndedAuctions_WithWinner(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	listings := mocks.NewMockListingRepository(ctrl)
	notifications := mocks.NewMockNotificationRepository(ctrl)
	mailer := mocks.NewMockMailer(ctrl)

	listings.EXPECT().GetEndedAuctions(gomock.Any()).Return([]models.Listing{
		{
			ID:                 "listing-1",
			Title:              "Vintage AI Art Collection",
			SellerEmail:        "seller@example.com",
			ListingType:        models.ListingTypeAuction,
			CurrentBid:         ptrFloat(250),
			HighestBidderEmail: ptrString("winner@example.com"),
		},
	}, nil)
	listings.EXPECT().SettleAuction(gomock.Any(), "listing-1").Return(nil)

	var created models.Order
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, order *models.Order) (*models.Order, error) {
			created = *order
			return order, nil
		})
	mailer.EXPECT().SendAuctionWonNotification(gomock.Any(), "winner@example.com", "Vintage AI Art Collection", 250.0).Return(nil)
	notifications.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n *models.Notification) (*models.Notification, error) {
			assert.Equal(t, "winner@example.com", n.UserEmail)
			assert.Equal(t, "You Won the Auction!", n.Title)
			return n, nil
		})

	svc := NewAuctionService(orders, listings, notifications, mailer)
	require.NoError(t, svc.SettleEndedAuctions(context.Background()))

	assert.Equal(t, models.OrderStatusPending, created.Status)
	assert.Equal(t, "winner@example.com", created.BuyerEmail)
	assert.Equal(t, 250.0, created.PricePaid)
	assert.Equal(t, 37.5, created.PlatformFee)
	assert.Equal(t, 8.75, created.ProcessorFee)
	assert.Equal(t, settlementOrderID("listing-1"), created.ID)
}

func TestAuctionService_SettleEndedAuctions_NoBids(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	listings := mocks.NewMockListingRepository(ctrl)
	notifications := mocks.NewMockNotificationRepository(ctrl)
	mailer := mocks.NewMockMailer(ctrl)

	listings.EXPECT().GetEndedAuctions(gomock.Any()).Return([]models.Listing{
		{ID: "listing-1", Title: "Vintage AI Art Collection", ListingType: models.ListingTypeAuction},
	}, nil)
	listings.EXPECT().SettleAuction(gomock.Any(), "listing-1").Return(nil)
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Times(0)

	svc := NewAuctionService(orders, listings, notifications, mailer)
	assert.NoError(t, svc.SettleEndedAuctions(context.Background()))
}

func TestAuctionService_SettleEndedAuctions_LostRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	listings := mocks.NewMockListingRepository(ctrl)
	notifications := mocks.NewMockNotificationRepository(ctrl)
	mailer := mocks.NewMockMailer(ctrl)

	listings.EXPECT().GetEndedAuctions(gomock.Any()).Return([]models.Listing{
		{
			ID:                 "listing-1",
			CurrentBid:         ptrFloat(250),
			HighestBidderEmail: ptrString("winner@example.com"),
		},
	}, nil)
	// another worker instance recorded the order and settled first
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(nil, models.ErrConflictData)
	listings.EXPECT().SettleAuction(gomock.Any(), "listing-1").Return(models.ErrConflictData)

	svc := NewAuctionService(orders, listings, notifications, mailer)
	assert.NoError(t, svc.SettleEndedAuctions(context.Background()))
}

func TestAuctionService_SettleEndedAuctions_RetriesAfterOrderInsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	listings := mocks.NewMockListingRepository(ctrl)
	notifications := mocks.NewMockNotificationRepository(ctrl)
	mailer := mocks.NewMockMailer(ctrl)

	ended := []models.Listing{
		{
			ID:                 "listing-1",
			Title:              "Vintage AI Art Collection",
			SellerEmail:        "seller@example.com",
			ListingType:        models.ListingTypeAuction,
			CurrentBid:         ptrFloat(250),
			HighestBidderEmail: ptrString("winner@example.com"),
		},
	}

	// first tick: the order insert fails, so the auction must stay
	// unsettled and the winner must not be congratulated yet
	firstList := listings.EXPECT().GetEndedAuctions(gomock.Any()).Return(ended, nil)
	firstCreate := orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	// second tick: the auction is still pending, the retried insert
	// succeeds and the settlement completes end to end
	listings.EXPECT().GetEndedAuctions(gomock.Any()).Return(ended, nil).After(firstList)
	orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, order *models.Order) (*models.Order, error) {
			assert.Equal(t, settlementOrderID("listing-1"), order.ID)
			return order, nil
		}).After(firstCreate)
	listings.EXPECT().SettleAuction(gomock.Any(), "listing-1").Return(nil)
	mailer.EXPECT().SendAuctionWonNotification(gomock.Any(), "winner@example.com", "Vintage AI Art Collection", 250.0).Return(nil)
	notifications.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n *models.Notification) (*models.Notification, error) {
			return n, nil
		})

	svc := NewAuctionService(orders, listings, notifications, mailer)
	require.NoError(t, svc.SettleEndedAuctions(context.Background()))
	require.NoError(t, svc.SettleEndedAuctions(context.Background()))
}
