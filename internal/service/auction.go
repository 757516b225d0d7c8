package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avocadohq/marketplace/internal/logger"
	"github.com/avocadohq/marketplace/internal/models"
)

// AuctionService settles ended auctions: the winning bid becomes a
// pending purchase awaiting payment through the regular checkout flow
type AuctionService struct {
	orders        OrderRepository
	listings      ListingRepository
	notifications NotificationRepository
	mailer        Mailer
}

// NewAuctionService creates new AuctionService instance
func NewAuctionService(orders OrderRepository, listings ListingRepository,
	notifications NotificationRepository, mailer Mailer) *AuctionService {
	return &AuctionService{
		orders:        orders,
		listings:      listings,
		notifications: notifications,
		mailer:        mailer,
	}
}

// SettleEndedAuctions finds ended, unsettled auctions and settles each
// one. Settlement is guarded by a conditional update, so concurrent
// worker instances cannot settle the same listing twice.
func (as *AuctionService) SettleEndedAuctions(ctx context.Context) error {
	listings, err := as.listings.GetEndedAuctions(ctx)
	if err != nil {
		return err
	}

	for _, listing := range listings {
		if err := as.settle(ctx, &listing); err != nil {
			logger.Log.Error("auction settlement failed",
				zap.String("listing_id", listing.ID),
				zap.Error(err))
		}
	}

	return nil
}

func (as *AuctionService) settle(ctx context.Context, listing *models.Listing) error {
	if listing.HighestBidderEmail == nil || listing.CurrentBid == nil {
		if err := as.listings.SettleAuction(ctx, listing.ID); err != nil {
			if errors.Is(err, models.ErrConflictData) {
				// another instance settled it first
				return nil
			}
			return err
		}
		logger.Log.Info("auction ended without bids", zap.String("listing_id", listing.ID))
		return nil
	}

	winner := *listing.HighestBidderEmail
	amount := *listing.CurrentBid
	platformFee, processorFee := models.ComputeFees(amount)

	order := &models.Order{
		ID:           settlementOrderID(listing.ID),
		BuyerEmail:   winner,
		SellerEmail:  listing.SellerEmail,
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		PricePaid:    amount,
		Currency:     "USD",
		PlatformFee:  platformFee,
		ProcessorFee: processorFee,
		Status:       models.OrderStatusPending,
	}

	// order first: if the insert fails the settled flag stays unset and
	// the next tick retries, instead of stranding a settled auction with
	// no purchase for the winner. The derived order id makes a repeated
	// insert a conflict, which counts as already recorded.
	if _, err := as.orders.CreateOrder(ctx, order); err != nil && !errors.Is(err, models.ErrConflictData) {
		return err
	}

	if err := as.listings.SettleAuction(ctx, listing.ID); err != nil {
		if errors.Is(err, models.ErrConflictData) {
			// another instance flips the flag and emits the effects
			return nil
		}
		return err
	}

	logger.Log.Info("auction settled",
		zap.String("listing_id", listing.ID),
		zap.String("winner", winner),
		zap.Float64("amount", amount))

	runEffects(ctx, []Effect{
		{
			Name: "auction won email",
			Run: func(ctx context.Context) error {
				return as.mailer.SendAuctionWonNotification(ctx, winner, listing.Title, amount)
			},
		},
		{
			Name: "winner in-app notification",
			Run: func(ctx context.Context) error {
				_, err := as.notifications.CreateNotification(ctx, &models.Notification{
					ID:        uuid.NewString(),
					UserEmail: winner,
					Type:      models.NotificationTypeSystem,
					Title:     "You Won the Auction!",
					Message:   fmt.Sprintf("You won '%s' with a bid of USD %.2f. Complete checkout to claim it.", listing.Title, amount),
					Link:      "/purchases",
				})
				return err
			},
		},
	})

	return nil
}

// settlementOrderID derives the winner's order id from the listing, so a
// crashed or concurrent settlement attempt cannot record the purchase twice.
func settlementOrderID(listingID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("auction-settlement:"+listingID)).String()
}
