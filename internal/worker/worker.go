package worker

import (
	"context"
	"time"

	"github.com/avocadohq/marketplace/internal/logger"
)

type AuctionService interface {
	SettleEndedAuctions(ctx context.Context) error
}

// AuctionCloser is worker that settles ended auctions
type AuctionCloser struct {
	svc AuctionService
}

// NewAuctionCloser creates new auction closer
func NewAuctionCloser(svc AuctionService) *AuctionCloser {
	return &AuctionCloser{svc: svc}
}

// Run settles ended auctions until the context is cancelled
func (ac *AuctionCloser) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Debug("auction closer is done")
			return
		case <-ticker.C:
			if err := ac.svc.SettleEndedAuctions(ctx); err != nil {
				logger.Log.Error("error settling ended auctions")
			}
		}
	}
}
