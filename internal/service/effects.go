package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/avocadohq/marketplace/internal/logger"
)

// Effect is one post-commit side effect: an email, an in-app notification,
// a refund call. Effects run after the ledger transition has committed and
// are individually failable.
type Effect struct {
	Name string
	Run  func(ctx context.Context) error
}

// runEffects invokes effects in order. A failing or panicking effect is
// logged and never blocks the ones after it, and nothing here can roll
// back the ledger write that triggered the fan-out.
func runEffects(ctx context.Context, effects []Effect) {
	for _, effect := range effects {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Error("side effect panicked",
						zap.String("effect", effect.Name),
						zap.Any("panic", r))
				}
			}()

			if err := effect.Run(ctx); err != nil {
				logger.Log.Error("side effect failed",
					zap.String("effect", effect.Name),
					zap.Error(err))
			}
		}()
	}
}
