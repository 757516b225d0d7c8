package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avocadohq/marketplace/config"
	"github.com/avocadohq/marketplace/internal/auth"
	"github.com/avocadohq/marketplace/internal/gateway"
	handler "github.com/avocadohq/marketplace/internal/handler/http"
	"github.com/avocadohq/marketplace/internal/logger"
	"github.com/avocadohq/marketplace/internal/mailer"
	"github.com/avocadohq/marketplace/internal/middleware"
	"github.com/avocadohq/marketplace/internal/repository"
	"github.com/avocadohq/marketplace/internal/repository/postgres"
	"github.com/avocadohq/marketplace/internal/service"
	"github.com/avocadohq/marketplace/internal/worker"
)

const authTokenKey = "f53ac685bbceebd75043e6be2e06ee07"

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	// initialize redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	tokenKey, err := hex.DecodeString(authTokenKey)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// external collaborators
	gatewayClient := gateway.NewClient(cfg.GatewayAddr, cfg.GatewayAPIKey)
	mailClient := mailer.NewClient(cfg.MailerAddr, cfg.MailerAPIKey)

	// dependency injection
	orderRepo := repository.NewOrderRepository(db)
	listingRepo := repository.NewListingRepository(db)
	bidRepo := repository.NewBidRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dedupStore := repository.NewDedupStore(rdb)

	// order
	orderService := service.NewOrderService(orderRepo, listingRepo, notificationRepo,
		gatewayClient, mailClient, dedupStore, cfg.USDToINRRate)
	purchaseHandler := handler.NewPurchaseHandler(orderService)

	// checkout
	checkoutService := service.NewCheckoutService(orderRepo, listingRepo, gatewayClient,
		cfg.FrontendURL, cfg.USDToINRRate)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)

	// webhook
	webhookService := service.NewWebhookService(orderRepo, listingRepo, orderService,
		dedupStore, cfg.WebhookSecret)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	// bid
	bidService := service.NewBidService(listingRepo, bidRepo)
	bidHandler := handler.NewBidHandler(bidService)

	// notification feed
	notificationService := service.NewNotificationService(notificationRepo)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// auction settlement worker
	auctionService := service.NewAuctionService(orderRepo, listingRepo, notificationRepo, mailClient)
	auctionCloser := worker.NewAuctionCloser(auctionService)
	go auctionCloser.Run(ctx)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger.Log))

	router.Post("/purchases", purchaseHandler.CreatePurchase())
	router.Post("/webhooks/payment-events", webhookHandler.HandleEvent())
	router.Get("/listings/{id}/bids", bidHandler.ListBids())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(handler.Auth(token))
		group.Post("/checkout/session", checkoutHandler.CreateSession())
		group.Get("/purchases", purchaseHandler.ListPurchases())
		group.Post("/listings/{id}/bid", bidHandler.PlaceBid())
		group.Get("/notifications", notificationHandler.ListNotifications())
	})

	logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}
}
