package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tickethub/config"
	"tickethub/handlers"
	"tickethub/internal/services/gateway/paystack"
	_ "tickethub/migrations"
	"tickethub/monitoring"
	"tickethub/security"
	"tickethub/services"
	"tickethub/utils"
)

func main() {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize the organizer notifier (noop without PubNub keys)
	notifier := services.NewNoopNotifier()
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	}

	// Initialize the payment gateway
	paystackClient := paystack.New(&paystack.Config{
		BaseURL:   cfg.PaystackBaseURL,
		SecretKey: cfg.PaystackSecretKey,
	})

	// Initialize services
	summaryService := services.NewSummaryService(app)
	ticketService := services.NewTicketService(app)
	promoService := services.NewPromoService(app)
	eventService := services.NewEventService(app)
	saleService := services.NewSaleService(app, ticketService, summaryService, notifier)
	payoutService := services.NewPayoutService(app, summaryService, notifier)
	adminService := services.NewAdminService(app, summaryService)
	checkoutService := services.NewCheckoutService(
		redisClient, paystackClient, promoService, ticketService, saleService, eventService, cfg)

	// Initialize handlers
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, paystackClient)
	eventHandler := handlers.NewEventHandler(app, eventService, ticketService)
	promoHandler := handlers.NewPromoHandler(app, promoService)
	saleHandler := handlers.NewSaleHandler(app, saleService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	adminHandler := handlers.NewAdminHandler(adminService)

	limiter := security.NewRateLimiter(redisClient, cfg.CheckoutRateLimit, cfg.CheckoutRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		if err := ensurePlatformFee(app, cfg.PlatformFeePercent); err != nil {
			return err
		}

		// Checkout endpoints (public, rate limited)
		e.Router.POST("/api/checkout", checkoutHandler.Begin).
			BindFunc(limiter.AntiBot()).
			BindFunc(limiter.CheckoutRateLimit())
		e.Router.GET("/api/checkout/verify/{reference}", checkoutHandler.Verify).
			BindFunc(limiter.AntiBot())
		e.Router.POST("/api/webhooks/paystack", checkoutHandler.Webhook)
		e.Router.POST("/api/promos/validate", promoHandler.Validate).
			BindFunc(limiter.AntiBot())

		// Event endpoints
		e.Router.POST("/api/events", eventHandler.Create).Bind(apis.RequireAuth())
		e.Router.PATCH("/api/events/{eventId}", eventHandler.Update).Bind(apis.RequireAuth())
		e.Router.POST("/api/events/{eventId}/publish", eventHandler.Publish).Bind(apis.RequireAuth())
		e.Router.POST("/api/events/{eventId}/unpublish", eventHandler.Unpublish).Bind(apis.RequireAuth())
		e.Router.POST("/api/events/{eventId}/republish", eventHandler.Republish).Bind(apis.RequireAuth())
		e.Router.POST("/api/events/{eventId}/tickets", eventHandler.CreateTicket).Bind(apis.RequireAuth())
		e.Router.PATCH("/api/tickets/{ticketId}", eventHandler.UpdateTicket).Bind(apis.RequireAuth())

		// Promo endpoints
		e.Router.POST("/api/promos", promoHandler.Create).Bind(apis.RequireAuth())
		e.Router.GET("/api/events/{eventId}/promos", promoHandler.List).Bind(apis.RequireAuth())
		e.Router.POST("/api/promos/{promoId}/close", promoHandler.Close).Bind(apis.RequireAuth())
		e.Router.POST("/api/promos/{promoId}/reactivate", promoHandler.Reactivate).Bind(apis.RequireAuth())

		// Sale endpoints
		e.Router.GET("/api/events/{eventId}/sales", saleHandler.List).Bind(apis.RequireAuth())
		e.Router.POST("/api/sales/{saleId}/check-in", saleHandler.CheckIn).Bind(apis.RequireAuth())

		// Payout endpoints
		e.Router.GET("/api/events/{eventId}/balance", payoutHandler.Balance).Bind(apis.RequireAuth())
		e.Router.POST("/api/payouts", payoutHandler.Request).Bind(apis.RequireAuth())
		e.Router.GET("/api/payouts", payoutHandler.List).Bind(apis.RequireAuth())
		e.Router.POST("/api/payouts/{payoutId}/cancel", payoutHandler.Cancel).Bind(apis.RequireAuth())
		e.Router.POST("/api/payouts/{payoutId}/processing", payoutHandler.MarkProcessing).Bind(apis.RequireAuth())
		e.Router.POST("/api/payouts/{payoutId}/complete", payoutHandler.Complete).Bind(apis.RequireAuth())

		// Admin endpoints
		e.Router.GET("/api/admin/platform-fee", adminHandler.GetPlatformFee).Bind(apis.RequireAuth())
		e.Router.PUT("/api/admin/platform-fee", adminHandler.SetPlatformFee).Bind(apis.RequireAuth())
		e.Router.GET("/api/admin/summaries", adminHandler.ListSummaries).Bind(apis.RequireAuth())
		e.Router.POST("/api/admin/summaries/recompute", adminHandler.RecomputeSummaries).Bind(apis.RequireAuth())

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		// Start background tasks once the database is ready
		go runCleanup(ctx, eventService, promoService, cfg.CleanupInterval)

		if cfg.EnableMetrics {
			go startMetricsServer(ctx, cfg.MetricsPort, redisClient)
		}

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// ensurePlatformFee seeds the fee singleton on first boot.
func ensurePlatformFee(app core.App, percent float64) error {
	if _, err := app.FindFirstRecordByFilter("platform_fees", "id != ''"); err == nil {
		return nil
	}

	collection, err := app.FindCollectionByNameOrId("platform_fees")
	if err != nil {
		return err
	}

	value, _ := decimal.NewFromFloat(percent).Round(2).Float64()
	rec := core.NewRecord(collection)
	rec.Set("fee_percentage", value)

	log.Printf("Seeding platform fee at %.2f%%", value)
	return app.Save(rec)
}

// runCleanup periodically ends expired events and expires stale promo codes.
func runCleanup(ctx context.Context, events *services.EventService, promos *services.PromoService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			if n, err := events.EndExpired(now); err != nil {
				log.Printf("Cleanup: ending expired events failed: %v", err)
			} else if n > 0 {
				log.Printf("Cleanup: ended %d expired events", n)
			}

			if n, err := promos.ExpireStale(now); err != nil {
				log.Printf("Cleanup: expiring stale promo codes failed: %v", err)
			} else if n > 0 {
				log.Printf("Cleanup: expired %d stale promo codes", n)
			}
		}
	}
}

// startMetricsServer runs the standalone metrics endpoint until ctx ends.
func startMetricsServer(ctx context.Context, port string, redisClient *redis.Client) {
	srv := monitoring.NewMetricsServer(":"+port, redisClient)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics server listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil {
		log.Printf("Metrics server stopped: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
