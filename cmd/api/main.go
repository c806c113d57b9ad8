package main

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/stemwave/stemwave-be/internal/core/cache"
	"github.com/stemwave/stemwave-be/internal/core/locker"
	"github.com/stemwave/stemwave-be/internal/core/separation"
	"github.com/stemwave/stemwave-be/internal/handlers"
	"github.com/stemwave/stemwave-be/internal/metrics"
	"github.com/stemwave/stemwave-be/internal/repositories"
	"github.com/stemwave/stemwave-be/internal/services"
	"github.com/stemwave/stemwave-be/internal/shared/config"
	"github.com/stemwave/stemwave-be/internal/shared/database"
	"github.com/stemwave/stemwave-be/internal/shared/utils"

	_ "github.com/stemwave/stemwave-be/docs"
)

// @title StemWave API
// @version 1.0
// @description Usage-metered gateway for AI audio stem separation
// @contact.name API Support
// @contact.email support@stemwave.io
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env)
	log.Printf("🚀 Starting stemwave-api on port %s", cfg.Port)

	// Init database
	db := database.NewDB(cfg.DatabaseURL)
	defer db.Close()

	// Init submission lock. Redis when reachable, in-process otherwise.
	var locks locker.Locker
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable at %s, using in-process locks: %v", cfg.RedisAddr, err)
		locks = locker.NewMemory()
	} else {
		log.Printf("🔒 Using Redis submission locks at %s", cfg.RedisAddr)
		locks = locker.NewRedis(rdb)
	}

	// Init metrics
	m := metrics.New()

	// Init repositories
	userRepo := repositories.NewUserRepo(db.GORM)
	txnRepo := repositories.NewTransactionRepo(db.GORM)
	jobRepo := repositories.NewJobRepo(db.GORM)
	eventRepo := repositories.NewWebhookEventRepo(db.GORM)

	// Init separation provider and poller
	provider := separation.NewHTTPProvider(cfg.SeparationAPIURL, cfg.SeparationAPIKey)
	poller := separation.NewPoller(provider, cfg.PollInterval, cfg.MaxPollDuration)
	log.Printf("🎵 Using separation provider: %s", provider.Name())

	// Init services
	creditService := services.NewCreditService(userRepo, txnRepo, m)
	entitlementService := services.NewEntitlementService(userRepo, m)
	subscriptionService := services.NewSubscriptionService(db.GORM, eventRepo, m)
	separationService := services.NewSeparationService(
		jobRepo, userRepo, entitlementService, provider, poller, locks, cache.NewRecentJobs(), m)

	// Init handlers
	jobHandler := handlers.NewJobHandler(separationService)
	creditHandler := handlers.NewCreditHandler(creditService)
	webhookHandler := handlers.NewWebhookHandler(subscriptionService, cfg.WebhookSecret)
	healthHandler := handlers.NewHealthHandler(db, provider)

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName: "StemWave API",
	})

	// Middleware
	app.Use(cors.New())

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health check and metrics
	app.Get("/health", healthHandler.GetHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Job routes
	app.Post("/jobs", jobHandler.CreateJob)
	app.Post("/jobs/quote", jobHandler.QuoteJob)
	app.Get("/jobs/recent", jobHandler.RecentJobs)
	app.Get("/jobs/:id", jobHandler.GetJob)
	app.Get("/jobs/:id/transactions", creditHandler.ListJobTransactions)

	// Credit routes
	app.Get("/credits", creditHandler.GetBalance)
	app.Get("/credits/transactions", creditHandler.ListTransactions)

	// Billing webhook
	app.Post("/webhooks/billing", webhookHandler.ReceiveBillingEvent)

	// Background sweeps
	scheduler := cron.New()
	scheduler.AddFunc("*/5 * * * *", func() {
		if n, err := separationService.FailStaleJobs(context.Background()); err != nil {
			log.Printf("❌ Stale job sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("🧹 Stale job sweep failed %d jobs", n)
		}
	})
	scheduler.AddFunc("0 3 * * *", func() {
		retention := time.Duration(cfg.JobRetentionDays) * 24 * time.Hour
		if n, err := separationService.CleanupOldJobs(context.Background(), retention); err != nil {
			log.Printf("❌ Old job cleanup failed: %v", err)
		} else if n > 0 {
			log.Printf("🗑️ Deleted %d old jobs", n)
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("✅ stemwave-api running at :%s", cfg.Port)
	log.Printf("📄 Swagger UI: http://localhost:%s/swagger/", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
