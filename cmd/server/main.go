// Package main is the entry point for the webhook service.
// It loads configuration, opens the store, wires the reconciliation
// pipeline and serves HTTP until SIGINT or SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payhook/internal/config"
	"payhook/internal/handlers"
	"payhook/internal/metrics"
	"payhook/internal/middleware"
	"payhook/internal/repositories"
	"payhook/internal/repositories/cache"
	"payhook/internal/routes"
	"payhook/internal/services/notification"
	"payhook/internal/services/provider"
	"payhook/internal/services/verifier"
	"payhook/internal/services/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	config.LoadEnv()
	cfg := config.MustLoad()

	if cfg.IsProduction() && cfg.Webhook.AllowUnsigned {
		log.Fatal("WEBHOOK_ALLOW_UNSIGNED cannot be enabled in production")
	}

	db, err := repositories.InitDB(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repositories.Close(db)

	if cfg.DB.RunMigrations {
		if err := repositories.RunMigrations(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Add a periodic check of connection pool stats
	go repositories.LogPoolStats(ctx, db, time.Minute)

	collector := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	pingers := map[string]handlers.Pinger{
		"database": func(ctx context.Context) error { return repositories.Ping(ctx, db) },
	}

	var requests cache.RequestCache = cache.NewMemoryCache(cfg.Redis.CacheSize)
	if cfg.Redis.Host != "" {
		redisCache := cache.NewRedisCache(cache.NewRedisClient(cfg.Redis), cfg.Redis.TTL)
		if err := redisCache.HealthCheck(ctx); err != nil {
			log.Printf("⚠️ Redis unavailable, keeping request ids in memory: %v", err)
			_ = redisCache.Close()
		} else {
			log.Println("✅ Redis request cache connected")
			requests = redisCache
			pingers["redis"] = redisCache.HealthCheck
			go redisCache.MonitorPool(ctx, 5*time.Minute)
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Printf("⚠️ Failed to close Redis connection: %v", err)
				}
			}()
		}
	}

	notifier := notification.New(cfg.Kafka)
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Printf("⚠️ Failed to close notifier: %v", err)
		}
	}()

	reconciler := webhook.NewService(
		repositories.NewJournalRepository(db, cfg.DB.OpTimeout),
		repositories.NewPaymentRepository(db, cfg.DB.OpTimeout),
		repositories.NewChargebackRepository(db, cfg.DB.OpTimeout),
		provider.NewClient(cfg.Provider, collector),
		notifier,
		collector,
	)

	app := fiber.New(fiber.Config{
		AppName:      "payhook",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Routes
	routes.SetupRoutes(app, routes.Dependencies{
		Webhook:   handlers.NewWebhookHandler(reconciler, requests, cfg.Webhook.TokenParam, collector),
		Health:    handlers.NewHealthHandler(cfg.DB.OpTimeout, pingers),
		Signature: middleware.NewSignatureMiddleware(verifier.New(cfg.Webhook), cfg.Webhook, collector),
	})

	if cfg.Webhook.Secret == "" && cfg.Webhook.Token == "" {
		log.Println("⚠️ Neither WEBHOOK_SECRET nor WEBHOOK_TOKEN is set, every notification will be refused")
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()
	log.Printf("Webhook service listening on :%s (env=%s)", cfg.Port, cfg.Env)

	<-ctx.Done()
	log.Println("Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Printf("⚠️ Graceful shutdown failed: %v", err)
	}
}
