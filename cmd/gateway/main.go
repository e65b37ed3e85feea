package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dumensel/payment-service/internal/application"
	"github.com/dumensel/payment-service/internal/application/services"
	"github.com/dumensel/payment-service/internal/config"
	"github.com/dumensel/payment-service/internal/infrastructure/cache"
	"github.com/dumensel/payment-service/internal/infrastructure/gateway/akbank"
	"github.com/dumensel/payment-service/internal/infrastructure/gateway/craftgate"
	"github.com/dumensel/payment-service/internal/infrastructure/persistence"
	"github.com/dumensel/payment-service/internal/infrastructure/persistence/postgres"
	"github.com/dumensel/payment-service/internal/interfaces/rest/handlers"
	"github.com/dumensel/payment-service/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	paymentRepo := postgres.NewPaymentRepository(db)
	pointsRepo := postgres.NewPointsRepository(db)

	var pointsCache application.PointsCache
	if cfg.Redis.Enabled() {
		pointsCache = cache.NewPointsCache(cfg.Redis, logger)
		logger.Info("points cache enabled", "addr", cfg.Redis.Addr)
	}

	router, err := application.NewGatewayRouter(
		craftgate.NewClient(cfg.Craftgate),
		akbank.NewClient(cfg.Akbank),
	)
	if err != nil {
		logger.Error("failed to build gateway router", "error", err)
		os.Exit(1)
	}
	logger.Info("payment gateways registered", "providers", router.Providers())

	paymentService := services.NewPaymentService(paymentRepo, router, logger)
	pointsService := services.NewPointsService(pointsRepo, pointsCache, logger)

	h := handlers.NewHandlers(paymentService, pointsService, logger)

	var webhook *handlers.ShopifyWebhookHandler
	if cfg.Webhook.ShopifySecret != "" {
		webhook = handlers.NewShopifyWebhookHandler(cfg.Webhook.ShopifySecret, paymentService, logger)
	}

	handler := handlers.NewRouter(h, webhook, logger, cfg.Server.ReadTimeout)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	expirer := worker.NewExpirerWorker(
		paymentRepo,
		cfg.Worker.Interval,
		cfg.Worker.PendingTimeout,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go expirer.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
