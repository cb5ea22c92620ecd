package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"payments-backend/internal/config"
	"payments-backend/internal/domains/payment/gateway/netopia"
	"payments-backend/internal/domains/payment/handler"
	"payments-backend/internal/domains/payment/repository"
	"payments-backend/internal/domains/payment/service"
	"payments-backend/internal/infrastructure/cache"
	"payments-backend/internal/infrastructure/database"
	"payments-backend/internal/infrastructure/keys"
	"payments-backend/internal/infrastructure/queue"
)

// application holds everything the router and shutdown path need.
type application struct {
	Config         *config.Config
	DB             *database.PostgresDB
	Cache          *cache.RedisClient
	Queue          *queue.Client
	PaymentHandler *handler.PaymentHandler
}

func buildApplication(ctx context.Context) (*application, error) {
	// ========================================
	// 1. CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// ========================================
	// 2. DATABASE
	// ========================================
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// ========================================
	// 3. REDIS
	// ========================================
	redisClient := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Connect(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	// ========================================
	// 4. PAYMENT GATEWAY
	// ========================================
	publicKey, err := keys.LoadPublicKey(cfg.Netopia.PublicCertPath)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to load gateway certificate: %w", err)
	}

	privateKey, err := keys.LoadPrivateKey(cfg.Netopia.PrivateKeyPath)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to load merchant private key: %w", err)
	}

	gatewayConfig := netopia.NewConfig(cfg.Netopia.Signature, publicKey, privateKey)
	gatewayConfig.Cipher = cfg.Netopia.Cipher
	gatewayConfig.ConfirmURL = cfg.Netopia.ConfirmURL
	gatewayConfig.ReturnURL = cfg.Netopia.ReturnURL
	gatewayConfig.SandboxMode = cfg.Netopia.SandboxMode

	netopiaGateway, err := netopia.NewClient(gatewayConfig)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to initialize payment gateway: %w", err)
	}

	// ========================================
	// 5. REPOSITORIES, QUEUE, SERVICE, HANDLER
	// ========================================
	paymentRepo := repository.NewPaymentRepository(db.Pool)
	webhookRepo := repository.NewWebhookRepository(db.Pool)
	guard := cache.NewRedisIdempotencyGuard(redisClient.Client)
	queueClient := queue.NewClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)

	paymentService := service.NewPaymentService(paymentRepo, webhookRepo, netopiaGateway, guard, queueClient)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	return &application{
		Config:         cfg,
		DB:             db,
		Cache:          redisClient,
		Queue:          queueClient,
		PaymentHandler: paymentHandler,
	}, nil
}

func (app *application) Cleanup() {
	if app.Queue != nil {
		if err := app.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close queue client")
		}
	}
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if app.DB != nil {
		app.DB.Close()
	}
}

func Serve() {
	ctx := context.Background()

	// ========================================
	// 1. WIRE DEPENDENCIES
	// ========================================
	app, err := buildApplication(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Cleanup()

	// ========================================
	// 2. SETUP ROUTER
	// ========================================
	router := SetupRouter(app)

	// ========================================
	// 3. CONFIGURE HTTP SERVER
	// ========================================
	port := app.Config.App.Port
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", port),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// ========================================
	// 4. START SERVER (NON-BLOCKING)
	// ========================================
	go func() {
		log.Info().
			Str("port", port).
			Str("environment", app.Config.App.Environment).
			Msg("Server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// ========================================
	// 5. GRACEFUL SHUTDOWN
	// ========================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
