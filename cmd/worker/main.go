package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"payments-backend/internal/config"
	"payments-backend/internal/domains/payment/repository"
	"payments-backend/internal/infrastructure/database"
	"payments-backend/internal/infrastructure/notifier"
	"payments-backend/internal/infrastructure/queue/handlers"
	"payments-backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.App.Environment)

	// The sweep job needs database access
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load database config")
	}

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect database")
	}
	defer db.Close()

	paymentRepo := repository.NewPaymentRepository(db.Pool)

	// Settled payments are pushed to the order system when a callback URL
	// is configured, logged otherwise
	var settlementNotifier handlers.SettlementNotifier
	if cfg.Worker.NotifyURL != "" {
		settlementNotifier = notifier.NewHTTPNotifier(cfg.Worker.NotifyURL)
	} else {
		settlementNotifier = notifier.NewLogNotifier()
	}

	registry := newHandlerRegistry(settlementNotifier, paymentRepo)

	srv := setupAsynqServer(cfg, registry)
	scheduler := setupScheduler(cfg)

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Gracefully stopping worker...")
	scheduler.Shutdown()
	srv.Shutdown()
	log.Info().Msg("Worker stopped")
}
