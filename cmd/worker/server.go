package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"payments-backend/internal/config"
	"payments-backend/internal/infrastructure/queue"
)

// asynqServer wraps asynq.Server with shutdown bookkeeping
type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(cfg *config.Config, registry *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	registry.RegisterHandlers(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Host,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				queue.QueuePayments: 10,
				"default":           5,
			},
			Concurrency: cfg.Worker.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().
					Str("type", task.Type()).
					Err(err).
					Msg("Task failed")
			}),
		},
	)

	go func() {
		log.Info().Int("concurrency", cfg.Worker.Concurrency).Msg("Worker starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Worker failed")
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown drains in-flight tasks with a hard cap
func (s *asynqServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Server.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Worker gracefully stopped")
	case <-ctx.Done():
		log.Warn().Msg("Worker shutdown timeout exceeded")
	}
}
