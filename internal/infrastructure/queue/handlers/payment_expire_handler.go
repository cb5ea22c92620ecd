package handlers

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"payments-backend/internal/domains/payment/model"
)

// StalePaymentCanceller sweeps pending transactions past their window.
type StalePaymentCanceller interface {
	CancelExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

// PaymentExpireHandler cancels payments the shopper abandoned. The gateway
// never calls back for those, so a periodic sweep is the only closer.
func PaymentExpireHandler(canceller StalePaymentCanceller) func(ctx context.Context, t *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		window := time.Duration(model.PaymentTimeoutMinutes) * time.Minute

		cancelled, err := canceller.CancelExpired(ctx, window)
		if err != nil {
			return err
		}

		if cancelled > 0 {
			log.Info().
				Int("cancelled", cancelled).
				Dur("window", window).
				Msg("Expired stale payment transactions")
		}

		return nil
	}
}
