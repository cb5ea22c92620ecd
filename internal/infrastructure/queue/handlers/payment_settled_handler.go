package handlers

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"payments-backend/internal/infrastructure/queue"
)

// SettlementNotifier is the merchant-side hook fired after a payment
// settles: order fulfilment, customer mail, accounting export.
type SettlementNotifier interface {
	NotifySettled(ctx context.Context, payload queue.PaymentSettledPayload) error
}

// PaymentSettledHandler runs the follow-up for a settled payment.
func PaymentSettledHandler(notifier SettlementNotifier) func(ctx context.Context, t *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p queue.PaymentSettledPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			// Malformed payload can never succeed, drop it
			return asynq.SkipRetry
		}

		if err := notifier.NotifySettled(ctx, p); err != nil {
			// Transient notifier failure, let asynq retry
			return err
		}

		log.Info().
			Str("order_id", p.OrderID).
			Str("payment_transaction_id", p.PaymentTransactionID.String()).
			Str("action", p.Action).
			Msg("Payment settlement follow-up completed")

		return nil
	}
}
