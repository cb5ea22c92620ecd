package main

import (
	"context"

	"github.com/hibiken/asynq"

	"payments-backend/internal/infrastructure/queue"
	"payments-backend/internal/infrastructure/queue/handlers"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	paymentSettled func(ctx context.Context, t *asynq.Task) error
	paymentExpire  func(ctx context.Context, t *asynq.Task) error
}

func newHandlerRegistry(
	settlementNotifier handlers.SettlementNotifier,
	canceller handlers.StalePaymentCanceller,
) *HandlerRegistry {
	return &HandlerRegistry{
		paymentSettled: handlers.PaymentSettledHandler(settlementNotifier),
		paymentExpire:  handlers.PaymentExpireHandler(canceller),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TypePaymentSettled, h.paymentSettled)
	mux.HandleFunc(queue.TypePaymentExpireStale, h.paymentExpire)
}
