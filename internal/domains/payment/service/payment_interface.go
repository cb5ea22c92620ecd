package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"payments-backend/internal/domains/payment/model"
	"payments-backend/internal/infrastructure/queue"
)

// =====================================================
// SERVICE INTERFACES
// =====================================================

// PaymentService orchestrates the payment lifecycle around the envelope
// codec: outbound envelope creation, webhook processing, status reads.
type PaymentService interface {
	// CreatePayment persists a transaction and builds the browser form
	// fields (env_key, data, payment URL) for the gateway post.
	CreatePayment(ctx context.Context, req model.CreatePaymentRequest) (*model.CreatePaymentResponse, error)

	// GetPaymentStatus returns the current state of a transaction.
	GetPaymentStatus(ctx context.Context, id uuid.UUID) (*model.PaymentStatusResponse, error)

	// ProcessWebhook decodes an inbound envelope, applies it to the
	// transaction and returns the XML ack for the gateway. The ack is
	// always usable; a non-nil error reports what went wrong internally.
	ProcessWebhook(ctx context.Context, envKey, data string) ([]byte, error)
}

// TaskEnqueuer hands settled payments to the background worker.
type TaskEnqueuer interface {
	EnqueuePaymentSettled(ctx context.Context, payload queue.PaymentSettledPayload) error
}

// IdempotencyGuard is the fast-path duplicate filter in front of the
// durable webhook-log check.
type IdempotencyGuard interface {
	// Acquire returns false when the key was already claimed.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives the key back after a failed delivery so the
	// gateway's retry is not filtered as a duplicate.
	Release(ctx context.Context, key string) error
}
