package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"payments-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT TRANSACTION REPOSITORY INTERFACE
// =====================================================
type PaymentRepoInterface interface {
	// Create persists a new payment transaction
	Create(ctx context.Context, payment *model.PaymentTransaction) error

	// GetByID gets a payment transaction by internal ID
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error)

	// GetByOrderID gets the latest payment transaction for an order reference
	GetByOrderID(ctx context.Context, orderID string) (*model.PaymentTransaction, error)

	// UpdateFromNotification applies a decoded webhook to the transaction
	UpdateFromNotification(ctx context.Context, id uuid.UUID, update NotificationUpdate) error

	// HasSuccessfulPayment checks if an order reference already settled
	HasSuccessfulPayment(ctx context.Context, orderID string) (bool, error)

	// CancelExpired cancels pending transactions older than the payment
	// window and returns how many were touched
	CancelExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

// NotificationUpdate carries the webhook fields applied to a transaction.
type NotificationUpdate struct {
	Status        string
	Action        string
	ErrorCode     string
	ErrorMessage  string
	TransactionID string
	PanMasked     string
}

// =====================================================
// WEBHOOK LOG REPOSITORY INTERFACE
// =====================================================
type WebhookRepoInterface interface {
	// Create records an inbound webhook before processing
	Create(ctx context.Context, log *model.PaymentWebhookLog) error

	// CheckIdempotency reports whether this delivery was already processed
	CheckIdempotency(ctx context.Context, orderID, gatewayTimestamp, crc string) (bool, error)

	// MarkProcessed flags the log entry once processing finished
	MarkProcessed(ctx context.Context, id uuid.UUID, processingError *string) error

	// RecordFailure stores a processing error while leaving the entry
	// unprocessed so the gateway's redelivery can claim it again
	RecordFailure(ctx context.Context, id uuid.UUID, processingError *string) error
}
