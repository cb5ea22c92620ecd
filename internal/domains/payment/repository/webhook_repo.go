package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"payments-backend/internal/domains/payment/model"
)

// =====================================================
// WEBHOOK LOG REPOSITORY IMPLEMENTATION
// =====================================================
type webhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) WebhookRepoInterface {
	return &webhookRepository{pool: pool}
}

// Create records an inbound webhook before any processing happens.
// Purpose: audit trail, debugging, and the durable idempotency check.
func (r *webhookRepository) Create(ctx context.Context, log *model.PaymentWebhookLog) error {
	query := `
		INSERT INTO payment_webhook_logs (
			id, payment_transaction_id, order_id, action,
			gateway_timestamp, crc, error_code, error_message,
			is_processed, received_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID,
		log.PaymentTransactionID,
		log.OrderID,
		log.Action,
		log.GatewayTimestamp,
		log.CRC,
		log.ErrorCode,
		log.ErrorMessage,
		log.IsProcessed,
		log.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}

	return nil
}

// CheckIdempotency reports whether this delivery was already processed.
// A gateway delivery is uniquely identified by (order_id, mobilpay
// timestamp, crc); network retries resend the identical envelope.
func (r *webhookRepository) CheckIdempotency(ctx context.Context, orderID, gatewayTimestamp, crc string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM payment_webhook_logs
			WHERE order_id = $1
			AND gateway_timestamp = $2
			AND crc = $3
			AND is_processed = true
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, orderID, gatewayTimestamp, crc).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	return exists, nil
}

// MarkProcessed flags the log entry once processing finished.
func (r *webhookRepository) MarkProcessed(ctx context.Context, id uuid.UUID, processingError *string) error {
	query := `
		UPDATE payment_webhook_logs
		SET is_processed = true,
			processing_error = $1
		WHERE id = $2
	`

	if _, err := r.pool.Exec(ctx, query, processingError, id); err != nil {
		return fmt.Errorf("failed to mark webhook processed: %w", err)
	}
	return nil
}

// RecordFailure stores the processing error without touching is_processed.
// The entry stays invisible to CheckIdempotency so the redelivery the
// temporary ack asked for is processed instead of dropped as a duplicate.
func (r *webhookRepository) RecordFailure(ctx context.Context, id uuid.UUID, processingError *string) error {
	query := `
		UPDATE payment_webhook_logs
		SET processing_error = $1
		WHERE id = $2
	`

	if _, err := r.pool.Exec(ctx, query, processingError, id); err != nil {
		return fmt.Errorf("failed to record webhook failure: %w", err)
	}
	return nil
}
