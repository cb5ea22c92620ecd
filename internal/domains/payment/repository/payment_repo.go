package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payments-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT REPOSITORY IMPLEMENTATION
// =====================================================
type paymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepoInterface {
	return &paymentRepository{pool: pool}
}

// Create persists a new payment transaction.
func (r *paymentRepository) Create(ctx context.Context, payment *model.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			id, order_id, customer_id, details, amount, currency,
			status, params, initiated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING created_at, updated_at
	`

	// Params are stored as JSONB so they round-trip into the status API
	paramsJSON, err := json.Marshal(payment.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.CustomerID,
		payment.Details,
		payment.Amount,
		payment.Currency,
		payment.Status,
		paramsJSON,
		payment.InitiatedAt,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

// GetByID gets a payment transaction by internal ID.
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	query := selectPayment + ` WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByOrderID gets the latest payment transaction for an order reference.
func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentTransaction, error) {
	query := selectPayment + `
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, orderID))
}

// UpdateFromNotification applies a decoded webhook to the transaction.
func (r *paymentRepository) UpdateFromNotification(ctx context.Context, id uuid.UUID, update NotificationUpdate) error {
	query := `
		UPDATE payment_transactions
		SET status = $1,
			action = $2,
			error_code = $3,
			error_message = $4,
			gateway_transaction_id = NULLIF($5, ''),
			pan_masked = NULLIF($6, ''),
			completed_at = CASE WHEN $1 IN ('success', 'failed', 'cancelled', 'refunded')
				THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $7
	`

	result, err := r.pool.Exec(ctx, query,
		update.Status,
		update.Action,
		update.ErrorCode,
		update.ErrorMessage,
		update.TransactionID,
		update.PanMasked,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment from notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrPaymentNotFound
	}

	return nil
}

// HasSuccessfulPayment checks if an order reference already settled.
func (r *paymentRepository) HasSuccessfulPayment(ctx context.Context, orderID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM payment_transactions
			WHERE order_id = $1 AND status = 'success'
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check successful payment: %w", err)
	}
	return exists, nil
}

func (r *paymentRepository) CancelExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	query := `
		UPDATE payment_transactions
		SET status = 'cancelled', completed_at = NOW(), updated_at = NOW()
		WHERE status = 'pending' AND initiated_at < $1
	`

	cutoff := time.Now().Add(-olderThan)
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel expired payments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// =====================================================
// SCAN HELPERS
// =====================================================

const selectPayment = `
	SELECT id, order_id, customer_id, details, amount, currency,
		status, action, error_code, error_message,
		gateway_transaction_id, pan_masked, params,
		initiated_at, completed_at, created_at, updated_at
	FROM payment_transactions
`

func (r *paymentRepository) scanOne(row pgx.Row) (*model.PaymentTransaction, error) {
	var p model.PaymentTransaction
	var paramsJSON []byte

	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.CustomerID,
		&p.Details,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Action,
		&p.ErrorCode,
		&p.ErrorMessage,
		&p.GatewayTransactionID,
		&p.PanMasked,
		&paramsJSON,
		&p.InitiatedAt,
		&p.CompletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
	}

	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &p.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}

	return &p, nil
}
