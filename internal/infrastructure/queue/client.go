package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// =====================================================
// TASK TYPES & PAYLOADS
// =====================================================

const (
	// TypePaymentSettled is enqueued once a webhook settles a transaction.
	TypePaymentSettled = "payment:settled"

	// TypePaymentExpireStale is a periodic sweep that cancels pending
	// transactions whose payment window has passed.
	TypePaymentExpireStale = "payment:expire_stale"

	QueuePayments = "payments"
)

// PaymentSettledPayload carries everything the follow-up handler needs
// without a database read.
type PaymentSettledPayload struct {
	PaymentTransactionID uuid.UUID       `json:"payment_transaction_id"`
	OrderID              string          `json:"order_id"`
	CustomerID           string          `json:"customer_id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Action               string          `json:"action"`
	SettledAt            string          `json:"settled_at"` // RFC3339
}

// =====================================================
// QUEUE CLIENT
// =====================================================

type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr, redisPassword string, redisDB int) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		}),
	}
}

// EnqueuePaymentSettled schedules the follow-up work for a settled
// payment. Retries are asynq's job; the webhook ack never waits on this.
func (c *Client) EnqueuePaymentSettled(ctx context.Context, payload PaymentSettledPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payment settled payload: %w", err)
	}

	task := asynq.NewTask(TypePaymentSettled, body)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueuePayments),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue payment settled task: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
