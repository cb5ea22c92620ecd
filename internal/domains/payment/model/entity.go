package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PAYMENT TRANSACTION ENTITY
// =====================================================
type PaymentTransaction struct {
	ID      uuid.UUID `json:"id" db:"id"`
	OrderID string    `json:"order_id" db:"order_id"`

	// Merchant-side references
	CustomerID string `json:"customer_id" db:"customer_id"`
	Details    string `json:"details" db:"details"`

	// Amount
	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Currency string          `json:"currency" db:"currency"`

	// Status tracking
	Status       string  `json:"status" db:"status"`
	Action       *string `json:"action,omitempty" db:"action"`
	ErrorCode    *string `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	// Gateway transaction metadata
	GatewayTransactionID *string `json:"gateway_transaction_id,omitempty" db:"gateway_transaction_id"`
	PanMasked            *string `json:"pan_masked,omitempty" db:"pan_masked"`

	// Caller-supplied params echoed back on the webhook
	Params map[string]string `json:"params,omitempty" db:"params"`

	// Timestamps
	InitiatedAt time.Time  `json:"initiated_at" db:"initiated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired checks whether a pending transaction outlived the payment window.
func (p *PaymentTransaction) IsExpired() bool {
	if p.Status != PaymentStatusPending && p.Status != PaymentStatusProcessing {
		return false
	}
	timeout := time.Duration(PaymentTimeoutMinutes) * time.Minute
	return time.Since(p.InitiatedAt) > timeout
}

// IsSuccessful checks if the gateway settled this transaction.
func (p *PaymentTransaction) IsSuccessful() bool {
	return p.Status == PaymentStatusSuccess
}

// IsFinal reports whether no further webhook can change the status.
func (p *PaymentTransaction) IsFinal() bool {
	switch p.Status {
	case PaymentStatusSuccess, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// =====================================================
// PAYMENT WEBHOOK LOG ENTITY
// =====================================================
// Every inbound webhook is recorded before processing: audit trail,
// debugging, and the durable side of idempotency checking.
type PaymentWebhookLog struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	PaymentTransactionID *uuid.UUID `json:"payment_transaction_id,omitempty" db:"payment_transaction_id"`

	// Webhook identity: (order_id, gateway timestamp, crc) is unique per delivery
	OrderID          string `json:"order_id" db:"order_id"`
	Action           string `json:"action" db:"action"`
	GatewayTimestamp string `json:"gateway_timestamp" db:"gateway_timestamp"`
	CRC              string `json:"crc" db:"crc"`

	// Outcome reported by the gateway
	ErrorCode    *string `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	// Processing result
	IsProcessed     bool    `json:"is_processed" db:"is_processed"`
	ProcessingError *string `json:"processing_error,omitempty" db:"processing_error"`

	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

// MarkProcessingError records a processing failure on the log entry.
func (w *PaymentWebhookLog) MarkProcessingError(err error) {
	msg := err.Error()
	w.ProcessingError = &msg
}
