package model

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CREATE PAYMENT REQUEST/RESPONSE
// =====================================================

type CreatePaymentRequest struct {
	OrderID    string            `json:"order_id" binding:"required"`
	Currency   string            `json:"currency"`
	Amount     decimal.Decimal   `json:"amount" binding:"required"`
	CustomerID string            `json:"customer_id" binding:"required"`
	Details    string            `json:"details" binding:"required"`
	Billing    *BillingDTO       `json:"billing,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

type BillingDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (r CreatePaymentRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.CustomerID, validation.Required),
		validation.Field(&r.Details, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Amount, validation.By(validAmount)),
	)
	if err != nil {
		return err
	}

	if r.Billing != nil {
		return r.Billing.Validate()
	}
	return nil
}

func (b BillingDTO) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.FirstName, validation.Required),
		validation.Field(&b.LastName, validation.Required),
		validation.Field(&b.Address, validation.Required),
		validation.Field(&b.Email, validation.Required, is.Email),
		validation.Field(&b.Phone, validation.Required),
	)
}

// validAmount enforces the gateway's accepted range. The two-decimal
// wire constraint is enforced again in the codec; rejecting early gives
// the caller a field-level message instead of an envelope error.
func validAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return fmt.Errorf("must be a decimal amount")
	}
	if amount.LessThan(decimal.RequireFromString("0.10")) ||
		amount.GreaterThan(decimal.RequireFromString("99999.00")) {
		return fmt.Errorf("must be between 0.10 and 99999.00")
	}
	if amount.Exponent() < -2 {
		return fmt.Errorf("must have at most two decimal digits")
	}
	return nil
}

type CreatePaymentResponse struct {
	PaymentTransactionID uuid.UUID       `json:"payment_transaction_id"`
	OrderID              string          `json:"order_id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`

	// Browser form fields for the gateway post
	EnvKey     string `json:"env_key"`
	Data       string `json:"data"`
	PaymentURL string `json:"payment_url"`

	ExpiresAt time.Time `json:"expires_at"`
}

// =====================================================
// PAYMENT STATUS RESPONSE
// =====================================================

type PaymentStatusResponse struct {
	TransactionID        uuid.UUID         `json:"transaction_id"`
	OrderID              string            `json:"order_id"`
	Status               string            `json:"status"`
	StatusDescription    string            `json:"status_description,omitempty"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             string            `json:"currency"`
	Action               *string           `json:"action,omitempty"`
	ErrorCode            *string           `json:"error_code,omitempty"`
	ErrorMessage         *string           `json:"error_message,omitempty"`
	GatewayTransactionID *string           `json:"gateway_transaction_id,omitempty"`
	PanMasked            *string           `json:"pan_masked,omitempty"`
	Params               map[string]string `json:"params,omitempty"`
	InitiatedAt          time.Time         `json:"initiated_at"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
}
