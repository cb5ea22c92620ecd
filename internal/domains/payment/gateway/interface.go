package gateway

import (
	"github.com/shopspring/decimal"
)

// =====================================================
// GATEWAY INTERFACE
// =====================================================

// NetopiaGateway is the merchant-side contract for the Netopia/MobilPay
// envelope protocol. The gateway exchanges payment data as two base64
// form fields: env_key (RSA-encrypted session key) and data (symmetrically
// encrypted order XML).
type NetopiaGateway interface {
	// CreatePaymentData serializes and encrypts the order, returning the
	// env_key/data pair the browser form posts to the gateway.
	CreatePaymentData(order PaymentOrder) (*Envelope, error)

	// DecryptWebhook decodes the env_key/data pair received on the
	// confirm webhook into a transaction notification.
	DecryptWebhook(envKey, data string) (*Notification, error)

	// PaymentURL returns the gateway endpoint the browser form targets.
	PaymentURL() string
}

// =====================================================
// REQUEST/RESPONSE TYPES
// =====================================================

// PaymentOrder describes one outbound payment attempt.
type PaymentOrder struct {
	OrderID    string            // Merchant order reference, max 64 chars
	Currency   string            // ISO code, e.g. "RON"
	Amount     decimal.Decimal   // [0.10, 99999.00], two decimals on the wire
	CustomerID string            // Merchant-side customer reference
	Details    string            // Free-text payment description
	Billing    *BillingDetails   // Optional; nil lets the gateway collect it
	Params     map[string]string // Opaque pass-through, echoed back on webhook
	ConfirmURL string            // Webhook URL; falls back to client config
	ReturnURL  string            // Browser return URL; falls back to client config
}

// BillingDetails is all-or-nothing: either every field is supplied or the
// block is omitted entirely so the gateway runs its own collection step.
type BillingDetails struct {
	FirstName string
	LastName  string
	Address   string
	Email     string
	Phone     string
}

// Envelope is the (env_key, data) pair exchanged with the gateway.
// Both values are base64 text, consumed exactly once by the browser form.
type Envelope struct {
	EnvKey string
	Data   string
}

// Notification is the decoded webhook record. A non-"0" ErrorCode is a
// business-level failure, not a decode error.
type Notification struct {
	OrderID    string
	Action     string
	Timestamp  string // Order timestamp echoed from the request
	CustomerID string
	Params     map[string]string // Round-tripped verbatim from the request

	// Gateway-assigned transaction metadata
	CRC              string
	GatewayTimestamp string
	TransactionID    string
	PanMasked        string
	OriginalAmount   decimal.Decimal
	ProcessedAmount  decimal.Decimal

	ErrorCode    string // "0" denotes success
	ErrorMessage string
}

// IsSuccessful reports whether the gateway settled the transaction
// without a business-level error.
func (n *Notification) IsSuccessful() bool {
	return n.ErrorCode == "0"
}
