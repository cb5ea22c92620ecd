package model

// =====================================================
// GATEWAY ACTIONS
// =====================================================
// Transaction lifecycle actions reported on the confirm webhook.
const (
	ActionNew              = "new"
	ActionPaidPending      = "paid_pending"
	ActionConfirmedPending = "confirmed_pending"
	ActionPaid             = "paid"
	ActionConfirmed        = "confirmed"
	ActionCredit           = "credit"
	ActionCanceled         = "canceled"
)

// ActionStatuses maps gateway actions to human-readable descriptions.
var ActionStatuses = map[string]string{
	ActionNew:              "New transaction",
	ActionPaidPending:      "Paid, being processed",
	ActionConfirmedPending: "Confirmed, being processed",
	ActionPaid:             "Paid",
	ActionConfirmed:        "Confirmed",
	ActionCredit:           "Credited",
	ActionCanceled:         "Canceled",
}

// =====================================================
// PAYMENT STATUS
// =====================================================
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSuccess    = "success"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusCancelled  = "cancelled"
)

var ValidPaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusSuccess,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusCancelled,
}

// MapActionToStatus resolves a webhook action plus gateway error code to
// an internal transaction status. Unknown actions land in processing so a
// newer gateway feature never fails an otherwise valid notification.
func MapActionToStatus(action, errorCode string) string {
	if errorCode != "0" {
		return PaymentStatusFailed
	}

	switch action {
	case ActionConfirmed:
		return PaymentStatusSuccess
	case ActionCredit:
		return PaymentStatusRefunded
	case ActionCanceled:
		return PaymentStatusCancelled
	case ActionNew, ActionPaid, ActionPaidPending, ActionConfirmedPending:
		return PaymentStatusProcessing
	default:
		return PaymentStatusProcessing
	}
}

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodePaymentNotFound  = "PAY001"
	ErrCodeOrderAlreadyPaid = "PAY002"
	ErrCodeInvalidOrder     = "PAY003"

	ErrCodeInvalidEnvelope         = "PAY010"
	ErrCodeDecryptFailed           = "PAY011"
	ErrCodeSchemaMismatch          = "PAY012"
	ErrCodeWebhookAlreadyProcessed = "PAY013"

	ErrCodeKeyMaterial   = "PAY020"
	ErrCodeInternalError = "PAY021"
)

// =====================================================
// PAYMENT CONFIGURATION
// =====================================================
const (
	// DefaultCurrency for orders that do not specify one.
	DefaultCurrency = "RON"

	// PaymentTimeoutMinutes before a pending transaction is considered stale.
	PaymentTimeoutMinutes = 30
)
