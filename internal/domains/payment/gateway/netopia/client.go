package netopia

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"payments-backend/internal/domains/payment/gateway"
)

// =====================================================
// NETOPIA CLIENT
// =====================================================

// Client implements the envelope codec against the Netopia gateway.
// Construct once with the long-lived key material; every call is
// stateless and safe for concurrent use as long as the keys are never
// mutated after construction.
type Client struct {
	config *Config
}

func NewClient(config *Config) (gateway.NetopiaGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid netopia config: %w", err)
	}
	return &Client{config: config}, nil
}

// CreatePaymentData validates and serializes the order, encrypts it under
// a fresh session key and wraps that key for the gateway. The session key
// exists only for the duration of this call.
func (c *Client) CreatePaymentData(order gateway.PaymentOrder) (*gateway.Envelope, error) {
	if c.config.PublicKey == nil {
		return nil, fmt.Errorf("netopia: encoding requires a public key: %w", ErrInvalidKey)
	}

	confirmURL := order.ConfirmURL
	if confirmURL == "" {
		confirmURL = c.config.ConfirmURL
	}
	returnURL := order.ReturnURL
	if returnURL == "" {
		returnURL = c.config.ReturnURL
	}

	if err := validateOrder(order, confirmURL, returnURL); err != nil {
		return nil, err
	}

	timestamp := time.Now().Format(timestampWireFormat)
	payload, err := buildOrderXML(order, c.config.Signature, timestamp, confirmURL, returnURL)
	if err != nil {
		return nil, err
	}

	sessionKey, err := newSessionKey()
	if err != nil {
		return nil, &EncodingError{Op: "session key", Err: err}
	}

	encrypted, err := encryptPayload(c.config.cipher(), sessionKey, payload)
	if err != nil {
		return nil, &EncodingError{Op: "payload", Err: err}
	}

	sealed, err := sealSessionKey(c.config.PublicKey, sessionKey)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("order_id", order.OrderID).
		Str("cipher", c.config.cipher()).
		Int("payload_bytes", len(payload)).
		Msg("Payment envelope created")

	return &gateway.Envelope{
		EnvKey: base64.StdEncoding.EncodeToString(sealed),
		Data:   base64.StdEncoding.EncodeToString(encrypted),
	}, nil
}

// DecryptWebhook reverses CreatePaymentData for an inbound envelope and
// parses the payload into a transaction notification. A non-"0" error
// code in the result is decoded data, not a failure of this method.
func (c *Client) DecryptWebhook(envKey, data string) (*gateway.Notification, error) {
	if c.config.PrivateKey == nil {
		return nil, fmt.Errorf("netopia: decoding requires a private key: %w", ErrInvalidKey)
	}
	if envKey == "" {
		return nil, &DecodingError{Field: "env_key", Err: errors.New("empty value")}
	}
	if data == "" {
		return nil, &DecodingError{Field: "data", Err: errors.New("empty value")}
	}

	sealed, err := base64.StdEncoding.DecodeString(envKey)
	if err != nil {
		return nil, &DecodingError{Field: "env_key", Err: err}
	}
	ciphertext, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &DecodingError{Field: "data", Err: err}
	}

	sessionKey, err := openSessionKey(c.config.PrivateKey, sealed)
	if err != nil {
		return nil, err
	}

	payload, err := decryptPayload(c.config.cipher(), sessionKey, ciphertext)
	if err != nil {
		return nil, err
	}

	notif, err := parseNotification(payload)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("order_id", notif.OrderID).
		Str("action", notif.Action).
		Str("error_code", notif.ErrorCode).
		Msg("Webhook envelope decrypted")

	return notif, nil
}

// PaymentURL returns the endpoint the browser form posts the envelope to.
func (c *Client) PaymentURL() string {
	return c.config.PaymentURL()
}
