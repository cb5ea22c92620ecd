package netopia

import (
	"crypto/rsa"
	"fmt"
)

// =====================================================
// NETOPIA CONFIGURATION
// =====================================================

// Symmetric ciphers accepted by the gateway for the data field.
const (
	// CipherRC4 is the legacy wire format: the session key is applied as a
	// bare RC4 stream, no IV. This is what the gateway's classic endpoint
	// expects and is the default.
	CipherRC4 = "rc4"

	// CipherAES128CBC is the block-cipher layout: AES-128 in CBC mode with
	// a random IV prepended to the ciphertext.
	CipherAES128CBC = "aes-128-cbc"
)

const (
	// sessionKeySize is the per-message symmetric key length (128 bit).
	sessionKeySize = 16

	// pkcs1Overhead is the minimum padding PKCS#1 v1.5 adds when wrapping
	// the session key; the RSA modulus must leave room for it.
	pkcs1Overhead = 11

	productionURL = "https://secure.mobilpay.ro"
	sandboxURL    = "http://sandboxsecure.mobilpay.ro"
)

type Config struct {
	Signature   string          // Merchant account identifier (not cryptographic)
	PublicKey   *rsa.PublicKey  // Gateway-issued certificate key, encrypt only
	PrivateKey  *rsa.PrivateKey // Merchant private key, decrypt only
	Cipher      string          // CipherRC4 (default) or CipherAES128CBC
	ConfirmURL  string          // Default webhook URL for outbound orders
	ReturnURL   string          // Default browser return URL
	SandboxMode bool            // Target the sandbox endpoint
}

// NewConfig creates a Netopia configuration with the legacy cipher default.
func NewConfig(signature string, publicKey *rsa.PublicKey, privateKey *rsa.PrivateKey) *Config {
	return &Config{
		Signature:  signature,
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Cipher:     CipherRC4,
	}
}

// Validate checks the configuration before any envelope work happens.
// Key problems are fatal to the client instance, so they surface here.
func (c *Config) Validate() error {
	if c.Signature == "" {
		return fmt.Errorf("netopia: Signature is required")
	}
	if c.PublicKey == nil && c.PrivateKey == nil {
		return fmt.Errorf("netopia: at least one of PublicKey/PrivateKey is required: %w", ErrInvalidKey)
	}
	if c.PublicKey != nil && c.PublicKey.Size() < sessionKeySize+pkcs1Overhead {
		return fmt.Errorf("netopia: public key too small to wrap a session key: %w", ErrInvalidKey)
	}
	if c.PrivateKey != nil && c.PrivateKey.PublicKey.Size() < sessionKeySize+pkcs1Overhead {
		return fmt.Errorf("netopia: private key too small for the envelope format: %w", ErrInvalidKey)
	}
	switch c.Cipher {
	case "", CipherRC4, CipherAES128CBC:
	default:
		return fmt.Errorf("netopia: unsupported cipher %q", c.Cipher)
	}
	return nil
}

// PaymentURL returns the gateway payment endpoint for the configured mode.
func (c *Config) PaymentURL() string {
	if c.SandboxMode {
		return sandboxURL
	}
	return productionURL
}

// cipher returns the effective symmetric cipher name.
func (c *Config) cipher() string {
	if c.Cipher == "" {
		return CipherRC4
	}
	return c.Cipher
}
