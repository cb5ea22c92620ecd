package netopia

import (
	"errors"
	"fmt"
	"strings"
)

// =====================================================
// ERROR KINDS
// =====================================================

var (
	// ErrInvalidKey marks misconfigured or mismatched key material.
	// Fatal to the client instance; surfaced at construction or first use.
	ErrInvalidKey = errors.New("invalid or mismatched key material")

	// ErrDecryptFailed is the single, undifferentiated decryption failure.
	// Key mismatch, bad padding and tampered ciphertext all collapse into
	// this error so the webhook endpoint cannot be used as a padding oracle.
	ErrDecryptFailed = errors.New("could not decrypt message")
)

// ValidationError reports the order fields that failed validation.
// Caller input problem: fix and resubmit, never retried as-is.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payment order: %s", strings.Join(e.Fields, ", "))
}

// EncodingError wraps an internal serialization or encryption failure
// while building an envelope.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError reports malformed transport input (bad base64) on an
// inbound envelope, before any cryptography runs.
type DecodingError struct {
	Field string
	Err   error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// SchemaError reports a decrypted payload that does not match the
// notification schema. Missing lists the absent required elements.
type SchemaError struct {
	Missing []string
	Err     error
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("notification schema: missing %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("notification schema: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
