package netopia

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rc4"
	"crypto/rsa"
	"fmt"
)

// =====================================================
// ENVELOPE CRYPTOGRAPHY
// =====================================================
// The gateway mandates RSA PKCS#1 v1.5 for the session key - not OAEP.
// A stronger padding would not fail loudly, it would silently break
// interop, so the legacy scheme is kept deliberately.

// newSessionKey generates the per-message 128-bit symmetric key. The key
// lives for a single encode call and is never reused across orders.
func newSessionKey() ([]byte, error) {
	key := make([]byte, sessionKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("session key generation: %w", err)
	}
	return key, nil
}

// sealSessionKey wraps the session key under the merchant public key.
func sealSessionKey(pub *rsa.PublicKey, key []byte) ([]byte, error) {
	sealed, err := rsa.EncryptPKCS1v15(rand.Reader, pub, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return sealed, nil
}

// openSessionKey recovers the session key with the merchant private key.
// Any failure - wrong key, bad padding, wrong key length - collapses into
// ErrDecryptFailed so the caller cannot distinguish which step broke.
func openSessionKey(priv *rsa.PrivateKey, sealed []byte) ([]byte, error) {
	key, err := rsa.DecryptPKCS1v15(nil, priv, sealed)
	if err != nil || len(key) != sessionKeySize {
		return nil, ErrDecryptFailed
	}
	return key, nil
}

// encryptPayload applies the configured symmetric cipher to the
// serialized order XML.
func encryptPayload(cipherName string, key, plaintext []byte) ([]byte, error) {
	switch cipherName {
	case CipherRC4:
		stream, err := rc4.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("rc4 cipher: %w", err)
		}
		out := make([]byte, len(plaintext))
		stream.XORKeyStream(out, plaintext)
		return out, nil

	case CipherAES128CBC:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("aes cipher: %w", err)
		}
		padded := pkcs7Pad(plaintext, aes.BlockSize)
		out := make([]byte, aes.BlockSize+len(padded))
		iv := out[:aes.BlockSize]
		if _, err := rand.Read(iv); err != nil {
			return nil, fmt.Errorf("iv generation: %w", err)
		}
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cipher %q", cipherName)
}

// decryptPayload reverses encryptPayload. Integrity problems surface as
// ErrDecryptFailed without further detail.
func decryptPayload(cipherName string, key, ciphertext []byte) ([]byte, error) {
	switch cipherName {
	case CipherRC4:
		stream, err := rc4.NewCipher(key)
		if err != nil {
			return nil, ErrDecryptFailed
		}
		out := make([]byte, len(ciphertext))
		stream.XORKeyStream(out, ciphertext)
		return out, nil

	case CipherAES128CBC:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, ErrDecryptFailed
		}
		if len(ciphertext) < 2*aes.BlockSize || len(ciphertext)%aes.BlockSize != 0 {
			return nil, ErrDecryptFailed
		}
		iv := ciphertext[:aes.BlockSize]
		out := make([]byte, len(ciphertext)-aes.BlockSize)
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext[aes.BlockSize:])
		return pkcs7Unpad(out, aes.BlockSize)
	}
	return nil, ErrDecryptFailed
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrDecryptFailed
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrDecryptFailed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrDecryptFailed
		}
	}
	return data[:len(data)-n], nil
}
