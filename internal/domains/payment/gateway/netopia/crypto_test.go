package netopia

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestSessionKeyRoundTrip(t *testing.T) {
	priv := generateTestKey(t)

	key, err := newSessionKey()
	require.NoError(t, err)
	require.Len(t, key, sessionKeySize)

	sealed, err := sealSessionKey(&priv.PublicKey, key)
	require.NoError(t, err)
	require.Len(t, sealed, priv.PublicKey.Size())

	opened, err := openSessionKey(priv, sealed)
	require.NoError(t, err)
	assert.Equal(t, key, opened)
}

func TestOpenSessionKey_WrongKey(t *testing.T) {
	sender := generateTestKey(t)
	other := generateTestKey(t)

	key, err := newSessionKey()
	require.NoError(t, err)

	sealed, err := sealSessionKey(&sender.PublicKey, key)
	require.NoError(t, err)

	_, err = openSessionKey(other, sealed)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestOpenSessionKey_Tampered(t *testing.T) {
	priv := generateTestKey(t)

	key, err := newSessionKey()
	require.NoError(t, err)

	sealed, err := sealSessionKey(&priv.PublicKey, key)
	require.NoError(t, err)
	sealed[0] ^= 0xff

	_, err = openSessionKey(priv, sealed)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestPayloadRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef")
	plaintext := []byte("<order id=\"42\">payload</order>")

	tests := []struct {
		name   string
		cipher string
	}{
		{"rc4", CipherRC4},
		{"aes-128-cbc", CipherAES128CBC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := encryptPayload(tt.cipher, key, plaintext)
			require.NoError(t, err)
			require.NotEqual(t, plaintext, encrypted)

			decrypted, err := decryptPayload(tt.cipher, key, encrypted)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		})
	}
}

func TestEncryptPayload_UnsupportedCipher(t *testing.T) {
	_, err := encryptPayload("3des", []byte("0123456789abcdef"), []byte("x"))
	assert.Error(t, err)
}

func TestDecryptPayload_AESBadCiphertext(t *testing.T) {
	key := []byte("0123456789abcdef")

	tests := []struct {
		name       string
		ciphertext []byte
	}{
		{"too short", make([]byte, 16)},
		{"not block aligned", make([]byte, 40)},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decryptPayload(CipherAES128CBC, key, tt.ciphertext)
			assert.ErrorIs(t, err, ErrDecryptFailed)
		})
	}
}

func TestPKCS7Pad(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		wantLen  int
		wantLast byte
	}{
		{"empty gets full block", []byte{}, 16, 16},
		{"one short of block", make([]byte, 15), 16, 1},
		{"exact block gets extra block", make([]byte, 16), 32, 16},
		{"mid block", make([]byte, 5), 16, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			padded := pkcs7Pad(tt.input, 16)
			require.Len(t, padded, tt.wantLen)
			assert.Equal(t, tt.wantLast, padded[len(padded)-1])

			unpadded, err := pkcs7Unpad(padded, 16)
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), len(unpadded))
		})
	}
}

func TestPKCS7Unpad_BadPadding(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"not block aligned", make([]byte, 7)},
		{"zero pad byte", append(make([]byte, 15), 0)},
		{"pad byte exceeds block", append(make([]byte, 15), 17)},
		{"inconsistent pad bytes", append(append(make([]byte, 14), 3), 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pkcs7Unpad(tt.input, 16)
			assert.ErrorIs(t, err, ErrDecryptFailed)
		})
	}
}
