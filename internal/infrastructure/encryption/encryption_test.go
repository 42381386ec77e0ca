package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := NewService(testKey)
	require.NoError(t, err)

	plain := `{"client_id":"abc","refresh_token":"r-123"}`
	enc, err := svc.Encrypt(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, enc)

	dec, err := svc.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, plain, dec)
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	svc, err := NewService(testKey)
	require.NoError(t, err)

	a, err := svc.Encrypt("same")
	require.NoError(t, err)
	b, err := svc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce should differ per call")
}

func TestNewServiceRejectsBadKeys(t *testing.T) {
	_, err := NewService("not-hex")
	assert.Error(t, err)

	_, err = NewService(strings.Repeat("ab", 16)) // 16 bytes, too short
	assert.Error(t, err)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	svc, err := NewService(testKey)
	require.NoError(t, err)

	enc, err := svc.Encrypt("secret")
	require.NoError(t, err)

	_, err = svc.Decrypt("AAAA" + enc[4:])
	assert.Error(t, err)

	_, err = svc.Decrypt("%%%")
	assert.Error(t, err)
}
