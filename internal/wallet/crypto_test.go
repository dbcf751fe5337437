package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// TestEncryptDecrypt tests the password round trip.
func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	plaintext := []byte("secret seed material")
	ciphertext, err := encrypt(plaintext, "correct horse battery staple")
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "secret seed material")

	decrypted, err := decrypt(ciphertext, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

// TestDecrypt_WrongPassword tests that a bad password yields the decryption
// sentinel rather than raw library errors.
func TestDecrypt_WrongPassword(t *testing.T) {
	t.Parallel()

	ciphertext, err := encrypt([]byte("payload"), "right")
	require.NoError(t, err)

	_, err = decrypt(ciphertext, "wrong")
	require.ErrorIs(t, err, satserr.ErrDecryptionFailed)
}

// TestDecrypt_CorruptedCiphertext tests garbage input handling.
func TestDecrypt_CorruptedCiphertext(t *testing.T) {
	t.Parallel()

	_, err := decrypt([]byte("not an age file"), "password")
	require.ErrorIs(t, err, satserr.ErrDecryptionFailed)
}

// TestSecondLayer tests the optional double-encryption layer over the seed.
func TestSecondLayer(t *testing.T) {
	t.Parallel()

	seed := []byte("wallet seed bytes")

	payload, err := EncryptSecondLayer(seed, "second-pass")
	require.NoError(t, err)
	assert.NotEqual(t, seed, payload)

	recovered, err := DecryptSecondLayer(payload, "second-pass")
	require.NoError(t, err)
	assert.Equal(t, seed, recovered)

	// Missing second password is its own error, distinct from a wrong one
	_, err = DecryptSecondLayer(payload, "")
	require.ErrorIs(t, err, satserr.ErrSecondPasswordRequired)

	_, err = DecryptSecondLayer(payload, "wrong")
	require.ErrorIs(t, err, satserr.ErrDecryptionFailed)
}

// TestZeroBytes tests in-place zeroing.
func TestZeroBytes(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3, 4}
	ZeroBytes(data)
	assert.Equal(t, []byte{0, 0, 0, 0}, data)
}
