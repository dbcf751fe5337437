package wallet

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// encrypt seals plaintext with an age scrypt recipient derived from password.
func encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// decrypt opens ciphertext with an age scrypt identity derived from password.
func decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, satserr.ErrDecryptionFailed
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, satserr.ErrDecryptionFailed
	}

	return plaintext, nil
}

// EncryptSecondLayer applies the optional second-password layer to a seed.
// Wallets carrying this layer are "double encrypted": the outer wallet
// password opens the file, the second password releases signing material.
func EncryptSecondLayer(seed []byte, secondPassword string) ([]byte, error) {
	return encrypt(seed, secondPassword)
}

// DecryptSecondLayer removes the second-password layer from a seed payload.
func DecryptSecondLayer(payload []byte, secondPassword string) ([]byte, error) {
	if secondPassword == "" {
		return nil, satserr.ErrSecondPasswordRequired
	}
	return decrypt(payload, secondPassword)
}

// ZeroBytes zeros out a byte slice.
func ZeroBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
