package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/satsend/internal/chain"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// TestKeyring_KeyForUTXO tests that the keyring derives the key controlling
// an output's address.
func TestKeyring_KeyForUTXO(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	params := &chaincfg.MainNetParams

	w, err := NewWallet("keyring", seed, params)
	require.NoError(t, err)

	keyring, err := NewKeyring(w, seed, "", params)
	require.NoError(t, err)
	defer keyring.Close()

	utxo := &chain.UTXO{
		TxID:    "00" + "ab",
		Vout:    0,
		Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		Path:    DerivationPath(PurposeSegwit, 0, ExternalBranch, 0),
		Script:  chain.ScriptP2WPKH,
	}

	priv, err := keyring.KeyForUTXO(utxo)
	require.NoError(t, err)
	defer priv.Zero()

	addr, err := addressForPubKey(priv.PubKey(), chain.ScriptP2WPKH, params)
	require.NoError(t, err)
	assert.Equal(t, utxo.Address, addr)
}

// TestKeyring_MissingPath tests that pathless outputs cannot be signed.
func TestKeyring_MissingPath(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	params := &chaincfg.MainNetParams

	w, err := NewWallet("keyring-nopath", seed, params)
	require.NoError(t, err)

	keyring, err := NewKeyring(w, seed, "", params)
	require.NoError(t, err)
	defer keyring.Close()

	_, err = keyring.KeyForUTXO(&chain.UTXO{TxID: "ff", Vout: 1})
	require.Error(t, err)
	assert.True(t, satserr.Is(err, satserr.ErrSigningFailed))
}

// TestKeyring_DoubleEncrypted tests the second-password layer on the seed
// payload.
func TestKeyring_DoubleEncrypted(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	params := &chaincfg.MainNetParams

	w, err := NewWallet("keyring-double", seed, params)
	require.NoError(t, err)
	w.DoubleEncrypted = true

	payload, err := EncryptSecondLayer(seed, "inner-secret")
	require.NoError(t, err)

	// Without the second password the keyring cannot open
	_, err = NewKeyring(w, payload, "", params)
	require.ErrorIs(t, err, satserr.ErrSecondPasswordRequired)

	_, err = NewKeyring(w, payload, "wrong", params)
	require.ErrorIs(t, err, satserr.ErrDecryptionFailed)

	keyring, err := NewKeyring(w, payload, "inner-secret", params)
	require.NoError(t, err)
	defer keyring.Close()

	utxo := &chain.UTXO{
		TxID:   "aa",
		Path:   DerivationPath(PurposeSegwit, 0, ExternalBranch, 0),
		Script: chain.ScriptP2WPKH,
	}
	priv, err := keyring.KeyForUTXO(utxo)
	require.NoError(t, err)
	priv.Zero()
}

// TestKeyring_Close tests that a closed keyring refuses to derive.
func TestKeyring_Close(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	params := &chaincfg.MainNetParams

	w, err := NewWallet("keyring-close", seed, params)
	require.NoError(t, err)

	// Copy: Close zeros the slice it holds
	held := make([]byte, len(seed))
	copy(held, seed)

	keyring, err := NewKeyring(w, held, "", params)
	require.NoError(t, err)
	keyring.Close()

	_, err = keyring.KeyForUTXO(&chain.UTXO{
		TxID: "aa",
		Path: DerivationPath(PurposeSegwit, 0, ExternalBranch, 0),
	})
	require.Error(t, err)
	assert.True(t, satserr.Is(err, satserr.ErrSigningFailed))
}
