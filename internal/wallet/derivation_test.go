package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/satsend/internal/chain"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// bip39TestMnemonic is the standard all-abandon test vector mnemonic.
const bip39TestMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// TestNewMnemonic tests mnemonic generation word counts.
func TestNewMnemonic(t *testing.T) {
	t.Parallel()

	twelve, err := NewMnemonic(12)
	require.NoError(t, err)
	assert.NoError(t, ValidateMnemonic(twelve))

	twentyFour, err := NewMnemonic(24)
	require.NoError(t, err)
	assert.NoError(t, ValidateMnemonic(twentyFour))

	_, err = NewMnemonic(15)
	require.Error(t, err)
	assert.True(t, satserr.Is(err, satserr.ErrInvalidInput))
}

// TestValidateMnemonic tests checksum validation.
func TestValidateMnemonic(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateMnemonic(bip39TestMnemonic))

	err := ValidateMnemonic("abandon abandon abandon")
	require.ErrorIs(t, err, satserr.ErrInvalidMnemonic)

	err = ValidateMnemonic("not real bip39 words at all here nope zero none nil void")
	require.ErrorIs(t, err, satserr.ErrInvalidMnemonic)
}

// TestSeedFromMnemonic tests seed generation from the standard vector.
func TestSeedFromMnemonic(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	assert.Len(t, seed, 64)

	// Different passphrase, different seed
	other, err := SeedFromMnemonic(bip39TestMnemonic, "TREZOR")
	require.NoError(t, err)
	assert.NotEqual(t, seed, other)

	_, err = SeedFromMnemonic("garbage mnemonic", "")
	require.ErrorIs(t, err, satserr.ErrInvalidMnemonic)
}

// TestAddressAt_SegwitVectors tests segwit derivation against the published
// test vectors for the all-abandon mnemonic (m/84'/0'/0').
func TestAddressAt_SegwitVectors(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)

	xpubs, err := DeriveAccountXPubs(seed, 0, &chaincfg.MainNetParams)
	require.NoError(t, err)

	first, err := AddressAt(xpubs.Segwit, chain.ScriptP2WPKH, ExternalBranch, 0, &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", first)

	second, err := AddressAt(xpubs.Segwit, chain.ScriptP2WPKH, ExternalBranch, 1, &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, "bc1qnjg0jd8228aq7egyzacy8cys3knf9xvrerkf9g", second)

	change, err := AddressAt(xpubs.Segwit, chain.ScriptP2WPKH, InternalBranch, 0, &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, "bc1q8c6fshw2dlwun7ekn9qwf37cu2rn755upcp6el", change)
}

// TestAddressAt_IndexCap tests the derivation index ceiling.
func TestAddressAt_IndexCap(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	xpubs, err := DeriveAccountXPubs(seed, 0, &chaincfg.MainNetParams)
	require.NoError(t, err)

	_, err = AddressAt(xpubs.Segwit, chain.ScriptP2WPKH, ExternalBranch, MaxAddressDerivation, &chaincfg.MainNetParams)
	require.Error(t, err)
	assert.True(t, satserr.Is(err, satserr.ErrInvalidInput))
}

// TestSigningKeyMatchesAddress tests that the private key derived for a path
// controls the address derived from the account xpub at the same position.
func TestSigningKeyMatchesAddress(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	params := &chaincfg.MainNetParams

	xpubs, err := DeriveAccountXPubs(seed, 0, params)
	require.NoError(t, err)

	cases := []struct {
		xpub   string
		script chain.ScriptType
		path   string
		branch uint32
		index  uint32
	}{
		{xpubs.Segwit, chain.ScriptP2WPKH, DerivationPath(PurposeSegwit, 0, ExternalBranch, 5), ExternalBranch, 5},
		{xpubs.Segwit, chain.ScriptP2WPKH, DerivationPath(PurposeSegwit, 0, InternalBranch, 2), InternalBranch, 2},
		{xpubs.Legacy, chain.ScriptP2PKH, DerivationPath(PurposeLegacy, 0, ExternalBranch, 0), ExternalBranch, 0},
	}

	for _, tc := range cases {
		addr, err := AddressAt(tc.xpub, tc.script, tc.branch, tc.index, params)
		require.NoError(t, err)

		priv, err := SigningKeyForPath(seed, tc.path, params)
		require.NoError(t, err)

		derived, err := addressForPubKey(priv.PubKey(), tc.script, params)
		priv.Zero()
		require.NoError(t, err)
		assert.Equal(t, addr, derived, "path %s", tc.path)
	}
}

// TestDerivationPath tests path string construction.
func TestDerivationPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "m/84'/0'/0'/0/0", DerivationPath(PurposeSegwit, 0, ExternalBranch, 0))
	assert.Equal(t, "m/44'/0'/3'/1/17", DerivationPath(PurposeLegacy, 3, InternalBranch, 17))
}

// TestParsePath tests derivation path parsing.
func TestParsePath(t *testing.T) {
	t.Parallel()

	steps, err := parsePath("m/84'/0'/0'/1/5")
	require.NoError(t, err)
	require.Len(t, steps, 5)
	assert.Equal(t, uint32(2147483732), steps[0]) // 84 hardened
	assert.Equal(t, uint32(1), steps[3])
	assert.Equal(t, uint32(5), steps[4])

	_, err = parsePath("84'/0'/0'")
	require.Error(t, err)

	_, err = parsePath("m/84'/x/0")
	require.Error(t, err)
}

// TestXPubs tests the default and enumeration helpers.
func TestXPubs(t *testing.T) {
	t.Parallel()

	both := XPubs{Legacy: "xpubL", Segwit: "xpubS"}
	assert.Equal(t, "xpubS", both.Default())
	assert.Equal(t, []string{"xpubS", "xpubL"}, both.All())

	legacyOnly := XPubs{Legacy: "xpubL"}
	assert.Equal(t, "xpubL", legacyOnly.Default())
	assert.Equal(t, []string{"xpubL"}, legacyOnly.All())
}

// TestAddressPaths tests that the watch set and the path map cover the same
// addresses.
func TestAddressPaths(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	params := &chaincfg.MainNetParams

	w, err := NewWallet("paths", seed, params)
	require.NoError(t, err)
	acct := w.DefaultAccount()

	addrs, err := acct.WatchAddresses(params)
	require.NoError(t, err)
	paths, err := acct.AddressPaths(params)
	require.NoError(t, err)

	require.Len(t, paths, len(addrs))
	for _, addr := range addrs {
		assert.Contains(t, paths, addr)
	}

	// The first segwit receive address maps to its BIP84 path
	first, err := AddressAt(acct.XPubs.Segwit, chain.ScriptP2WPKH, ExternalBranch, 0, params)
	require.NoError(t, err)
	assert.Equal(t, "m/84'/0'/0'/0/0", paths[first])
}

// TestReceiveAndChangeAddress tests cursor-driven address derivation.
func TestReceiveAndChangeAddress(t *testing.T) {
	t.Parallel()

	seed, err := SeedFromMnemonic(bip39TestMnemonic, "")
	require.NoError(t, err)
	params := &chaincfg.MainNetParams

	w, err := NewWallet("cursors", seed, params)
	require.NoError(t, err)
	acct := w.DefaultAccount()

	recv0, err := acct.ReceiveAddress(params)
	require.NoError(t, err)
	assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", recv0)

	chg0, err := acct.ChangeAddress(params)
	require.NoError(t, err)
	assert.Equal(t, "bc1q8c6fshw2dlwun7ekn9qwf37cu2rn755upcp6el", chg0)

	acct.IncrementCursors()
	recv1, err := acct.ReceiveAddress(params)
	require.NoError(t, err)
	assert.NotEqual(t, recv0, recv1)
}
