package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/satsend/internal/chain"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// BIP44/BIP84 purpose constants.
const (
	PurposeLegacy uint32 = 44
	PurposeSegwit uint32 = 84

	coinTypeBTC uint32 = 0

	// ExternalBranch is the receive-address chain.
	ExternalBranch uint32 = 0
	// InternalBranch is the change-address chain.
	InternalBranch uint32 = 1

	// MaxAddressDerivation prevents resource exhaustion and integer overflow.
	MaxAddressDerivation = 100000
)

// XPubs holds the extended public keys for one HD account, one per
// derivation scheme. Legacy (BIP44) chains exist for accounts created
// before the segwit migration; new funds land on the segwit chain.
type XPubs struct {
	Legacy string `json:"legacy,omitempty"`
	Segwit string `json:"segwit"`
}

// Default returns the account's primary xpub (segwit when present).
func (x XPubs) Default() string {
	if x.Segwit != "" {
		return x.Segwit
	}
	return x.Legacy
}

// All returns the non-empty xpubs.
func (x XPubs) All() []string {
	var out []string
	if x.Segwit != "" {
		out = append(out, x.Segwit)
	}
	if x.Legacy != "" {
		out = append(out, x.Legacy)
	}
	return out
}

// NewMnemonic generates a fresh BIP39 mnemonic of 12 or 24 words.
func NewMnemonic(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", fmt.Errorf("%w: mnemonic must be 12 or 24 words", satserr.ErrInvalidInput)
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generating entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks a BIP39 mnemonic phrase.
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return satserr.ErrInvalidMnemonic
	}
	return nil
}

// SeedFromMnemonic converts a BIP39 mnemonic phrase to a wallet seed.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, satserr.ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

// DeriveAccountXPubs derives the legacy and segwit extended public keys for
// the HD account at the given index.
func DeriveAccountXPubs(seed []byte, account uint32, params *chaincfg.Params) (XPubs, error) {
	legacy, err := deriveAccountKey(seed, PurposeLegacy, account, params)
	if err != nil {
		return XPubs{}, err
	}
	segwit, err := deriveAccountKey(seed, PurposeSegwit, account, params)
	if err != nil {
		return XPubs{}, err
	}

	legacyPub, err := legacy.Neuter()
	if err != nil {
		return XPubs{}, fmt.Errorf("neutering legacy account key: %w", err)
	}
	segwitPub, err := segwit.Neuter()
	if err != nil {
		return XPubs{}, fmt.Errorf("neutering segwit account key: %w", err)
	}

	return XPubs{
		Legacy: legacyPub.String(),
		Segwit: segwitPub.String(),
	}, nil
}

// AddressAt derives the address at branch/index under the given account
// xpub. The script type follows the xpub's derivation scheme: legacy xpubs
// produce P2PKH addresses, segwit xpubs P2WPKH.
func AddressAt(xpub string, script chain.ScriptType, branch, index uint32, params *chaincfg.Params) (string, error) {
	if index >= MaxAddressDerivation {
		return "", fmt.Errorf("%w: address index %d exceeds maximum %d",
			satserr.ErrInvalidInput, index, MaxAddressDerivation)
	}

	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return "", fmt.Errorf("parsing xpub: %w", err)
	}

	branchKey, err := key.Derive(branch)
	if err != nil {
		return "", fmt.Errorf("deriving branch %d: %w", branch, err)
	}
	indexKey, err := branchKey.Derive(index)
	if err != nil {
		return "", fmt.Errorf("deriving index %d: %w", index, err)
	}

	pubKey, err := indexKey.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("extracting public key: %w", err)
	}

	return addressForPubKey(pubKey, script, params)
}

// SigningKeyForPath derives the private key for a full derivation path such
// as "m/84'/0'/0'/1/5". The caller must zero the key after use.
func SigningKeyForPath(seed []byte, path string, params *chaincfg.Params) (*btcec.PrivateKey, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	key, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}
	defer key.Zero()

	current := key
	for _, step := range steps {
		next, err := current.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("deriving path %s: %w", path, err)
		}
		if current != key {
			current.Zero()
		}
		current = next
	}

	priv, err := current.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extracting private key: %w", err)
	}
	return priv, nil
}

// DerivationPath builds the full path string for an address under an HD
// account.
func DerivationPath(purpose, account, branch, index uint32) string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", purpose, coinTypeBTC, account, branch, index)
}

// deriveAccountKey derives the account-level extended private key
// m/purpose'/0'/account'.
func deriveAccountKey(seed []byte, purpose, account uint32, params *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}
	defer master.Zero()

	purposeKey, err := master.Derive(hdkeychain.HardenedKeyStart + purpose)
	if err != nil {
		return nil, fmt.Errorf("deriving purpose key: %w", err)
	}
	defer purposeKey.Zero()

	coinKey, err := purposeKey.Derive(hdkeychain.HardenedKeyStart + coinTypeBTC)
	if err != nil {
		return nil, fmt.Errorf("deriving coin type key: %w", err)
	}
	defer coinKey.Zero()

	accountKey, err := coinKey.Derive(hdkeychain.HardenedKeyStart + account)
	if err != nil {
		return nil, fmt.Errorf("deriving account key: %w", err)
	}

	return accountKey, nil
}

// addressForPubKey encodes a public key as an address of the given script type.
func addressForPubKey(pubKey *btcec.PublicKey, script chain.ScriptType, params *chaincfg.Params) (string, error) {
	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())

	switch script {
	case chain.ScriptP2WPKH:
		addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
		if err != nil {
			return "", fmt.Errorf("encoding p2wpkh address: %w", err)
		}
		return addr.EncodeAddress(), nil
	default:
		addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params)
		if err != nil {
			return "", fmt.Errorf("encoding p2pkh address: %w", err)
		}
		return addr.EncodeAddress(), nil
	}
}

// parsePath parses a BIP32 derivation path into child steps. A trailing
// apostrophe marks a hardened step.
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: derivation path must start with m/", satserr.ErrInvalidInput)
	}

	steps := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad derivation path component %q", satserr.ErrInvalidInput, part)
		}
		step := uint32(n)
		if hardened {
			step += hdkeychain.HardenedKeyStart
		}
		steps = append(steps, step)
	}
	return steps, nil
}
