package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mrz1836/satsend/internal/chain"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// Keyring resolves signing keys for unspent outputs. It holds the decrypted
// seed for the duration of a signing session; callers must Close it when
// done so the seed is zeroed.
type Keyring struct {
	seed   []byte
	params *chaincfg.Params
}

// NewKeyring builds a keyring from a loaded seed payload. When the wallet is
// double encrypted, the second password is required to remove the inner
// layer; ErrSecondPasswordRequired is returned if it is missing or wrong
// layers cannot be opened.
func NewKeyring(w *Wallet, seedPayload []byte, secondPassword string, params *chaincfg.Params) (*Keyring, error) {
	seed := seedPayload
	if w.DoubleEncrypted {
		decrypted, err := DecryptSecondLayer(seedPayload, secondPassword)
		if err != nil {
			return nil, err
		}
		seed = decrypted
	}
	return &Keyring{seed: seed, params: params}, nil
}

// KeyForUTXO derives the private key controlling an unspent output. The
// returned key shares no state with the keyring; the caller must zero it
// after signing.
func (k *Keyring) KeyForUTXO(u *chain.UTXO) (*btcec.PrivateKey, error) {
	if k.seed == nil {
		return nil, fmt.Errorf("%w: keyring already closed", satserr.ErrSigningFailed)
	}
	if u.Path == "" {
		return nil, fmt.Errorf("%w: output %s:%d has no derivation path",
			satserr.ErrSigningFailed, u.TxID, u.Vout)
	}
	key, err := SigningKeyForPath(k.seed, u.Path, k.params)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving key for %s: %v", satserr.ErrSigningFailed, u.Path, err)
	}
	return key, nil
}

// Close zeros the seed. The keyring cannot be used afterwards.
func (k *Keyring) Close() {
	ZeroBytes(k.seed)
	k.seed = nil
}
