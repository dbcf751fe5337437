package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mrz1836/satsend/internal/chain"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// ImportedAccountIndex marks an account holding a single imported key
// rather than an HD derivation unit.
const ImportedAccountIndex = ^uint32(0)

// defaultAddressGap is how far past the cursor addresses are derived when
// querying balances and unspent outputs.
const defaultAddressGap = 20

// Account represents one address-derivation unit: an HD account identified
// by its derivation index, or a single imported address.
type Account struct {
	// Index is the HD account derivation index, or ImportedAccountIndex.
	Index uint32 `json:"index"`

	// Label is the user-visible account name.
	Label string `json:"label"`

	// Archived hides the account from normal use. Archived accounts are
	// never deleted.
	Archived bool `json:"archived"`

	// Funded records whether the account has ever held a balance.
	Funded bool `json:"funded"`

	// Imported is true for single-key accounts.
	Imported bool `json:"imported"`

	// Address is the raw address of an imported account.
	Address string `json:"address,omitempty"`

	// XPubs are the extended public keys of an HD account.
	XPubs XPubs `json:"xpubs,omitempty"`

	// ReceiveCursor is the next unused receive-address index.
	ReceiveCursor uint32 `json:"receive_cursor"`

	// ChangeCursor is the next unused change-address index.
	ChangeCursor uint32 `json:"change_cursor"`
}

// IsHD reports whether the account is an HD derivation unit.
func (a *Account) IsHD() bool {
	return !a.Imported
}

// ChangeScriptType returns the script type of the account's change chain:
// segwit once the account carries a segwit xpub, legacy otherwise.
func (a *Account) ChangeScriptType() chain.ScriptType {
	if a.Imported {
		return chain.ScriptP2PKH
	}
	if a.XPubs.Segwit != "" {
		return chain.ScriptP2WPKH
	}
	return chain.ScriptP2PKH
}

// ReceiveAddress derives the next receive address. Imported accounts cannot
// receive to fresh addresses; their static address is returned.
func (a *Account) ReceiveAddress(params *chaincfg.Params) (string, error) {
	if a.Imported {
		return a.Address, nil
	}
	return AddressAt(a.XPubs.Default(), a.ChangeScriptType(), ExternalBranch, a.ReceiveCursor, params)
}

// ChangeAddress derives the next change address. Imported accounts fall
// back to their static address.
func (a *Account) ChangeAddress(params *chaincfg.Params) (string, error) {
	if a.Imported {
		return a.Address, nil
	}
	return AddressAt(a.XPubs.Default(), a.ChangeScriptType(), InternalBranch, a.ChangeCursor, params)
}

// IncrementCursors advances the receive and change address cursors after a
// successful spend. No-op for imported accounts.
func (a *Account) IncrementCursors() {
	if a.Imported {
		return
	}
	a.ReceiveCursor++
	a.ChangeCursor++
}

// WatchAddresses derives every address the account may control: both
// branches of each xpub up to the cursor plus a gap allowance. These back
// the balance and unspent-output queries.
func (a *Account) WatchAddresses(params *chaincfg.Params) ([]string, error) {
	if a.Imported {
		return []string{a.Address}, nil
	}

	var addrs []string
	derive := func(xpub string, script chain.ScriptType, branch, upto uint32) error {
		for i := uint32(0); i < upto; i++ {
			addr, err := AddressAt(xpub, script, branch, i, params)
			if err != nil {
				return err
			}
			addrs = append(addrs, addr)
		}
		return nil
	}

	if a.XPubs.Segwit != "" {
		if err := derive(a.XPubs.Segwit, chain.ScriptP2WPKH, ExternalBranch, a.ReceiveCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("deriving segwit receive addresses: %w", err)
		}
		if err := derive(a.XPubs.Segwit, chain.ScriptP2WPKH, InternalBranch, a.ChangeCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("deriving segwit change addresses: %w", err)
		}
	}
	if a.XPubs.Legacy != "" {
		if err := derive(a.XPubs.Legacy, chain.ScriptP2PKH, ExternalBranch, a.ReceiveCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("deriving legacy receive addresses: %w", err)
		}
		if err := derive(a.XPubs.Legacy, chain.ScriptP2PKH, InternalBranch, a.ChangeCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("deriving legacy change addresses: %w", err)
		}
	}
	return addrs, nil
}

// AddressPaths maps every watch address to its full derivation path, used
// to annotate unspent outputs before signing. Imported accounts map their
// static address to an empty path.
func (a *Account) AddressPaths(params *chaincfg.Params) (map[string]string, error) {
	if a.Imported {
		return map[string]string{a.Address: ""}, nil
	}

	paths := make(map[string]string)
	derive := func(xpub string, script chain.ScriptType, purpose, branch, upto uint32) error {
		for i := uint32(0); i < upto; i++ {
			addr, err := AddressAt(xpub, script, branch, i, params)
			if err != nil {
				return err
			}
			paths[addr] = DerivationPath(purpose, a.Index, branch, i)
		}
		return nil
	}

	if a.XPubs.Segwit != "" {
		if err := derive(a.XPubs.Segwit, chain.ScriptP2WPKH, PurposeSegwit, ExternalBranch, a.ReceiveCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("mapping segwit receive paths: %w", err)
		}
		if err := derive(a.XPubs.Segwit, chain.ScriptP2WPKH, PurposeSegwit, InternalBranch, a.ChangeCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("mapping segwit change paths: %w", err)
		}
	}
	if a.XPubs.Legacy != "" {
		if err := derive(a.XPubs.Legacy, chain.ScriptP2PKH, PurposeLegacy, ExternalBranch, a.ReceiveCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("mapping legacy receive paths: %w", err)
		}
		if err := derive(a.XPubs.Legacy, chain.ScriptP2PKH, PurposeLegacy, InternalBranch, a.ChangeCursor+defaultAddressGap); err != nil {
			return nil, fmt.Errorf("mapping legacy change paths: %w", err)
		}
	}
	return paths, nil
}

// XPubAddress returns the account's identifying address: the default xpub
// for HD accounts, the raw address for imported ones.
func (a *Account) XPubAddress() string {
	if a.Imported {
		return a.Address
	}
	return a.XPubs.Default()
}

// validateForSigning ensures the account can sign the given derivation path.
func (a *Account) validateForSigning(path string) error {
	if a.Imported {
		if path != "" {
			return fmt.Errorf("%w: imported account cannot sign derived path %s",
				satserr.ErrSigningFailed, path)
		}
		return nil
	}
	if path == "" {
		return fmt.Errorf("%w: HD input missing derivation path", satserr.ErrSigningFailed)
	}
	return nil
}
