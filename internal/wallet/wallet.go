// Package wallet provides the account model, key derivation, and encrypted
// persistence for non-custodial Bitcoin wallets.
package wallet

import (
	"fmt"
	"regexp"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

var (
	// ErrWalletNotFound indicates the wallet does not exist.
	ErrWalletNotFound = satserr.ErrWalletNotFound

	// ErrWalletExists indicates a wallet with that name already exists.
	ErrWalletExists = satserr.ErrWalletExists

	// ErrInvalidWalletName indicates the wallet name is invalid.
	ErrInvalidWalletName = satserr.WithSuggestion(satserr.ErrInvalidInput,
		"wallet name must be 1-64 alphanumeric characters, underscores, or hyphens")

	// walletNameRegex validates wallet names: alphanumeric + underscore + hyphen, 1-64 chars.
	walletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// Wallet is the persisted account collection. Accounts are constructed at
// wallet-load time and only ever archived, never deleted.
type Wallet struct {
	// Name is the unique identifier for this wallet.
	Name string `json:"name"`

	// CreatedAt is the wallet creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Accounts holds every HD and imported account.
	Accounts []*Account `json:"accounts"`

	// DefaultAccountIndex is the HD derivation index of the default account.
	DefaultAccountIndex uint32 `json:"default_account_index"`

	// DoubleEncrypted is true when the seed payload carries a second
	// password layer that must be removed before signing.
	DoubleEncrypted bool `json:"double_encrypted"`

	// Version is the wallet file format version.
	Version int `json:"version"`
}

// ValidateWalletName checks if a wallet name is valid.
func ValidateWalletName(name string) error {
	if !walletNameRegex.MatchString(name) {
		return ErrInvalidWalletName
	}
	return nil
}

// NewWallet creates a wallet with a single default HD account derived from
// the seed.
func NewWallet(name string, seed []byte, params *chaincfg.Params) (*Wallet, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, err
	}

	xpubs, err := DeriveAccountXPubs(seed, 0, params)
	if err != nil {
		return nil, fmt.Errorf("deriving account 0: %w", err)
	}

	return &Wallet{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Accounts: []*Account{{
			Index: 0,
			Label: "Private Key Wallet",
			XPubs: xpubs,
		}},
		DefaultAccountIndex: 0,
		Version:             1,
	}, nil
}

// AddAccount derives and appends the next HD account.
func (w *Wallet) AddAccount(seed []byte, label string, params *chaincfg.Params) (*Account, error) {
	index := w.nextAccountIndex()
	xpubs, err := DeriveAccountXPubs(seed, index, params)
	if err != nil {
		return nil, fmt.Errorf("deriving account %d: %w", index, err)
	}

	acct := &Account{
		Index: index,
		Label: label,
		XPubs: xpubs,
	}
	w.Accounts = append(w.Accounts, acct)
	return acct, nil
}

// ImportAccount appends an imported single-address account.
func (w *Wallet) ImportAccount(address, label string) *Account {
	acct := &Account{
		Index:    ImportedAccountIndex,
		Label:    label,
		Imported: true,
		Address:  address,
	}
	w.Accounts = append(w.Accounts, acct)
	return acct
}

// Account returns the account with the given HD index, or nil.
func (w *Wallet) Account(index uint32) *Account {
	for _, a := range w.Accounts {
		if !a.Imported && a.Index == index {
			return a
		}
	}
	return nil
}

// DefaultAccount returns the wallet's default HD account.
func (w *Wallet) DefaultAccount() *Account {
	return w.Account(w.DefaultAccountIndex)
}

// IsDefault reports whether the account is the wallet's default.
func (w *Wallet) IsDefault(a *Account) bool {
	return a.IsHD() && a.Index == w.DefaultAccountIndex
}

// Archive marks an account archived. Fails fast when the account is already
// archived or is the current default.
func (w *Wallet) Archive(a *Account) error {
	if a.Archived {
		return satserr.ErrAccountArchived
	}
	if w.IsDefault(a) {
		return satserr.ErrAccountIsDefault
	}
	a.Archived = true
	return nil
}

// Unarchive restores an archived account.
func (w *Wallet) Unarchive(a *Account) error {
	if !a.Archived {
		return satserr.ErrAccountNotArchived
	}
	a.Archived = false
	return nil
}

// SetDefault makes the given HD account the wallet default. Archived and
// imported accounts cannot be the default; exactly one HD account holds the
// flag at a time.
func (w *Wallet) SetDefault(a *Account) error {
	if !a.IsHD() {
		return satserr.ErrImportedAccount
	}
	if a.Archived {
		return satserr.ErrAccountArchived
	}
	if w.IsDefault(a) {
		return satserr.WithDetails(satserr.ErrInvalidInput,
			map[string]string{"account": a.Label, "reason": "already the default account"})
	}
	w.DefaultAccountIndex = a.Index
	return nil
}

// ActiveAccounts returns all unarchived accounts.
func (w *Wallet) ActiveAccounts() []*Account {
	active := make([]*Account, 0, len(w.Accounts))
	for _, a := range w.Accounts {
		if !a.Archived {
			active = append(active, a)
		}
	}
	return active
}

// nextAccountIndex returns one past the highest HD account index.
func (w *Wallet) nextAccountIndex() uint32 {
	var next uint32
	for _, a := range w.Accounts {
		if !a.Imported && a.Index >= next {
			next = a.Index + 1
		}
	}
	return next
}
