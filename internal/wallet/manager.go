package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// NotificationResync re-registers the addresses the backend should watch
// for push notifications. Called whenever the set of visible accounts
// changes shape.
type NotificationResync interface {
	ResyncAddresses(ctx context.Context, addresses []string) error
}

// BalanceRefresher forces a balance re-fetch, bypassing any cached snapshot.
type BalanceRefresher interface {
	ForceRefresh(ctx context.Context)
}

// Manager coordinates account lifecycle operations: every mutation is
// persisted, and mutations that change which addresses matter trigger a
// notification resync plus a forced balance refresh.
type Manager struct {
	wallet  *Wallet
	store   Storage
	params  *chaincfg.Params
	resync  NotificationResync
	refresh BalanceRefresher
}

// NewManager creates a manager for a loaded wallet. resync and refresh may
// be nil when the caller has no backend session (offline inspection).
func NewManager(w *Wallet, store Storage, params *chaincfg.Params, resync NotificationResync, refresh BalanceRefresher) *Manager {
	return &Manager{
		wallet:  w,
		store:   store,
		params:  params,
		resync:  resync,
		refresh: refresh,
	}
}

// Wallet returns the managed wallet.
func (m *Manager) Wallet() *Wallet {
	return m.wallet
}

// CreateAccount derives the next HD account, persists it, and resyncs.
func (m *Manager) CreateAccount(ctx context.Context, seed []byte, label string) (*Account, error) {
	acct, err := m.wallet.AddAccount(seed, label, m.params)
	if err != nil {
		return nil, err
	}
	if err := m.persistAndResync(ctx); err != nil {
		return nil, err
	}
	return acct, nil
}

// RenameAccount updates an account label and persists.
func (m *Manager) RenameAccount(ctx context.Context, a *Account, label string) error {
	if label == "" {
		return satserr.WithSuggestion(satserr.ErrInvalidInput, "account label cannot be empty")
	}
	a.Label = label
	return m.persist()
}

// ArchiveAccount archives an account. The default account cannot be
// archived; callers must promote another account first.
func (m *Manager) ArchiveAccount(ctx context.Context, a *Account) error {
	if err := m.wallet.Archive(a); err != nil {
		return err
	}
	return m.persistAndResync(ctx)
}

// UnarchiveAccount restores an archived account.
func (m *Manager) UnarchiveAccount(ctx context.Context, a *Account) error {
	if err := m.wallet.Unarchive(a); err != nil {
		return err
	}
	return m.persistAndResync(ctx)
}

// SetDefaultAccount promotes an HD account to wallet default.
func (m *Manager) SetDefaultAccount(ctx context.Context, a *Account) error {
	if err := m.wallet.SetDefault(a); err != nil {
		return err
	}
	return m.persistAndResync(ctx)
}

// MarkSpent records a successful send: address cursors advance so the next
// send derives fresh addresses, and the new state is persisted.
func (m *Manager) MarkSpent(ctx context.Context, a *Account) error {
	a.IncrementCursors()
	if err := m.persist(); err != nil {
		return err
	}
	if m.refresh != nil {
		m.refresh.ForceRefresh(ctx)
	}
	return nil
}

// persist writes the wallet metadata back to storage.
func (m *Manager) persist() error {
	if err := m.store.Update(m.wallet); err != nil {
		return fmt.Errorf("persisting wallet: %w", err)
	}
	return nil
}

// persistAndResync persists, then re-registers notification addresses for
// every active account and forces a balance refresh. Resync failures are
// not fatal: the wallet state is already durable.
func (m *Manager) persistAndResync(ctx context.Context) error {
	if err := m.persist(); err != nil {
		return err
	}

	if m.resync != nil {
		var addrs []string
		for _, acct := range m.wallet.ActiveAccounts() {
			watch, err := acct.WatchAddresses(m.params)
			if err != nil {
				return fmt.Errorf("deriving watch addresses for %q: %w", acct.Label, err)
			}
			addrs = append(addrs, watch...)
		}
		// Best effort: wallet state is already durable, and the resync
		// runs again on the next session.
		_ = m.resync.ResyncAddresses(ctx, addrs)
	}

	if m.refresh != nil {
		m.refresh.ForceRefresh(ctx)
	}
	return nil
}
