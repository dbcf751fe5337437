// Package chain provides Bitcoin network type definitions, provider
// contracts, and common utilities shared by the send engine.
package chain

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
)

// Decimals is the number of decimal places for BTC amounts.
const Decimals = 8

// DustLimit is the minimum output value in satoshis. Payments and change
// outputs below this value are not relayed by the network.
const DustLimit = btcutil.Amount(546)

// MaxAmount is the protocol-level ceiling for a single payment, derived from
// the maximum BTC supply (21 million coins in satoshis).
const MaxAmount = btcutil.Amount(2_100_000_000_000_000)

// ScriptType identifies the script template of an address or output.
type ScriptType int

// Supported script types.
const (
	// ScriptP2PKH is a legacy pay-to-pubkey-hash output.
	ScriptP2PKH ScriptType = iota
	// ScriptP2WPKH is a native segwit pay-to-witness-pubkey-hash output.
	ScriptP2WPKH
)

// String returns the script type name.
func (s ScriptType) String() string {
	switch s {
	case ScriptP2PKH:
		return "p2pkh"
	case ScriptP2WPKH:
		return "p2wpkh"
	default:
		return "unknown"
	}
}

// InputVBytes returns the virtual size contribution of spending an output
// of this script type.
func (s ScriptType) InputVBytes() int {
	switch s {
	case ScriptP2WPKH:
		return segwitInputVBytes
	default:
		return legacyInputVBytes
	}
}

// OutputVBytes returns the size contribution of creating an output of this
// script type.
func (s ScriptType) OutputVBytes() int {
	switch s {
	case ScriptP2WPKH:
		return segwitOutputVBytes
	default:
		return legacyOutputVBytes
	}
}

// Virtual size constants for fee estimation. Legacy inputs carry a full
// scriptSig; segwit inputs move the signature into the discounted witness.
const (
	legacyInputVBytes  = 148
	segwitInputVBytes  = 68
	legacyOutputVBytes = 34
	segwitOutputVBytes = 31

	// TxOverheadVBytes is the fixed transaction overhead: version, locktime
	// and the input/output count varints.
	TxOverheadVBytes = 10
)

// UTXO represents an unspent transaction output.
type UTXO struct {
	TxID          string
	Vout          uint32
	Value         btcutil.Amount
	Address       string
	Path          string // derivation path of the owning address
	Script        ScriptType
	Confirmations uint32
}

// IsSegwit reports whether spending this output requires a witness.
func (u *UTXO) IsSegwit() bool {
	return u.Script == ScriptP2WPKH
}

// Balance is a point-in-time account balance snapshot.
type Balance struct {
	Total     btcutil.Amount
	Spendable btcutil.Amount
	Pending   btcutil.Amount
}

// FeeSchedule is a per-network fee-rate snapshot, expressed in satoshis per
// kilo-vbyte. Fetched fresh on each pending-transaction initialisation and
// never cached across sends.
type FeeSchedule struct {
	RegularPerKB  btcutil.Amount
	PriorityPerKB btcutil.Amount
	FetchedAt     time.Time
}

// BalanceProvider returns the current balance for a set of addresses.
// Results may be stale until a forced refresh.
type BalanceProvider interface {
	Balance(ctx context.Context, addresses []string) (Balance, error)
}

// UnspentProvider returns the current UTXO set for a set of addresses.
// An empty list is a legitimate response.
type UnspentProvider interface {
	Unspent(ctx context.Context, addresses []string) ([]UTXO, error)
}

// FeeProvider returns the current network fee schedule.
type FeeProvider interface {
	FeeSchedule(ctx context.Context) (*FeeSchedule, error)
}

// RateProvider supplies fiat conversion for display and transaction
// classification. The returned rate is the fiat price of one BTC.
type RateProvider interface {
	FiatRate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// QuoteProvider reports order-eligibility constraints from the trading
// backend. CheckPendingOrders returns ErrPendingOrdersLimit when the user
// has reached the backend's pending-orders cap.
type QuoteProvider interface {
	CheckPendingOrders(ctx context.Context) error
}

// Broadcaster submits a fully signed, serialized transaction to the network
// and returns its transaction id.
type Broadcaster interface {
	Broadcast(ctx context.Context, rawTx []byte) (string, error)
}
