// Package engine implements the pending-transaction pipeline for
// non-custodial Bitcoin sends: initialise, amount and fee-level updates,
// confirmation building, validation, and execution.
package engine

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/mrz1836/satsend/internal/chain"
	"github.com/mrz1836/satsend/internal/coinselect"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// FeeLevel selects which fee-schedule tier prices a send.
type FeeLevel int

// Fee levels.
const (
	// FeeNone carries no network fee. It is never user-selectable for
	// on-chain sends; it is the collapsed level of a degraded pipeline.
	FeeNone FeeLevel = iota
	FeeRegular
	FeePriority
	FeeCustom
)

// String returns the fee level name.
func (l FeeLevel) String() string {
	switch l {
	case FeeNone:
		return "none"
	case FeeRegular:
		return "regular"
	case FeePriority:
		return "priority"
	case FeeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseFeeLevel parses a fee level name.
func ParseFeeLevel(s string) (FeeLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return FeeNone, nil
	case "regular":
		return FeeRegular, nil
	case "priority":
		return FeePriority, nil
	case "custom":
		return FeeCustom, nil
	default:
		return FeeRegular, satserr.WithDetails(satserr.ErrInvalidFeeLevel,
			map[string]string{"level": s})
	}
}

// CustomRateUnset marks a custom fee rate the user has not chosen yet.
const CustomRateUnset int64 = -1

// FeeSelection carries the active fee level, the levels on offer, and the
// fee each level would actually charge for the current amount. Per-level
// fees come from real coin selections at that level's rate, never from a
// size-only estimate.
type FeeSelection struct {
	Selected  FeeLevel
	Available []FeeLevel
	Fees      map[FeeLevel]btcutil.Amount

	// CustomRate is the user-chosen rate in sat/byte, CustomRateUnset
	// until set. Bounds come from configuration.
	CustomRate    int64
	MinCustomRate int64
	MaxCustomRate int64
}

// Limits bound the transactable amount: dust floor to protocol ceiling.
// Nil on a pending transaction that failed to initialise.
type Limits struct {
	Min btcutil.Amount
	Max btcutil.Amount
}

// ValidationState is the outcome of the validator chain, folded into the
// pending transaction rather than surfaced as an error.
type ValidationState int

// Validation states.
const (
	StateUninitialised ValidationState = iota
	StateCanExecute
	StateInvalidAddress
	StateInvalidAmount
	StateInsufficientFunds
	StateOptionInvalid
	StateUnderMinLimit
	StatePendingOrdersLimit
)

// String returns the validation state name.
func (s ValidationState) String() string {
	switch s {
	case StateUninitialised:
		return "UNINITIALISED"
	case StateCanExecute:
		return "CAN_EXECUTE"
	case StateInvalidAddress:
		return "INVALID_ADDRESS"
	case StateInvalidAmount:
		return "INVALID_AMOUNT"
	case StateInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case StateOptionInvalid:
		return "OPTION_INVALID"
	case StateUnderMinLimit:
		return "UNDER_MIN_LIMIT"
	case StatePendingOrdersLimit:
		return "PENDING_ORDERS_LIMIT_REACHED"
	default:
		return "UNKNOWN"
	}
}

// Confirmation is one line item shown before signing. Items with
// RequiresAck must be acknowledged before validation passes.
type Confirmation struct {
	Label        string
	Value        string
	RequiresAck  bool
	Acknowledged bool
}

// PendingTx is the central state object of one send attempt. Every pipeline
// step returns a fresh copy; nothing here is ever persisted. Intermediate
// pipeline payloads (the selected bundle, the fetched coin set, the fee
// schedule) are explicit fields rather than an untyped bag.
type PendingTx struct {
	To   string
	Memo string

	Amount              btcutil.Amount
	TotalBalance        btcutil.Amount
	AvailableBalance    btcutil.Amount
	FeeForFullAvailable btcutil.Amount
	FeeAmount           btcutil.Amount

	FeeSelection FeeSelection
	Limits       *Limits
	State        ValidationState

	Confirmations       []Confirmation
	LargeTx             bool
	LargeTxAcknowledged bool

	// Bundle is the coin selection for the currently selected fee level.
	Bundle *coinselect.Bundle

	// Coins is the spendable output snapshot fetched by the last amount
	// update; fee-level switches re-select from it without refetching.
	Coins []chain.UTXO

	// Schedule is the fee-rate snapshot from the last amount update.
	Schedule *chain.FeeSchedule
}

// clone returns a shallow copy for the next pipeline step.
func (p *PendingTx) clone() *PendingTx {
	cp := *p
	return &cp
}

// Total returns the amount plus the network fee.
func (p *PendingTx) Total() btcutil.Amount {
	return p.Amount + p.FeeAmount
}
