package engine

// The validator chain: each check is an independent, side-effect-free
// predicate over the pending transaction that either passes or names the
// failure. Checks run in a fixed order and short-circuit on the first
// failure; the result is folded into the pending transaction's state,
// never returned as an error.

// A check returns StateCanExecute when it passes, or the failure state.
type check func(e *Engine, ptx *PendingTx) ValidationState

// amountChecks is the partial pass run after every amount or fee-level
// update.
var amountChecks = []check{
	checkAmount,
	checkCustomFee,
	checkSufficientFunds,
}

// fullChecks is the complete pass required before execution.
var fullChecks = []check{
	checkAddress,
	checkAmount,
	checkCustomFee,
	checkSufficientFunds,
	checkOptions,
}

// ValidateAmount runs the amount and funds checks, folding the outcome
// into the returned pending transaction.
func (e *Engine) ValidateAmount(ptx *PendingTx) *PendingTx {
	return e.runChecks(ptx.clone(), amountChecks)
}

// ValidateAll runs the full validator chain, the only pass that can mark a
// pending transaction executable.
func (e *Engine) ValidateAll(ptx *PendingTx) *PendingTx {
	return e.runChecks(ptx.clone(), fullChecks)
}

// validateAmountChecks is the in-pipeline variant used by UpdateAmount and
// UpdateFeeLevel; it mutates the already-cloned pending transaction.
func (e *Engine) validateAmountChecks(ptx *PendingTx) *PendingTx {
	return e.runChecks(ptx, amountChecks)
}

// runChecks applies a chain in order, short-circuiting on first failure.
// A pipeline already degraded to the pending-orders terminal state stays
// there.
func (e *Engine) runChecks(ptx *PendingTx, checks []check) *PendingTx {
	if ptx.State == StatePendingOrdersLimit {
		return ptx
	}

	for _, c := range checks {
		if state := c(e, ptx); state != StateCanExecute {
			ptx.State = state
			return ptx
		}
	}
	ptx.State = StateCanExecute
	return ptx
}

// checkAddress verifies the recipient address parses for the network.
func checkAddress(e *Engine, ptx *PendingTx) ValidationState {
	if ptx.To == "" {
		return StateInvalidAddress
	}
	if err := e.scripts.ValidateAddress(ptx.To); err != nil {
		return StateInvalidAddress
	}
	return StateCanExecute
}

// checkAmount verifies the amount sits inside the transactable limits:
// positive, at or above the dust floor, within the protocol ceiling.
func checkAmount(_ *Engine, ptx *PendingTx) ValidationState {
	if ptx.Limits == nil {
		return StateInvalidAmount
	}
	if ptx.Amount <= 0 || ptx.Amount < ptx.Limits.Min || ptx.Amount > ptx.Limits.Max {
		return StateInvalidAmount
	}
	return StateCanExecute
}

// checkCustomFee rejects an unset custom rate, one below the floor, and
// one above the configured ceiling. A zero ceiling means unbounded.
func checkCustomFee(_ *Engine, ptx *PendingTx) ValidationState {
	if ptx.FeeSelection.Selected != FeeCustom {
		return StateCanExecute
	}
	if ptx.FeeSelection.CustomRate == CustomRateUnset {
		return StateInvalidAmount
	}
	if ptx.FeeSelection.CustomRate < ptx.FeeSelection.MinCustomRate {
		return StateUnderMinLimit
	}
	if ptx.FeeSelection.MaxCustomRate > 0 && ptx.FeeSelection.CustomRate > ptx.FeeSelection.MaxCustomRate {
		return StateInvalidAmount
	}
	return StateCanExecute
}

// checkSufficientFunds covers both the balance shortfall and an empty coin
// selection: either way the wallet cannot fund amount plus fee.
func checkSufficientFunds(_ *Engine, ptx *PendingTx) ValidationState {
	if ptx.Amount > ptx.AvailableBalance {
		return StateInsufficientFunds
	}
	if ptx.Bundle == nil || ptx.Bundle.Empty() {
		return StateInsufficientFunds
	}
	return StateCanExecute
}

// checkOptions requires the large-transaction warning to be acknowledged
// when present.
func checkOptions(_ *Engine, ptx *PendingTx) ValidationState {
	if ptx.LargeTx && !ptx.LargeTxAcknowledged {
		return StateOptionInvalid
	}
	return StateCanExecute
}
