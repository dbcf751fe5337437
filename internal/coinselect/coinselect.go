// Package coinselect implements unspent-output selection and fee
// computation for Bitcoin transactions.
//
// Selection is largest-value-first: outputs are drawn in descending value
// order until the accumulated value covers the payment amount plus the fee
// implied by the inputs drawn so far. Ties are broken by txid then vout so
// that identical inputs always produce identical selections.
package coinselect

import (
	"sort"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/mrz1836/satsend/internal/chain"
)

// Bundle is the result of a coin selection: the exact set of outputs to
// spend, the absolute fee they imply at the requested rate, and any change.
type Bundle struct {
	// Coins are the selected outputs, in selection order.
	Coins []chain.UTXO

	// AbsoluteFee is the fee implied by this selection at the requested
	// fee rate. When the remainder after the payment is below the dust
	// limit, it is absorbed into the fee rather than creating a change
	// output.
	AbsoluteFee btcutil.Amount

	// Change is the value returned to the wallet, zero when HasChange is
	// false.
	Change btcutil.Amount

	// HasChange reports whether the transaction carries a change output.
	HasChange bool
}

// Total returns the summed value of the selected outputs.
func (b *Bundle) Total() btcutil.Amount {
	var total btcutil.Amount
	for _, c := range b.Coins {
		total += c.Value
	}
	return total
}

// HasSegwitInput reports whether any selected output is a segwit output.
func (b *Bundle) HasSegwitInput() bool {
	for _, c := range b.Coins {
		if c.IsSegwit() {
			return true
		}
	}
	return false
}

// Empty reports whether the selection contains no outputs.
func (b *Bundle) Empty() bool {
	return len(b.Coins) == 0
}

// EstimateSize estimates the virtual size in vbytes of a transaction
// spending the given input types and creating the given output types.
func EstimateSize(inputs, outputs []chain.ScriptType) int {
	size := chain.TxOverheadVBytes
	for _, in := range inputs {
		size += in.InputVBytes()
	}
	for _, out := range outputs {
		size += out.OutputVBytes()
	}
	return size
}

// FeeForSize computes the absolute fee for a transaction of the given
// virtual size at a rate in satoshis per kilo-vbyte, rounded up so the fee
// always covers the rate.
func FeeForSize(size int, ratePerKB btcutil.Amount) btcutil.Amount {
	return (btcutil.Amount(size)*ratePerKB + 999) / 1000
}

// Select chooses the outputs needed to fund a payment of amount at the
// given fee rate. targetType is the script type of the recipient output and
// changeType the script type of a potential change output.
//
// An empty bundle is returned when the available outputs cannot cover the
// amount plus fee; callers treat that as an ordinary insufficient-funds
// condition. Selection is deterministic for identical inputs.
func Select(coins []chain.UTXO, amount, ratePerKB btcutil.Amount, targetType, changeType chain.ScriptType) *Bundle {
	if amount <= 0 || len(coins) == 0 {
		return &Bundle{}
	}

	sorted := orderCoins(coins)

	var (
		selected   []chain.UTXO
		inputTypes []chain.ScriptType
		total      btcutil.Amount
	)

	for _, c := range sorted {
		selected = append(selected, c)
		inputTypes = append(inputTypes, c.Script)
		total += c.Value

		// Fee if the remainder goes back to the wallet as change.
		feeWithChange := FeeForSize(
			EstimateSize(inputTypes, []chain.ScriptType{targetType, changeType}), ratePerKB)
		if remainder := total - amount - feeWithChange; remainder >= chain.DustLimit {
			return &Bundle{
				Coins:       selected,
				AbsoluteFee: feeWithChange,
				Change:      remainder,
				HasChange:   true,
			}
		}

		// Fee without a change output; a sub-dust remainder is absorbed.
		feeNoChange := FeeForSize(
			EstimateSize(inputTypes, []chain.ScriptType{targetType}), ratePerKB)
		if total >= amount+feeNoChange {
			return &Bundle{
				Coins:       selected,
				AbsoluteFee: total - amount,
				HasChange:   false,
			}
		}
	}

	// Nothing selectable covers amount + fee.
	return &Bundle{}
}

// MaximumAvailable computes the maximum payment achievable by spending all
// provided outputs at the given fee rate, along with the fee that spend
// would cost. The sweep transaction has a single output of targetType.
func MaximumAvailable(coins []chain.UTXO, ratePerKB btcutil.Amount, targetType chain.ScriptType) (maxSpendable, feeForMax btcutil.Amount) {
	if len(coins) == 0 {
		return 0, 0
	}

	inputTypes := make([]chain.ScriptType, len(coins))
	var total btcutil.Amount
	for i, c := range coins {
		inputTypes[i] = c.Script
		total += c.Value
	}

	fee := FeeForSize(EstimateSize(inputTypes, []chain.ScriptType{targetType}), ratePerKB)
	if fee >= total {
		return 0, fee
	}
	return total - fee, fee
}

// orderCoins returns a copy of coins sorted largest-value-first, with ties
// broken by txid then vout.
func orderCoins(coins []chain.UTXO) []chain.UTXO {
	sorted := make([]chain.UTXO, len(coins))
	copy(sorted, coins)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value > sorted[j].Value
		}
		if sorted[i].TxID != sorted[j].TxID {
			return sorted[i].TxID < sorted[j].TxID
		}
		return sorted[i].Vout < sorted[j].Vout
	})
	return sorted
}
