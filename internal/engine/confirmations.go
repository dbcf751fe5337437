package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mrz1836/satsend/internal/chain"
	"github.com/mrz1836/satsend/internal/coinselect"
)

// Large-transaction heuristic thresholds. All three must hold for the
// acknowledgement to appear. The fee threshold is fixed in USD regardless
// of the user's display currency, matching upstream behavior; the constant
// names carry the currency to make the non-normalization visible.
const (
	largeTxSizeThresholdVBytes   = 1024
	largeTxRatioThresholdPercent = 1
)

// largeTxFeeThresholdUSD is the fiat fee floor of the heuristic.
var largeTxFeeThresholdUSD = decimal.NewFromFloat(0.50)

// largeTxFiatCurrency pins the heuristic to USD.
const largeTxFiatCurrency = "USD"

// BuildConfirmations assembles the ordered line items shown before
// signing, and classifies the transaction as large where the heuristic
// demands an explicit acknowledgement.
func (e *Engine) BuildConfirmations(ctx context.Context, ptx *PendingTx) (*PendingTx, error) {
	next := ptx.clone()

	items := []Confirmation{
		{Label: "From", Value: e.account.Label},
		{Label: "To", Value: ptx.To},
		{Label: "Amount", Value: chain.FormatAmount(ptx.Amount) + " BTC"},
		{Label: "Network fee (" + ptx.FeeSelection.Selected.String() + ")",
			Value: chain.FormatAmount(ptx.FeeAmount) + " BTC"},
		{Label: "Total", Value: chain.FormatAmount(ptx.Total()) + " BTC"},
	}
	if ptx.Memo != "" {
		items = append(items, Confirmation{Label: "Memo", Value: ptx.Memo})
	}

	next.LargeTx = e.isLargeTx(ctx, ptx)
	if next.LargeTx {
		items = append(items, Confirmation{
			Label:        "Large transaction",
			Value:        "I understand this transaction carries an unusually high fee",
			RequiresAck:  true,
			Acknowledged: ptx.LargeTxAcknowledged,
		})
	}

	next.Confirmations = items
	return next, nil
}

// AcknowledgeLargeTx returns a copy with the large-transaction warning
// acknowledged, updating the confirmation line item in place.
func (p *PendingTx) AcknowledgeLargeTx() *PendingTx {
	next := p.clone()
	next.LargeTxAcknowledged = true

	items := make([]Confirmation, len(p.Confirmations))
	copy(items, p.Confirmations)
	for i := range items {
		if items[i].RequiresAck {
			items[i].Acknowledged = true
		}
	}
	next.Confirmations = items
	return next
}

// isLargeTx applies the three-part heuristic: fiat fee above the USD
// threshold AND virtual size above the byte threshold AND fee/amount ratio
// above the percentage threshold. A missing rate provider or a failed rate
// fetch leaves the transaction unclassified (not large); the failure is
// logged.
func (e *Engine) isLargeTx(ctx context.Context, ptx *PendingTx) bool {
	if ptx.Bundle == nil || ptx.Bundle.Empty() || ptx.Amount <= 0 {
		return false
	}
	if e.providers.Rates == nil {
		return false
	}

	rate, err := e.providers.Rates.FiatRate(ctx, largeTxFiatCurrency)
	if err != nil {
		e.log.Error("fiat rate fetch failed, skipping large-tx classification: %v", err)
		return false
	}

	feeFiat := decimal.New(int64(ptx.FeeAmount), -chain.Decimals).Mul(rate)
	if feeFiat.LessThanOrEqual(largeTxFeeThresholdUSD) {
		return false
	}

	if e.estimatedSize(ptx) <= largeTxSizeThresholdVBytes {
		return false
	}

	ratio := decimal.New(int64(ptx.FeeAmount), 0).
		Div(decimal.New(int64(ptx.Amount), 0)).
		Mul(decimal.New(100, 0))
	return ratio.GreaterThan(decimal.New(largeTxRatioThresholdPercent, 0))
}

// estimatedSize computes the virtual size of the would-be transaction from
// the selected bundle.
func (e *Engine) estimatedSize(ptx *PendingTx) int {
	inputs := make([]chain.ScriptType, len(ptx.Bundle.Coins))
	for i, c := range ptx.Bundle.Coins {
		inputs[i] = c.Script
	}

	outputs := []chain.ScriptType{e.targetScriptType(ptx.To)}
	if ptx.Bundle.HasChange {
		outputs = append(outputs, e.account.ChangeScriptType())
	}
	return coinselect.EstimateSize(inputs, outputs)
}
