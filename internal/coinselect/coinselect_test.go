package coinselect

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/satsend/internal/chain"
)

// coin builds a test UTXO with the given identity and value.
func coin(txid string, vout uint32, value btcutil.Amount, script chain.ScriptType) chain.UTXO {
	return chain.UTXO{
		TxID:   txid,
		Vout:   vout,
		Value:  value,
		Script: script,
	}
}

// TestFeeForSize_RoundsUp tests that fees always round up to cover the rate.
func TestFeeForSize_RoundsUp(t *testing.T) {
	t.Parallel()

	// 100 vbytes at 1001 sat/kvB = 100.1 sats, rounded up to 101
	assert.Equal(t, btcutil.Amount(101), FeeForSize(100, 1001))

	// Exact multiples stay exact
	assert.Equal(t, btcutil.Amount(1000), FeeForSize(1000, 1000))

	// Zero rate means zero fee
	assert.Equal(t, btcutil.Amount(0), FeeForSize(200, 0))
}

// TestEstimateSize tests the vbyte accounting for mixed script types.
func TestEstimateSize(t *testing.T) {
	t.Parallel()

	// One segwit input, segwit target plus segwit change:
	// 10 + 68 + 31 + 31 = 140
	size := EstimateSize(
		[]chain.ScriptType{chain.ScriptP2WPKH},
		[]chain.ScriptType{chain.ScriptP2WPKH, chain.ScriptP2WPKH})
	assert.Equal(t, 140, size)

	// One legacy input, single legacy output: 10 + 148 + 34 = 192
	size = EstimateSize(
		[]chain.ScriptType{chain.ScriptP2PKH},
		[]chain.ScriptType{chain.ScriptP2PKH})
	assert.Equal(t, 192, size)
}

// TestSelect_LargestFirstWithChange tests that selection draws the largest
// output first and returns the remainder as change.
func TestSelect_LargestFirstWithChange(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{
		coin("aaaa", 0, 100_000_000, chain.ScriptP2WPKH),
		coin("bbbb", 1, 500_000_000, chain.ScriptP2WPKH),
		coin("cccc", 0, 300_000_000, chain.ScriptP2WPKH),
	}

	bundle := Select(coins, 400_000_000, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH)
	require.Len(t, bundle.Coins, 1)
	assert.Equal(t, "bbbb", bundle.Coins[0].TxID)

	// 1 input + 2 outputs = 140 vbytes at 10 sat/vB = 1400 sats
	assert.Equal(t, btcutil.Amount(1400), bundle.AbsoluteFee)
	assert.True(t, bundle.HasChange)
	assert.Equal(t, btcutil.Amount(500_000_000-400_000_000-1400), bundle.Change)
}

// TestSelect_AccumulatesUntilFunded tests that selection keeps drawing
// outputs until amount plus fee is covered.
func TestSelect_AccumulatesUntilFunded(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{
		coin("aaaa", 0, 300_000_000, chain.ScriptP2WPKH),
		coin("bbbb", 0, 200_000_000, chain.ScriptP2WPKH),
		coin("cccc", 0, 100_000_000, chain.ScriptP2WPKH),
	}

	bundle := Select(coins, 450_000_000, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH)
	require.Len(t, bundle.Coins, 2)
	assert.Equal(t, "aaaa", bundle.Coins[0].TxID)
	assert.Equal(t, "bbbb", bundle.Coins[1].TxID)
	assert.True(t, bundle.HasChange)
	assert.Equal(t, bundle.Total()-450_000_000-bundle.AbsoluteFee, bundle.Change)
}

// TestSelect_SubDustChangeAbsorbedIntoFee tests that a remainder below the
// dust limit is paid to miners instead of creating a dust output.
func TestSelect_SubDustChangeAbsorbedIntoFee(t *testing.T) {
	t.Parallel()

	// Remainder after amount and change-fee would be 100 sats (sub-dust),
	// but the coin still covers amount + no-change fee (1090 sats).
	coins := []chain.UTXO{
		coin("aaaa", 0, 400_001_500, chain.ScriptP2WPKH),
	}

	bundle := Select(coins, 400_000_000, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH)
	require.Len(t, bundle.Coins, 1)
	assert.False(t, bundle.HasChange)
	assert.Equal(t, btcutil.Amount(0), bundle.Change)

	// The entire remainder above the amount becomes fee.
	assert.Equal(t, btcutil.Amount(1500), bundle.AbsoluteFee)
}

// TestSelect_InsufficientFunds tests that an unfundable amount yields an
// empty bundle rather than an error.
func TestSelect_InsufficientFunds(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{
		coin("aaaa", 0, 100_000, chain.ScriptP2WPKH),
		coin("bbbb", 0, 50_000, chain.ScriptP2WPKH),
	}

	bundle := Select(coins, 200_000, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH)
	assert.True(t, bundle.Empty())
	assert.Equal(t, btcutil.Amount(0), bundle.AbsoluteFee)
	assert.False(t, bundle.HasChange)
}

// TestSelect_ZeroOrNegativeAmount tests the degenerate amount cases.
func TestSelect_ZeroOrNegativeAmount(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{coin("aaaa", 0, 100_000, chain.ScriptP2WPKH)}

	assert.True(t, Select(coins, 0, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH).Empty())
	assert.True(t, Select(coins, -1, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH).Empty())
	assert.True(t, Select(nil, 100, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH).Empty())
}

// TestSelect_Deterministic tests that equal-value outputs are drawn in txid
// then vout order regardless of input ordering.
func TestSelect_Deterministic(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{
		coin("bbbb", 0, 100_000_000, chain.ScriptP2WPKH),
		coin("aaaa", 1, 100_000_000, chain.ScriptP2WPKH),
		coin("aaaa", 0, 100_000_000, chain.ScriptP2WPKH),
	}

	first := Select(coins, 250_000_000, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH)
	require.Len(t, first.Coins, 3)
	assert.Equal(t, "aaaa", first.Coins[0].TxID)
	assert.Equal(t, uint32(0), first.Coins[0].Vout)
	assert.Equal(t, "aaaa", first.Coins[1].TxID)
	assert.Equal(t, uint32(1), first.Coins[1].Vout)
	assert.Equal(t, "bbbb", first.Coins[2].TxID)

	// Reversed input order produces the identical selection.
	reversed := []chain.UTXO{coins[2], coins[1], coins[0]}
	second := Select(reversed, 250_000_000, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH)
	assert.Equal(t, first.Coins, second.Coins)
	assert.Equal(t, first.AbsoluteFee, second.AbsoluteFee)
	assert.Equal(t, first.Change, second.Change)
}

// TestSelect_MixedScriptTypes tests fee accounting when legacy and segwit
// inputs are combined.
func TestSelect_MixedScriptTypes(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{
		coin("aaaa", 0, 300_000_000, chain.ScriptP2PKH),
		coin("bbbb", 0, 200_000_000, chain.ScriptP2WPKH),
	}

	bundle := Select(coins, 450_000_000, 10_000, chain.ScriptP2WPKH, chain.ScriptP2WPKH)
	require.Len(t, bundle.Coins, 2)

	// 10 + 148 + 68 + 31 + 31 = 288 vbytes at 10 sat/vB = 2880 sats
	assert.Equal(t, btcutil.Amount(2880), bundle.AbsoluteFee)
	assert.True(t, bundle.HasSegwitInput())
}

// TestMaximumAvailable tests the sweep computation that spends everything.
func TestMaximumAvailable(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{
		coin("aaaa", 0, 500_000_000, chain.ScriptP2WPKH),
		coin("bbbb", 0, 300_000_000, chain.ScriptP2WPKH),
	}

	// 10 + 2*68 + 31 = 177 vbytes at 10 sat/vB = 1770 sats
	maxSpendable, feeForMax := MaximumAvailable(coins, 10_000, chain.ScriptP2WPKH)
	assert.Equal(t, btcutil.Amount(1770), feeForMax)
	assert.Equal(t, btcutil.Amount(800_000_000-1770), maxSpendable)
}

// TestMaximumAvailable_FeeExceedsTotal tests that dust-only holdings sweep
// to zero rather than a negative maximum.
func TestMaximumAvailable_FeeExceedsTotal(t *testing.T) {
	t.Parallel()

	coins := []chain.UTXO{coin("aaaa", 0, 500, chain.ScriptP2WPKH)}

	maxSpendable, feeForMax := MaximumAvailable(coins, 10_000, chain.ScriptP2WPKH)
	assert.Equal(t, btcutil.Amount(0), maxSpendable)
	assert.Greater(t, feeForMax, btcutil.Amount(500))
}

// TestMaximumAvailable_NoCoins tests the empty wallet case.
func TestMaximumAvailable_NoCoins(t *testing.T) {
	t.Parallel()

	maxSpendable, feeForMax := MaximumAvailable(nil, 10_000, chain.ScriptP2WPKH)
	assert.Equal(t, btcutil.Amount(0), maxSpendable)
	assert.Equal(t, btcutil.Amount(0), feeForMax)
}

// TestBundle_Total tests value summation over the selected outputs.
func TestBundle_Total(t *testing.T) {
	t.Parallel()

	b := &Bundle{Coins: []chain.UTXO{
		coin("aaaa", 0, 100, chain.ScriptP2WPKH),
		coin("bbbb", 0, 250, chain.ScriptP2PKH),
	}}
	assert.Equal(t, btcutil.Amount(350), b.Total())
	assert.True(t, b.HasSegwitInput())

	legacy := &Bundle{Coins: []chain.UTXO{coin("cccc", 0, 100, chain.ScriptP2PKH)}}
	assert.False(t, legacy.HasSegwitInput())
}
