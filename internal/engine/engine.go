package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mrz1836/satsend/internal/cache"
	"github.com/mrz1836/satsend/internal/chain"
	"github.com/mrz1836/satsend/internal/chain/btc"
	"github.com/mrz1836/satsend/internal/coinselect"
	"github.com/mrz1836/satsend/internal/config"
	"github.com/mrz1836/satsend/internal/utxostore"
	"github.com/mrz1836/satsend/internal/wallet"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// AddressClassifier validates an address and reports its script type.
// Implemented by the btc client; pure, no network I/O.
type AddressClassifier interface {
	ValidateAddress(address string) error
	ScriptTypeOf(address string) (chain.ScriptType, error)
}

// Providers bundles the backend collaborators the engine consumes. Rates
// and Quotes are optional; the rest are required.
type Providers struct {
	Balance   chain.BalanceProvider
	Unspent   chain.UnspentProvider
	Fees      chain.FeeProvider
	Rates     chain.RateProvider
	Quotes    chain.QuoteProvider
	Broadcast chain.Broadcaster
}

// Engine drives the send pipeline for one source account. It is not safe
// for concurrent use on a single pending transaction; callers serialize
// amount and fee-level updates per send session.
type Engine struct {
	account   *wallet.Account
	manager   *wallet.Manager
	params    *chaincfg.Params
	providers Providers
	scripts   AddressClassifier
	store     *config.Store
	balances  *cache.BalanceCache
	spent     *utxostore.Store
	log       *config.Logger
	remote    config.RemoteLog
}

// New creates an engine for the given source account. The source must be a
// signable, unarchived account; these are constructor failures, not
// validation states, because no pipeline can begin from them.
func New(account *wallet.Account, manager *wallet.Manager, params *chaincfg.Params,
	providers Providers, scripts AddressClassifier, store *config.Store,
	balances *cache.BalanceCache, spent *utxostore.Store,
	log *config.Logger, remote config.RemoteLog) (*Engine, error) {

	if account == nil {
		return nil, satserr.ErrAccountNotFound
	}
	if account.Archived {
		return nil, satserr.ErrAccountArchived
	}
	if !account.IsHD() {
		// Imported accounts are watch-only; they cannot source a send.
		return nil, satserr.ErrImportedAccount
	}
	if providers.Balance == nil || providers.Unspent == nil || providers.Fees == nil || providers.Broadcast == nil {
		return nil, satserr.WithSuggestion(satserr.ErrGeneral, "engine requires balance, unspent, fee, and broadcast providers")
	}
	if scripts == nil {
		return nil, satserr.WithSuggestion(satserr.ErrGeneral, "engine requires an address classifier")
	}
	if log == nil {
		log = config.NullLogger()
	}
	if remote == nil {
		remote = config.NoopRemoteLog{}
	}

	return &Engine{
		account:   account,
		manager:   manager,
		params:    params,
		providers: providers,
		scripts:   scripts,
		store:     store,
		balances:  balances,
		spent:     spent,
		log:       log,
		remote:    remote,
	}, nil
}

// InitialiseTx starts a fresh pending transaction: zeroed amounts, the
// dust-floor/protocol-ceiling limits, and the default fee level from
// configuration. When the quote backend reports the pending-orders cap,
// the pending transaction initialises degraded: nil limits, a fee
// selection collapsed to the single None level, and the terminal
// PENDING_ORDERS_LIMIT_REACHED state.
func (e *Engine) InitialiseTx(ctx context.Context, to string) (*PendingTx, error) {
	if e.providers.Quotes != nil {
		if err := e.providers.Quotes.CheckPendingOrders(ctx); err != nil {
			if satserr.Is(err, satserr.ErrPendingOrdersLimit) {
				e.log.Debug("send init degraded: pending orders limit reached")
				return &PendingTx{
					To:    to,
					State: StatePendingOrdersLimit,
					FeeSelection: FeeSelection{
						Selected:   FeeNone,
						Available:  []FeeLevel{FeeNone},
						Fees:       map[FeeLevel]btcutil.Amount{FeeNone: 0},
						CustomRate: CustomRateUnset,
					},
				}, nil
			}
			return nil, err
		}
	}

	level := FeeRegular
	minRate, maxRate := int64(1), int64(0)
	if e.store != nil {
		if parsed, err := ParseFeeLevel(e.store.DefaultFeeLevel()); err == nil {
			level = parsed
		}
		minRate, maxRate = e.store.CustomFeeBounds()
	}

	return &PendingTx{
		To:     to,
		Limits: &Limits{Min: chain.DustLimit, Max: chain.MaxAmount},
		State:  StateUninitialised,
		FeeSelection: FeeSelection{
			Selected:  level,
			Available: []FeeLevel{FeeRegular, FeePriority, FeeCustom},
			Fees: map[FeeLevel]btcutil.Amount{
				FeeNone:     0,
				FeeRegular:  0,
				FeePriority: 0,
				FeeCustom:   0,
			},
			CustomRate:    CustomRateUnset,
			MinCustomRate: minRate,
			MaxCustomRate: maxRate,
		},
	}, nil
}

// UpdateAmount sets a new payment amount: balance, fee schedule, and
// unspent outputs are fetched concurrently and joined, coins are selected
// per fee level so each displayed fee equals what that level would charge,
// and the spend-everything numbers are recomputed. Any fetch failure
// degrades the pending transaction to INSUFFICIENT_FUNDS instead of
// surfacing an error.
func (e *Engine) UpdateAmount(ctx context.Context, ptx *PendingTx, amount btcutil.Amount) (*PendingTx, error) {
	next := ptx.clone()
	next.Amount = amount

	var (
		wg       sync.WaitGroup
		balance  chain.Balance
		schedule *chain.FeeSchedule
		coins    []chain.UTXO
		balErr   error
		feeErr   error
		utxoErr  error
	)

	addresses, err := e.account.WatchAddresses(e.params)
	if err != nil {
		return e.degrade(ctx, next, "deriving watch addresses", err), nil
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		balance, balErr = e.providers.Balance.Balance(ctx, addresses)
	}()
	go func() {
		defer wg.Done()
		schedule, feeErr = e.providers.Fees.FeeSchedule(ctx)
	}()
	go func() {
		defer wg.Done()
		coins, utxoErr = e.providers.Unspent.Unspent(ctx, addresses)
	}()
	wg.Wait()

	switch {
	case balErr != nil:
		return e.degrade(ctx, next, "balance fetch", balErr), nil
	case feeErr != nil:
		return e.degrade(ctx, next, "fee schedule fetch", feeErr), nil
	case utxoErr != nil:
		return e.degrade(ctx, next, "unspent fetch", utxoErr), nil
	}

	if e.spent != nil {
		coins = e.spent.Filter(coins)
	}

	// Balance says funds exist, the output source says none do. The two
	// backends disagree; record it remotely and degrade.
	if balance.Total > 0 && len(coins) == 0 {
		e.remote.Record(ctx, "utxo_inconsistency", map[string]string{
			"account": e.account.Label,
			"balance": balance.Total.String(),
			"error":   satserr.ErrUTXOInconsistency.Message,
		})
		return e.degrade(ctx, next, "unspent set", satserr.ErrUTXOInconsistency), nil
	}

	paths, err := e.account.AddressPaths(e.params)
	if err != nil {
		return e.degrade(ctx, next, "mapping derivation paths", err), nil
	}
	for i := range coins {
		coins[i].Path = paths[coins[i].Address]
	}

	if e.balances != nil {
		e.balances.Set(e.account.XPubAddress(), balance)
	}

	next.TotalBalance = balance.Total
	next.Coins = coins
	next.Schedule = schedule

	e.reselect(next)
	return e.validateAmountChecks(next), nil
}

// UpdateFeeLevel switches the active fee level and re-derives the bundle
// and fee from the snapshot taken by the last amount update, without
// refetching anything. Selecting the already-active level with an
// unchanged custom rate is a no-op.
func (e *Engine) UpdateFeeLevel(ptx *PendingTx, level FeeLevel, customRate int64) (*PendingTx, error) {
	if level == ptx.FeeSelection.Selected &&
		(level != FeeCustom || customRate == ptx.FeeSelection.CustomRate) {
		return ptx, nil
	}

	available := false
	for _, l := range ptx.FeeSelection.Available {
		if l == level {
			available = true
			break
		}
	}
	if !available || level == FeeNone {
		return nil, satserr.WithDetails(satserr.ErrInvalidFeeLevel,
			map[string]string{"level": level.String()})
	}

	next := ptx.clone()
	next.FeeSelection.Selected = level
	if level == FeeCustom {
		next.FeeSelection.CustomRate = customRate
	}

	e.reselect(next)
	return e.validateAmountChecks(next), nil
}

// reselect recomputes per-level fees, the selected bundle, and the
// spend-everything numbers from the pending transaction's coin and
// fee-schedule snapshot.
func (e *Engine) reselect(ptx *PendingTx) {
	if ptx.Schedule == nil {
		return
	}

	targetType := e.targetScriptType(ptx.To)
	changeType := e.account.ChangeScriptType()

	fees := make(map[FeeLevel]btcutil.Amount, len(ptx.FeeSelection.Available)+1)
	fees[FeeNone] = 0

	var selected *coinselect.Bundle
	for _, level := range ptx.FeeSelection.Available {
		if level == FeeNone {
			continue
		}
		rate := e.rateForLevel(ptx, level)
		bundle := coinselect.Select(ptx.Coins, ptx.Amount, rate, targetType, changeType)
		fees[level] = bundle.AbsoluteFee
		if level == ptx.FeeSelection.Selected {
			selected = bundle
		}
	}
	if selected == nil {
		selected = &coinselect.Bundle{}
	}

	ptx.FeeSelection.Fees = fees
	ptx.Bundle = selected
	ptx.FeeAmount = selected.AbsoluteFee

	_, feeForMax := coinselect.MaximumAvailable(ptx.Coins,
		e.rateForLevel(ptx, ptx.FeeSelection.Selected), targetType)
	ptx.FeeForFullAvailable = feeForMax
	if ptx.TotalBalance > feeForMax {
		ptx.AvailableBalance = ptx.TotalBalance - feeForMax
	} else {
		ptx.AvailableBalance = 0
	}
}

// rateForLevel maps a fee level to its sat/kB rate under the current
// schedule. An unset custom rate prices as zero; validation rejects it
// before execution.
func (e *Engine) rateForLevel(ptx *PendingTx, level FeeLevel) btcutil.Amount {
	switch level {
	case FeeRegular:
		return ptx.Schedule.RegularPerKB
	case FeePriority:
		return ptx.Schedule.PriorityPerKB
	case FeeCustom:
		if ptx.FeeSelection.CustomRate <= 0 {
			return 0
		}
		return btcutil.Amount(ptx.FeeSelection.CustomRate * 1000)
	default:
		return 0
	}
}

// targetScriptType classifies the recipient address, assuming segwit for
// fee estimation when the address is absent or unparseable. Validation
// reports the bad address separately.
func (e *Engine) targetScriptType(to string) chain.ScriptType {
	if to == "" {
		return chain.ScriptP2WPKH
	}
	script, err := e.scripts.ScriptTypeOf(to)
	if err != nil {
		return chain.ScriptP2WPKH
	}
	return script
}

// degrade folds a fetch or consistency failure into the pending
// transaction as INSUFFICIENT_FUNDS so the caller can render a recoverable
// state instead of handling an error.
func (e *Engine) degrade(ctx context.Context, ptx *PendingTx, step string, err error) *PendingTx {
	e.log.Error("amount update degraded at %s: %v", step, err)
	if satserr.Code(err) != satserr.ErrUTXOInconsistency.Code {
		e.remote.Record(ctx, "amount_update_failed", map[string]string{
			"step":  step,
			"error": err.Error(),
		})
	}
	ptx.State = StateInsufficientFunds
	ptx.Bundle = &coinselect.Bundle{}
	return ptx
}

// Execute assembles, signs, and broadcasts the validated pending
// transaction, then applies the post-broadcast bookkeeping: inputs are
// marked spent, the cached balance is optimistically decremented by amount
// plus fee, and the account's address cursors advance. Broadcast failures
// are logged remotely and surfaced as an execution failure; they are never
// retried here.
func (e *Engine) Execute(ctx context.Context, ptx *PendingTx, keys btc.KeySource) (string, error) {
	if ptx.State != StateCanExecute {
		return "", satserr.WithDetails(satserr.ErrExecutionFailed,
			map[string]string{"state": ptx.State.String()})
	}
	if ptx.Bundle == nil || ptx.Bundle.Empty() {
		return "", satserr.ErrInsufficientFunds
	}

	changeAddress, err := e.changeAddress(ptx.Bundle)
	if err != nil {
		return "", satserr.Wrap(err, "resolving change address")
	}

	tx, err := btc.Assemble(ptx.Bundle, ptx.To, ptx.Amount, changeAddress, e.params)
	if err != nil {
		return "", satserr.Wrap(err, "assembling transaction")
	}

	signed, err := btc.Sign(tx, ptx.Bundle.Coins, keys, ptx.Bundle, e.params)
	if err != nil {
		e.remote.Record(ctx, "signing_failed", map[string]string{
			"account": e.account.Label,
			"error":   err.Error(),
		})
		return "", satserr.Wrap(err, "signing transaction")
	}

	txid, err := e.providers.Broadcast.Broadcast(ctx, signed.Raw)
	if err != nil {
		e.log.Error("broadcast failed for %s: %v", signed.TxID, err)
		e.remote.Record(ctx, "broadcast_failed", map[string]string{
			"txid":  signed.TxID,
			"error": err.Error(),
		})
		return "", fmt.Errorf("%w: %w", satserr.ErrExecutionFailed, err)
	}

	e.afterBroadcast(ctx, ptx, txid)
	return txid, nil
}

// afterBroadcast applies optimistic local state. Every step is best
// effort: the transaction is already on the network, and the next
// authoritative refresh reconciles anything missed here.
func (e *Engine) afterBroadcast(ctx context.Context, ptx *PendingTx, txid string) {
	if e.spent != nil {
		if err := e.spent.MarkSpent(ptx.Bundle.Coins, txid); err != nil {
			e.log.Error("marking spent outputs for %s: %v", txid, err)
		}
	}
	if e.balances != nil {
		e.balances.Decrement(e.account.XPubAddress(), ptx.Total())
	}
	if e.manager != nil {
		if err := e.manager.MarkSpent(ctx, e.account); err != nil {
			e.log.Error("advancing address cursors after %s: %v", txid, err)
		}
	}
	e.log.Debug("broadcast %s: %s to %s (fee %s)", txid,
		ptx.Amount.String(), ptx.To, ptx.FeeAmount.String())
}

// changeAddress picks the change destination: once any selected input is
// segwit the account's change chain is safe to use; otherwise fall back to
// the next receive address. This bridges wallets still migrating from
// legacy-only derivation.
func (e *Engine) changeAddress(bundle *coinselect.Bundle) (string, error) {
	if bundle.HasSegwitInput() {
		return e.account.ChangeAddress(e.params)
	}
	return e.account.ReceiveAddress(e.params)
}
