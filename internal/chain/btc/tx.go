package btc

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/mrz1836/satsend/internal/chain"
	"github.com/mrz1836/satsend/internal/coinselect"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// KeySource resolves the private key controlling an unspent output.
type KeySource interface {
	KeyForUTXO(u *chain.UTXO) (*btcec.PrivateKey, error)
}

// SignedTx is a fully signed transaction ready for broadcast.
type SignedTx struct {
	// TxID is the transaction id of the signed transaction.
	TxID string

	// Raw is the serialized transaction.
	Raw []byte

	// Fee is the absolute fee paid.
	Fee btcutil.Amount
}

// Assemble builds an unsigned transaction from a coin selection: one output
// to the recipient, plus a change output when the bundle carries change.
func Assemble(bundle *coinselect.Bundle, toAddress string, amount btcutil.Amount, changeAddress string, params *chaincfg.Params) (*wire.MsgTx, error) {
	if bundle.Empty() {
		return nil, satserr.ErrInsufficientFunds
	}

	tx := wire.NewMsgTx(wire.TxVersion)

	for _, c := range bundle.Coins {
		hash, err := chainhash.NewHashFromStr(c.TxID)
		if err != nil {
			return nil, fmt.Errorf("parsing input txid %s: %w", c.TxID, err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, c.Vout), nil, nil))
	}

	targetScript, err := payScript(toAddress, params)
	if err != nil {
		return nil, fmt.Errorf("building recipient script: %w", err)
	}
	tx.AddTxOut(wire.NewTxOut(int64(amount), targetScript))

	if bundle.HasChange {
		changeScript, err := payScript(changeAddress, params)
		if err != nil {
			return nil, fmt.Errorf("building change script: %w", err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(bundle.Change), changeScript))
	}

	return tx, nil
}

// Sign signs every input of an assembled transaction. Input order must match
// the bundle's coin order. Derived keys are zeroed before return.
func Sign(tx *wire.MsgTx, coins []chain.UTXO, keys KeySource, bundle *coinselect.Bundle, params *chaincfg.Params) (*SignedTx, error) {
	if len(tx.TxIn) != len(coins) {
		return nil, fmt.Errorf("%w: %d inputs for %d coins", satserr.ErrSigningFailed, len(tx.TxIn), len(coins))
	}

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(coins))
	scripts := make([][]byte, len(coins))
	for i, c := range coins {
		// Rebuild the locking script of the output being spent from its
		// owning address.
		script, err := payScript(c.Address, params)
		if err != nil {
			return nil, fmt.Errorf("rebuilding script for %s:%d: %w", c.TxID, c.Vout, err)
		}
		scripts[i] = script
		prevOuts[tx.TxIn[i].PreviousOutPoint] = wire.NewTxOut(int64(c.Value), script)
	}

	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i := range coins {
		c := coins[i]
		priv, err := keys.KeyForUTXO(&c)
		if err != nil {
			return nil, err
		}

		if c.IsSegwit() {
			witness, err := txscript.WitnessSignature(tx, sigHashes, i, int64(c.Value),
				scripts[i], txscript.SigHashAll, priv, true)
			priv.Zero()
			if err != nil {
				return nil, fmt.Errorf("%w: witness for input %d: %v", satserr.ErrSigningFailed, i, err)
			}
			tx.TxIn[i].Witness = witness
		} else {
			sigScript, err := txscript.SignatureScript(tx, i, scripts[i],
				txscript.SigHashAll, priv, true)
			priv.Zero()
			if err != nil {
				return nil, fmt.Errorf("%w: script for input %d: %v", satserr.ErrSigningFailed, i, err)
			}
			tx.TxIn[i].SignatureScript = sigScript
		}
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serializing transaction: %w", err)
	}

	return &SignedTx{
		TxID: tx.TxHash().String(),
		Raw:  buf.Bytes(),
		Fee:  bundle.AbsoluteFee,
	}, nil
}

// payScript builds the output script paying to an address.
func payScript(address string, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", satserr.ErrInvalidAddress, address)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("encoding script for %s: %w", address, err)
	}
	return script, nil
}
