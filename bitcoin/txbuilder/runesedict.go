// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordkit/ord/bitcoin"
	"github.com/ordkit/ord/bitcoin/ord/runes"
)

// RunePostage is the minimum output value attached to a Runes transfer output.
const RunePostage int64 = 10_000

const (
	runestoneOutput   uint32 = 0
	runeChangeOutput  uint32 = 1
	runeDestOutput    uint32 = 2
	btcChangeOutput   uint32 = 3
	runesEdictOutputs        = 4
)

// RunesEdictParams describes data needed to build a standalone Runes
// transfer transaction (no commit/reveal pairing).
type RunesEdictParams struct {
	RuneID runes.RuneID

	RuneUTXOs []bitcoin.UTXO // must carry at least Amount of RuneID, sorted by rune amount desc.
	BaseUTXOs []bitcoin.UTXO // additional btc-only inputs to help cover the fee, sorted by btc amount desc.

	Amount            *big.Int // rune units to send to Destination.
	SatoshiPerKVByte  *big.Int
	Destination       string
	ChangeAddress     string
}

// RunesEdictResult is the outcome of a successful BuildRunesEdictTx call.
type RunesEdictResult struct {
	Tx            *wire.MsgTx
	UsedRuneUTXOs []*bitcoin.UTXO
	UsedBaseUTXOs []*bitcoin.UTXO
	Fee           *big.Int
}

// BuildRunesEdictTx assembles a standalone rune transfer with four fixed
// outputs: the OP_RETURN runestone, the rune-change output, the
// rune-destination output, and the BTC-change output. Leftover rune units
// not covered by the edict default to output 1 (the first non-OP_RETURN
// output) per runestone convention, so no explicit change edict is needed.
func BuildRunesEdictTx(networkParams *chaincfg.Params, params RunesEdictParams) (*RunesEdictResult, error) {
	runeUTXOs, _, err := PrepareRuneUTXOs(params.RuneUTXOs, params.Amount, params.RuneID)
	if err != nil {
		return nil, err
	}

	// the rune inputs' own satoshi value is counted toward the fee and
	// postage before any extra base inputs are pulled in, so a rune UTXO
	// set that already carries enough value needs no base inputs at all.
	total := big.NewInt(0)
	for _, in := range runeUTXOs {
		total.Add(total, in.Amount)
	}

	fee := new(big.Int).Mul(RoughTxSizeEstimate(len(runeUTXOs), runesEdictOutputs), params.SatoshiPerKVByte)
	fee.Div(fee, big.NewInt(1000))
	required := new(big.Int).Add(fee, big.NewInt(2*RunePostage))

	var baseUTXOs []*bitcoin.UTXO
	if required.Cmp(total) > 0 {
		var baseTotal *big.Int
		baseUTXOs, baseTotal, fee, err = PrepareUTXOs(params.BaseUTXOs, len(runeUTXOs), runesEdictOutputs, new(big.Int).Sub(required, total), params.SatoshiPerKVByte)
		if err != nil {
			return nil, err
		}

		total.Add(total, baseTotal)
		required = new(big.Int).Add(fee, big.NewInt(2*RunePostage))
		if required.Cmp(total) > 0 {
			return nil, NewInsufficientError(InsufficientErrorTypeBitcoin, required, total)
		}
	}

	runestone := &runes.Runestone{
		Edicts: []runes.Edict{
			{
				RuneID: params.RuneID,
				Amount: params.Amount,
				Output: runeDestOutput,
			},
		},
	}
	runestoneData, err := runestone.IntoScript()
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(txVersion)
	for _, in := range runeUTXOs {
		hash, err := chainhash.NewHashFromStr(in.TxHash)
		if err != nil {
			return nil, err
		}

		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Index), nil, nil))
	}
	for _, in := range baseUTXOs {
		hash, err := chainhash.NewHashFromStr(in.TxHash)
		if err != nil {
			return nil, err
		}

		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Index), nil, nil))
	}

	changeAddr, err := btcutil.DecodeAddress(params.ChangeAddress, networkParams)
	if err != nil {
		return nil, err
	}
	changeScript, err := txscript.PayToAddrScript(changeAddr)
	if err != nil {
		return nil, err
	}

	destAddr, err := btcutil.DecodeAddress(params.Destination, networkParams)
	if err != nil {
		return nil, err
	}
	destScript, err := txscript.PayToAddrScript(destAddr)
	if err != nil {
		return nil, err
	}

	btcChange := new(big.Int).Sub(total, required)

	tx.AddTxOut(wire.NewTxOut(0, runestoneData))          // output 0: runestone.
	tx.AddTxOut(wire.NewTxOut(RunePostage, changeScript))  // output 1: rune change.
	tx.AddTxOut(wire.NewTxOut(RunePostage, destScript))    // output 2: rune destination.
	tx.AddTxOut(wire.NewTxOut(btcChange.Int64(), changeScript)) // output 3: btc change.

	return &RunesEdictResult{
		Tx:            tx,
		UsedRuneUTXOs: runeUTXOs,
		UsedBaseUTXOs: baseUTXOs,
		Fee:           fee,
	}, nil
}
