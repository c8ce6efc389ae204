// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordkit/ord/bitcoin"
	"github.com/ordkit/ord/bitcoin/ord/inscriptions"
	"github.com/ordkit/ord/bitcoin/ord/redeemscript"
	"github.com/ordkit/ord/bitcoin/ord/taproot"
	"github.com/ordkit/ord/internal/numbers"
)

// Postage is the minimum output value attached to an inscription reveal output.
const Postage int64 = 333

// ErrNoInputs means the builder was called with an empty input set.
var ErrNoInputs = errors.New("txbuilder: no inputs")

// ErrTaprootKeypairMissing means a reveal was requested for a P2TR commit
// without the Taproot payload produced by that commit's build call.
var ErrTaprootKeypairMissing = errors.New("txbuilder: taproot keypair missing, commit was not run")

// InscriptionBuilder assembles the commit/reveal transaction pair for a
// single inscription. One instance is scoped to one inscription: it
// accumulates the Taproot payload (if any) produced by BuildCommit and
// requires it to build the matching reveal.
type InscriptionBuilder struct {
	networkParams *chaincfg.Params

	scriptType   redeemscript.ScriptType
	redeemScript []byte
	taprootData  *taproot.Payload
}

// NewInscriptionBuilder is a constructor for InscriptionBuilder.
func NewInscriptionBuilder(networkParams *chaincfg.Params) *InscriptionBuilder {
	return &InscriptionBuilder{networkParams: networkParams}
}

// CommitParams describes data needed to build the commit transaction.
type CommitParams struct {
	Inputs []bitcoin.UTXO // must sum to at least Postage+CommitFee+RevealFee.

	ScriptType  redeemscript.ScriptType
	PublicKey   []byte // 33-byte compressed ECDSA key; required for P2WSH, ignored for P2TR.
	Inscription *inscriptions.Inscription

	CommitFee *big.Int
	RevealFee *big.Int

	LeftoversAddress string
}

// CommitResult is the outcome of a successful BuildCommit call.
type CommitResult struct {
	Tx                *wire.MsgTx
	RedeemScript      []byte
	ScriptOutputValue *big.Int
	LeftoverValue     *big.Int
	// TaprootAddress is set only for a P2TR commit: the address the
	// script output pays to, derived from a freshly generated keypair.
	TaprootAddress string
}

// BuildCommit assembles the unsigned commit transaction: one script output
// locking reveal_balance = postage + reveal_fee, and one leftover output
// paying Σinputs − postage − commit_fee − reveal_fee back to the caller.
func (b *InscriptionBuilder) BuildCommit(params CommitParams) (*CommitResult, error) {
	if len(params.Inputs) == 0 {
		return nil, ErrNoInputs
	}

	revealBalance := new(big.Int).Add(big.NewInt(Postage), params.RevealFee)

	total := big.NewInt(0)
	for _, in := range params.Inputs {
		total.Add(total, in.Amount)
	}

	required := new(big.Int).Add(revealBalance, params.CommitFee)
	if numbers.IsGreater(required, total) {
		return nil, NewInsufficientError(InsufficientErrorTypeBitcoin, required, total)
	}

	redeemScript, scriptPubKey, taprootAddress, taprootData, err := b.buildScript(params.ScriptType, params.PublicKey, params.Inscription)
	if err != nil {
		return nil, err
	}
	b.redeemScript = redeemScript
	b.scriptType = params.ScriptType
	b.taprootData = taprootData

	tx := wire.NewMsgTx(txVersion)
	for _, in := range params.Inputs {
		hash, err := chainhash.NewHashFromStr(in.TxHash)
		if err != nil {
			return nil, err
		}

		txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.Index), nil, nil)
		txIn.Sequence = wire.MaxTxInSequenceNum
		tx.AddTxIn(txIn)
	}

	tx.AddTxOut(wire.NewTxOut(revealBalance.Int64(), scriptPubKey))

	leftover := new(big.Int).Sub(total, required)
	leftoverAddr, err := btcutil.DecodeAddress(params.LeftoversAddress, b.networkParams)
	if err != nil {
		return nil, err
	}
	leftoverScript, err := txscript.PayToAddrScript(leftoverAddr)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(leftover.Int64(), leftoverScript))

	return &CommitResult{
		Tx:                tx,
		RedeemScript:      redeemScript,
		ScriptOutputValue: revealBalance,
		LeftoverValue:     leftover,
		TaprootAddress:    taprootAddress,
	}, nil
}

// buildScript composes the redeem script and the commit output's
// scriptPubKey for scriptType. For P2TR it generates a fresh, never-reused
// keypair and returns the resulting Taproot payload; for P2WSH it uses the
// caller-supplied compressed public key and returns a nil payload.
func (b *InscriptionBuilder) buildScript(scriptType redeemscript.ScriptType, publicKey []byte, ins *inscriptions.Inscription) (redeemScript, scriptPubKey []byte, taprootAddress string, payload *taproot.Payload, err error) {
	switch scriptType {
	case redeemscript.P2TR:
		privateKey, err := btcec.NewPrivateKey()
		if err != nil {
			return nil, nil, "", nil, err
		}

		xOnlyPubKey := schnorr.SerializePubKey(privateKey.PubKey())

		redeemScript, err = redeemscript.Build(scriptType, xOnlyPubKey, ins)
		if err != nil {
			return nil, nil, "", nil, err
		}

		payload, err = taproot.FromKeypair(b.networkParams, privateKey, redeemScript)
		if err != nil {
			return nil, nil, "", nil, err
		}

		address, err := payload.Address(b.networkParams)
		if err != nil {
			return nil, nil, "", nil, err
		}

		scriptPubKey, err = txscript.PayToAddrScript(address)
		if err != nil {
			return nil, nil, "", nil, err
		}

		return redeemScript, scriptPubKey, address.EncodeAddress(), payload, nil
	case redeemscript.P2WSH:
		if len(publicKey) != 33 {
			return nil, nil, "", nil, redeemscript.ErrPubKeyLength
		}

		redeemScript, err = redeemscript.Build(scriptType, publicKey, ins)
		if err != nil {
			return nil, nil, "", nil, err
		}

		hash := sha256.Sum256(redeemScript)
		witnessAddr, err := btcutil.NewAddressWitnessScriptHash(hash[:], b.networkParams)
		if err != nil {
			return nil, nil, "", nil, err
		}

		scriptPubKey, err = txscript.PayToAddrScript(witnessAddr)
		if err != nil {
			return nil, nil, "", nil, err
		}

		return redeemScript, scriptPubKey, "", nil, nil
	default:
		return nil, nil, "", nil, errors.New("txbuilder: unknown script type")
	}
}

// RevealParams describes data needed to build the reveal transaction.
type RevealParams struct {
	CommitTxHash     *chainhash.Hash
	RecipientAddress string
}

// BuildReveal assembles the unsigned reveal transaction spending output 0
// of the commit transaction, using the redeem script (and, for a P2TR
// commit, the Taproot payload) stored by BuildCommit on this same builder
// instance. If BuildCommit has not run, ErrNoInputs is returned; if the
// last commit was P2TR and its Taproot payload is absent,
// ErrTaprootKeypairMissing is returned.
func (b *InscriptionBuilder) BuildReveal(params RevealParams) (*wire.MsgTx, error) {
	if b.redeemScript == nil {
		return nil, ErrNoInputs
	}
	if b.scriptType == redeemscript.P2TR && b.taprootData == nil {
		return nil, ErrTaprootKeypairMissing
	}

	tx := wire.NewMsgTx(txVersion)
	txIn := wire.NewTxIn(wire.NewOutPoint(params.CommitTxHash, 0), nil, nil)
	txIn.Sequence = wire.MaxTxInSequenceNum
	tx.AddTxIn(txIn)

	recipientAddr, err := btcutil.DecodeAddress(params.RecipientAddress, b.networkParams)
	if err != nil {
		return nil, err
	}
	recipientScript, err := txscript.PayToAddrScript(recipientAddr)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(Postage, recipientScript))

	return tx, nil
}

// RedeemScript returns the redeem script committed to by the most recent
// BuildCommit call.
func (b *InscriptionBuilder) RedeemScript() []byte {
	return b.redeemScript
}

// TaprootPayload returns the Taproot payload produced by the most recent
// BuildCommit call, or nil if the commit was P2WSH.
func (b *InscriptionBuilder) TaprootPayload() *taproot.Payload {
	return b.taprootData
}
