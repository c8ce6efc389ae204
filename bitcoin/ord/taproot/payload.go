// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package taproot builds and retains the single-leaf Taproot spend info a
// commit/reveal inscription pair needs: a fresh untweaked keypair, the
// tapscript tree over the redeem script, the tweaked output key, the P2TR
// address, and the control block required to spend it back in the reveal.
package taproot

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordkit/ord/bitcoin/utils"
)

// ErrCompute means Taproot finalization yielded no output key or no
// control block for the chosen leaf.
var ErrCompute = errors.New("taproot compute")

// Payload is the stateful Taproot data a builder carries between building
// the commit transaction and building the reveal transaction. It is
// created once per commit and must not be reused across inscriptions: the
// keypair binds the reveal signature to this specific commit.
type Payload struct {
	Keypair      *btcec.PrivateKey
	RedeemScript []byte

	tree      *txscript.IndexedTapScriptTree
	outputKey *btcec.PublicKey
}

// New derives a Payload for redeemScript using a freshly generated,
// never-reused keypair.
func New(chainParams *chaincfg.Params, redeemScript []byte) (*Payload, string, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, "", err
	}

	p, err := FromKeypair(chainParams, privateKey, redeemScript)
	if err != nil {
		return nil, "", err
	}

	address, err := p.Address(chainParams)
	if err != nil {
		return nil, "", err
	}

	return p, address.EncodeAddress(), nil
}

// FromKeypair derives a Payload for redeemScript using a caller-supplied
// keypair, e.g. one recovered for a reveal that was built in a previous
// call and whose Payload was not retained in memory.
func FromKeypair(chainParams *chaincfg.Params, privateKey *btcec.PrivateKey, redeemScript []byte) (*Payload, error) {
	tree, err := utils.NewTapScriptTreeFromRawScripts(redeemScript)
	if err != nil {
		return nil, err
	}
	if len(tree.LeafMerkleProofs) == 0 {
		return nil, ErrCompute
	}

	rootHash := tree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(privateKey.PubKey(), rootHash[:])
	if outputKey == nil {
		return nil, ErrCompute
	}

	return &Payload{
		Keypair:      privateKey,
		RedeemScript: redeemScript,
		tree:         tree,
		outputKey:    outputKey,
	}, nil
}

// Address returns the P2TR address locking the commit output.
func (p *Payload) Address(chainParams *chaincfg.Params) (*btcutil.AddressTaproot, error) {
	return btcutil.NewAddressTaproot(schnorr.SerializePubKey(p.outputKey), chainParams)
}

// ControlBlock returns the control block proving RedeemScript is committed
// to by the tweaked output key, required in the reveal witness.
func (p *Payload) ControlBlock() ([]byte, error) {
	if len(p.tree.LeafMerkleProofs) == 0 {
		return nil, ErrCompute
	}

	ctrlBlock := p.tree.LeafMerkleProofs[0].ToControlBlock(p.Keypair.PubKey())

	return ctrlBlock.ToBytes()
}

// PrevOut returns the commit output as a wire.TxOut, retained for sighash
// computation during the reveal.
func (p *Payload) PrevOut(chainParams *chaincfg.Params, value int64) (*wire.TxOut, error) {
	address, err := p.Address(chainParams)
	if err != nil {
		return nil, err
	}

	script, err := txscript.PayToAddrScript(address)
	if err != nil {
		return nil, err
	}

	return wire.NewTxOut(value, script), nil
}

// TapLeaf returns the tapscript leaf wrapping RedeemScript, needed to
// compute the Taproot script-path sighash.
func (p *Payload) TapLeaf() txscript.TapLeaf {
	return txscript.NewBaseTapLeaf(p.RedeemScript)
}
