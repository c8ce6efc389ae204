// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package redeemscript composes the spending script a commit output locks
// to: a key push, OP_CHECKSIG, and the inscription envelope. Two shapes
// exist depending on the target script type: an ECDSA-key flavor for
// P2WSH commits, and an X-only-key flavor for Taproot commits.
package redeemscript

import (
	"errors"

	"github.com/btcsuite/btcd/txscript"

	"github.com/ordkit/ord/bitcoin/ord/inscriptions"
)

// ScriptType selects the redeem-script shape.
type ScriptType int

const (
	// P2WSH produces <33-byte ECDSA pubkey> OP_CHECKSIG <envelope>.
	P2WSH ScriptType = iota
	// P2TR produces <32-byte X-only pubkey> OP_CHECKSIG <envelope>.
	P2TR
)

// ErrPubKeyLength means the supplied public key did not match the length
// its ScriptType requires (33 bytes compressed for P2WSH, 32 bytes X-only for P2TR).
var ErrPubKeyLength = errors.New("redeem script: wrong public key length for script type")

// Build composes the redeem script for scriptType, pubKey, and ins.
func Build(scriptType ScriptType, pubKey []byte, ins *inscriptions.Inscription) ([]byte, error) {
	switch scriptType {
	case P2WSH:
		if len(pubKey) != 33 {
			return nil, ErrPubKeyLength
		}
	case P2TR:
		if len(pubKey) != 32 {
			return nil, ErrPubKeyLength
		}
	default:
		return nil, errors.New("redeem script: unknown script type")
	}

	builder := txscript.NewScriptBuilder().AddData(pubKey).AddOp(txscript.OP_CHECKSIG)

	return ins.AppendReveal(builder).Script()
}
