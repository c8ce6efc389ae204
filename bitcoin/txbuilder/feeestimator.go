// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/wire"

	"github.com/ordkit/ord/bitcoin/ord/redeemscript"
	"github.com/ordkit/ord/internal/ordlog"
)

// ErrFeeOverflow means the estimated size sum overflowed, a fatal error
// per the fee estimator's contract.
var ErrFeeOverflow = errors.New("fee estimate: size overflow")

// sigVSizeECDSA is the per-input witness-size contribution of a single ECDSA
// signature plus its trailing sighash-type byte (72 + 1, rounded up).
// Hard-coded per the source this estimator follows; not exact to the byte
// for every DER encoding, and not meant to be.
const sigVSizeECDSA = 73

// sigVSizeSchnorr is the per-input witness-size contribution of a Schnorr
// signature plus its trailing sighash-type byte.
const sigVSizeSchnorr = 65

// MultisigConfig describes a Required-of-Total multisig redeem leaf for fee
// estimation purposes: Required signatures out of Total keys.
type MultisigConfig struct {
	Required int
	Total    int
}

// SignatureVSize returns S(script_type, multisig): the estimated witness
// vbyte contribution of a single signature for that script type.
func SignatureVSize(scriptType redeemscript.ScriptType, multisig *MultisigConfig) int64 {
	switch scriptType {
	case redeemscript.P2TR:
		return sigVSizeSchnorr
	case redeemscript.P2WSH:
		if multisig != nil {
			return sigVSizeECDSA * int64(multisig.Required)
		}

		return sigVSizeECDSA
	default:
		return sigVSizeECDSA
	}
}

// EstimateFee applies total_bytes = vsize + n·S(script_type, multisig) to
// an already-built unsigned transaction, then multiplies by feeRate
// (sat/vbyte).
func EstimateFee(tx *wire.MsgTx, scriptType redeemscript.ScriptType, multisig *MultisigConfig, feeRate *big.Int) (*big.Int, error) {
	vsize := big.NewInt(txVSize(tx))

	n := big.NewInt(int64(len(tx.TxIn)))
	perSig := big.NewInt(SignatureVSize(scriptType, multisig))

	sigBytes := new(big.Int).Mul(n, perSig)
	if sigBytes.Sign() < 0 {
		return nil, ErrFeeOverflow
	}

	totalBytes := new(big.Int).Add(vsize, sigBytes)
	if totalBytes.Sign() < 0 {
		return nil, ErrFeeOverflow
	}

	fee := new(big.Int).Mul(feeRate, totalBytes)
	ordlog.Log().Debugf("fee estimate: inputs=%d vsize=%d sig_vsize=%d total_vbytes=%s fee_rate=%s fee=%s",
		len(tx.TxIn), vsize, perSig, totalBytes, feeRate, fee)

	return fee, nil
}

// EstimateRevealFee builds a one-input reveal skeleton spending a
// placeholder outpoint, stuffs redeemScript into the witness (for vsize
// purposes only, it is never broadcast), and applies EstimateFee.
func EstimateRevealFee(redeemScriptBytes []byte, controlBlock []byte, outputScript []byte, postage int64, scriptType redeemscript.ScriptType, multisig *MultisigConfig, feeRate *big.Int) (*big.Int, error) {
	ordlog.Log().Tracef("reveal fee skeleton: script_type=%v redeem_script_len=%d control_block_len=%d postage=%d",
		scriptType, len(redeemScriptBytes), len(controlBlock), postage)

	skeleton := wire.NewMsgTx(txVersion)
	skeleton.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, nil, nil))
	skeleton.AddTxOut(wire.NewTxOut(postage, outputScript))

	switch scriptType {
	case redeemscript.P2TR:
		skeleton.TxIn[0].Witness = wire.TxWitness{
			make([]byte, 64), // placeholder schnorr signature.
			redeemScriptBytes,
			controlBlock,
		}
	default:
		skeleton.TxIn[0].Witness = wire.TxWitness{
			make([]byte, 72), // placeholder ECDSA signature.
			redeemScriptBytes,
		}
	}

	return EstimateFee(skeleton, scriptType, multisig, feeRate)
}

// txVSize returns the virtual size of tx in vbytes: weight = 3·baseSize +
// totalSize, vsize = ceil(weight/4), per BIP-141.
func txVSize(tx *wire.MsgTx) int64 {
	baseSize := int64(tx.SerializeSizeStripped())
	totalSize := int64(tx.SerializeSize())
	weight := baseSize*3 + totalSize

	return (weight + 3) / 4
}
