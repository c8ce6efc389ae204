// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ErrInputNotFound means the signer could not attach a witness because the
// transaction lacks the requested input index.
var ErrInputNotFound = errors.New("signer: input not found")

// digest wraps the 32-byte sighash values CalcWitnessSigHash/
// CalcTapscriptSignaturehash return into the fixed-size array the
// Capability interface expects.
func digest(b []byte) [32]byte {
	var d [32]byte
	copy(d[:], b)

	return d
}

// normalizeECDSA converts a raw 64-byte SEC1 r||s signature (as an
// external signer may return) to DER. DER-encoded input passes through
// unchanged. Raw SEC1 signatures must be converted before witness
// assembly, not just before verification.
func normalizeECDSA(sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return sig, nil
	}

	return sec1ToDER(sig)
}

// SignCommitInput signs a P2WPKH commit input (BIP-143 sighash over the
// input's script_pubkey and amount) and returns its witness:
// <sig||sighash> <pubkey>.
func SignCommitInput(tx *wire.MsgTx, prevOutFetcher txscript.PrevOutputFetcher, inputIndex int, scriptPubKey []byte, amount int64, capability Capability, pubKey *btcec.PublicKey, keyName, derivationPath string) (wire.TxWitness, error) {
	if inputIndex >= len(tx.TxIn) {
		return nil, ErrInputNotFound
	}

	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)

	witnessProgram, err := payToPubKeyHashFromWitnessProgram(scriptPubKey)
	if err != nil {
		return nil, err
	}

	sigHash, err := txscript.CalcWitnessSigHash(witnessProgram, sigHashes, txscript.SigHashAll, tx, inputIndex, amount)
	if err != nil {
		return nil, err
	}

	sig, err := capability.Sign(keyName, derivationPath, digest(sigHash))
	if err != nil {
		return nil, err
	}

	derSig, err := normalizeECDSA(sig)
	if err != nil {
		return nil, err
	}

	if err := VerifyECDSA(pubKey, digest(sigHash), derSig); err != nil {
		return nil, err
	}

	return wire.TxWitness{
		append(append([]byte{}, derSig...), byte(txscript.SigHashAll)),
		pubKey.SerializeCompressed(),
	}, nil
}

// SignRevealInputP2WSH signs a P2WSH reveal input (BIP-143 sighash over
// redeemScript and the commit output's amount) and returns its witness:
// <sig||sighash> <redeem_script>.
func SignRevealInputP2WSH(tx *wire.MsgTx, prevOutFetcher txscript.PrevOutputFetcher, inputIndex int, redeemScript []byte, commitAmount int64, capability Capability, pubKey *btcec.PublicKey, keyName, derivationPath string) (wire.TxWitness, error) {
	if inputIndex >= len(tx.TxIn) {
		return nil, ErrInputNotFound
	}

	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)

	sigHash, err := txscript.CalcWitnessSigHash(redeemScript, sigHashes, txscript.SigHashAll, tx, inputIndex, commitAmount)
	if err != nil {
		return nil, err
	}

	sig, err := capability.Sign(keyName, derivationPath, digest(sigHash))
	if err != nil {
		return nil, err
	}

	derSig, err := normalizeECDSA(sig)
	if err != nil {
		return nil, err
	}

	if err := VerifyECDSA(pubKey, digest(sigHash), derSig); err != nil {
		return nil, err
	}

	return wire.TxWitness{
		append(append([]byte{}, derSig...), byte(txscript.SigHashAll)),
		redeemScript,
	}, nil
}

// SignRevealInputP2TR signs a Taproot script-path reveal input (BIP-341
// sighash over the leaf hash of redeemScript) and returns its witness:
// <schnorr_sig> <redeem_script> <control_block>.
func SignRevealInputP2TR(tx *wire.MsgTx, prevOutFetcher txscript.PrevOutputFetcher, inputIndex int, redeemScript []byte, controlBlock []byte, capability Capability, pubKey *btcec.PublicKey, keyName, derivationPath string) (wire.TxWitness, error) {
	if inputIndex >= len(tx.TxIn) {
		return nil, ErrInputNotFound
	}

	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	tapLeaf := txscript.NewBaseTapLeaf(redeemScript)

	sigHash, err := txscript.CalcTapscriptSignaturehash(sigHashes, txscript.SigHashDefault, tx, inputIndex, prevOutFetcher, tapLeaf)
	if err != nil {
		return nil, err
	}

	sig, err := capability.Sign(keyName, derivationPath, digest(sigHash))
	if err != nil {
		return nil, err
	}

	if err := VerifySchnorr(pubKey, digest(sigHash), sig); err != nil {
		return nil, err
	}

	return wire.TxWitness{
		sig,
		redeemScript,
		controlBlock,
	}, nil
}

// payToPubKeyHashFromWitnessProgram rebuilds the legacy P2PKH script code
// CalcWitnessSigHash expects from a P2WPKH scriptPubKey (OP_0 <20-byte hash>).
func payToPubKeyHashFromWitnessProgram(witnessScriptPubKey []byte) ([]byte, error) {
	if len(witnessScriptPubKey) != 22 || witnessScriptPubKey[0] != txscript.OP_0 || witnessScriptPubKey[1] != 0x14 {
		return nil, errors.New("signer: not a P2WPKH scriptPubKey")
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(witnessScriptPubKey[2:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}
