// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer_test

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ordkit/ord/bitcoin/ord/inscriptions"
	"github.com/ordkit/ord/bitcoin/ord/redeemscript"
	"github.com/ordkit/ord/bitcoin/ord/taproot"
	"github.com/ordkit/ord/bitcoin/signer"
)

func TestSignCommitInput(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(privKey.PubKey().SerializeCompressed()), &chaincfg.MainNetParams)
	require.NoError(t, err)
	scriptPubKey, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(333, scriptPubKey))

	prevFetcher := txscript.NewCannedPrevOutputFetcher(scriptPubKey, 50000)
	local := signer.NewLocalECDSASigner(privKey)

	witness, err := signer.SignCommitInput(tx, prevFetcher, 0, scriptPubKey, 50000, local, privKey.PubKey(), "", "")
	require.NoError(t, err)
	require.Len(t, witness, 2)

	tx.TxIn[0].Witness = witness

	sigHashes := txscript.NewTxSigHashes(tx, prevFetcher)
	vm, err := txscript.NewEngine(scriptPubKey, tx, 0, txscript.StandardVerifyFlags, nil, sigHashes, 50000, prevFetcher)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}

func TestSignCommitInput_ExternalRawSEC1Signature(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(privKey.PubKey().SerializeCompressed()), &chaincfg.MainNetParams)
	require.NoError(t, err)
	scriptPubKey, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(333, scriptPubKey))

	prevFetcher := txscript.NewCannedPrevOutputFetcher(scriptPubKey, 50000)
	local := signer.NewLocalECDSASigner(privKey)

	// An external signer that hands back the raw 64-byte SEC1 form instead
	// of DER; the builder must convert it before the witness is assembled.
	external := signer.NewExternalSigner(func(keyName, derivationPath string, digest [32]byte) ([]byte, error) {
		derSig, err := local.Sign(keyName, derivationPath, digest)
		if err != nil {
			return nil, err
		}

		return derToSEC1(t, derSig), nil
	})

	witness, err := signer.SignCommitInput(tx, prevFetcher, 0, scriptPubKey, 50000, external, privKey.PubKey(), "", "")
	require.NoError(t, err)
	require.Len(t, witness, 2)

	// The attached signature must be DER-encoded (ASN.1 SEQUENCE tag 0x30),
	// not the raw 64-byte SEC1 form the external signer returned.
	require.Equal(t, byte(0x30), witness[0][0])

	tx.TxIn[0].Witness = witness

	sigHashes := txscript.NewTxSigHashes(tx, prevFetcher)
	vm, err := txscript.NewEngine(scriptPubKey, tx, 0, txscript.StandardVerifyFlags, nil, sigHashes, 50000, prevFetcher)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}

func TestSignCommitInput_InputNotFound(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(privKey.PubKey().SerializeCompressed()), &chaincfg.MainNetParams)
	require.NoError(t, err)
	scriptPubKey, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	prevFetcher := txscript.NewCannedPrevOutputFetcher(scriptPubKey, 50000)
	local := signer.NewLocalECDSASigner(privKey)

	_, err = signer.SignCommitInput(tx, prevFetcher, 0, scriptPubKey, 50000, local, privKey.PubKey(), "", "")
	require.ErrorIs(t, err, signer.ErrInputNotFound)
}

func TestSignRevealInputP2WSH(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	ins := &inscriptions.Inscription{ContentType: "text/plain", Body: []byte("hello")}
	redeemScript, err := redeemscript.Build(redeemscript.P2WSH, privKey.PubKey().SerializeCompressed(), ins)
	require.NoError(t, err)

	scriptHash := sha256.Sum256(redeemScript)
	witnessAddr, err := btcutil.NewAddressWitnessScriptHash(scriptHash[:], &chaincfg.MainNetParams)
	require.NoError(t, err)
	scriptPubKey, err := txscript.PayToAddrScript(witnessAddr)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(333, []byte{txscript.OP_TRUE}))

	prevFetcher := txscript.NewCannedPrevOutputFetcher(scriptPubKey, 5033)
	local := signer.NewLocalECDSASigner(privKey)

	witness, err := signer.SignRevealInputP2WSH(tx, prevFetcher, 0, redeemScript, 5033, local, privKey.PubKey(), "", "")
	require.NoError(t, err)
	require.Len(t, witness, 2)

	tx.TxIn[0].Witness = witness

	sigHashes := txscript.NewTxSigHashes(tx, prevFetcher)
	vm, err := txscript.NewEngine(scriptPubKey, tx, 0, txscript.StandardVerifyFlags, nil, sigHashes, 5033, prevFetcher)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}

func TestSignRevealInputP2TR(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	ins := &inscriptions.Inscription{ContentType: "text/plain", Body: []byte("hello")}

	redeemScript, err := redeemscript.Build(redeemscript.P2TR, schnorr.SerializePubKey(privKey.PubKey()), ins)
	require.NoError(t, err)

	payload, err := taproot.FromKeypair(&chaincfg.MainNetParams, privKey, redeemScript)
	require.NoError(t, err)

	address, err := payload.Address(&chaincfg.MainNetParams)
	require.NoError(t, err)
	scriptPubKey, err := txscript.PayToAddrScript(address)
	require.NoError(t, err)

	controlBlock, err := payload.ControlBlock()
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(333, []byte{txscript.OP_TRUE}))

	prevFetcher := txscript.NewCannedPrevOutputFetcher(scriptPubKey, 5033)
	local := signer.NewLocalSchnorrSigner(payload.Keypair)

	witness, err := signer.SignRevealInputP2TR(tx, prevFetcher, 0, redeemScript, controlBlock, local, payload.Keypair.PubKey(), "", "")
	require.NoError(t, err)
	require.Len(t, witness, 3)

	tx.TxIn[0].Witness = witness

	sigHashes := txscript.NewTxSigHashes(tx, prevFetcher)
	vm, err := txscript.NewEngine(scriptPubKey, tx, 0, txscript.StandardVerifyFlags, nil, sigHashes, 5033, prevFetcher)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}
