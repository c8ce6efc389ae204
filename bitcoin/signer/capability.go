// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// ErrSignature means verification rejected a produced signature, or DER
// parsing failed.
var ErrSignature = errors.New("signer: signature verification failed")

// ErrUnexpectedSignature means a Schnorr signature arrived on a path
// expecting ECDSA, or vice versa.
var ErrUnexpectedSignature = errors.New("signer: unexpected signature kind")

// Capability is the polymorphic signing source every commit/reveal signing
// step is driven through: given a key name, an optional derivation path,
// and a 32-byte digest, it returns a signature. Local holds the key
// in-memory; External dispatches to a delegate (HSM, remote signer) that
// may perform I/O.
type Capability interface {
	Sign(keyName string, derivationPath string, digest [32]byte) ([]byte, error)
}

// LocalSigner is the Capability backed by an in-memory secp256k1 private
// key. derivationPath and keyName are accepted for interface parity with
// External but otherwise ignored: a LocalSigner signs with the one key it
// was constructed with.
type LocalSigner struct {
	privateKey *btcec.PrivateKey
	schnorrKey bool
}

// NewLocalECDSASigner returns a LocalSigner producing DER-encoded ECDSA
// signatures (for P2WPKH commit inputs and P2WSH reveal inputs).
func NewLocalECDSASigner(privateKey *btcec.PrivateKey) *LocalSigner {
	return &LocalSigner{privateKey: privateKey}
}

// NewLocalSchnorrSigner returns a LocalSigner producing 64-byte Schnorr
// signatures (for Taproot script-path reveal inputs).
func NewLocalSchnorrSigner(privateKey *btcec.PrivateKey) *LocalSigner {
	return &LocalSigner{privateKey: privateKey, schnorrKey: true}
}

// Sign implements Capability.
func (s *LocalSigner) Sign(_ string, _ string, digest [32]byte) ([]byte, error) {
	if s.schnorrKey {
		sig, err := schnorr.Sign(s.privateKey, digest[:])
		if err != nil {
			return nil, err
		}

		return sig.Serialize(), nil
	}

	sig := ecdsa.Sign(s.privateKey, digest[:])

	return sig.Serialize(), nil
}

// PublicKey returns the signer's public key, used for local verification
// before witness attachment.
func (s *LocalSigner) PublicKey() *btcec.PublicKey {
	return s.privateKey.PubKey()
}

// ExternalSignFunc dispatches a digest to a delegate signer (HSM, remote
// service), returning its signature. An ECDSA signature may come back
// either DER-encoded or as a raw 64-byte SEC1 r||s pair; VerifyECDSA
// normalizes the latter to DER before verification. Schnorr signatures
// are always the raw 64-byte form and pass through unmodified.
type ExternalSignFunc func(keyName string, derivationPath string, digest [32]byte) ([]byte, error)

// ExternalSigner is the Capability that delegates to an external signer.
// The caller-supplied Fn may perform I/O (network round trip to an HSM);
// suspension happens only inside this call, never while the builder holds
// any other state.
type ExternalSigner struct {
	Fn ExternalSignFunc
}

// NewExternalSigner wraps fn as a Capability.
func NewExternalSigner(fn ExternalSignFunc) *ExternalSigner {
	return &ExternalSigner{Fn: fn}
}

// Sign implements Capability.
func (s *ExternalSigner) Sign(keyName string, derivationPath string, digest [32]byte) ([]byte, error) {
	return s.Fn(keyName, derivationPath, digest)
}

// VerifyECDSA verifies an ECDSA signature over digest against pubKey, per
// the "every signature is verified locally before witness attachment"
// rule. sig may be DER-encoded already, or a raw 64-byte SEC1 r||s pair
// as an external signer may return — the latter is converted to DER
// first. Returns ErrSignature on any failure (bad encoding, bad sig).
func VerifyECDSA(pubKey *btcec.PublicKey, digest [32]byte, sig []byte) error {
	derSig := sig
	if len(sig) == 64 {
		var err error
		derSig, err = sec1ToDER(sig)
		if err != nil {
			return errors.Join(ErrSignature, err)
		}
	}

	parsed, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return errors.Join(ErrSignature, err)
	}

	if !parsed.Verify(digest[:], pubKey) {
		return ErrSignature
	}

	return nil
}

// sec1ToDER converts a raw 64-byte SEC1 r||s ECDSA signature into its
// DER encoding, required before witness assembly or verification.
func sec1ToDER(sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return nil, errors.New("signer: raw ECDSA signature must be 64 bytes")
	}

	var r, s btcec.ModNScalar
	r.SetByteSlice(sig[:32])
	s.SetByteSlice(sig[32:])

	return ecdsa.NewSignature(&r, &s).Serialize(), nil
}

// VerifySchnorr verifies a 64-byte Schnorr signature over digest against
// the X-only serialization of pubKey.
func VerifySchnorr(pubKey *btcec.PublicKey, digest [32]byte, rawSig []byte) error {
	sig, err := schnorr.ParseSignature(rawSig)
	if err != nil {
		return errors.Join(ErrSignature, err)
	}

	xOnly, err := schnorr.ParsePubKey(schnorr.SerializePubKey(pubKey))
	if err != nil {
		return errors.Join(ErrSignature, err)
	}

	if !sig.Verify(digest[:], xOnly) {
		return ErrSignature
	}

	return nil
}
