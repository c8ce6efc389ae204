// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/ordkit/ord/bitcoin/ord/runes"
	"github.com/ordkit/ord/internal/reverse"
)

// maxDataPushLen is Bitcoin's per-push limit; bodies and metadata longer
// than this are split across multiple pushes under the same (or, for the
// body, no) tag.
const maxDataPushLen = 520

// ErrMalformedInscription means a witness did not contain a well-formed envelope.
var ErrMalformedInscription = errors.New("inscription is malformed")

// ErrNoEnvelope means a transaction carried no inscription envelope at all.
var ErrNoEnvelope = errors.New("no inscription envelope found")

// ErrAmbiguousInscription means every envelope present failed to decode
// into the requested payload shape.
var ErrAmbiguousInscription = errors.New("no envelope decoded to the requested inscription type")

// Inscription is the generic set of fields an envelope can carry, the
// common shape both BRC-20 and NFT payloads are built from (§3).
type Inscription struct {
	ID              *ID
	Body            []byte
	ContentEncoding string
	ContentType     string
	Delegate        *ID
	Metadata        []byte
	Metaprotocol    []byte
	Parents         []*ID
	Pointer         *big.Int
	Rune            *runes.Rune

	// DuplicateField, IncompleteField and UnrecognizedEvenField mirror the
	// envelope-level flags set while parsing (§3); they are always false
	// on an Inscription constructed directly rather than parsed.
	DuplicateField        bool
	IncompleteField       bool
	UnrecognizedEvenField bool
}

// AppendReveal extends a partial script builder with the envelope encoding
// of the inscription: `OP_FALSE OP_IF "ord" <fields...> [0 <body...>] OP_ENDIF`.
// Field emission order is fixed and canonical: content-type, content-encoding,
// metaprotocol, parent[], delegate, pointer, metadata (chunked), rune, body.
func (i *Inscription) AppendReveal(builder *txscript.ScriptBuilder) *txscript.ScriptBuilder {
	builder.AddOp(txscript.OP_FALSE)
	builder.AddOp(txscript.OP_IF)
	builder.AddData([]byte(protocolID))

	if len(i.ContentType) != 0 {
		builder.AddOps(TagContentType.IntoDataPush())
		builder.AddData([]byte(i.ContentType))
	}

	if len(i.ContentEncoding) != 0 {
		builder.AddOps(TagContentEncoding.IntoDataPush())
		builder.AddData([]byte(i.ContentEncoding))
	}

	if len(i.Metaprotocol) != 0 {
		builder.AddOps(TagMetaprotocol.IntoDataPush())
		builder.AddData(i.Metaprotocol)
	}

	for _, parent := range i.Parents {
		builder.AddOps(TagParent.IntoDataPush())
		builder.AddData(parent.IntoDataPush())
	}

	if i.Delegate != nil {
		builder.AddOps(TagDelegate.IntoDataPush())
		builder.AddData(i.Delegate.IntoDataPush())
	}

	if i.Pointer != nil {
		builder.AddOps(TagPointer.IntoDataPush())
		builder.AddData(reverse.Bytes(i.Pointer.Bytes()))
	}

	for _, chunk := range chunk(i.Metadata) {
		builder.AddOps(TagMetadata.IntoDataPush())
		builder.AddData(chunk)
	}

	if i.Rune != nil {
		builder.AddOps(TagRune.IntoDataPush())
		builder.AddData(reverse.Bytes(i.Rune.Value().Bytes()))
	}

	// A non-nil Body (even zero-length) signals a body separator was
	// explicitly written; a nil Body means no body field at all.
	if i.Body != nil {
		builder.AddOp(txscript.OP_0)
		for _, chunk := range chunk(i.Body) {
			builder.AddData(chunk)
		}
	}

	builder.AddOp(txscript.OP_ENDIF)

	return builder
}

// Script returns the envelope-only script (no key push / OP_CHECKSIG prefix).
func (i *Inscription) Script() ([]byte, error) {
	return i.AppendReveal(txscript.NewScriptBuilder()).Script()
}

// chunk splits data into ceil(len/maxDataPushLen) slices, in order. A nil or
// empty input yields no chunks.
func chunk(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(data)/maxDataPushLen)+1)
	for start := 0; start < len(data); start += maxDataPushLen {
		end := start + maxDataPushLen
		if end > len(data) {
			end = len(data)
		}

		chunks = append(chunks, data[start:end])
	}

	return chunks
}

// FromParsedEnvelope materializes the generic Inscription fields out of a
// ParsedEnvelope's tag/value map, carrying over the flags set while parsing.
func FromParsedEnvelope(env ParsedEnvelope) (*Inscription, error) {
	ins := &Inscription{
		Body:                  env.Body,
		DuplicateField:        env.DuplicateField,
		IncompleteField:       env.IncompleteField,
		UnrecognizedEvenField: env.UnrecognizedEvenField,
	}

	if values, ok := env.Fields[string([]byte{byte(TagContentType)})]; ok && len(values) > 0 {
		ins.ContentType = string(values[0])
	}
	if values, ok := env.Fields[string([]byte{byte(TagContentEncoding)})]; ok && len(values) > 0 {
		ins.ContentEncoding = string(values[0])
	}
	if values, ok := env.Fields[string([]byte{byte(TagMetaprotocol)})]; ok && len(values) > 0 {
		ins.Metaprotocol = values[0]
	}
	if values, ok := env.Fields[string([]byte{byte(TagParent)})]; ok {
		for _, v := range values {
			id, err := NewIDFromDataPush(v)
			if err != nil {
				return nil, err
			}

			ins.Parents = append(ins.Parents, id)
		}
	}
	if values, ok := env.Fields[string([]byte{byte(TagDelegate)})]; ok && len(values) > 0 {
		id, err := NewIDFromDataPush(values[0])
		if err != nil {
			return nil, err
		}

		ins.Delegate = id
	}
	if values, ok := env.Fields[string([]byte{byte(TagPointer)})]; ok && len(values) > 0 {
		ins.Pointer = new(big.Int).SetBytes(reverse.Bytes(append([]byte(nil), values[0]...)))
	}
	if values, ok := env.Fields[string([]byte{byte(TagMetadata)})]; ok {
		var metadata []byte
		for _, v := range values {
			metadata = append(metadata, v...)
		}

		ins.Metadata = metadata
	}
	if values, ok := env.Fields[string([]byte{byte(TagRune)})]; ok && len(values) > 0 {
		r, err := runes.NewRuneFromNumber(new(big.Int).SetBytes(reverse.Bytes(append([]byte(nil), values[0]...))))
		if err != nil {
			return nil, err
		}

		ins.Rune = r
	}

	return ins, nil
}

// WithWitnessPrefix prepends `<serializedPubKey> OP_CHECKSIG` to the
// envelope script, producing the full redeem script revealed by a reveal
// transaction's witness (§4.2).
func (i *Inscription) WithWitnessPrefix(serializedPubKey []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddData(serializedPubKey)
	builder.AddOp(txscript.OP_CHECKSIG)

	return i.AppendReveal(builder).Script()
}

// IntoAddress derives the P2TR address that commits to this inscription's
// redeem script under a single-leaf Taproot tree rooted at publicKey.
func (i *Inscription) IntoAddress(publicKey []byte, chainParams *chaincfg.Params) (*btcutil.AddressTaproot, error) {
	pubKeyBtcec, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return nil, err
	}

	serializedPubKey := schnorr.SerializePubKey(pubKeyBtcec)
	pkScript, err := i.WithWitnessPrefix(serializedPubKey)
	if err != nil {
		return nil, err
	}

	tapLeaf := txscript.NewBaseTapLeaf(pkScript)
	tapScriptTree := txscript.AssembleTaprootScriptTree(tapLeaf)
	tapScriptRootHash := tapScriptTree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(pubKeyBtcec, tapScriptRootHash[:])

	return btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), chainParams)
}

// VBytesSize estimates the virtual size, in bytes, of a Taproot script-path
// reveal input spending this inscription's redeem script.
func (i *Inscription) VBytesSize() (int, error) {
	script, err := i.Script()
	if err != nil {
		return 0, err
	}

	// 1-byte push length + 32-byte X-only pubkey + OP_CHECKSIG + envelope.
	bytesSize := len(script) + 34

	vBytesSize := bytesSize / 4
	if bytesSize%4 != 0 {
		vBytesSize++
	}

	return vBytesSize, nil
}

// ValidateContentType reports whether the content type is non-empty; the
// core does not otherwise constrain it (§3: "Any content-type" for NFTs).
func (i *Inscription) ValidateContentType() error {
	if len(i.ContentType) == 0 {
		return errors.New("content type must not be empty")
	}

	return nil
}
