// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordkit/ord/internal/ordlog"
)

// protocolID defines the literal pushed right after OP_FALSE OP_IF to disambiguate
// inscription envelopes from other uses of the same conditional-branch trick.
const protocolID = "ord"

// instruction is a single tokenized script instruction: either a data push
// (isPush true, data holds the pushed bytes, possibly empty) or a plain opcode.
type instruction struct {
	op          byte
	data        []byte
	isPush      bool
	fromPushnum bool
}

// tokenize walks a script instruction-by-instruction, canonicalizing the
// OP_PUSHNUM_1..16 and OP_1NEGATE opcodes into single-byte data pushes so
// downstream parsing only ever has to reason about push bytes.
func tokenize(script []byte) ([]instruction, error) {
	var out []instruction

	tok := txscript.MakeScriptTokenizer(0, script)
	for tok.Next() {
		op := tok.Opcode()
		switch {
		case op == txscript.OP_1NEGATE:
			out = append(out, instruction{op: op, data: []byte{0x81}, isPush: true, fromPushnum: true})
		case op >= txscript.OP_1 && op <= txscript.OP_16:
			out = append(out, instruction{op: op, data: []byte{byte(op - txscript.OP_1 + 1)}, isPush: true, fromPushnum: true})
		case op <= txscript.OP_PUSHDATA4:
			data := tok.Data()
			if data == nil {
				data = []byte{}
			}
			out = append(out, instruction{op: op, data: data, isPush: true})
		default:
			out = append(out, instruction{op: op})
		}
	}
	if err := tok.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// ParsedEnvelope is a single `OP_FALSE OP_IF "ord" ... OP_ENDIF` container
// extracted from a script, already split into its field occurrences and body.
type ParsedEnvelope struct {
	// InputIndex is the index of the transaction input the envelope was found in.
	InputIndex int
	// Offset is the instruction offset within the tapscript where the envelope starts.
	Offset int
	// Pushnum is true if any field tag or value arrived through a canonicalized
	// OP_PUSHNUM/OP_1NEGATE opcode rather than a literal data push.
	Pushnum bool
	// Stutter is true if an empty push preceding this envelope was not
	// immediately followed by a valid `OP_IF "ord"` header.
	Stutter bool

	// Fields holds every field occurrence keyed by its raw tag bytes, in
	// the order encountered. Single-occurrence fields have length 1;
	// array (parent) and chunked (metadata) fields may have more.
	Fields map[string][][]byte
	// Body is the concatenation of every push after the body separator.
	Body []byte

	// DuplicateField is set when a non-array field tag occurs more than once.
	DuplicateField bool
	// IncompleteField is set when a trailing tag push has no paired value.
	IncompleteField bool
	// UnrecognizedEvenField is set when an even-numbered tag outside the
	// known set (content-type, pointer, parent, metadata, metaprotocol,
	// content-encoding, delegate, rune) is present.
	UnrecognizedEvenField bool
}

// knownTags enumerates the single-byte tags the envelope codec recognizes.
var knownTags = map[byte]bool{
	byte(TagContentType):     true,
	byte(TagPointer):         true,
	byte(TagParent):          true,
	byte(TagMetadata):        true,
	byte(TagMetaprotocol):    true,
	byte(TagContentEncoding): true,
	byte(TagDelegate):        true,
	byte(TagRune):            true,
}

// scriptNumValue decodes a minimally-encoded little-endian script number,
// enough to judge parity for the unrecognized-even-field check.
func scriptNumValue(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}

	var result int64
	for i, v := range b {
		result |= int64(v) << uint(8*i)
	}

	if b[len(b)-1]&0x80 != 0 {
		result &^= int64(0x80) << uint(8*(len(b)-1))
		result = -result
	}

	return result
}

// FromTapscript extracts every envelope present in a single script.
func FromTapscript(script []byte, inputIndex int) ([]ParsedEnvelope, error) {
	instrs, err := tokenize(script)
	if err != nil {
		return nil, err
	}

	var envelopes []ParsedEnvelope

	i := 0
	stutter := false
	for i < len(instrs) {
		for i < len(instrs) && !(instrs[i].isPush && len(instrs[i].data) == 0) {
			i++
		}
		if i >= len(instrs) {
			break
		}

		offset := i
		i++ // consume the empty push.

		if i >= len(instrs) || instrs[i].isPush || instrs[i].op != txscript.OP_IF {
			stutter = true
			continue
		}
		i++ // consume OP_IF.

		if i >= len(instrs) || !instrs[i].isPush || string(instrs[i].data) != protocolID {
			stutter = true
			continue
		}
		i++ // consume "ord".

		var (
			payload []instruction
			aborted bool
		)
		for {
			if i >= len(instrs) {
				aborted = true
				break
			}

			cur := instrs[i]
			if !cur.isPush {
				if cur.op == txscript.OP_ENDIF {
					i++
					break
				}

				aborted = true
				break
			}

			payload = append(payload, cur)
			i++
		}

		if aborted {
			ordlog.Log().Tracef("envelope parse: unterminated envelope at offset=%d input=%d discarded", offset, inputIndex)
			stutter = false
			continue
		}

		envelopes = append(envelopes, parsedEnvelopeFromPayload(inputIndex, offset, payload, stutter))
		stutter = false
	}

	return envelopes, nil
}

// parsedEnvelopeFromPayload splits a flat field/value/.../body payload into
// fields and a body, following §4.1's step 4: split at the first (i, v) with
// i even and v empty.
func parsedEnvelopeFromPayload(inputIndex, offset int, payload []instruction, stutter bool) ParsedEnvelope {
	env := ParsedEnvelope{
		InputIndex: inputIndex,
		Offset:     offset,
		Stutter:    stutter,
		Fields:     make(map[string][][]byte),
	}

	bodyStart := -1
	i := 0
	for i < len(payload) {
		if payload[i].fromPushnum {
			env.Pushnum = true
		}

		if len(payload[i].data) == 0 {
			bodyStart = i + 1
			break
		}

		if i+1 >= len(payload) {
			env.IncompleteField = true
			break
		}

		if payload[i+1].fromPushnum {
			env.Pushnum = true
		}

		tag := payload[i].data
		value := payload[i+1].data
		key := string(tag)

		switch {
		case len(tag) == 1 && tag[0] == byte(TagParent):
			env.Fields[key] = append(env.Fields[key], value)
		case len(tag) == 1 && tag[0] == byte(TagMetadata):
			env.Fields[key] = append(env.Fields[key], value)
		default:
			if _, exists := env.Fields[key]; exists {
				env.DuplicateField = true
			} else {
				env.Fields[key] = [][]byte{value}
			}
		}

		if len(tag) == 1 && scriptNumValue(tag)%2 == 0 && !knownTags[tag[0]] {
			env.UnrecognizedEvenField = true
		}

		i += 2
	}

	if bodyStart >= 0 {
		body := []byte{}
		for _, instr := range payload[bodyStart:] {
			body = append(body, instr.data...)
		}
		env.Body = body
	}

	return env
}

// tapscriptFromWitness returns the script element of a witness stack that is
// expected to carry an inscription envelope: the second-to-last item for a
// Taproot script-path spend (last item is the control block), or the last
// item for a plain P2WSH redeem-script spend.
func tapscriptFromWitness(witness wire.TxWitness) []byte {
	n := len(witness)
	if n == 0 {
		return nil
	}

	if n >= 2 {
		controlBlock := witness[n-1]
		if len(controlBlock) >= 33 && (len(controlBlock)-1)%32 == 0 {
			return witness[n-2]
		}
	}

	return witness[n-1]
}

// FromTransactionInput extracts every envelope found in one input's witness.
func FromTransactionInput(tx *wire.MsgTx, inputIndex int) ([]ParsedEnvelope, error) {
	if inputIndex < 0 || inputIndex >= len(tx.TxIn) {
		return nil, nil
	}

	script := tapscriptFromWitness(tx.TxIn[inputIndex].Witness)
	if script == nil {
		return nil, nil
	}

	return FromTapscript(script, inputIndex)
}

// FromTransaction walks every input of tx and returns every envelope found,
// in input order. A malformed witness in one input never prevents envelopes
// in other inputs from being returned: parsing is linear and never panics.
func FromTransaction(tx *wire.MsgTx) []ParsedEnvelope {
	var envelopes []ParsedEnvelope

	for idx := range tx.TxIn {
		found, err := FromTransactionInput(tx, idx)
		if err != nil {
			ordlog.Log().Debugf("envelope parse: input=%d recovered from error: %v", idx, err)
			continue
		}

		envelopes = append(envelopes, found...)
	}

	return envelopes
}
