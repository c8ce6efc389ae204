// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import "github.com/btcsuite/btcd/wire"

// ParseBrc20FromTransaction returns the first envelope in tx that decodes
// into a BRC-20 operation. Absence of any envelope is reported as (nil, nil).
// If envelopes were seen but none decoded to BRC-20, the last decode error
// encountered is returned.
func ParseBrc20FromTransaction(tx *wire.MsgTx) (*Brc20, error) {
	envelopes := FromTransaction(tx)
	if len(envelopes) == 0 {
		return nil, nil
	}

	var lastErr error
	for _, env := range envelopes {
		ins, err := FromParsedEnvelope(env)
		if err != nil {
			lastErr = err
			continue
		}

		if ins.ContentType != Brc20ContentType {
			lastErr = ErrAmbiguousInscription
			continue
		}

		brc20, err := ParseBrc20(ins.Body)
		if err != nil {
			lastErr = err
			continue
		}

		return brc20, nil
	}

	return nil, lastErr
}

// ParseNftFromTransaction returns the first envelope in tx materialized as a
// generic Nft. Absence (no envelopes at all) is reported as (nil, nil);
// presence of envelopes that all failed to materialize returns the last error.
func ParseNftFromTransaction(tx *wire.MsgTx) (*Nft, error) {
	envelopes := FromTransaction(tx)
	if len(envelopes) == 0 {
		return nil, nil
	}

	var lastErr error
	for _, env := range envelopes {
		ins, err := FromParsedEnvelope(env)
		if err != nil {
			lastErr = err
			continue
		}

		return FromInscription(ins), nil
	}

	return nil, lastErr
}
