// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import "math/big"

// Nft is a generic, free-form inscription: any content-type, an opaque body,
// and the full set of optional envelope tags (§3). It is the same shape as
// Inscription; the distinct name exists so call sites read as intent rather
// than reaching for the shared struct directly.
type Nft struct {
	Inscription
}

// NewNft builds a generic NFT inscription. Optional fields are left zero and
// may be set on the returned value before assembly.
func NewNft(contentType string, body []byte) *Nft {
	return &Nft{Inscription{ContentType: contentType, Body: body}}
}

// WithMetadata attaches optional CBOR metadata (tag 5) and returns the
// receiver for chaining.
func (n *Nft) WithMetadata(metadata []byte) *Nft {
	n.Metadata = metadata

	return n
}

// WithPointer attaches an optional pointer (tag 2) and returns the receiver
// for chaining.
func (n *Nft) WithPointer(pointer *big.Int) *Nft {
	n.Pointer = pointer

	return n
}

// WithParents attaches optional parent inscription IDs (tag 3, array) and
// returns the receiver for chaining.
func (n *Nft) WithParents(parents ...*ID) *Nft {
	n.Parents = append(n.Parents, parents...)

	return n
}

// WithDelegate attaches an optional delegate inscription ID (tag 11) and
// returns the receiver for chaining.
func (n *Nft) WithDelegate(delegate *ID) *Nft {
	n.Delegate = delegate

	return n
}

// FromInscription adapts a materialized generic Inscription into an Nft view.
func FromInscription(ins *Inscription) *Nft {
	return &Nft{*ins}
}
