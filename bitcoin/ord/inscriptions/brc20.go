// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Brc20ContentType is the content-type literal used for every BRC-20
// inscription, even though the body itself is JSON.
//
// NOTE: YES, IT'S CORRECT, DON'T ASK.
const Brc20ContentType = "text/plain;charset=utf-8"

// Brc20Op names the BRC-20 operation discriminator.
type Brc20Op string

const (
	// Brc20OpDeploy declares a new BRC-20 ticker.
	Brc20OpDeploy Brc20Op = "deploy"
	// Brc20OpMint mints supply of an already-deployed ticker.
	Brc20OpMint Brc20Op = "mint"
	// Brc20OpTransfer transfers balance of an already-deployed ticker.
	Brc20OpTransfer Brc20Op = "transfer"
)

// ErrUnknownBrc20Op means the `p` field was not "brc-20" or the `op`
// discriminator did not match deploy, mint or transfer.
var ErrUnknownBrc20Op = errors.New("unknown brc-20 op")

// decimalUint64 round-trips a uint64 through a JSON decimal string, since
// BRC-20 indexers expect every numeric field encoded as a string rather
// than a JSON number.
type decimalUint64 uint64

// MarshalJSON renders the value as a quoted decimal string.
func (d decimalUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(d), 10))
}

// UnmarshalJSON parses a quoted decimal string into the value.
func (d *decimalUint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}

	*d = decimalUint64(v)

	return nil
}

// decimalBool round-trips a bool through a JSON decimal string ("true"/"false"),
// matching how self_mint is encoded by existing indexers.
type decimalBool bool

// MarshalJSON renders the value as a quoted "true"/"false" string.
func (b decimalBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatBool(bool(b)))
}

// UnmarshalJSON parses a quoted "true"/"false" string into the value.
func (b *decimalBool) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}

	*b = decimalBool(v)

	return nil
}

// Brc20Deploy declares a new BRC-20 ticker.
type Brc20Deploy struct {
	Tick     string
	Max      uint64
	Lim      *uint64
	Dec      *uint8
	SelfMint *bool
}

// Brc20Mint mints supply of an already-deployed ticker.
type Brc20Mint struct {
	Tick string
	Amt  uint64
}

// Brc20Transfer transfers balance of an already-deployed ticker.
type Brc20Transfer struct {
	Tick string
	Amt  uint64
}

// Brc20 is the closed tagged union over the three BRC-20 operations;
// exactly one of Deploy, Mint, Transfer is set.
type Brc20 struct {
	Deploy   *Brc20Deploy
	Mint     *Brc20Mint
	Transfer *Brc20Transfer
}

// NewBrc20Deploy constructs a deploy operation.
func NewBrc20Deploy(tick string, max uint64, lim *uint64, dec *uint8, selfMint *bool) *Brc20 {
	return &Brc20{Deploy: &Brc20Deploy{Tick: tick, Max: max, Lim: lim, Dec: dec, SelfMint: selfMint}}
}

// NewBrc20Mint constructs a mint operation.
func NewBrc20Mint(tick string, amt uint64) *Brc20 {
	return &Brc20{Mint: &Brc20Mint{Tick: tick, Amt: amt}}
}

// NewBrc20Transfer constructs a transfer operation.
func NewBrc20Transfer(tick string, amt uint64) *Brc20 {
	return &Brc20{Transfer: &Brc20Transfer{Tick: tick, Amt: amt}}
}

// brc20Wire is the exact-field-name JSON shape exchanged on the wire.
type brc20Wire struct {
	P        string         `json:"p"`
	Op       Brc20Op        `json:"op"`
	Tick     string         `json:"tick"`
	Max      *decimalUint64 `json:"max,omitempty"`
	Lim      *decimalUint64 `json:"lim,omitempty"`
	Dec      *decimalUint64 `json:"dec,omitempty"`
	Amt      *decimalUint64 `json:"amt,omitempty"`
	SelfMint *decimalBool   `json:"self_mint,omitempty"`
}

// Body renders the BRC-20 operation as its canonical JSON body.
func (b *Brc20) Body() ([]byte, error) {
	w := brc20Wire{P: "brc-20"}

	switch {
	case b.Deploy != nil:
		w.Op = Brc20OpDeploy
		w.Tick = b.Deploy.Tick
		max := decimalUint64(b.Deploy.Max)
		w.Max = &max
		if b.Deploy.Lim != nil {
			lim := decimalUint64(*b.Deploy.Lim)
			w.Lim = &lim
		}
		if b.Deploy.Dec != nil {
			dec := decimalUint64(*b.Deploy.Dec)
			w.Dec = &dec
		}
		if b.Deploy.SelfMint != nil {
			selfMint := decimalBool(*b.Deploy.SelfMint)
			w.SelfMint = &selfMint
		}
	case b.Mint != nil:
		w.Op = Brc20OpMint
		w.Tick = b.Mint.Tick
		amt := decimalUint64(b.Mint.Amt)
		w.Amt = &amt
	case b.Transfer != nil:
		w.Op = Brc20OpTransfer
		w.Tick = b.Transfer.Tick
		amt := decimalUint64(b.Transfer.Amt)
		w.Amt = &amt
	default:
		return nil, errors.New("brc-20 operation is empty")
	}

	return json.Marshal(w)
}

// ContentType is always Brc20ContentType, regardless of which operation this is.
func (b *Brc20) ContentType() string {
	return Brc20ContentType
}

// ParseBrc20 decodes a BRC-20 JSON body into its tagged-union shape.
func ParseBrc20(body []byte) (*Brc20, error) {
	var w brc20Wire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, err
	}

	if w.P != "brc-20" {
		return nil, fmt.Errorf("%w: unexpected protocol %q", ErrUnknownBrc20Op, w.P)
	}

	switch w.Op {
	case Brc20OpDeploy:
		if w.Max == nil {
			return nil, errors.New("brc-20 deploy missing max")
		}

		d := &Brc20Deploy{Tick: w.Tick, Max: uint64(*w.Max)}
		if w.Lim != nil {
			lim := uint64(*w.Lim)
			d.Lim = &lim
		}
		if w.Dec != nil {
			dec := uint8(*w.Dec)
			d.Dec = &dec
		}
		if w.SelfMint != nil {
			selfMint := bool(*w.SelfMint)
			d.SelfMint = &selfMint
		}

		return &Brc20{Deploy: d}, nil
	case Brc20OpMint:
		if w.Amt == nil {
			return nil, errors.New("brc-20 mint missing amt")
		}

		return &Brc20{Mint: &Brc20Mint{Tick: w.Tick, Amt: uint64(*w.Amt)}}, nil
	case Brc20OpTransfer:
		if w.Amt == nil {
			return nil, errors.New("brc-20 transfer missing amt")
		}

		return &Brc20{Transfer: &Brc20Transfer{Tick: w.Tick, Amt: uint64(*w.Amt)}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBrc20Op, w.Op)
	}
}

// ToInscription renders the BRC-20 operation as a generic Inscription ready
// for envelope assembly: the single required field is content-type, per §6
// ("a single field pair <tag=1> 'text/plain;charset=utf-8' precedes the
// body separator, then the JSON body").
func (b *Brc20) ToInscription() (*Inscription, error) {
	body, err := b.Body()
	if err != nil {
		return nil, err
	}

	return &Inscription{ContentType: b.ContentType(), Body: body}, nil
}
