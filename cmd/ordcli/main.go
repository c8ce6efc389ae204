// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Command ordcli drives the commit/reveal builder end-to-end against a
// single BRC-20 transfer inscription. It exists purely to exercise the
// public API with real flag parsing; it talks to no network and is not
// part of the library's core.
package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	flags "github.com/jessevdk/go-flags"

	"github.com/ordkit/ord/bitcoin"
	"github.com/ordkit/ord/bitcoin/ord/inscriptions"
	"github.com/ordkit/ord/bitcoin/ord/redeemscript"
	"github.com/ordkit/ord/bitcoin/txbuilder"
)

type options struct {
	Network string `long:"network" choice:"mainnet" choice:"testnet" default:"testnet" description:"Bitcoin network"`
	WIF     string `long:"wif" required:"true" description:"WIF-encoded private key funding the commit input"`
	Input   string `long:"input" required:"true" description:"commit input outpoint, txid:vout"`
	Amount  int64  `long:"amount" required:"true" description:"input value in satoshi"`

	Tick string `long:"tick" required:"true" description:"BRC-20 ticker to transfer"`
	Amt  uint64 `long:"amt" required:"true" description:"BRC-20 amount to transfer"`

	CommitFee int64  `long:"commit-fee" required:"true" description:"commit transaction fee, satoshi"`
	RevealFee int64  `long:"reveal-fee" required:"true" description:"reveal transaction fee, satoshi"`
	Recipient string `long:"recipient" required:"true" description:"address receiving the reveal output"`
	Leftover  string `long:"leftover" description:"address receiving the commit leftover (defaults to the P2WPKH of --wif)"`
	Taproot   bool   `long:"taproot" description:"use a P2TR commit instead of P2WSH"`
}

func main() {
	var opts options

	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "ordcli:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	chainParams := &chaincfg.TestNet3Params
	if opts.Network == "mainnet" {
		chainParams = &chaincfg.MainNetParams
	}

	wif, err := btcutil.DecodeWIF(opts.WIF)
	if err != nil {
		return fmt.Errorf("decode WIF: %w", err)
	}

	txHash, vout, err := parseOutpoint(opts.Input)
	if err != nil {
		return err
	}

	leftoverAddress := opts.Leftover
	if leftoverAddress == "" {
		addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(wif.PrivKey.PubKey().SerializeCompressed()), chainParams)
		if err != nil {
			return err
		}
		leftoverAddress = addr.EncodeAddress()
	}

	op := inscriptions.NewBrc20Transfer(opts.Tick, opts.Amt)
	ins, err := op.ToInscription()
	if err != nil {
		return fmt.Errorf("build brc-20 inscription: %w", err)
	}

	scriptType := redeemscript.P2WSH
	if opts.Taproot {
		scriptType = redeemscript.P2TR
	}

	builder := txbuilder.NewInscriptionBuilder(chainParams)
	commit, err := builder.BuildCommit(txbuilder.CommitParams{
		Inputs: []bitcoin.UTXO{{
			TxHash: txHash,
			Index:  vout,
			Amount: big.NewInt(opts.Amount),
		}},
		ScriptType:       scriptType,
		PublicKey:        wif.PrivKey.PubKey().SerializeCompressed(),
		Inscription:      ins,
		CommitFee:        big.NewInt(opts.CommitFee),
		RevealFee:        big.NewInt(opts.RevealFee),
		LeftoversAddress: leftoverAddress,
	})
	if err != nil {
		return fmt.Errorf("build commit: %w", err)
	}

	commitHash := commit.Tx.TxHash()
	reveal, err := builder.BuildReveal(txbuilder.RevealParams{
		CommitTxHash:     &commitHash,
		RecipientAddress: opts.Recipient,
	})
	if err != nil {
		return fmt.Errorf("build reveal: %w", err)
	}

	commitHex, err := txHex(commit.Tx)
	if err != nil {
		return err
	}
	revealHex, err := txHex(reveal)
	if err != nil {
		return err
	}

	fmt.Println("commit txid:", commitHash.String())
	fmt.Println("commit hex:", commitHex)
	if commit.TaprootAddress != "" {
		fmt.Println("commit script address (fresh taproot):", commit.TaprootAddress)
	}
	fmt.Println("reveal hex (unsigned):", revealHex)

	redeemAsm, err := txscript.DisasmString(builder.RedeemScript())
	if err != nil {
		return err
	}
	fmt.Println("redeem script asm:", redeemAsm)

	return nil
}

func parseOutpoint(s string) (txid string, vout uint32, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("invalid outpoint %q, want txid:vout", s)
	}

	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid outpoint index %q: %w", parts[1], err)
	}

	return parts[0], uint32(index), nil
}

func txHex(tx *wire.MsgTx) (string, error) {
	var buf strings.Builder
	if err := tx.Serialize(hexWriter{&buf}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// hexWriter adapts an io.Writer-shaped strings.Builder into a sink that
// stores bytes as their hex encoding, one Write call at a time.
type hexWriter struct {
	buf *strings.Builder
}

func (w hexWriter) Write(p []byte) (int, error) {
	w.buf.WriteString(hex.EncodeToString(p))

	return len(p), nil
}
