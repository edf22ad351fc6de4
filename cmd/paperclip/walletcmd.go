// Copyright 2026 The go-paperclip Authors
// This file is part of go-paperclip.
//
// go-paperclip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-paperclip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-paperclip. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcec"
	"gopkg.in/urfave/cli.v1"

	"github.com/paperclip-protocol/go-paperclip/client"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/signer"
)

var (
	mnemonicFlag = cli.BoolFlag{
		Name:  "mnemonic",
		Usage: "Derive the key from a fresh BIP-39 mnemonic and print it",
	}
	passphraseFlag = cli.StringFlag{
		Name:  "passphrase",
		Usage: "BIP-39 passphrase of the mnemonic",
	}
	recoverFlag = cli.StringFlag{
		Name:  "recover",
		Usage: "Derive the key from this existing mnemonic",
	}

	walletCommand = cli.Command{
		Name:     "wallet",
		Usage:    "Manage wallets",
		Category: "ACCOUNT COMMANDS",
		Subcommands: []cli.Command{
			{
				Action: newWallet,
				Name:   "new",
				Usage:  "Create a local wallet key file at --key",
				Flags:  []cli.Flag{mnemonicFlag, passphraseFlag, recoverFlag},
				Description: `
Generates a private key and saves it hex encoded at the --key path. An
existing key file is never overwritten. With --mnemonic the key is derived
from a new BIP-39 mnemonic, which is printed once and must be kept to
recover the wallet.`,
			},
			{
				Action: provisionWallet,
				Name:   "provision",
				Usage:  "Provision a wallet with the custodial signing service",
			},
			{
				Action: showWallet,
				Name:   "show",
				Usage:  "Print the identities of the configured wallet",
			},
		},
	}
)

// walletIdentity names a wallet on both ledger forms.
type walletIdentity struct {
	Account  string `json:"account"` // account ledger
	Address  string `json:"address"` // contract ledger
	KeyFile  string `json:"keyFile,omitempty"`
	WalletID string `json:"walletId,omitempty"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

func identity(pub *btcec.PublicKey) *walletIdentity {
	return &walletIdentity{
		Account: crypto.PubkeyToAccount(pub).String(),
		Address: crypto.PubkeyToAddress(pub).Hex(),
	}
}

func renderIdentity(id *walletIdentity) func(w io.Writer) {
	return func(w io.Writer) {
		pairs := [][2]string{{"Account", id.Account}, {"Address", id.Address}}
		if id.KeyFile != "" {
			pairs = append(pairs, [2]string{"Key file", id.KeyFile})
		}
		if id.WalletID != "" {
			pairs = append(pairs, [2]string{"Wallet id", id.WalletID})
		}
		if id.Mnemonic != "" {
			pairs = append(pairs, [2]string{"Mnemonic", id.Mnemonic})
		}
		renderPairs(w, "Wallet", pairs)
	}
}

func newWallet(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	file := cfg.Signer.KeyFile
	if file == "" {
		return errors.New("--key required")
	}
	if _, err := os.Stat(file); err == nil {
		return fmt.Errorf("key file %s already exists", file)
	}
	var (
		key      *btcec.PrivateKey
		mnemonic = ctx.String(recoverFlag.Name)
	)
	if mnemonic == "" && ctx.Bool(mnemonicFlag.Name) {
		if mnemonic, err = crypto.NewMnemonic(); err != nil {
			return err
		}
	}
	if mnemonic != "" {
		key, err = crypto.KeyFromMnemonic(mnemonic, ctx.String(passphraseFlag.Name))
	} else {
		key, err = crypto.GenerateKey()
	}
	if err != nil {
		return err
	}
	if err := crypto.SaveECDSA(file, key); err != nil {
		return err
	}
	id := identity(key.PubKey())
	id.KeyFile = file
	if ctx.Bool(mnemonicFlag.Name) {
		id.Mnemonic = mnemonic
	}
	return respond(ctx, id, renderIdentity(id))
}

func provisionWallet(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Signer.CustodianURL == "" {
		return errors.New("--custodian.url required")
	}
	c, err := signer.ProvisionCustodial(context.Background(), cfg.Signer.CustodianURL)
	if err != nil {
		return err
	}
	pub, _ := c.PublicKey()
	id := identity(pub)
	id.WalletID = c.WalletID()
	return respond(ctx, id, renderIdentity(id))
}

func showWallet(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	s, err := client.OpenSigner(context.Background(), cfg.Signer)
	if err != nil {
		return err
	}
	pub, err := s.PublicKey()
	if err != nil {
		return err
	}
	id := identity(pub)
	if c, ok := s.(*signer.Custodial); ok {
		id.WalletID = c.WalletID()
	} else {
		id.KeyFile = cfg.Signer.KeyFile
	}
	return respond(ctx, id, renderIdentity(id))
}
