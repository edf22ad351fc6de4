// Copyright 2026 The go-paperclip Authors
// This file is part of the go-paperclip library.
//
// The go-paperclip library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-paperclip library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-paperclip library. If not, see <http://www.gnu.org/licenses/>.

// Package signer provides the signing strategies a session can run with. A
// strategy is chosen once and injected into the ledger adapters.
package signer

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/crypto"
)

// ErrNoWallet is returned by operations that need a wallet when none has
// been provisioned.
var ErrNoWallet = errors.New("no wallet provisioned")

// Signer produces compact recoverable signatures for one wallet.
type Signer interface {
	// PublicKey returns the wallet key, ErrNoWallet if there is none.
	PublicKey() (*btcec.PublicKey, error)

	// Sign signs a 32-byte digest.
	Sign(ctx context.Context, digest []byte) ([]byte, error)
}

// SignTx signs tx for the given chain.
func SignTx(ctx context.Context, s Signer, tx types.Transaction, chainID uint64) (*types.SignedTx, error) {
	sighash := tx.SigHash(chainID)
	sig, err := s.Sign(ctx, sighash[:])
	if err != nil {
		return nil, err
	}
	return &types.SignedTx{Tx: tx, Sig: sig}, nil
}

// Local signs with a key held in memory.
type Local struct {
	key *btcec.PrivateKey
}

// NewLocal creates a signer for key.
func NewLocal(key *btcec.PrivateKey) *Local {
	return &Local{key: key}
}

// FromMnemonic derives a local signer from a BIP-39 mnemonic.
func FromMnemonic(mnemonic, passphrase string) (*Local, error) {
	key, err := crypto.KeyFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewLocal(key), nil
}

func (l *Local) PublicKey() (*btcec.PublicKey, error) { return l.key.PubKey(), nil }

func (l *Local) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	return crypto.Sign(digest, l.key)
}

// ReadOnly has no signing key. With a known public key it still resolves
// the wallet's addresses so status queries work before a wallet is
// provisioned for signing.
type ReadOnly struct {
	pub *btcec.PublicKey
}

// NewReadOnly creates a read-only signer. pub may be nil.
func NewReadOnly(pub *btcec.PublicKey) *ReadOnly {
	return &ReadOnly{pub: pub}
}

func (r *ReadOnly) PublicKey() (*btcec.PublicKey, error) {
	if r.pub == nil {
		return nil, ErrNoWallet
	}
	return r.pub, nil
}

func (r *ReadOnly) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	return nil, ErrNoWallet
}
