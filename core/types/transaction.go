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

// Package types contains the ledger transaction and receipt types shared by
// both ledger forms.
package types

import (
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/crypto"
)

var ErrInvalidSig = errors.New("invalid transaction signature")

// Transaction is one instruction addressed to a ledger program. Data is the
// ledger-specific encoded instruction.
type Transaction struct {
	Nonce uint64 `json:"nonce"`
	Data  []byte `json:"data"`
}

// SigHash returns the digest signed by the sender. The chain id keeps a
// signature for one ledger from being replayed on the other.
func (tx *Transaction) SigHash(chainID uint64) common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], chainID)
	binary.BigEndian.PutUint64(buf[8:], tx.Nonce)
	return crypto.Keccak256Hash(buf[:], tx.Data)
}

// SignedTx is a transaction together with its compact recoverable signature.
type SignedTx struct {
	Tx  Transaction `json:"tx"`
	Sig []byte      `json:"sig"`
}

// Hash returns the transaction identifier.
func (stx *SignedTx) Hash(chainID uint64) common.Hash {
	sighash := stx.Tx.SigHash(chainID)
	return crypto.Keccak256Hash(sighash[:], stx.Sig)
}

// Sender recovers the public key that signed the transaction.
func (stx *SignedTx) Sender(chainID uint64) (*btcec.PublicKey, error) {
	if len(stx.Sig) != crypto.SignatureLength {
		return nil, ErrInvalidSig
	}
	sighash := stx.Tx.SigHash(chainID)
	pub, err := crypto.SigToPub(sighash[:], stx.Sig)
	if err != nil {
		return nil, ErrInvalidSig
	}
	return pub, nil
}

// SignTx signs tx for the given chain with a local key.
func SignTx(tx Transaction, chainID uint64, prv *btcec.PrivateKey) (*SignedTx, error) {
	sighash := tx.SigHash(chainID)
	sig, err := crypto.Sign(sighash[:], prv)
	if err != nil {
		return nil, err
	}
	return &SignedTx{Tx: tx, Sig: sig}, nil
}
