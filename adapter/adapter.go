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

// Package adapter defines the ledger-independent interface the client drives.
// Each ledger form provides one implementation; both must be observably
// identical, which the adaptertest suite checks.
package adapter

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/paperclip-protocol/go-paperclip/signer"
)

// ErrInvalidWallet is returned for identities that are not valid on the
// adapter's ledger.
var ErrInvalidWallet = errors.New("invalid wallet identity")

// Adapter is one ledger form of the protocol. Point reads return (nil, nil)
// when the entity does not exist. Listings are unordered sets.
//
// Mutating methods return the ledger receipt; a protocol rejection is
// returned as the matching protocol error together with the failed receipt.
type Adapter interface {
	Ledger() protocol.Ledger

	// Wallet returns the identity of the session's wallet on this ledger,
	// signer.ErrNoWallet if there is none.
	Wallet(ctx context.Context) (string, error)

	Protocol(ctx context.Context) (*protocol.Protocol, error)
	Agent(ctx context.Context, wallet string) (*protocol.Agent, error)
	Task(ctx context.Context, id uint32) (*protocol.Task, error)
	Claim(ctx context.Context, id uint32, wallet string) (*protocol.Claim, error)
	Invite(ctx context.Context, inviter string) (*protocol.Invite, error)

	ListActiveTasks(ctx context.Context) ([]*protocol.Task, error)
	DoableTasks(ctx context.Context, wallet string) ([]*protocol.Task, error)

	Initialize(ctx context.Context, baseRewardUnit uint64) (*types.Receipt, error)
	RegisterAgent(ctx context.Context) (*types.Receipt, error)
	RegisterAgentWithInvite(ctx context.Context, inviter string) (*types.Receipt, error)
	CreateInvite(ctx context.Context) (*types.Receipt, error)
	CreateTask(ctx context.Context, params *protocol.TaskParams) (*types.Receipt, error)
	DeactivateTask(ctx context.Context, id uint32) (*types.Receipt, error)
	SubmitProof(ctx context.Context, id uint32, proof string) (*types.Receipt, error)
}

// SendFunc delivers a signed transaction to a ledger.
type SendFunc func(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error)

var lastNonce uint64

// nextNonce returns a unique, increasing nonce. The ledger only uses it to
// tell otherwise identical transactions apart.
func nextNonce() uint64 {
	for {
		prev := atomic.LoadUint64(&lastNonce)
		next := uint64(time.Now().UnixNano())
		if next <= prev {
			next = prev + 1
		}
		if atomic.CompareAndSwapUint64(&lastNonce, prev, next) {
			return next
		}
	}
}

// Transact signs data with s and sends it. A transient delivery failure is
// retried once with the identical transaction, which the ledger deduplicates
// should the first attempt have executed. A rejected transaction returns its
// protocol error along with the receipt.
func Transact(ctx context.Context, s signer.Signer, chainID uint64, send SendFunc, data []byte) (*types.Receipt, error) {
	stx, err := signer.SignTx(ctx, s, types.Transaction{Nonce: nextNonce(), Data: data}, chainID)
	if err != nil {
		return nil, err
	}
	receipt, err := send(ctx, stx)
	if protocol.IsTransient(err) {
		log.Debug("Retrying transaction", "hash", stx.Hash(chainID), "err", err)
		receipt, err = send(ctx, stx)
	}
	if err != nil {
		return nil, err
	}
	if receipt.Failed() {
		return receipt, receipt.Error()
	}
	return receipt, nil
}

// Retry runs fn, and once more if it failed transiently.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if protocol.IsTransient(err) && ctx.Err() == nil {
		log.Debug("Retrying after transient failure", "err", err)
		err = fn(ctx)
	}
	return err
}
