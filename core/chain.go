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

// Package core implements the host ledger that orders and applies protocol
// instructions.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core/rawdb"
	"github.com/paperclip-protocol/go-paperclip/core/state"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/event"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Env is the execution context of a single instruction.
type Env struct {
	State  *state.StateDB
	Signer *btcec.PublicKey
	Slot   uint64
	Time   int64 // unix seconds
}

// Emit records an event for the running instruction. Events of a rejected
// instruction are discarded together with its state changes.
func (env *Env) Emit(ev protocol.Event) {
	ev.Slot, ev.Time = env.Slot, env.Time
	env.State.AddEvent(ev)
}

// Executor is a ledger program. Apply either returns nil after making all of
// its state changes, or an error; the chain reverts partial writes.
type Executor interface {
	Apply(env *Env, data []byte) error
}

// Config holds the static parameters of a ledger.
type Config struct {
	ChainID uint64
	Ledger  protocol.Ledger
	Clock   func() time.Time // nil means time.Now
}

// Chain is an already-ordered transaction log hosting one program. It applies
// one instruction at a time.
type Chain struct {
	config Config
	db     kvdb.KeyValueStore // ledger namespace: metadata + state
	state  kvdb.KeyValueStore // program state view
	exec   Executor
	feed   event.Feed
	log    log.Logger

	mu     sync.Mutex
	slot   uint64
	closed bool
}

// NewChain opens a ledger on db and resumes from its last slot.
func NewChain(db kvdb.KeyValueStore, config Config, exec Executor) *Chain {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	c := &Chain{
		config: config,
		db:     db,
		state:  kvdb.NewTable(db, rawdb.StatePrefix),
		exec:   exec,
		log:    log.New("ledger", config.Ledger),
		slot:   rawdb.ReadLastSlot(db),
	}
	c.log.Info("Opened ledger", "chainid", config.ChainID, "slot", c.slot)
	return c
}

// ChainID returns the identifier mixed into signature hashes.
func (c *Chain) ChainID() uint64 { return c.config.ChainID }

// Ledger returns the ledger form hosted by the chain.
func (c *Chain) Ledger() protocol.Ledger { return c.config.Ledger }

// Slot returns the slot of the latest executed transaction.
func (c *Chain) Slot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// State returns a read view of the committed program state. Every write is a
// single atomic batch, so readers never observe half an instruction.
func (c *Chain) State() kvdb.KeyValueStore {
	return c.state
}

// SubscribeEvents registers a receiver for events of executed instructions.
func (c *Chain) SubscribeEvents(buffer int) *event.Subscription {
	return c.feed.Subscribe(buffer)
}

// GetReceipt returns the receipt of an executed transaction, nil if unknown.
func (c *Chain) GetReceipt(hash common.Hash) *types.Receipt {
	return rawdb.ReadReceipt(c.db, hash)
}

// Close stops the chain from accepting transactions.
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// SendTransaction executes a signed transaction and returns its receipt.
// A protocol rejection is reported in the receipt, not as an error; errors are
// reserved for transactions that never executed. Resending an executed
// transaction returns the original receipt.
func (c *Chain) SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChainClosed
	}
	hash := stx.Hash(c.config.ChainID)
	if receipt := rawdb.ReadReceipt(c.db, hash); receipt != nil {
		return receipt, nil
	}
	signer, err := c.validateTx(stx)
	if err != nil {
		return nil, err
	}
	var (
		slot    = c.slot + 1
		statedb = state.New(c.state)
		env     = &Env{State: statedb, Signer: signer, Slot: slot, Time: c.config.Clock().Unix()}
		receipt = &types.Receipt{TxHash: hash, Slot: slot, Status: types.ReceiptStatusSuccessful}
	)
	snap := statedb.Snapshot()
	if err := c.exec.Apply(env, stx.Tx.Data); err != nil {
		statedb.RevertToSnapshot(snap)
		receipt.Status = types.ReceiptStatusFailed
		receipt.Err = err.Error()
		if code, ok := protocol.CodeOf(err); ok {
			receipt.ErrCode = code
		}
		c.log.Debug("Instruction rejected", "slot", slot, "hash", hash, "err", err)
	} else {
		for _, ev := range statedb.Events() {
			ev.Ledger = c.config.Ledger
			receipt.Events = append(receipt.Events, ev)
		}
	}
	if err := statedb.Error(); err != nil {
		c.log.Error("State access failed", "slot", slot, "err", err)
		return nil, err
	}
	batch := c.db.NewBatch()
	if _, err := statedb.Finalise(kvdb.NewTableWriter(batch, rawdb.StatePrefix)); err != nil {
		return nil, err
	}
	rawdb.WriteLastSlot(batch, slot)
	rawdb.WriteReceipt(batch, receipt)
	if err := batch.Write(); err != nil {
		c.log.Error("Failed to commit transaction", "slot", slot, "err", err)
		return nil, err
	}
	c.slot = slot
	for _, ev := range receipt.Events {
		c.feed.Send(ev)
	}
	c.log.Trace("Executed transaction", "slot", slot, "hash", hash, "status", receipt.Status)
	return receipt, nil
}
