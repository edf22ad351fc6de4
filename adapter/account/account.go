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

// Package account adapts the account ledger form to adapter.Adapter. Entity
// lookups derive addresses locally and listings use server-side filtered
// scans.
package account

import (
	"context"
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/adapter"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/eligibility"
	ledger "github.com/paperclip-protocol/go-paperclip/ledger/account"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/paperclip-protocol/go-paperclip/signer"
	"golang.org/x/sync/errgroup"
)

// Adapter talks to an account ledger node.
type Adapter struct {
	backend ledger.Backend
	signer  signer.Signer
	chainID uint64
	addrs   *ledger.Addresses
	log     log.Logger
}

var _ adapter.Adapter = (*Adapter)(nil)

// New connects an adapter to backend, signing with s.
func New(ctx context.Context, backend ledger.Backend, s signer.Signer) (*Adapter, error) {
	a := &Adapter{backend: backend, signer: s, log: log.New("ledger", protocol.LedgerAccount)}
	var program common.Account
	err := adapter.Retry(ctx, func(ctx context.Context) (err error) {
		if a.chainID, err = backend.ChainID(ctx); err != nil {
			return err
		}
		program, err = backend.ProgramID(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.addrs = ledger.NewAddresses(program)
	return a, nil
}

func (a *Adapter) Ledger() protocol.Ledger { return protocol.LedgerAccount }

func (a *Adapter) wallet() (common.Account, error) {
	pub, err := a.signer.PublicKey()
	if err != nil {
		return common.Account{}, err
	}
	return crypto.PubkeyToAccount(pub), nil
}

func (a *Adapter) Wallet(ctx context.Context) (string, error) {
	w, err := a.wallet()
	if err != nil {
		return "", err
	}
	return w.String(), nil
}

func parseWallet(s string) (common.Account, error) {
	w, err := common.ParseAccount(s)
	if err != nil {
		return common.Account{}, fmt.Errorf("%w: %v", adapter.ErrInvalidWallet, err)
	}
	return w, nil
}

type record interface {
	Decode([]byte) error
}

// fetch loads and decodes one account, reporting whether it exists.
func (a *Adapter) fetch(ctx context.Context, addr common.Account, rec record) (bool, error) {
	data, err := a.backend.GetAccountInfo(ctx, addr)
	if err != nil || data == nil {
		return false, err
	}
	if err := rec.Decode(data); err != nil {
		return false, fmt.Errorf("account %s: %v", addr.TerminalString(), err)
	}
	return true, nil
}

func (a *Adapter) Protocol(ctx context.Context) (*protocol.Protocol, error) {
	addr, _ := a.addrs.Protocol()
	rec := new(ledger.ProtocolState)
	if ok, err := a.fetch(ctx, addr, rec); !ok {
		return nil, err
	}
	return rec.View(), nil
}

func (a *Adapter) agent(ctx context.Context, wallet common.Account) (*protocol.Agent, error) {
	addr, _ := a.addrs.Agent(wallet)
	rec := new(ledger.AgentAccount)
	if ok, err := a.fetch(ctx, addr, rec); !ok {
		return nil, err
	}
	return rec.View(), nil
}

func (a *Adapter) Agent(ctx context.Context, wallet string) (*protocol.Agent, error) {
	w, err := parseWallet(wallet)
	if err != nil {
		return nil, err
	}
	return a.agent(ctx, w)
}

func (a *Adapter) Task(ctx context.Context, id uint32) (*protocol.Task, error) {
	addr, _ := a.addrs.Task(id)
	rec := new(ledger.TaskRecord)
	if ok, err := a.fetch(ctx, addr, rec); !ok {
		return nil, err
	}
	return rec.View(), nil
}

func (a *Adapter) Claim(ctx context.Context, id uint32, wallet string) (*protocol.Claim, error) {
	w, err := parseWallet(wallet)
	if err != nil {
		return nil, err
	}
	addr, _ := a.addrs.Claim(id, w)
	rec := new(ledger.ClaimRecord)
	if ok, err := a.fetch(ctx, addr, rec); !ok {
		return nil, err
	}
	return rec.View(), nil
}

func (a *Adapter) Invite(ctx context.Context, inviter string) (*protocol.Invite, error) {
	w, err := parseWallet(inviter)
	if err != nil {
		return nil, err
	}
	addr, _ := a.addrs.Invite(w)
	rec := new(ledger.InviteRecord)
	if ok, err := a.fetch(ctx, addr, rec); !ok {
		return nil, err
	}
	return rec.View(), nil
}

// ListActiveTasks scans task accounts whose is_active byte is set.
func (a *Adapter) ListActiveTasks(ctx context.Context) ([]*protocol.Task, error) {
	accounts, err := a.backend.GetProgramAccounts(ctx, []ledger.Filter{
		{Memcmp: &ledger.Memcmp{Offset: 0, Bytes: ledger.TaskDiscriminator[:]}},
		{Memcmp: &ledger.Memcmp{Offset: ledger.TaskActiveOffset, Bytes: []byte{1}}},
	})
	if err != nil {
		return nil, err
	}
	tasks := make([]*protocol.Task, 0, len(accounts))
	for _, acc := range accounts {
		rec := new(ledger.TaskRecord)
		if err := rec.Decode(acc.Data); err != nil {
			return nil, fmt.Errorf("task account %s: %v", acc.Pubkey.TerminalString(), err)
		}
		tasks = append(tasks, rec.View())
	}
	return tasks, nil
}

// claims scans every claim held by wallet.
func (a *Adapter) claims(ctx context.Context, wallet common.Account) (*eligibility.ClaimSet, error) {
	accounts, err := a.backend.GetProgramAccounts(ctx, []ledger.Filter{
		{Memcmp: &ledger.Memcmp{Offset: 0, Bytes: ledger.ClaimDiscriminator[:]}},
		{Memcmp: &ledger.Memcmp{Offset: ledger.ClaimAgentOffset, Bytes: wallet[:]}},
	})
	if err != nil {
		return nil, err
	}
	set := eligibility.NewClaimSet()
	for _, acc := range accounts {
		rec := new(ledger.ClaimRecord)
		if err := rec.Decode(acc.Data); err != nil {
			return nil, fmt.Errorf("claim account %s: %v", acc.Pubkey.TerminalString(), err)
		}
		set.Add(rec.TaskID)
	}
	return set, nil
}

// DoableTasks issues the agent lookup and both scans concurrently, then
// runs the eligibility pipeline locally.
func (a *Adapter) DoableTasks(ctx context.Context, wallet string) ([]*protocol.Task, error) {
	w, err := parseWallet(wallet)
	if err != nil {
		return nil, err
	}
	var (
		agent  *protocol.Agent
		tasks  []*protocol.Task
		claims *eligibility.ClaimSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		agent, err = a.agent(gctx, w)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = a.ListActiveTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		claims, err = a.claims(gctx, w)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, protocol.ErrAgentNotRegistered
	}
	return eligibility.Doable(agent.EfficiencyTier, tasks, claims), nil
}

func (a *Adapter) transact(ctx context.Context, ix *ledger.Instruction) (*types.Receipt, error) {
	receipt, err := adapter.Transact(ctx, a.signer, a.chainID, a.backend.SendTransaction, ix.Encode())
	if receipt != nil {
		a.log.Debug("Instruction executed", "name", ix.Name(), "slot", receipt.Slot, "err", err)
	}
	return receipt, err
}

func (a *Adapter) Initialize(ctx context.Context, base uint64) (*types.Receipt, error) {
	if _, err := a.wallet(); err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.NewInitialize(a.addrs, base))
}

func (a *Adapter) RegisterAgent(ctx context.Context) (*types.Receipt, error) {
	w, err := a.wallet()
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.NewRegisterAgent(a.addrs, w))
}

func (a *Adapter) RegisterAgentWithInvite(ctx context.Context, inviter string) (*types.Receipt, error) {
	w, err := a.wallet()
	if err != nil {
		return nil, err
	}
	in, err := parseWallet(inviter)
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.NewRegisterAgentWithInvite(a.addrs, w, in))
}

func (a *Adapter) CreateInvite(ctx context.Context) (*types.Receipt, error) {
	w, err := a.wallet()
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.NewCreateInvite(a.addrs, w))
}

func (a *Adapter) CreateTask(ctx context.Context, params *protocol.TaskParams) (*types.Receipt, error) {
	if _, err := a.wallet(); err != nil {
		return nil, err
	}
	ix, err := ledger.NewCreateTask(a.addrs, params)
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, ix)
}

func (a *Adapter) DeactivateTask(ctx context.Context, id uint32) (*types.Receipt, error) {
	if _, err := a.wallet(); err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.NewDeactivateTask(a.addrs, id))
}

// SubmitProof reads the task first so a gated submission can carry the
// prerequisite claim account.
func (a *Adapter) SubmitProof(ctx context.Context, id uint32, proof string) (*types.Receipt, error) {
	w, err := a.wallet()
	if err != nil {
		return nil, err
	}
	task, err := a.Task(ctx, id)
	if err != nil {
		return nil, err
	}
	var prerequisite *uint32
	if task != nil {
		prerequisite = task.Prerequisite
	}
	ix, err := ledger.NewSubmitProof(a.addrs, w, id, proof, prerequisite)
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, ix)
}
