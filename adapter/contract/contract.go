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

// Package contract adapts the contract ledger form to adapter.Adapter. The
// contract offers no filtered scans, so listings walk the task id array and
// read every task.
package contract

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/paperclip-protocol/go-paperclip/adapter"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/eligibility"
	ledger "github.com/paperclip-protocol/go-paperclip/ledger/contract"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/paperclip-protocol/go-paperclip/signer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const claimCacheSize = 1024

// Config tunes how the adapter spreads its reads.
type Config struct {
	// Concurrency bounds parallel reads when not throttled.
	Concurrency int

	// Throttle, when positive, issues reads one at a time with at least
	// this delay between them, for nodes enforcing a request-rate ceiling.
	Throttle time.Duration
}

// DefaultConfig reads concurrently.
var DefaultConfig = Config{Concurrency: 8}

// Adapter talks to a contract ledger node.
type Adapter struct {
	backend ledger.Backend
	signer  signer.Signer
	chainID uint64
	config  Config
	limiter *rate.Limiter // nil unless throttled
	claims  *lru.ARCCache // claim key -> *protocol.Claim, positive results only
	log     log.Logger
}

var _ adapter.Adapter = (*Adapter)(nil)

// New connects an adapter to backend, signing with s.
func New(ctx context.Context, backend ledger.Backend, s signer.Signer, config Config) (*Adapter, error) {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig.Concurrency
	}
	cache, _ := lru.NewARC(claimCacheSize)
	a := &Adapter{
		backend: backend,
		signer:  s,
		config:  config,
		claims:  cache,
		log:     log.New("ledger", protocol.LedgerContract),
	}
	if config.Throttle > 0 {
		a.limiter = rate.NewLimiter(rate.Every(config.Throttle), 1)
		a.log.Debug("Throttling contract reads", "delay", config.Throttle)
	}
	err := adapter.Retry(ctx, func(ctx context.Context) (err error) {
		a.chainID, err = backend.ChainID(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Adapter) Ledger() protocol.Ledger { return protocol.LedgerContract }

func (a *Adapter) wallet() (common.Address, error) {
	pub, err := a.signer.PublicKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(pub), nil
}

func (a *Adapter) Wallet(ctx context.Context) (string, error) {
	w, err := a.wallet()
	if err != nil {
		return "", err
	}
	return w.String(), nil
}

func parseWallet(s string) (common.Address, error) {
	w, err := common.ParseAddress(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", adapter.ErrInvalidWallet, err)
	}
	return w, nil
}

// call runs a view function, waiting out the throttle first.
func (a *Adapter) call(ctx context.Context, data []byte) ([]byte, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return a.backend.Call(ctx, data)
}

type record interface {
	Decode([]byte) error
}

func (a *Adapter) view(ctx context.Context, data []byte, rec record) error {
	ret, err := a.call(ctx, data)
	if err != nil {
		return err
	}
	return rec.Decode(ret)
}

func (a *Adapter) Protocol(ctx context.Context) (*protocol.Protocol, error) {
	rec := new(ledger.ProtocolState)
	if err := a.view(ctx, ledger.PackGetProtocol(), rec); err != nil || !rec.Initialized {
		return nil, err
	}
	return rec.View(), nil
}

func (a *Adapter) agent(ctx context.Context, wallet common.Address) (*protocol.Agent, error) {
	rec := new(ledger.AgentRecord)
	if err := a.view(ctx, ledger.PackGetAgent(wallet), rec); err != nil || !rec.Exists {
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
	rec := new(ledger.TaskRecord)
	if err := a.view(ctx, ledger.PackGetTask(id), rec); err != nil || !rec.Exists {
		return nil, err
	}
	return rec.View(), nil
}

// claim reads a claim, serving repeated lookups of existing claims from the
// cache since claims never change once written.
func (a *Adapter) claim(ctx context.Context, id uint32, wallet common.Address) (*protocol.Claim, error) {
	key := ledger.ClaimKey(id, wallet)
	if v, ok := a.claims.Get(key); ok {
		return v.(*protocol.Claim), nil
	}
	rec := new(ledger.ClaimRecord)
	if err := a.view(ctx, ledger.PackGetClaim(id, wallet), rec); err != nil || !rec.Exists {
		return nil, err
	}
	claim := rec.View()
	a.claims.Add(key, claim)
	return claim, nil
}

func (a *Adapter) Claim(ctx context.Context, id uint32, wallet string) (*protocol.Claim, error) {
	w, err := parseWallet(wallet)
	if err != nil {
		return nil, err
	}
	claim, err := a.claim(ctx, id, w)
	if claim == nil {
		return nil, err
	}
	cpy := *claim
	return &cpy, nil
}

// hasClaimed answers claim existence through the cache or the hasClaimed
// view.
func (a *Adapter) hasClaimed(ctx context.Context, id uint32, wallet common.Address) (bool, error) {
	if a.claims.Contains(ledger.ClaimKey(id, wallet)) {
		return true, nil
	}
	ret, err := a.call(ctx, ledger.PackHasClaimed(id, wallet))
	if err != nil {
		return false, err
	}
	return ledger.UnpackBool(ret)
}

func (a *Adapter) Invite(ctx context.Context, inviter string) (*protocol.Invite, error) {
	w, err := parseWallet(inviter)
	if err != nil {
		return nil, err
	}
	rec := new(ledger.InviteRecord)
	if err := a.view(ctx, ledger.PackGetInvite(w), rec); err != nil || !rec.Exists {
		return nil, err
	}
	return rec.View(), nil
}

// each runs fn for every index below n, concurrently up to the configured
// limit, or sequentially when throttled.
func (a *Adapter) each(ctx context.Context, n uint64, fn func(ctx context.Context, i uint64) error) error {
	if a.limiter != nil {
		for i := uint64(0); i < n; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)
	for i := uint64(0); i < n; i++ {
		g.Go(func() error { return fn(gctx, i) })
	}
	return g.Wait()
}

// ListActiveTasks walks the whole task id array.
func (a *Adapter) ListActiveTasks(ctx context.Context) ([]*protocol.Task, error) {
	ret, err := a.call(ctx, ledger.PackTaskCount())
	if err != nil {
		return nil, err
	}
	n, err := ledger.UnpackUint(ret, 64)
	if err != nil {
		return nil, err
	}
	all := make([]*protocol.Task, n)
	err = a.each(ctx, n, func(ctx context.Context, i uint64) error {
		ret, err := a.call(ctx, ledger.PackTaskIDAt(i))
		if err != nil {
			return err
		}
		id, err := ledger.UnpackUint(ret, 32)
		if err != nil {
			return err
		}
		task, err := a.Task(ctx, uint32(id))
		if err != nil {
			return err
		}
		all[i] = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, task := range all {
		if task != nil && task.IsActive {
			active = append(active, task)
		}
	}
	return active, nil
}

type claimLookup struct {
	a      *Adapter
	wallet common.Address
}

func (c claimLookup) HasClaim(ctx context.Context, id uint32) (bool, error) {
	return c.a.hasClaimed(ctx, id, c.wallet)
}

// DoableTasks lists active tasks and applies the eligibility pipeline. When
// throttled, claims are looked up lazily one at a time; otherwise every
// needed claim is fetched in parallel up front.
func (a *Adapter) DoableTasks(ctx context.Context, wallet string) ([]*protocol.Task, error) {
	w, err := parseWallet(wallet)
	if err != nil {
		return nil, err
	}
	agent, err := a.agent(ctx, w)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, protocol.ErrAgentNotRegistered
	}
	tasks, err := a.ListActiveTasks(ctx)
	if err != nil {
		return nil, err
	}
	lookup := claimLookup{a, w}
	if a.limiter != nil {
		return eligibility.Resolve(ctx, agent.EfficiencyTier, tasks, lookup)
	}
	ids := eligibility.IDs(nil)
	for _, t := range eligibility.Prefilter(agent.EfficiencyTier, tasks) {
		ids.Add(t.TaskID)
		if t.Prerequisite != nil {
			ids.Add(*t.Prerequisite)
		}
	}
	wanted := make([]uint32, 0, ids.Cardinality())
	for _, id := range ids.ToSlice() {
		wanted = append(wanted, id.(uint32))
	}
	found := make([]bool, len(wanted))
	err = a.each(ctx, uint64(len(wanted)), func(ctx context.Context, i uint64) (err error) {
		found[i], err = lookup.HasClaim(ctx, wanted[i])
		return err
	})
	if err != nil {
		return nil, err
	}
	claimed := eligibility.NewClaimSet()
	for i, id := range wanted {
		if found[i] {
			claimed.Add(id)
		}
	}
	return eligibility.Doable(agent.EfficiencyTier, tasks, claimed), nil
}

func (a *Adapter) transact(ctx context.Context, data []byte) (*types.Receipt, error) {
	receipt, err := adapter.Transact(ctx, a.signer, a.chainID, a.backend.SendTransaction, data)
	if receipt != nil {
		if m, merr := ledger.MethodByID(data); merr == nil {
			a.log.Debug("Call executed", "method", m.Name, "slot", receipt.Slot, "err", err)
		}
	}
	return receipt, err
}

// sender checks that a wallet is available before building a call.
func (a *Adapter) sender() error {
	_, err := a.wallet()
	return err
}

func (a *Adapter) Initialize(ctx context.Context, base uint64) (*types.Receipt, error) {
	if err := a.sender(); err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.PackInitialize(base))
}

func (a *Adapter) RegisterAgent(ctx context.Context) (*types.Receipt, error) {
	if err := a.sender(); err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.PackRegisterAgent())
}

func (a *Adapter) RegisterAgentWithInvite(ctx context.Context, inviter string) (*types.Receipt, error) {
	if err := a.sender(); err != nil {
		return nil, err
	}
	in, err := parseWallet(inviter)
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.PackRegisterAgentWithInvite(in))
}

func (a *Adapter) CreateInvite(ctx context.Context) (*types.Receipt, error) {
	if err := a.sender(); err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.PackCreateInvite())
}

func (a *Adapter) CreateTask(ctx context.Context, params *protocol.TaskParams) (*types.Receipt, error) {
	if err := a.sender(); err != nil {
		return nil, err
	}
	data, err := ledger.PackCreateTask(params)
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, data)
}

func (a *Adapter) DeactivateTask(ctx context.Context, id uint32) (*types.Receipt, error) {
	if err := a.sender(); err != nil {
		return nil, err
	}
	return a.transact(ctx, ledger.PackDeactivateTask(id))
}

func (a *Adapter) SubmitProof(ctx context.Context, id uint32, proof string) (*types.Receipt, error) {
	if err := a.sender(); err != nil {
		return nil, err
	}
	data, err := ledger.PackSubmitProof(id, proof)
	if err != nil {
		return nil, err
	}
	return a.transact(ctx, data)
}
