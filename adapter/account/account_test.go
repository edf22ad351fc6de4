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

package account

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paperclip-protocol/go-paperclip/adapter"
	"github.com/paperclip-protocol/go-paperclip/adapter/adaptertest"
	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	ledger "github.com/paperclip-protocol/go-paperclip/ledger/account"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/paperclip-protocol/go-paperclip/rpc"
	"github.com/paperclip-protocol/go-paperclip/signer"
)

func newAPI(t *testing.T) *ledger.API {
	prog := ledger.NewProgram(ledger.DefaultProgramID)
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	chain := core.NewChain(memorydb.New(), core.Config{ChainID: 101, Ledger: protocol.LedgerAccount, Clock: clock}, prog)
	t.Cleanup(chain.Close)
	return ledger.NewAPI(chain, prog.ID())
}

func open(t *testing.T, backend ledger.Backend) adaptertest.Session {
	return func(s signer.Signer) adapter.Adapter {
		a, err := New(context.Background(), backend, s)
		if err != nil {
			t.Fatalf("can't open adapter: %v", err)
		}
		return a
	}
}

func TestAdapterSuite(t *testing.T) {
	adaptertest.TestAdapterSuite(t, func(t *testing.T) adaptertest.Session {
		return open(t, newAPI(t))
	})
}

func TestAdapterSuiteOverRPC(t *testing.T) {
	adaptertest.TestAdapterSuite(t, func(t *testing.T) adaptertest.Session {
		srv := rpc.NewServer()
		if err := srv.RegisterAPIs(ledger.APIs(newAPI(t))); err != nil {
			t.Fatal(err)
		}
		client := ledger.NewClient(rpc.DialInProc(rpc.NewHTTPHandler(srv, nil)))
		t.Cleanup(client.Close)
		return open(t, client)
	})
}

// lossyBackend executes transactions but loses the first response.
type lossyBackend struct {
	ledger.Backend
	lost int32
}

func (b *lossyBackend) SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error) {
	receipt, err := b.Backend.SendTransaction(ctx, stx)
	if err == nil && atomic.CompareAndSwapInt32(&b.lost, 0, 1) {
		return nil, protocol.Transient(context.DeadlineExceeded)
	}
	return receipt, err
}

func TestRetryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)
	admin, err := New(ctx, api, adaptertest.Key("authority"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Initialize(ctx, 100); err != nil {
		t.Fatal(err)
	}
	backend := &lossyBackend{Backend: api}
	a, err := New(ctx, backend, adaptertest.Key("alice"))
	if err != nil {
		t.Fatal(err)
	}
	receipt, err := a.RegisterAgent(ctx)
	if err != nil {
		t.Fatalf("register with lost response: %v", err)
	}
	if backend.lost != 1 {
		t.Fatal("response was never lost")
	}
	wallet, _ := a.Wallet(ctx)
	agent, _ := a.Agent(ctx, wallet)
	p, _ := a.Protocol(ctx)
	if agent == nil || agent.ClipsBalance != 100 || p.TotalAgents != 1 {
		t.Fatalf("retried registration applied twice or not at all: agent %+v, protocol %+v", agent, p)
	}
	if slot, _ := api.GetSlot(ctx); slot != receipt.Slot {
		t.Fatalf("retry executed a second transaction: slot %d, receipt slot %d", slot, receipt.Slot)
	}
}

// truncatingBackend cuts every scanned account short.
type truncatingBackend struct {
	ledger.Backend
}

func (b truncatingBackend) GetProgramAccounts(ctx context.Context, filters []ledger.Filter) ([]ledger.KeyedAccount, error) {
	accounts, err := b.Backend.GetProgramAccounts(ctx, filters)
	for i := range accounts {
		accounts[i].Data = accounts[i].Data[:len(accounts[i].Data)/2]
	}
	return accounts, err
}

func TestUndecodableTaskFailsListing(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)
	admin, err := New(ctx, api, adaptertest.Key("authority"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Initialize(ctx, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.CreateTask(ctx, &protocol.TaskParams{TaskID: 1, ContentCID: "mock-1", MaxClaims: 1}); err != nil {
		t.Fatal(err)
	}
	a, err := New(ctx, truncatingBackend{api}, signer.NewReadOnly(nil))
	if err != nil {
		t.Fatal(err)
	}
	if tasks, err := a.ListActiveTasks(ctx); err == nil {
		t.Fatalf("listing over corrupt accounts succeeded: %v", tasks)
	}
}
