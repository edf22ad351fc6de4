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

// Package node hosts both ledger forms of the protocol in one process and
// serves them over JSON-RPC, together with the object store gateway, a
// WebSocket event stream and, optionally, the custodial signing service.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/rawdb"
	"github.com/paperclip-protocol/go-paperclip/custodian"
	"github.com/paperclip-protocol/go-paperclip/event/natsbridge"
	"github.com/paperclip-protocol/go-paperclip/event/wsfeed"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
	"github.com/paperclip-protocol/go-paperclip/kvdb/leveldb"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	"github.com/paperclip-protocol/go-paperclip/ledger/account"
	"github.com/paperclip-protocol/go-paperclip/ledger/contract"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/objstore"
	"github.com/paperclip-protocol/go-paperclip/paperclipconfig"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/paperclip-protocol/go-paperclip/rpc"
	"golang.org/x/time/rate"
)

const eventBuffer = 256

// ErrNodeRunning is returned when starting a node twice.
var ErrNodeRunning = errors.New("node already running")

// Node is a paperclip node.
type Node struct {
	config paperclipconfig.NodeConfig
	db     kvdb.KeyValueStore
	log    log.Logger

	accountChain  *core.Chain
	contractChain *core.Chain
	accountAPI    *account.API
	contractAPI   *contract.API
	objects       objstore.Store
	custodian     *custodian.Service

	rpc     *rpc.Server
	events  *wsfeed.Server
	handler http.Handler

	lock     sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New opens the node's database and sets up both ledgers. Nothing is served
// until Start.
func New(config paperclipconfig.NodeConfig, objects objstore.Config) (*Node, error) {
	n := &Node{config: config, log: log.New("node", config.HTTPHost)}
	if config.DataDir == "" {
		n.db = memorydb.New()
		n.log.Info("Using in-memory database")
	} else {
		db, err := leveldb.New(filepath.Join(config.DataDir, "chaindata"), config.DatabaseCache, config.DatabaseHandles, false)
		if err != nil {
			return nil, err
		}
		n.db = db
	}

	program := account.NewProgram(account.DefaultProgramID)
	n.accountChain = core.NewChain(kvdb.NewTable(n.db, rawdb.AccountLedgerPrefix), core.Config{
		ChainID: config.AccountChainID,
		Ledger:  protocol.LedgerAccount,
	}, program)
	n.accountAPI = account.NewAPI(n.accountChain, program.ID())

	impl := contract.New()
	n.contractChain = core.NewChain(kvdb.NewTable(n.db, rawdb.ContractLedgerPrefix), core.Config{
		ChainID: config.ContractChainID,
		Ledger:  protocol.LedgerContract,
	}, impl)
	n.contractAPI = contract.NewAPI(n.contractChain, impl)

	var err error
	if objects.Backend == objstore.BackendLocal || objects.Backend == "" {
		n.objects, err = objstore.Open(objects, kvdb.NewTable(n.db, rawdb.ObjectStorePrefix))
	} else {
		n.objects, err = objstore.Open(objects, nil)
	}
	if err != nil {
		n.db.Close()
		return nil, err
	}

	n.rpc = rpc.NewServer()
	apis := append(account.APIs(n.accountAPI), contract.APIs(n.contractAPI)...)
	if err := n.rpc.RegisterAPIs(apis); err != nil {
		n.db.Close()
		return nil, err
	}
	n.rpc.SetRateLimit(contract.Namespace, rate.Limit(config.ContractRateLimit), config.ContractRateBurst)

	mux := http.NewServeMux()
	mux.Handle("/", rpc.NewHTTPHandler(n.rpc, config.CORSOrigins))
	objHandler := objstore.Handler(n.objects)
	mux.Handle("/objects/", objHandler)
	mux.Handle("/ipfs/", objHandler)
	n.events = wsfeed.NewServer(map[protocol.Ledger]wsfeed.Source{
		protocol.LedgerAccount:  n.accountChain.SubscribeEvents,
		protocol.LedgerContract: n.contractChain.SubscribeEvents,
	}, config.CORSOrigins)
	mux.Handle(wsfeed.Path, n.events)
	if config.Custodian {
		n.custodian = custodian.New(kvdb.NewTable(n.db, rawdb.CustodianPrefix))
		wallets := n.custodian.Handler(config.CORSOrigins)
		mux.Handle("/wallets", wallets)
		mux.Handle("/wallets/", wallets)
	}
	n.handler = mux
	return n, nil
}

// AccountAPI returns the in-process account ledger backend.
func (n *Node) AccountAPI() *account.API { return n.accountAPI }

// ContractAPI returns the in-process contract ledger backend.
func (n *Node) ContractAPI() *contract.API { return n.contractAPI }

// Objects returns the node's object store.
func (n *Node) Objects() objstore.Store { return n.objects }

// Handler returns the node's HTTP surface.
func (n *Node) Handler() http.Handler { return n.handler }

// Endpoint returns the address the node listens on, empty if not started.
func (n *Node) Endpoint() string {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.listener == nil {
		return ""
	}
	return "http://" + n.listener.Addr().String()
}

// Start begins serving HTTP and, when configured, bridging events to NATS.
func (n *Node) Start() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.server != nil {
		return ErrNodeRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	if n.config.NATSURL != "" {
		if err := n.startBridge(ctx); err != nil {
			cancel()
			return err
		}
	}
	addr := fmt.Sprintf("%s:%d", n.config.HTTPHost, n.config.HTTPPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		cancel()
		n.wg.Wait()
		return err
	}
	n.listener = listener
	n.cancel = cancel
	n.server = &http.Server{Handler: n.handler, ReadHeaderTimeout: 10 * time.Second}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			n.log.Error("HTTP server failed", "err", err)
		}
	}()
	n.log.Info("HTTP server started", "endpoint", "http://"+listener.Addr().String(), "cors", n.config.CORSOrigins)
	return nil
}

func (n *Node) startBridge(ctx context.Context) error {
	conn, err := natsbridge.Dial(n.config.NATSURL)
	if err != nil {
		return fmt.Errorf("nats: %v", err)
	}
	bridge := natsbridge.New(conn, n.config.NATSPrefix)
	for _, chain := range []*core.Chain{n.accountChain, n.contractChain} {
		sub := chain.SubscribeEvents(eventBuffer)
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			defer sub.Unsubscribe()
			bridge.Run(ctx, sub)
		}()
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		<-ctx.Done()
		conn.Drain()
	}()
	n.log.Info("Bridging events to NATS", "url", n.config.NATSURL, "prefix", n.config.NATSPrefix)
	return nil
}

// Stop shuts the node down. A stopped node cannot be restarted.
func (n *Node) Stop() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.events.Close()
	if n.server != nil {
		n.rpc.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		n.server.Shutdown(ctx)
		cancel()
	}
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()
	n.accountChain.Close()
	n.contractChain.Close()
	n.server, n.listener = nil, nil
	return n.db.Close()
}
