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

package contract

import (
	"context"

	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/state"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/rpc"
)

// Namespace is the RPC namespace contract ledger nodes serve.
const Namespace = "contract"

// Backend is the node surface adapters talk to, served in-process by API
// and remotely by Client.
type Backend interface {
	ChainID(ctx context.Context) (uint64, error)
	Call(ctx context.Context, data []byte) ([]byte, error)
	SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error)
}

// API serves a contract ledger.
type API struct {
	chain    *core.Chain
	contract *Contract
}

// NewAPI creates the service for a chain hosting contract.
func NewAPI(chain *core.Chain, contract *Contract) *API {
	return &API{chain: chain, contract: contract}
}

// APIs returns the RPC services of a contract ledger.
func APIs(api *API) []rpc.API {
	return []rpc.API{{Namespace: Namespace, Version: "1.0", Service: api, Public: true}}
}

func (api *API) ChainID(ctx context.Context) (uint64, error) {
	return api.chain.ChainID(), nil
}

// GetSlot returns the latest executed slot.
func (api *API) GetSlot(ctx context.Context) (uint64, error) {
	return api.chain.Slot(), nil
}

// Call executes a view function against the latest committed state.
func (api *API) Call(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return api.contract.Call(state.New(api.chain.State()), data)
}

// SendTransaction executes a signed call to a mutating function.
func (api *API) SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error) {
	return api.chain.SendTransaction(ctx, stx)
}
