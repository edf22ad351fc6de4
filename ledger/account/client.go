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

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/rpc"
)

// Namespace is the RPC namespace account ledger nodes serve.
const Namespace = "account"

// APIs returns the RPC services of an account ledger.
func APIs(api *API) []rpc.API {
	return []rpc.API{{Namespace: Namespace, Version: "1.0", Service: api, Public: true}}
}

// Client is a Backend reached over RPC.
type Client struct {
	c *rpc.Client
}

// NewClient creates a client that uses the given RPC client.
func NewClient(c *rpc.Client) *Client {
	return &Client{c}
}

// Dial connects a client to the given URL.
func Dial(rawurl string) (*Client, error) {
	c, err := rpc.DialHTTP(rawurl)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// Close releases the underlying connection.
func (ac *Client) Close() { ac.c.Close() }

func (ac *Client) ChainID(ctx context.Context) (uint64, error) {
	var id uint64
	err := ac.c.Call(ctx, &id, Namespace+"_chainID")
	return id, err
}

func (ac *Client) ProgramID(ctx context.Context) (common.Account, error) {
	var id common.Account
	err := ac.c.Call(ctx, &id, Namespace+"_programID")
	return id, err
}

// GetSlot returns the latest executed slot.
func (ac *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := ac.c.Call(ctx, &slot, Namespace+"_getSlot")
	return slot, err
}

func (ac *Client) GetAccountInfo(ctx context.Context, addr common.Account) ([]byte, error) {
	var data []byte
	err := ac.c.Call(ctx, &data, Namespace+"_getAccountInfo", addr)
	return data, err
}

func (ac *Client) GetMultipleAccounts(ctx context.Context, addrs []common.Account) ([][]byte, error) {
	var data [][]byte
	err := ac.c.Call(ctx, &data, Namespace+"_getMultipleAccounts", addrs)
	return data, err
}

func (ac *Client) GetProgramAccounts(ctx context.Context, filters []Filter) ([]KeyedAccount, error) {
	var accounts []KeyedAccount
	err := ac.c.Call(ctx, &accounts, Namespace+"_getProgramAccounts", filters)
	return accounts, err
}

func (ac *Client) SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := ac.c.Call(ctx, &receipt, Namespace+"_sendTransaction", stx); err != nil {
		return nil, err
	}
	return receipt, nil
}
