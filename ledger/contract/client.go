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

	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/rpc"
)

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
func (cc *Client) Close() { cc.c.Close() }

func (cc *Client) ChainID(ctx context.Context) (uint64, error) {
	var id uint64
	err := cc.c.Call(ctx, &id, Namespace+"_chainID")
	return id, err
}

// GetSlot returns the latest executed slot.
func (cc *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := cc.c.Call(ctx, &slot, Namespace+"_getSlot")
	return slot, err
}

func (cc *Client) Call(ctx context.Context, data []byte) ([]byte, error) {
	var ret []byte
	err := cc.c.Call(ctx, &ret, Namespace+"_call", data)
	return ret, err
}

func (cc *Client) SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := cc.c.Call(ctx, &receipt, Namespace+"_sendTransaction", stx); err != nil {
		return nil, err
	}
	return receipt, nil
}
