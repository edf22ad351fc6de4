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
	"bytes"
	"context"
	"errors"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
)

// MaxMultipleAccounts bounds one GetMultipleAccounts request.
const MaxMultipleAccounts = 100

var errTooManyAccounts = errors.New("too many accounts requested")

// Memcmp matches account data holding Bytes at Offset.
type Memcmp struct {
	Offset int    `json:"offset"`
	Bytes  []byte `json:"bytes"`
}

// Filter narrows a program account scan. Set exactly one field.
type Filter struct {
	DataSize int     `json:"dataSize,omitempty"`
	Memcmp   *Memcmp `json:"memcmp,omitempty"`
}

func (f Filter) match(data []byte) bool {
	if f.DataSize != 0 && len(data) != f.DataSize {
		return false
	}
	if m := f.Memcmp; m != nil {
		if m.Offset < 0 || m.Offset+len(m.Bytes) > len(data) {
			return false
		}
		return bytes.Equal(data[m.Offset:m.Offset+len(m.Bytes)], m.Bytes)
	}
	return true
}

// KeyedAccount is an account address with its data.
type KeyedAccount struct {
	Pubkey common.Account `json:"pubkey"`
	Data   []byte         `json:"data"`
}

// Backend is the node surface adapters talk to, served in-process by API
// and remotely by Client.
type Backend interface {
	ChainID(ctx context.Context) (uint64, error)
	ProgramID(ctx context.Context) (common.Account, error)
	GetAccountInfo(ctx context.Context, addr common.Account) ([]byte, error)
	GetMultipleAccounts(ctx context.Context, addrs []common.Account) ([][]byte, error)
	GetProgramAccounts(ctx context.Context, filters []Filter) ([]KeyedAccount, error)
	SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error)
}

// API serves an account ledger.
type API struct {
	chain   *core.Chain
	program common.Account
}

// NewAPI creates the service for a chain running the program at id.
func NewAPI(chain *core.Chain, id common.Account) *API {
	return &API{chain: chain, program: id}
}

// ChainID returns the id signatures must commit to.
func (api *API) ChainID(ctx context.Context) (uint64, error) {
	return api.chain.ChainID(), nil
}

// ProgramID returns the address of the protocol program.
func (api *API) ProgramID(ctx context.Context) (common.Account, error) {
	return api.program, nil
}

// GetSlot returns the latest executed slot.
func (api *API) GetSlot(ctx context.Context) (uint64, error) {
	return api.chain.Slot(), nil
}

// GetAccountInfo returns the data of an account, nil if it does not exist.
func (api *API) GetAccountInfo(ctx context.Context, addr common.Account) ([]byte, error) {
	data, err := api.chain.State().Get(addr[:])
	if err == kvdb.ErrNotFound {
		return nil, nil
	}
	return data, err
}

// GetMultipleAccounts returns the data of several accounts in request order,
// nil entries for missing accounts.
func (api *API) GetMultipleAccounts(ctx context.Context, addrs []common.Account) ([][]byte, error) {
	if len(addrs) > MaxMultipleAccounts {
		return nil, errTooManyAccounts
	}
	out := make([][]byte, len(addrs))
	for i, addr := range addrs {
		data, err := api.GetAccountInfo(ctx, addr)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

// GetProgramAccounts scans every program account and returns those matching
// all filters.
func (api *API) GetProgramAccounts(ctx context.Context, filters []Filter) ([]KeyedAccount, error) {
	it := api.chain.State().NewIterator(nil, nil)
	defer it.Release()

	var out []KeyedAccount
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(it.Key()) != common.AccountLength {
			continue
		}
		data := it.Value()
		matched := true
		for _, f := range filters {
			if !f.match(data) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, KeyedAccount{
				Pubkey: common.BytesToAccount(it.Key()),
				Data:   common.CopyBytes(data),
			})
		}
	}
	return out, it.Error()
}

// SendTransaction executes a signed instruction.
func (api *API) SendTransaction(ctx context.Context, stx *types.SignedTx) (*types.Receipt, error) {
	return api.chain.SendTransaction(ctx, stx)
}
