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

package core

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/core/types"
)

// MaxTxDataSize bounds the instruction payload of a single transaction.
const MaxTxDataSize = 1024

// validateTx checks a transaction for intrinsic validity before execution and
// returns the recovered sender.
func (c *Chain) validateTx(stx *types.SignedTx) (*btcec.PublicKey, error) {
	if err := validateData(stx.Tx.Data); err != nil {
		return nil, err
	}
	return c.validateSender(stx)
}

func validateData(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyData
	}
	if len(data) > MaxTxDataSize {
		return ErrOversizedData
	}
	return nil
}

func (c *Chain) validateSender(stx *types.SignedTx) (*btcec.PublicKey, error) {
	return stx.Sender(c.config.ChainID)
}
