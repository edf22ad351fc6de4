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

package types

import (
	"errors"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

const (
	// ReceiptStatusFailed is the status code of a transaction if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of a transaction if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt is the outcome of one executed transaction. Failed instructions
// carry the protocol error code, or only a message for non-protocol failures.
type Receipt struct {
	TxHash  common.Hash      `json:"txHash"`
	Slot    uint64           `json:"slot"`
	Status  uint64           `json:"status"`
	ErrCode uint32           `json:"errCode,omitempty"`
	Err     string           `json:"err,omitempty"`
	Events  []protocol.Event `json:"events,omitempty"`
}

// Failed reports whether the instruction was rejected.
func (r *Receipt) Failed() bool {
	return r.Status != ReceiptStatusSuccessful
}

// Error maps a failed receipt back to its protocol sentinel.
func (r *Receipt) Error() error {
	if !r.Failed() {
		return nil
	}
	if perr := protocol.ErrorByCode(r.ErrCode); perr != nil {
		return perr
	}
	if r.Err == "" {
		return errors.New("transaction failed")
	}
	return errors.New(r.Err)
}
