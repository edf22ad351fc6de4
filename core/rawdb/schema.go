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

// Package rawdb contains a collection of low level ledger metadata accessors.
package rawdb

import "github.com/paperclip-protocol/go-paperclip/common"

// The fields below define the low level database schema prefixing.
var (
	// lastSlotKey tracks the slot of the latest executed transaction.
	lastSlotKey = []byte("LastSlot")

	// StatePrefix namespaces program state within a ledger database.
	StatePrefix = "s-"

	receiptPrefix = []byte("r-") // receiptPrefix + txHash -> receipt
)

// Node level namespaces. Each ledger form gets its own, so the two never see
// each other's state.
const (
	AccountLedgerPrefix  = "A-"
	ContractLedgerPrefix = "C-"
	CustodianPrefix      = "W-"
	ObjectStorePrefix    = "O-"
)

// receiptKey = receiptPrefix + hash
func receiptKey(hash common.Hash) []byte {
	return append(append([]byte{}, receiptPrefix...), hash.Bytes()...)
}
