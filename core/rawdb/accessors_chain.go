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

package rawdb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
	"github.com/paperclip-protocol/go-paperclip/log"
)

// ReadLastSlot retrieves the slot of the latest executed transaction, zero on
// a fresh ledger.
func ReadLastSlot(db kvdb.KeyValueReader) uint64 {
	data, _ := db.Get(lastSlotKey)
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

// WriteLastSlot stores the slot of the latest executed transaction.
func WriteLastSlot(db kvdb.KeyValueWriter, slot uint64) {
	var enc [8]byte
	binary.BigEndian.PutUint64(enc[:], slot)
	if err := db.Put(lastSlotKey, enc[:]); err != nil {
		log.Crit("Failed to store last slot", "err", err)
	}
}

// ReadReceipt retrieves the receipt of a transaction, nil if unknown.
func ReadReceipt(db kvdb.KeyValueReader, hash common.Hash) *types.Receipt {
	data, _ := db.Get(receiptKey(hash))
	if len(data) == 0 {
		return nil
	}
	receipt := new(types.Receipt)
	if err := json.Unmarshal(data, receipt); err != nil {
		log.Error("Invalid receipt JSON", "hash", hash, "err", err)
		return nil
	}
	return receipt
}

// WriteReceipt stores the receipt of an executed transaction.
func WriteReceipt(db kvdb.KeyValueWriter, receipt *types.Receipt) {
	data, err := json.Marshal(receipt)
	if err != nil {
		log.Crit("Failed to encode receipt", "err", err)
	}
	if err := db.Put(receiptKey(receipt.TxHash), data); err != nil {
		log.Crit("Failed to store receipt", "err", err)
	}
}
