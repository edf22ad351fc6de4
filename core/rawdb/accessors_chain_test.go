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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

func TestLastSlot(t *testing.T) {
	db := memorydb.New()
	if slot := ReadLastSlot(db); slot != 0 {
		t.Fatalf("fresh slot: have %d, want 0", slot)
	}
	WriteLastSlot(db, 42)
	if slot := ReadLastSlot(db); slot != 42 {
		t.Fatalf("slot mismatch: have %d, want 42", slot)
	}
}

func TestReceiptStorage(t *testing.T) {
	db := memorydb.New()
	hash := common.BytesToHash([]byte{0xaa})
	if r := ReadReceipt(db, hash); r != nil {
		t.Fatalf("non existent receipt returned: %v", r)
	}
	id := uint32(1)
	want := &types.Receipt{
		TxHash: hash,
		Slot:   3,
		Status: types.ReceiptStatusSuccessful,
		Events: []protocol.Event{{Kind: protocol.EventProofSubmitted, TaskID: &id, Amount: 50}},
	}
	WriteReceipt(db, want)
	if diff := cmp.Diff(want, ReadReceipt(db, hash)); diff != "" {
		t.Fatalf("receipt mismatch (-want +got):\n%s", diff)
	}
}
