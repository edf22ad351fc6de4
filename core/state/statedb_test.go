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

package state

import (
	"bytes"
	"errors"
	"testing"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

func TestSetGetCommit(t *testing.T) {
	db := memorydb.New()
	s := New(db)

	if s.Exist([]byte("a")) {
		t.Fatal("fresh state reports key as existing")
	}
	s.Set([]byte("a"), []byte("1"))
	if got := s.Get([]byte("a")); !bytes.Equal(got, []byte("1")) {
		t.Fatalf("get mismatch: have %q, want %q", got, "1")
	}
	if has, _ := db.Has([]byte("a")); has {
		t.Fatal("uncommitted write reached the database")
	}
	n, err := s.Commit()
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("commit wrote %d keys, want 1", n)
	}
	if v, err := db.Get([]byte("a")); err != nil || !bytes.Equal(v, []byte("1")) {
		t.Fatalf("committed value mismatch: %q %v", v, err)
	}
}

func TestSnapshotRevert(t *testing.T) {
	db := memorydb.New()
	db.Put([]byte("k"), []byte("orig"))
	s := New(db)

	outer := s.Snapshot()
	s.Set([]byte("k"), []byte("v1"))
	s.Set([]byte("n"), []byte("new"))

	inner := s.Snapshot()
	s.Delete([]byte("k"))
	if s.Exist([]byte("k")) {
		t.Fatal("deleted key still exists")
	}
	s.RevertToSnapshot(inner)
	if got := s.Get([]byte("k")); !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("inner revert: have %q, want %q", got, "v1")
	}
	s.RevertToSnapshot(outer)
	if got := s.Get([]byte("k")); !bytes.Equal(got, []byte("orig")) {
		t.Fatalf("outer revert: have %q, want %q", got, "orig")
	}
	if s.Exist([]byte("n")) {
		t.Fatal("reverted insert still visible")
	}
	n, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("fully reverted state wrote %d keys", n)
	}
	if db.Len() != 1 {
		t.Fatalf("database size changed: %d", db.Len())
	}
}

func TestDeleteCommit(t *testing.T) {
	db := memorydb.New()
	db.Put([]byte("gone"), []byte("x"))
	s := New(db)
	s.Delete([]byte("gone"))
	s.Delete([]byte("never"))
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get([]byte("gone")); err != kvdb.ErrNotFound {
		t.Fatalf("deleted key survived commit: %v", err)
	}
}

func TestStorageWords(t *testing.T) {
	s := New(memorydb.New())
	slot := common.BytesToHash([]byte{7})
	if s.GetState(slot) != (common.Hash{}) {
		t.Fatal("empty slot not zero")
	}
	s.SetState(slot, common.BytesToHash([]byte{1, 2}))
	if have := s.GetState(slot); have != common.BytesToHash([]byte{1, 2}) {
		t.Fatalf("slot mismatch: %x", have)
	}
	s.SetState(slot, common.Hash{})
	if s.Exist(slot[:]) {
		t.Fatal("zero write did not clear the slot")
	}
}

func TestEventsRevert(t *testing.T) {
	s := New(memorydb.New())
	s.AddEvent(protocol.Event{Kind: protocol.EventAgentRegistered})
	snap := s.Snapshot()
	s.AddEvent(protocol.Event{Kind: protocol.EventProofSubmitted})
	s.RevertToSnapshot(snap)
	if len(s.Events()) != 1 || s.Events()[0].Kind != protocol.EventAgentRegistered {
		t.Fatalf("unexpected events after revert: %v", s.Events())
	}
}

func TestInvalidRevision(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("reverting an unknown revision did not panic")
		}
	}()
	New(memorydb.New()).RevertToSnapshot(42)
}

type failingDB struct{ *memorydb.Database }

var errBroken = errors.New("broken disk")

func (failingDB) Get([]byte) ([]byte, error) { return nil, errBroken }

func TestReadErrorSurfacesOnCommit(t *testing.T) {
	s := New(failingDB{memorydb.New()})
	if s.Exist([]byte("k")) {
		t.Fatal("failed read reported as existing")
	}
	s.Set([]byte("k"), []byte("v"))
	if _, err := s.Commit(); !errors.Is(err, errBroken) {
		t.Fatalf("commit error mismatch: have %v, want %v", err, errBroken)
	}
}
