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

// Package state provides a caching layer atop the ledger key-value store.
package state

import (
	"fmt"
	"sort"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

type revision struct {
	id           int
	journalIndex int
}

// StateDB is a journaled overlay over one ledger namespace. Instruction
// handlers read and write through it; nothing reaches the database until
// Commit, and everything since a snapshot can be undone with RevertToSnapshot.
type StateDB struct {
	db      kvdb.KeyValueStore
	objects map[string]*stateObject

	// DB error.
	// State objects are used by the instruction handlers which are unable to
	// deal with database-level errors. Any error that occurs during a database
	// read is memoized here and will eventually be returned by Commit.
	dbErr error

	// Events emitted by the current instruction, dropped on revert.
	events []protocol.Event

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

// New creates a new state overlay on top of the given store.
func New(db kvdb.KeyValueStore) *StateDB {
	return &StateDB{
		db:      db,
		objects: make(map[string]*stateObject),
		journal: newJournal(),
	}
}

// setError remembers the first non-nil error it is called with.
func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

// Error returns the memoized database failure, if any.
func (s *StateDB) Error() error {
	return s.dbErr
}

// getStateObject retrieves the cached object for key, loading it from the
// database on first access.
func (s *StateDB) getStateObject(key []byte) *stateObject {
	if obj := s.objects[string(key)]; obj != nil {
		return obj
	}
	value, err := s.db.Get(key)
	switch {
	case err == kvdb.ErrNotFound:
		value = nil
	case err != nil:
		s.setError(fmt.Errorf("state read %x: %w", key, err))
		value, err = nil, kvdb.ErrNotFound
	}
	obj := newObject(string(key), value, err == nil)
	s.objects[obj.key] = obj
	return obj
}

// Exist reports whether the given key holds a value.
func (s *StateDB) Exist(key []byte) bool {
	return !s.getStateObject(key).deleted
}

// Get retrieves a copy of the value stored under key, nil if absent.
func (s *StateDB) Get(key []byte) []byte {
	return s.getStateObject(key).Value()
}

// Set stores value under key.
func (s *StateDB) Set(key []byte, value []byte) {
	obj := s.getStateObject(key)
	s.journal.append(storageChange{
		key:        &obj.key,
		prev:       obj.value,
		prevExists: !obj.deleted,
	})
	obj.value, obj.deleted = common.CopyBytes(value), false
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *StateDB) Delete(key []byte) {
	obj := s.getStateObject(key)
	if obj.deleted {
		return
	}
	s.journal.append(storageChange{
		key:        &obj.key,
		prev:       obj.value,
		prevExists: true,
	})
	obj.value, obj.deleted = nil, true
}

// GetState retrieves a 32-byte storage word. Missing words read as zero.
func (s *StateDB) GetState(slot common.Hash) common.Hash {
	return common.BytesToHash(s.Get(slot[:]))
}

// SetState stores a 32-byte storage word. Writing zero clears the slot.
func (s *StateDB) SetState(slot, value common.Hash) {
	if value == (common.Hash{}) {
		s.Delete(slot[:])
		return
	}
	s.Set(slot[:], value[:])
}

// AddEvent records an event emitted by the running instruction.
func (s *StateDB) AddEvent(ev protocol.Event) {
	s.journal.append(eventChange{})
	s.events = append(s.events, ev)
}

// Events returns the events recorded since the last commit.
func (s *StateDB) Events() []protocol.Event {
	return s.events
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Finalise writes every dirty key into w and resets the journal. It returns
// the number of keys written. Callers batching other writes alongside the
// state use Finalise directly; everyone else uses Commit.
func (s *StateDB) Finalise(w kvdb.KeyValueWriter) (int, error) {
	if s.dbErr != nil {
		return 0, s.dbErr
	}
	keys := make([]string, 0, len(s.journal.dirties))
	for key := range s.journal.dirties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		obj := s.objects[key]
		if obj.deleted {
			if err := w.Delete([]byte(key)); err != nil {
				return 0, err
			}
			continue
		}
		if err := w.Put([]byte(key), obj.value); err != nil {
			return 0, err
		}
	}
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
	s.events = nil
	return len(keys), nil
}

// Commit flushes every dirty key to the database in a single batch.
func (s *StateDB) Commit() (int, error) {
	batch := s.db.NewBatch()
	n, err := s.Finalise(batch)
	if err != nil {
		return 0, err
	}
	if err := batch.Write(); err != nil {
		return 0, err
	}
	return n, nil
}
