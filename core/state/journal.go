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

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*StateDB)

	// dirtied returns the storage key modified by this journal entry.
	dirtied() *string
}

// journal contains the list of state modifications applied since the last state
// commit. These are tracked to be able to be reverted in case of an execution
// exception or revertal request.
type journal struct {
	entries []journalEntry // Current changes tracked by the journal
	dirties map[string]int // Dirty keys and the number of changes
}

// newJournal create a new initialized journal.
func newJournal() *journal {
	return &journal{
		dirties: make(map[string]int),
	}
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
	if key := entry.dirtied(); key != nil {
		j.dirties[*key]++
	}
}

// revert undoes a batch of journalled modifications along with any reverted
// dirty handling too.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		// Undo the changes made by the operation
		j.entries[i].revert(statedb)

		// Drop any dirty tracking induced by the change
		if key := j.entries[i].dirtied(); key != nil {
			if j.dirties[*key]--; j.dirties[*key] == 0 {
				delete(j.dirties, *key)
			}
		}
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	// Changes to a single storage key.
	storageChange struct {
		key        *string
		prev       []byte
		prevExists bool
	}
	// Changes to other state values.
	eventChange struct{}
)

func (ch storageChange) revert(s *StateDB) {
	obj := s.objects[*ch.key]
	obj.value, obj.deleted = ch.prev, !ch.prevExists
}

func (ch storageChange) dirtied() *string {
	return ch.key
}

func (ch eventChange) revert(s *StateDB) {
	s.events = s.events[:len(s.events)-1]
}

func (ch eventChange) dirtied() *string {
	return nil
}
