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

import "github.com/paperclip-protocol/go-paperclip/common"

// stateObject is a cached storage entry. Absent keys are cached too, as deleted
// objects, so repeated existence checks hit the database once.
type stateObject struct {
	key     string
	value   []byte
	deleted bool
}

func newObject(key string, value []byte, exists bool) *stateObject {
	return &stateObject{key: key, value: value, deleted: !exists}
}

// Value returns a copy of the current value, nil when deleted.
func (s *stateObject) Value() []byte {
	if s.deleted {
		return nil
	}
	return common.CopyBytes(s.value)
}
