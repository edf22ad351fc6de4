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

// Package contract implements the contract-storage form of the Paperclip
// protocol. All entities live in mappings inside one contract's word storage,
// laid out the way a Solidity compiler would lay them out.
package contract

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core/state"
	"github.com/paperclip-protocol/go-paperclip/crypto"
)

// WordLength is the size of a storage and ABI word.
const WordLength = 32

// Storage slots of the contract's state variables. Mapping entries live at
// keccak256(key ++ slot); the task id array stores its length at slotTaskIDs
// and its elements from keccak256(slotTaskIDs).
const (
	slotInitialized uint64 = iota
	slotAuthority
	slotBaseRewardUnit
	slotTotalAgents
	slotTotalTasks
	slotTotalClips
	slotPaused
	slotLayoutVersion
	slotAgents  // mapping(address => Agent)
	slotTasks   // mapping(uint32 => Task)
	slotClaims  // mapping(bytes32 => Claim), keyed by ClaimKey
	slotInvites // mapping(address => Invite)
	slotTaskIDs // uint32[]
)

// Words occupied by each struct, declared fields plus a reserved gap so new
// fields can be appended without moving existing ones.
const (
	agentWords  = 32
	taskWords   = 48
	claimWords  = 24
	inviteWords = 24
)

var (
	errWordRange = errors.New("word exceeds field width")
	errShortData = errors.New("calldata too short")
)

func slotHash(n uint64) common.Hash {
	return common.Hash(uint256.NewInt(n).Bytes32())
}

// mappingSlot returns the location of a mapping entry.
func mappingSlot(key common.Hash, slot uint64) common.Hash {
	s := slotHash(slot)
	return crypto.Keccak256Hash(key[:], s[:])
}

// offsetSlot returns the i-th word after base.
func offsetSlot(base common.Hash, i uint64) common.Hash {
	v := new(uint256.Int).SetBytes32(base[:])
	v.AddUint64(v, i)
	return common.Hash(v.Bytes32())
}

// ClaimKey is the claims mapping key of a (task, agent) pair.
func ClaimKey(taskID uint32, agent common.Address) common.Hash {
	id := slotHash(uint64(taskID))
	return crypto.Keccak256Hash(id[:], agent.Hash().Bytes())
}

func agentSlot(wallet common.Address) common.Hash { return mappingSlot(wallet.Hash(), slotAgents) }
func taskSlot(id uint32) common.Hash              { return mappingSlot(slotHash(uint64(id)), slotTasks) }
func inviteSlot(wallet common.Address) common.Hash {
	return mappingSlot(wallet.Hash(), slotInvites)
}
func claimSlot(id uint32, agent common.Address) common.Hash {
	return mappingSlot(ClaimKey(id, agent), slotClaims)
}

// wordWriter appends ABI/storage words.
type wordWriter []common.Hash

func (w *wordWriter) uint(v uint64)  { *w = append(*w, slotHash(v)) }
func (w *wordWriter) int(v int64)    { w.uint(uint64(v)) }
func (w *wordWriter) raw(b [32]byte) { *w = append(*w, common.Hash(b)) }

func (w *wordWriter) address(a common.Address) {
	*w = append(*w, a.Hash())
}

func (w *wordWriter) boolean(b bool) {
	if b {
		w.uint(1)
	} else {
		w.uint(0)
	}
}

// bytes writes b right-padded over as many words as it needs.
func (w *wordWriter) bytes(b []byte) {
	for len(b) > 0 {
		var word common.Hash
		n := copy(word[:], b)
		*w = append(*w, word)
		b = b[n:]
	}
}

func (w wordWriter) encode() []byte {
	out := make([]byte, 0, len(w)*WordLength)
	for _, word := range w {
		out = append(out, word[:]...)
	}
	return out
}

// wordReader consumes words, failing sticky on the first short read or a
// value outside its declared width.
type wordReader struct {
	words []common.Hash
	err   error
}

func splitWords(data []byte) ([]common.Hash, error) {
	if len(data)%WordLength != 0 {
		return nil, errShortData
	}
	words := make([]common.Hash, len(data)/WordLength)
	for i := range words {
		copy(words[i][:], data[i*WordLength:])
	}
	return words, nil
}

func (r *wordReader) next() common.Hash {
	if r.err != nil {
		return common.Hash{}
	}
	if len(r.words) == 0 {
		r.err = errShortData
		return common.Hash{}
	}
	w := r.words[0]
	r.words = r.words[1:]
	return w
}

func (r *wordReader) uint(bits int) uint64 {
	w := r.next()
	v := new(uint256.Int).SetBytes32(w[:])
	if v.BitLen() > bits {
		if r.err == nil {
			r.err = errWordRange
		}
		return 0
	}
	return v.Uint64()
}

func (r *wordReader) int() int64 { return int64(r.uint(64)) }

func (r *wordReader) boolean() bool { return r.uint(1) == 1 }

func (r *wordReader) address() common.Address {
	w := r.next()
	for _, b := range w[:WordLength-common.AddressLength] {
		if b != 0 && r.err == nil {
			r.err = errWordRange
		}
	}
	return common.BytesToAddress(w[WordLength-common.AddressLength:])
}

func (r *wordReader) bytes(dst []byte) {
	for len(dst) > 0 {
		w := r.next()
		n := copy(dst, w[:])
		dst = dst[n:]
	}
}

// store reads and writes contract storage through the instruction's overlay.
type store struct {
	db *state.StateDB
}

func (s store) word(slot common.Hash) common.Hash { return s.db.GetState(slot) }

func (s store) setWord(slot common.Hash, v common.Hash) { s.db.SetState(slot, v) }

func (s store) uint(slot uint64) uint64 {
	w := s.word(slotHash(slot))
	return new(uint256.Int).SetBytes32(w[:]).Uint64()
}

func (s store) setUint(slot uint64, v uint64) { s.setWord(slotHash(slot), slotHash(v)) }

// readStruct loads n consecutive words starting at base.
func (s store) readStruct(base common.Hash, n int) *wordReader {
	words := make([]common.Hash, n)
	for i := range words {
		words[i] = s.word(offsetSlot(base, uint64(i)))
	}
	return &wordReader{words: words}
}

// writeStruct stores words consecutively from base.
func (s store) writeStruct(base common.Hash, words wordWriter) {
	for i, w := range words {
		s.setWord(offsetSlot(base, uint64(i)), w)
	}
}

// taskIDCount returns the length of the task id array.
func (s store) taskIDCount() uint64 { return s.uint(slotTaskIDs) }

func (s store) taskIDAt(i uint64) uint32 {
	base := crypto.Keccak256Hash(slotHash(slotTaskIDs).Bytes())
	w := s.word(offsetSlot(base, i))
	return uint32(new(uint256.Int).SetBytes32(w[:]).Uint64())
}

func (s store) pushTaskID(id uint32) {
	n := s.taskIDCount()
	base := crypto.Keccak256Hash(slotHash(slotTaskIDs).Bytes())
	s.setWord(offsetSlot(base, n), slotHash(uint64(id)))
	s.setUint(slotTaskIDs, n+1)
}
