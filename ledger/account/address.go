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

package account

import (
	"encoding/binary"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/crypto"
)

// Address derivation seeds.
var (
	ProtocolSeed = []byte("protocol")
	AgentSeed    = []byte("agent")
	TaskSeed     = []byte("task")
	ClaimSeed    = []byte("claim")
	InviteSeed   = []byte("invite")
)

// DefaultProgramID is the program address used by devnet deployments.
var DefaultProgramID = common.Account(crypto.Keccak256Hash([]byte("paperclip-protocol/program")))

const derivedCacheSize = 4096

type derived struct {
	addr common.Account
	bump uint8
}

// Addresses derives the account addresses of protocol entities. Derivation
// searches bump seeds, so results are memoized.
type Addresses struct {
	program common.Account
	cache   *lru.ARCCache
}

// NewAddresses creates a deriver for the given program.
func NewAddresses(program common.Account) *Addresses {
	cache, _ := lru.NewARC(derivedCacheSize)
	return &Addresses{program: program, cache: cache}
}

// Program returns the program the addresses belong to.
func (a *Addresses) Program() common.Account { return a.program }

func (a *Addresses) find(seeds ...[]byte) (common.Account, uint8) {
	var key strings.Builder
	for _, s := range seeds {
		key.WriteByte(byte(len(s)))
		key.Write(s)
	}
	if v, ok := a.cache.Get(key.String()); ok {
		d := v.(derived)
		return d.addr, d.bump
	}
	addr, bump := crypto.FindProgramAddress(a.program, seeds...)
	a.cache.Add(key.String(), derived{addr, bump})
	return addr, bump
}

// TaskIDSeed encodes a task id for use as a seed.
func TaskIDSeed(id uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], id)
	return b[:]
}

// Protocol returns the singleton address.
func (a *Addresses) Protocol() (common.Account, uint8) {
	return a.find(ProtocolSeed)
}

// Agent returns the address of a wallet's agent account.
func (a *Addresses) Agent(wallet common.Account) (common.Account, uint8) {
	return a.find(AgentSeed, wallet[:])
}

// Task returns the address of a task record.
func (a *Addresses) Task(id uint32) (common.Account, uint8) {
	return a.find(TaskSeed, TaskIDSeed(id))
}

// Claim returns the address of the claim of agent on a task.
func (a *Addresses) Claim(id uint32, agent common.Account) (common.Account, uint8) {
	return a.find(ClaimSeed, TaskIDSeed(id), agent[:])
}

// Invite returns the address of an inviter's invite record.
func (a *Addresses) Invite(inviter common.Account) (common.Account, uint8) {
	return a.find(InviteSeed, inviter[:])
}
