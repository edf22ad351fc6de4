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

package contract

import (
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// SelectorLength is the size of a function selector.
const SelectorLength = 4

// Selector identifies a contract function: the first four bytes of the
// keccak256 hash of its canonical signature.
type Selector [SelectorLength]byte

// Method is a contract function.
type Method struct {
	Name     string
	Sig      string
	ID       Selector
	Mutating bool
}

var methods = make(map[Selector]*Method)

func newMethod(name, sig string, mutating bool) *Method {
	m := &Method{Name: name, Sig: sig, Mutating: mutating}
	copy(m.ID[:], crypto.Keccak256([]byte(sig)))
	if _, dup := methods[m.ID]; dup {
		panic("duplicate selector " + sig)
	}
	methods[m.ID] = m
	return m
}

// Contract functions. Mutating functions carry the protocol instruction name.
var (
	MethodInitialize              = newMethod(protocol.InstrInitialize, "initialize(uint64)", true)
	MethodRegisterAgent           = newMethod(protocol.InstrRegisterAgent, "registerAgent()", true)
	MethodRegisterAgentWithInvite = newMethod(protocol.InstrRegisterAgentWithInvite, "registerAgentWithInvite(address)", true)
	MethodCreateInvite            = newMethod(protocol.InstrCreateInvite, "createInvite()", true)
	MethodCreateTask              = newMethod(protocol.InstrCreateTask, "createTask(uint32,bytes32,bytes32[2],uint64,uint16,uint8,uint32)", true)
	MethodDeactivateTask          = newMethod(protocol.InstrDeactivateTask, "deactivateTask(uint32)", true)
	MethodSubmitProof             = newMethod(protocol.InstrSubmitProof, "submitProof(uint32,bytes32[2])", true)

	MethodGetProtocol    = newMethod("getProtocol", "getProtocol()", false)
	MethodGetAgent       = newMethod("getAgent", "getAgent(address)", false)
	MethodGetTask        = newMethod("getTask", "getTask(uint32)", false)
	MethodGetClaim       = newMethod("getClaim", "getClaim(uint32,address)", false)
	MethodHasClaimed     = newMethod("hasClaimed", "hasClaimed(uint32,address)", false)
	MethodGetInvite      = newMethod("getInvite", "getInvite(address)", false)
	MethodTaskCount      = newMethod("taskCount", "taskCount()", false)
	MethodTaskIDAt       = newMethod("taskIdAt", "taskIdAt(uint256)", false)
	MethodGetDoableTasks = newMethod("getDoableTasks", "getDoableTasks(address)", false)
)

// MethodByID looks up the function a calldata selector refers to.
func MethodByID(data []byte) (*Method, error) {
	if len(data) < SelectorLength {
		return nil, fmt.Errorf("%w: calldata of %d bytes", protocol.ErrInvalidInstruction, len(data))
	}
	var id Selector
	copy(id[:], data)
	m := methods[id]
	if m == nil {
		return nil, fmt.Errorf("%w: unknown selector %x", protocol.ErrInvalidInstruction, id)
	}
	return m, nil
}

func (m *Method) pack(args wordWriter) []byte {
	return append(m.ID[:], args.encode()...)
}

// PackInitialize encodes initialize(base).
func PackInitialize(base uint64) []byte {
	var w wordWriter
	w.uint(base)
	return MethodInitialize.pack(w)
}

func PackRegisterAgent() []byte { return MethodRegisterAgent.pack(nil) }

func PackRegisterAgentWithInvite(inviter common.Address) []byte {
	var w wordWriter
	w.address(inviter)
	return MethodRegisterAgentWithInvite.pack(w)
}

func PackCreateInvite() []byte { return MethodCreateInvite.pack(nil) }

// PackCreateTask encodes create_task. Titles and pointers that do not fit
// their fixed widths are rejected before reaching the ledger.
func PackCreateTask(p *protocol.TaskParams) ([]byte, error) {
	title, err := protocol.EncodeTitle(p.Title)
	if err != nil {
		return nil, err
	}
	content, err := protocol.EncodePointer(p.ContentCID)
	if err != nil {
		return nil, err
	}
	var w wordWriter
	w.uint(uint64(p.TaskID))
	w.bytes(title[:])
	w.bytes(content[:])
	w.uint(p.RewardClips)
	w.uint(uint64(p.MaxClaims))
	w.uint(uint64(p.MinTier))
	w.uint(uint64(protocol.PrerequisiteToWire(p.Prerequisite)))
	return MethodCreateTask.pack(w), nil
}

func PackDeactivateTask(id uint32) []byte {
	var w wordWriter
	w.uint(uint64(id))
	return MethodDeactivateTask.pack(w)
}

func PackSubmitProof(id uint32, proof string) ([]byte, error) {
	ptr, err := protocol.EncodePointer(proof)
	if err != nil {
		return nil, err
	}
	var w wordWriter
	w.uint(uint64(id))
	w.bytes(ptr[:])
	return MethodSubmitProof.pack(w), nil
}

func PackGetProtocol() []byte { return MethodGetProtocol.pack(nil) }

func PackGetAgent(wallet common.Address) []byte {
	var w wordWriter
	w.address(wallet)
	return MethodGetAgent.pack(w)
}

func PackGetTask(id uint32) []byte {
	var w wordWriter
	w.uint(uint64(id))
	return MethodGetTask.pack(w)
}

func PackGetClaim(id uint32, agent common.Address) []byte {
	var w wordWriter
	w.uint(uint64(id))
	w.address(agent)
	return MethodGetClaim.pack(w)
}

func PackHasClaimed(id uint32, agent common.Address) []byte {
	var w wordWriter
	w.uint(uint64(id))
	w.address(agent)
	return MethodHasClaimed.pack(w)
}

func PackGetInvite(inviter common.Address) []byte {
	var w wordWriter
	w.address(inviter)
	return MethodGetInvite.pack(w)
}

func PackTaskCount() []byte { return MethodTaskCount.pack(nil) }

func PackTaskIDAt(i uint64) []byte {
	var w wordWriter
	w.uint(i)
	return MethodTaskIDAt.pack(w)
}

func PackGetDoableTasks(wallet common.Address) []byte {
	var w wordWriter
	w.address(wallet)
	return MethodGetDoableTasks.pack(w)
}

// UnpackUint decodes a single unsigned return word of the given bit width.
func UnpackUint(ret []byte, bits int) (uint64, error) {
	words, err := splitWords(ret)
	if err != nil {
		return 0, err
	}
	r := &wordReader{words: words}
	v := r.uint(bits)
	return v, r.err
}

// UnpackBool decodes a single boolean return word.
func UnpackBool(ret []byte) (bool, error) {
	v, err := UnpackUint(ret, 1)
	return v == 1, err
}

// UnpackUint32s decodes a dynamic uint32[] return value.
func UnpackUint32s(ret []byte) ([]uint32, error) {
	words, err := splitWords(ret)
	if err != nil {
		return nil, err
	}
	r := &wordReader{words: words}
	if offset := r.uint(64); r.err == nil && offset != WordLength {
		return nil, fmt.Errorf("unexpected array offset %d", offset)
	}
	n := r.uint(32)
	if r.err == nil && uint64(len(r.words)) != n {
		return nil, errShortData
	}
	out := make([]uint32, 0, n)
	for i := uint64(0); i < n && r.err == nil; i++ {
		out = append(out, uint32(r.uint(32)))
	}
	return out, r.err
}

func packUint32s(ids []uint32) []byte {
	var w wordWriter
	w.uint(WordLength)
	w.uint(uint64(len(ids)))
	for _, id := range ids {
		w.uint(uint64(id))
	}
	return w.encode()
}
