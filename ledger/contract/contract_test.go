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
	"context"
	gomath "math"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/state"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

type harness struct {
	t     *testing.T
	api   *API
	chain *core.Chain
	nonce uint64
}

func newHarness(t *testing.T) *harness {
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	contract := New()
	chain := core.NewChain(memorydb.New(), core.Config{ChainID: 202, Ledger: protocol.LedgerContract, Clock: clock}, contract)
	return &harness{t: t, api: NewAPI(chain, contract), chain: chain}
}

func testKey(name string) *btcec.PrivateKey {
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte(name)))
	if err != nil {
		panic(err)
	}
	return key
}

func addrOf(key *btcec.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PubKey())
}

func (h *harness) send(key *btcec.PrivateKey, data []byte) error {
	h.t.Helper()
	h.nonce++
	stx, err := types.SignTx(types.Transaction{Nonce: h.nonce, Data: data}, h.chain.ChainID(), key)
	if err != nil {
		h.t.Fatal(err)
	}
	receipt, err := h.api.SendTransaction(context.Background(), stx)
	if err != nil {
		h.t.Fatalf("transaction not executed: %v", err)
	}
	return receipt.Error()
}

func (h *harness) mustSend(key *btcec.PrivateKey, data []byte) {
	h.t.Helper()
	if err := h.send(key, data); err != nil {
		m, _ := MethodByID(data)
		h.t.Fatalf("%s failed: %v", m.Name, err)
	}
}

func (h *harness) expect(key *btcec.PrivateKey, data []byte, want error) {
	h.t.Helper()
	if err := h.send(key, data); err != want {
		h.t.Fatalf("have error %v, want %v", err, want)
	}
}

func (h *harness) call(data []byte, rec interface{ Decode([]byte) error }) {
	h.t.Helper()
	ret, err := h.api.Call(context.Background(), data)
	if err != nil {
		h.t.Fatal(err)
	}
	if err := rec.Decode(ret); err != nil {
		h.t.Fatalf("decode: %v", err)
	}
}

func (h *harness) agent(key *btcec.PrivateKey) *AgentRecord {
	h.t.Helper()
	a := new(AgentRecord)
	h.call(PackGetAgent(addrOf(key)), a)
	return a
}

func (h *harness) task(id uint32) *TaskRecord {
	h.t.Helper()
	task := new(TaskRecord)
	h.call(PackGetTask(id), task)
	return task
}

func (h *harness) createTask(authority *btcec.PrivateKey, p protocol.TaskParams) {
	h.t.Helper()
	data, err := PackCreateTask(&p)
	if err != nil {
		h.t.Fatal(err)
	}
	h.mustSend(authority, data)
}

func (h *harness) submit(key *btcec.PrivateKey, id uint32) error {
	h.t.Helper()
	data, err := PackSubmitProof(id, "mock-proof")
	if err != nil {
		h.t.Fatal(err)
	}
	return h.send(key, data)
}

func u32(v uint32) *uint32 { return &v }

func TestSubmitScenario(t *testing.T) {
	h := newHarness(t)
	admin, alice := testKey("admin"), testKey("alice")

	h.mustSend(admin, PackInitialize(100))
	h.mustSend(alice, PackRegisterAgent())
	if bal := h.agent(alice).ClipsBalance; bal != 100 {
		t.Fatalf("balance after register: have %d, want 100", bal)
	}
	h.createTask(admin, protocol.TaskParams{TaskID: 1, Title: "first", ContentCID: "mock-1", RewardClips: 50, MaxClaims: 2})
	if err := h.submit(alice, 1); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if bal := h.agent(alice).ClipsBalance; bal != 150 {
		t.Fatalf("balance after submit: have %d, want 150", bal)
	}
	task := h.task(1)
	if task.CurrentClaims != 1 || protocol.DecodeTitle(task.Title[:]) != "first" {
		t.Fatalf("task mismatch: %+v", task)
	}
	claim := new(ClaimRecord)
	h.call(PackGetClaim(1, addrOf(alice)), claim)
	if !claim.Exists || claim.ClipsAwarded != 50 || claim.Agent != addrOf(alice) || protocol.DecodePointer(claim.ProofCID[:]) != "mock-proof" {
		t.Fatalf("claim mismatch: %+v", claim)
	}
	if err := h.submit(alice, 1); err != protocol.ErrAlreadyClaimed {
		t.Fatalf("second submit: have %v, want %v", err, protocol.ErrAlreadyClaimed)
	}
	if claims := h.task(1).CurrentClaims; claims != 1 {
		t.Fatalf("rejected claim counted: %d", claims)
	}
	proto := new(ProtocolState)
	h.call(PackGetProtocol(), proto)
	if proto.TotalAgents != 1 || proto.TotalTasks != 1 || proto.TotalClipsDistributed != 150 || proto.Authority != addrOf(admin) {
		t.Fatalf("protocol totals mismatch: %+v", proto)
	}
}

func TestInviteFlow(t *testing.T) {
	h := newHarness(t)
	admin, alice, bob := testKey("admin"), testKey("alice"), testKey("bob")
	h.mustSend(admin, PackInitialize(101))
	h.mustSend(alice, PackRegisterAgent())

	h.expect(bob, PackRegisterAgentWithInvite(addrOf(bob)), protocol.ErrSelfReferralNotAllowed)
	h.expect(bob, PackRegisterAgentWithInvite(addrOf(admin)), protocol.ErrAgentNotRegistered)
	h.expect(bob, PackRegisterAgentWithInvite(addrOf(alice)), protocol.ErrInvalidInviteCode)
	h.expect(bob, PackCreateInvite(), protocol.ErrAgentNotRegistered)

	h.mustSend(alice, PackCreateInvite())
	h.expect(alice, PackCreateInvite(), protocol.ErrInviteAlreadyExists)
	h.expect(alice, PackRegisterAgentWithInvite(addrOf(alice)), protocol.ErrSelfReferralNotAllowed)
	h.mustSend(bob, PackRegisterAgentWithInvite(addrOf(alice)))

	invitee := h.agent(bob)
	if invitee.ClipsBalance != 151 || invitee.InvitedBy != addrOf(alice) || invitee.InvitesRedeemed != 1 {
		t.Fatalf("invitee mismatch: %+v", invitee)
	}
	inviter := h.agent(alice)
	if inviter.ClipsBalance != 101+50 || inviter.InvitesSent != 1 {
		t.Fatalf("inviter mismatch: %+v", inviter)
	}
	invite := new(InviteRecord)
	h.call(PackGetInvite(addrOf(alice)), invite)
	if !invite.IsActive || invite.InvitesRedeemed != 1 {
		t.Fatalf("invite mismatch: %+v", invite)
	}
	h.expect(bob, PackRegisterAgentWithInvite(addrOf(alice)), protocol.ErrAgentAlreadyRegistered)
}

// overwrite stores rec at base outside of any transaction.
func (h *harness) overwrite(base common.Hash, rec record) {
	h.t.Helper()
	db := state.New(h.chain.State())
	x := &exec{store: store{db}}
	x.save(base, rec)
	if _, err := db.Commit(); err != nil {
		h.t.Fatal(err)
	}
}

func TestInactiveInvite(t *testing.T) {
	h := newHarness(t)
	admin, alice, bob := testKey("admin"), testKey("alice"), testKey("bob")
	h.mustSend(admin, PackInitialize(100))
	h.mustSend(alice, PackRegisterAgent())
	h.mustSend(alice, PackCreateInvite())

	invite := new(InviteRecord)
	h.call(PackGetInvite(addrOf(alice)), invite)
	invite.IsActive = false

	// A mismatching code is reported before the invite's state.
	forged := *invite
	forged.InviteCode = common.Hash{1}
	h.overwrite(inviteSlot(addrOf(alice)), &forged)
	h.expect(bob, PackRegisterAgentWithInvite(addrOf(alice)), protocol.ErrInvalidInviteCode)

	h.overwrite(inviteSlot(addrOf(alice)), invite)
	h.expect(bob, PackRegisterAgentWithInvite(addrOf(alice)), protocol.ErrInviteInactive)

	if h.agent(bob).Exists {
		t.Fatal("agent created through an inactive invite")
	}
	if inviter := h.agent(alice); inviter.ClipsBalance != 100 || inviter.InvitesSent != 0 {
		t.Fatalf("inviter changed: %+v", inviter)
	}
	h.call(PackGetInvite(addrOf(alice)), invite)
	if invite.IsActive || invite.InvitesRedeemed != 0 {
		t.Fatalf("invite changed: %+v", invite)
	}
}

func TestGating(t *testing.T) {
	h := newHarness(t)
	admin, alice, bob := testKey("admin"), testKey("alice"), testKey("bob")
	h.mustSend(admin, PackInitialize(10))
	h.mustSend(alice, PackRegisterAgent())
	h.mustSend(bob, PackRegisterAgent())

	h.expect(alice, PackDeactivateTask(1), protocol.ErrUnauthorized)
	h.expect(admin, PackDeactivateTask(1), protocol.ErrTaskNotFound)
	data, _ := PackCreateTask(&protocol.TaskParams{TaskID: 4, MaxClaims: 1, Prerequisite: u32(4)})
	h.expect(admin, data, protocol.ErrInvalidTaskPrerequisite)
	data, _ = PackCreateTask(&protocol.TaskParams{TaskID: 4, MaxClaims: 1})
	h.expect(alice, data, protocol.ErrUnauthorized)

	h.createTask(admin, protocol.TaskParams{TaskID: 1, RewardClips: 1, MaxClaims: 1})
	h.createTask(admin, protocol.TaskParams{TaskID: 2, RewardClips: 1, MaxClaims: 5, Prerequisite: u32(1)})
	h.createTask(admin, protocol.TaskParams{TaskID: 5, RewardClips: 1, MaxClaims: 5, MinTier: 1})
	dup, _ := PackCreateTask(&protocol.TaskParams{TaskID: 1, MaxClaims: 1})
	h.expect(admin, dup, protocol.ErrTaskAlreadyExists)

	if err := h.submit(alice, 5); err != protocol.ErrTierTooLow {
		t.Fatalf("have %v, want %v", err, protocol.ErrTierTooLow)
	}
	if err := h.submit(alice, 2); err != protocol.ErrMissingRequiredTaskProof {
		t.Fatalf("have %v, want %v", err, protocol.ErrMissingRequiredTaskProof)
	}
	if err := h.submit(alice, 1); err != nil {
		t.Fatal(err)
	}
	if err := h.submit(bob, 1); err != protocol.ErrTaskFullyClaimed {
		t.Fatalf("have %v, want %v", err, protocol.ErrTaskFullyClaimed)
	}
	if err := h.submit(alice, 2); err != nil {
		t.Fatalf("gated submit after prerequisite: %v", err)
	}
	h.mustSend(admin, PackDeactivateTask(2))
	if err := h.submit(bob, 2); err != protocol.ErrMissingRequiredTaskProof {
		t.Fatalf("prerequisite is checked before activity: have %v", err)
	}
	if err := h.submit(testKey("carol"), 2); err != protocol.ErrAgentNotRegistered {
		t.Fatalf("have %v, want %v", err, protocol.ErrAgentNotRegistered)
	}
	if err := h.submit(alice, 9); err != protocol.ErrTaskNotFound {
		t.Fatalf("have %v, want %v", err, protocol.ErrTaskNotFound)
	}
}

func TestOverflowRollsBack(t *testing.T) {
	h := newHarness(t)
	admin, alice, bob := testKey("admin"), testKey("alice"), testKey("bob")
	h.mustSend(admin, PackInitialize(gomath.MaxUint64))
	h.mustSend(alice, PackRegisterAgent())
	h.expect(bob, PackRegisterAgent(), protocol.ErrMathOverflow)
	if h.agent(bob).Exists {
		t.Fatal("agent created by overflowing instruction")
	}
	h.mustSend(alice, PackCreateInvite())
	h.expect(bob, PackRegisterAgentWithInvite(addrOf(alice)), protocol.ErrMathOverflow)

	proto := new(ProtocolState)
	h.call(PackGetProtocol(), proto)
	if proto.TotalAgents != 1 || proto.TotalClipsDistributed != gomath.MaxUint64 {
		t.Fatalf("protocol changed by rejected instructions: %+v", proto)
	}
}

func TestViews(t *testing.T) {
	h := newHarness(t)
	admin, alice := testKey("admin"), testKey("alice")
	h.mustSend(admin, PackInitialize(10))
	h.mustSend(alice, PackRegisterAgent())
	for _, id := range []uint32{7, 3, 9} {
		h.createTask(admin, protocol.TaskParams{TaskID: id, RewardClips: 1, MaxClaims: 5})
	}
	h.createTask(admin, protocol.TaskParams{TaskID: 4, RewardClips: 1, MaxClaims: 5, Prerequisite: u32(3)})
	h.mustSend(admin, PackDeactivateTask(9))
	if err := h.submit(alice, 7); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	ret, err := h.api.Call(ctx, PackTaskCount())
	if err != nil {
		t.Fatal(err)
	}
	if n, err := UnpackUint(ret, 64); err != nil || n != 4 {
		t.Fatalf("task count: have %d (%v), want 4", n, err)
	}
	ret, _ = h.api.Call(ctx, PackTaskIDAt(1))
	if id, _ := UnpackUint(ret, 32); id != 3 {
		t.Fatalf("task id at 1: have %d, want 3", id)
	}
	if _, err := h.api.Call(ctx, PackTaskIDAt(4)); err != protocol.ErrTaskNotFound {
		t.Fatalf("out of range index: have %v", err)
	}
	ret, _ = h.api.Call(ctx, PackHasClaimed(7, addrOf(alice)))
	if ok, _ := UnpackBool(ret); !ok {
		t.Fatal("claim on 7 not reported")
	}
	ret, err = h.api.Call(ctx, PackGetDoableTasks(addrOf(alice)))
	if err != nil {
		t.Fatal(err)
	}
	ids, err := UnpackUint32s(ret)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("doable tasks: have %v, want [3]", ids)
	}
	if _, err := h.api.Call(ctx, PackGetDoableTasks(addrOf(admin))); err != protocol.ErrAgentNotRegistered {
		t.Fatalf("doable for unregistered agent: have %v", err)
	}
	if _, err := h.api.Call(ctx, PackRegisterAgent()); err == nil {
		t.Fatal("mutating function accepted as a view")
	}
	h.expect(alice, PackGetProtocol(), protocol.ErrInvalidInstruction)
}

func TestMalformedCalldata(t *testing.T) {
	h := newHarness(t)
	admin := testKey("admin")
	h.expect(admin, []byte{1, 2}, protocol.ErrInvalidInstruction)
	h.expect(admin, []byte{1, 2, 3, 4}, protocol.ErrInvalidInstruction)

	// Value wider than the uint64 argument
	data := append(MethodInitialize.ID[:], make([]byte, WordLength)...)
	data[SelectorLength] = 1
	h.expect(admin, data, protocol.ErrInvalidInstruction)

	// Trailing words
	h.expect(admin, append(PackInitialize(1), make([]byte, WordLength)...), protocol.ErrInvalidInstruction)
	h.mustSend(admin, PackInitialize(1))
}

func TestStructsFitSlots(t *testing.T) {
	tests := []struct {
		rec   record
		words int
	}{
		{&ProtocolState{}, int(protocolWords)},
		{&AgentRecord{}, agentWords},
		{&TaskRecord{}, taskWords},
		{&ClaimRecord{}, claimWords},
		{&InviteRecord{}, inviteWords},
	}
	for _, tt := range tests {
		var w wordWriter
		tt.rec.put(&w)
		if len(w) > tt.words {
			t.Errorf("%T: %d words overflow the %d reserved", tt.rec, len(w), tt.words)
		}
	}
	if claimSlot(1, common.Address{1}) == claimSlot(1, common.Address{2}) {
		t.Fatal("claim slots collide")
	}
	if a, b := offsetSlot(slotHash(0), 7), slotHash(slotLayoutVersion); a != b {
		t.Fatalf("offset slot: have %x, want %x", a, b)
	}
}
