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
	"context"
	gomath "math"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/types"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

type harness struct {
	t     *testing.T
	api   *API
	addrs *Addresses
	chain *core.Chain
	nonce uint64
}

func newHarness(t *testing.T) *harness {
	prog := NewProgram(DefaultProgramID)
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	chain := core.NewChain(memorydb.New(), core.Config{ChainID: 101, Ledger: protocol.LedgerAccount, Clock: clock}, prog)
	return &harness{t: t, api: NewAPI(chain, prog.ID()), addrs: NewAddresses(prog.ID()), chain: chain}
}

func testKey(name string) *btcec.PrivateKey {
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte(name)))
	if err != nil {
		panic(err)
	}
	return key
}

func walletOf(key *btcec.PrivateKey) common.Account {
	return crypto.PubkeyToAccount(key.PubKey())
}

func (h *harness) send(key *btcec.PrivateKey, ix *Instruction) error {
	h.t.Helper()
	h.nonce++
	stx, err := types.SignTx(types.Transaction{Nonce: h.nonce, Data: ix.Encode()}, h.chain.ChainID(), key)
	if err != nil {
		h.t.Fatal(err)
	}
	receipt, err := h.api.SendTransaction(context.Background(), stx)
	if err != nil {
		h.t.Fatalf("transaction not executed: %v", err)
	}
	return receipt.Error()
}

func (h *harness) mustSend(key *btcec.PrivateKey, ix *Instruction) {
	h.t.Helper()
	if err := h.send(key, ix); err != nil {
		h.t.Fatalf("%s failed: %v", ix.Name(), err)
	}
}

func (h *harness) expect(key *btcec.PrivateKey, ix *Instruction, want error) {
	h.t.Helper()
	if err := h.send(key, ix); err != want {
		h.t.Fatalf("%s: have error %v, want %v", ix.Name(), err, want)
	}
}

func (h *harness) read(addr common.Account, rec record) bool {
	h.t.Helper()
	data, err := h.api.GetAccountInfo(context.Background(), addr)
	if err != nil {
		h.t.Fatal(err)
	}
	if data == nil {
		return false
	}
	if err := rec.Decode(data); err != nil {
		h.t.Fatalf("decode %x: %v", addr, err)
	}
	return true
}

func (h *harness) agent(key *btcec.PrivateKey) *AgentAccount {
	h.t.Helper()
	addr, _ := h.addrs.Agent(walletOf(key))
	a := new(AgentAccount)
	if !h.read(addr, a) {
		h.t.Fatalf("agent %s missing", walletOf(key).TerminalString())
	}
	return a
}

func (h *harness) task(id uint32) *TaskRecord {
	h.t.Helper()
	addr, _ := h.addrs.Task(id)
	task := new(TaskRecord)
	if !h.read(addr, task) {
		h.t.Fatalf("task %d missing", id)
	}
	return task
}

func (h *harness) createTask(authority *btcec.PrivateKey, p protocol.TaskParams) {
	h.t.Helper()
	ix, err := NewCreateTask(h.addrs, &p)
	if err != nil {
		h.t.Fatal(err)
	}
	h.mustSend(authority, ix)
}

func (h *harness) submit(key *btcec.PrivateKey, id uint32, prereq *uint32) error {
	h.t.Helper()
	ix, err := NewSubmitProof(h.addrs, walletOf(key), id, "mock-proof", prereq)
	if err != nil {
		h.t.Fatal(err)
	}
	return h.send(key, ix)
}

func u32(v uint32) *uint32 { return &v }

func TestSubmitScenario(t *testing.T) {
	h := newHarness(t)
	admin, alice := testKey("admin"), testKey("alice")

	h.mustSend(admin, NewInitialize(h.addrs, 100))
	h.mustSend(alice, NewRegisterAgent(h.addrs, walletOf(alice)))
	if bal := h.agent(alice).ClipsBalance; bal != 100 {
		t.Fatalf("balance after register: have %d, want 100", bal)
	}
	h.createTask(admin, protocol.TaskParams{TaskID: 1, Title: "first", ContentCID: "mock-1", RewardClips: 50, MaxClaims: 2})
	if err := h.submit(alice, 1, nil); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if bal := h.agent(alice).ClipsBalance; bal != 150 {
		t.Fatalf("balance after submit: have %d, want 150", bal)
	}
	if claims := h.task(1).CurrentClaims; claims != 1 {
		t.Fatalf("current claims: have %d, want 1", claims)
	}
	claimAddr, _ := h.addrs.Claim(1, walletOf(alice))
	claim := new(ClaimRecord)
	if !h.read(claimAddr, claim) {
		t.Fatal("claim account missing")
	}
	if claim.ClipsAwarded != 50 || claim.Agent != walletOf(alice) || protocol.DecodePointer(claim.ProofCID[:]) != "mock-proof" {
		t.Fatalf("claim mismatch: %+v", claim)
	}
	if err := h.submit(alice, 1, nil); err != protocol.ErrAlreadyClaimed {
		t.Fatalf("second submit: have %v, want %v", err, protocol.ErrAlreadyClaimed)
	}
	if claims := h.task(1).CurrentClaims; claims != 1 {
		t.Fatalf("rejected claim counted: %d", claims)
	}
	proto := new(ProtocolState)
	protoAddr, _ := h.addrs.Protocol()
	h.read(protoAddr, proto)
	if proto.TotalAgents != 1 || proto.TotalTasks != 1 || proto.TotalClipsDistributed != 150 {
		t.Fatalf("protocol totals mismatch: %+v", proto)
	}
}

func TestPrerequisiteAccounts(t *testing.T) {
	h := newHarness(t)
	admin, alice := testKey("admin"), testKey("alice")
	h.mustSend(admin, NewInitialize(h.addrs, 10))
	h.mustSend(alice, NewRegisterAgent(h.addrs, walletOf(alice)))
	h.createTask(admin, protocol.TaskParams{TaskID: 1, RewardClips: 1, MaxClaims: 5})
	h.createTask(admin, protocol.TaskParams{TaskID: 2, RewardClips: 1, MaxClaims: 5, Prerequisite: u32(1)})

	// Omitting the prerequisite account reads as a missing proof
	if err := h.submit(alice, 2, nil); err != protocol.ErrMissingRequiredTaskProof {
		t.Fatalf("no prerequisite account: have %v, want %v", err, protocol.ErrMissingRequiredTaskProof)
	}
	if err := h.submit(alice, 2, u32(1)); err != protocol.ErrMissingRequiredTaskProof {
		t.Fatalf("unclaimed prerequisite: have %v, want %v", err, protocol.ErrMissingRequiredTaskProof)
	}
	// Pointing at some other claim account is rejected outright
	ix, _ := NewSubmitProof(h.addrs, walletOf(alice), 2, "p", u32(1))
	ix.Accounts[4], _ = h.addrs.Claim(3, walletOf(alice))
	h.expect(alice, ix, protocol.ErrInvalidPrerequisiteAccount)

	if err := h.submit(alice, 1, nil); err != nil {
		t.Fatal(err)
	}
	if err := h.submit(alice, 2, u32(1)); err != nil {
		t.Fatalf("gated submit after prerequisite: %v", err)
	}
}

func TestAccountMetasChecked(t *testing.T) {
	h := newHarness(t)
	admin, alice, bob := testKey("admin"), testKey("alice"), testKey("bob")
	h.mustSend(admin, NewInitialize(h.addrs, 10))

	// Registering alice with bob's agent address
	ix := NewRegisterAgent(h.addrs, walletOf(bob))
	h.expect(alice, ix, protocol.ErrInvalidAccount)

	ix = NewRegisterAgent(h.addrs, walletOf(alice))
	ix.Accounts = ix.Accounts[:1]
	h.expect(alice, ix, protocol.ErrInvalidAccount)

	h.expect(alice, &Instruction{Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}, protocol.ErrInvalidInstruction)
}

func TestNotInitialized(t *testing.T) {
	h := newHarness(t)
	alice := testKey("alice")
	h.expect(alice, NewRegisterAgent(h.addrs, walletOf(alice)), protocol.ErrNotInitialized)
	h.mustSend(alice, NewInitialize(h.addrs, 1))
	h.expect(alice, NewInitialize(h.addrs, 1), protocol.ErrAlreadyInitialized)
}

func TestOverflowRollsBack(t *testing.T) {
	h := newHarness(t)
	admin, alice, bob := testKey("admin"), testKey("alice"), testKey("bob")
	h.mustSend(admin, NewInitialize(h.addrs, gomath.MaxUint64))
	h.mustSend(alice, NewRegisterAgent(h.addrs, walletOf(alice)))
	h.expect(bob, NewRegisterAgent(h.addrs, walletOf(bob)), protocol.ErrMathOverflow)

	addr, _ := h.addrs.Agent(walletOf(bob))
	if h.read(addr, new(AgentAccount)) {
		t.Fatal("agent created by overflowing instruction")
	}
	h.mustSend(alice, NewCreateInvite(h.addrs, walletOf(alice)))
	h.expect(bob, NewRegisterAgentWithInvite(h.addrs, walletOf(bob), walletOf(alice)), protocol.ErrMathOverflow)
}

// overwrite replaces a committed account outside of any instruction.
func (h *harness) overwrite(addr common.Account, rec record) {
	h.t.Helper()
	if err := h.chain.State().Put(addr[:], rec.Encode()); err != nil {
		h.t.Fatal(err)
	}
}

func TestInactiveInvite(t *testing.T) {
	h := newHarness(t)
	admin, alice, bob := testKey("admin"), testKey("alice"), testKey("bob")
	h.mustSend(admin, NewInitialize(h.addrs, 100))
	h.mustSend(alice, NewRegisterAgent(h.addrs, walletOf(alice)))
	h.mustSend(alice, NewCreateInvite(h.addrs, walletOf(alice)))

	inviteAddr, _ := h.addrs.Invite(walletOf(alice))
	invite := new(InviteRecord)
	if !h.read(inviteAddr, invite) {
		t.Fatal("invite missing")
	}
	invite.IsActive = false

	// A mismatching code is reported before the invite's state.
	forged := *invite
	forged.InviteCode = [32]byte(walletOf(bob))
	h.overwrite(inviteAddr, &forged)
	redeem := NewRegisterAgentWithInvite(h.addrs, walletOf(bob), walletOf(alice))
	h.expect(bob, redeem, protocol.ErrInvalidInviteCode)

	h.overwrite(inviteAddr, invite)
	h.expect(bob, redeem, protocol.ErrInviteInactive)

	bobAddr, _ := h.addrs.Agent(walletOf(bob))
	if h.read(bobAddr, new(AgentAccount)) {
		t.Fatal("agent created through an inactive invite")
	}
	if inviter := h.agent(alice); inviter.ClipsBalance != 100 || inviter.InvitesSent != 0 {
		t.Fatalf("inviter changed: balance %d, invites sent %d", inviter.ClipsBalance, inviter.InvitesSent)
	}
	if !h.read(inviteAddr, invite) || invite.InvitesRedeemed != 0 {
		t.Fatalf("invite changed: %+v", invite)
	}
}

func TestProgramAccountFilters(t *testing.T) {
	h := newHarness(t)
	admin, alice := testKey("admin"), testKey("alice")
	h.mustSend(admin, NewInitialize(h.addrs, 10))
	h.mustSend(alice, NewRegisterAgent(h.addrs, walletOf(alice)))
	for id := uint32(1); id <= 3; id++ {
		h.createTask(admin, protocol.TaskParams{TaskID: id, RewardClips: 1, MaxClaims: 5})
	}
	h.mustSend(admin, NewDeactivateTask(h.addrs, 2))
	if err := h.submit(alice, 3, nil); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	active, err := h.api.GetProgramAccounts(ctx, []Filter{
		{Memcmp: &Memcmp{Offset: 0, Bytes: TaskDiscriminator[:]}},
		{Memcmp: &Memcmp{Offset: TaskActiveOffset, Bytes: []byte{1}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Fatalf("active task scan: have %d accounts, want 2", len(active))
	}
	wallet := walletOf(alice)
	claims, err := h.api.GetProgramAccounts(ctx, []Filter{
		{DataSize: ClaimSize},
		{Memcmp: &Memcmp{Offset: ClaimAgentOffset, Bytes: wallet[:]}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 1 {
		t.Fatalf("claim scan: have %d accounts, want 1", len(claims))
	}
	multi, err := h.api.GetMultipleAccounts(ctx, []common.Account{claims[0].Pubkey, {}})
	if err != nil {
		t.Fatal(err)
	}
	if multi[0] == nil || multi[1] != nil {
		t.Fatal("multiple account lookup mismatch")
	}
}

func TestLayoutSizes(t *testing.T) {
	tests := []struct {
		rec  record
		size int
	}{
		{&ProtocolState{}, ProtocolSize},
		{&AgentAccount{}, AgentSize},
		{&TaskRecord{}, TaskSize},
		{&ClaimRecord{}, ClaimSize},
		{&InviteRecord{}, InviteSize},
	}
	for _, tt := range tests {
		if have := len(tt.rec.Encode()); have != tt.size {
			t.Errorf("%T: encoded %d bytes, want %d", tt.rec, have, tt.size)
		}
	}
	task := &TaskRecord{IsActive: true}
	if data := task.Encode(); data[TaskActiveOffset] != 1 {
		t.Fatal("is_active not at its filter offset")
	}
	claim := &ClaimRecord{Agent: common.Account{0xab}}
	if data := claim.Encode(); data[ClaimAgentOffset] != 0xab {
		t.Fatal("claim agent not at its filter offset")
	}
	if err := new(TaskRecord).Decode(claim.Encode()); err == nil {
		t.Fatal("decoded a claim as a task")
	}
}
