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

// Package adaptertest holds a behavioural test suite shared by every ledger
// form. Both forms must pass it unchanged, which is what keeps them
// observably identical.
package adaptertest

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	fuzz "github.com/google/gofuzz"
	"github.com/paperclip-protocol/go-paperclip/adapter"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/eligibility"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/paperclip-protocol/go-paperclip/signer"
)

// Session opens an adapter on the ledger under test, signing with s.
type Session func(s signer.Signer) adapter.Adapter

// Factory creates a fresh, uninitialized ledger and returns a session opener
// for it.
type Factory func(t *testing.T) Session

// Key returns a deterministic local signer for a test identity.
func Key(name string) *signer.Local {
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte("adaptertest/" + name)))
	if err != nil {
		panic(err)
	}
	return signer.NewLocal(key)
}

type env struct {
	t     *testing.T
	ctx   context.Context
	open  Session
	admin adapter.Adapter
}

func newEnv(t *testing.T, factory Factory, base uint64) *env {
	e := &env{t: t, ctx: context.Background(), open: factory(t)}
	e.admin = e.open(Key("authority"))
	if base > 0 {
		if _, err := e.admin.Initialize(e.ctx, base); err != nil {
			t.Fatalf("initialize: %v", err)
		}
	}
	return e
}

func (e *env) session(name string) adapter.Adapter { return e.open(Key(name)) }

func (e *env) wallet(a adapter.Adapter) string {
	e.t.Helper()
	w, err := a.Wallet(e.ctx)
	if err != nil {
		e.t.Fatalf("wallet: %v", err)
	}
	return w
}

func (e *env) agent(name string) adapter.Adapter {
	e.t.Helper()
	a := e.session(name)
	if _, err := a.RegisterAgent(e.ctx); err != nil {
		e.t.Fatalf("register %s: %v", name, err)
	}
	return a
}

func (e *env) createTask(p protocol.TaskParams) {
	e.t.Helper()
	if p.Title == "" {
		p.Title = "task"
	}
	if p.ContentCID == "" {
		p.ContentCID = "mock-content"
	}
	if _, err := e.admin.CreateTask(e.ctx, &p); err != nil {
		e.t.Fatalf("create task %d: %v", p.TaskID, err)
	}
}

func (e *env) balance(a adapter.Adapter) uint64 {
	e.t.Helper()
	ag, err := a.Agent(e.ctx, e.wallet(a))
	if err != nil || ag == nil {
		e.t.Fatalf("agent lookup: %v %v", ag, err)
	}
	return ag.ClipsBalance
}

func (e *env) task(id uint32) *protocol.Task {
	e.t.Helper()
	task, err := e.admin.Task(e.ctx, id)
	if err != nil || task == nil {
		e.t.Fatalf("task %d lookup: %v %v", id, task, err)
	}
	return task
}

func expectErr(t *testing.T, what string, have, want error) {
	t.Helper()
	if !errors.Is(have, want) {
		t.Fatalf("%s: have error %v, want %v", what, have, want)
	}
}

func u32(v uint32) *uint32 { return &v }

func taskIDs(tasks []*protocol.Task) []uint32 {
	ids := make([]uint32, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.TaskID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TestAdapterSuite runs the suite against the ledger form built by factory.
func TestAdapterSuite(t *testing.T, factory Factory) {
	t.Run("Scenario", func(t *testing.T) {
		e := newEnv(t, factory, 100)
		a := e.agent("alice")
		if have := e.balance(a); have != 100 {
			t.Fatalf("balance after register: have %d, want 100", have)
		}
		e.createTask(protocol.TaskParams{TaskID: 1, RewardClips: 50, MaxClaims: 2})
		receipt, err := a.SubmitProof(e.ctx, 1, "mock-proof")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if receipt.Failed() {
			t.Fatalf("receipt of successful submit failed: %+v", receipt)
		}
		if have := e.balance(a); have != 150 {
			t.Fatalf("balance after submit: have %d, want 150", have)
		}
		if have := e.task(1).CurrentClaims; have != 1 {
			t.Fatalf("current claims: have %d, want 1", have)
		}
		claim, err := a.Claim(e.ctx, 1, e.wallet(a))
		if err != nil || claim == nil {
			t.Fatalf("claim lookup: %v %v", claim, err)
		}
		want := &protocol.Claim{TaskID: 1, Agent: e.wallet(a), ProofCID: "mock-proof", ClipsAwarded: 50, CompletedAt: claim.CompletedAt}
		if diff := cmp.Diff(want, claim); diff != "" {
			t.Fatalf("claim mismatch (-want +have):\n%s", diff)
		}
		receipt, err = a.SubmitProof(e.ctx, 1, "mock-proof-2")
		expectErr(t, "second submit", err, protocol.ErrAlreadyClaimed)
		if receipt == nil || !receipt.Failed() {
			t.Fatalf("rejected submit should return its failed receipt, have %+v", receipt)
		}
		if have := e.task(1).CurrentClaims; have != 1 {
			t.Fatalf("current claims after rejected submit: have %d, want 1", have)
		}
		p, err := a.Protocol(e.ctx)
		if err != nil {
			t.Fatal(err)
		}
		wantp := &protocol.Protocol{Authority: e.wallet(e.admin), BaseRewardUnit: 100, TotalAgents: 1, TotalTasks: 1, TotalClipsDistributed: 150}
		if diff := cmp.Diff(wantp, p); diff != "" {
			t.Fatalf("protocol mismatch (-want +have):\n%s", diff)
		}
	})

	t.Run("Initialize", func(t *testing.T) {
		e := newEnv(t, factory, 0)
		if p, err := e.admin.Protocol(e.ctx); err != nil || p != nil {
			t.Fatalf("protocol before initialize: have %v %v, want nil", p, err)
		}
		_, err := e.session("alice").RegisterAgent(e.ctx)
		expectErr(t, "register before initialize", err, protocol.ErrNotInitialized)
		if _, err := e.admin.Initialize(e.ctx, 10); err != nil {
			t.Fatal(err)
		}
		_, err = e.session("bob").Initialize(e.ctx, 20)
		expectErr(t, "second initialize", err, protocol.ErrAlreadyInitialized)
		p, _ := e.admin.Protocol(e.ctx)
		if p.BaseRewardUnit != 10 || p.Authority != e.wallet(e.admin) {
			t.Fatalf("protocol changed by rejected initialize: %+v", p)
		}
	})

	t.Run("RegisterTwice", func(t *testing.T) {
		e := newEnv(t, factory, 7)
		for _, name := range []string{"alice", "bob", "carol"} {
			a := e.agent(name)
			_, err := a.RegisterAgent(e.ctx)
			expectErr(t, name+" second register", err, protocol.ErrAgentAlreadyRegistered)
			if have := e.balance(a); have != 7 {
				t.Fatalf("%s balance: have %d, want 7", name, have)
			}
		}
		p, _ := e.admin.Protocol(e.ctx)
		if p.TotalAgents != 3 || p.TotalClipsDistributed != 21 {
			t.Fatalf("totals: have %+v", p)
		}
	})

	t.Run("Invite", func(t *testing.T) {
		e := newEnv(t, factory, 101)
		inviter := e.agent("inviter")
		if _, err := inviter.CreateInvite(e.ctx); err != nil {
			t.Fatal(err)
		}
		_, err := inviter.CreateInvite(e.ctx)
		expectErr(t, "second invite", err, protocol.ErrInviteAlreadyExists)

		for i, name := range []string{"dave", "erin"} {
			invitee := e.session(name)
			if _, err := invitee.RegisterAgentWithInvite(e.ctx, e.wallet(inviter)); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			ag, _ := invitee.Agent(e.ctx, e.wallet(invitee))
			if ag.ClipsBalance != 151 || ag.InvitedBy != e.wallet(inviter) || ag.InvitesRedeemed != 1 {
				t.Fatalf("invitee %s: %+v", name, ag)
			}
			inv, _ := inviter.Invite(e.ctx, e.wallet(inviter))
			if inv == nil || inv.InvitesRedeemed != uint32(i+1) || !inv.IsActive {
				t.Fatalf("invite after %d redemptions: %+v", i+1, inv)
			}
			ag, _ = inviter.Agent(e.ctx, e.wallet(inviter))
			if want := uint64(101 + 50*(i+1)); ag.ClipsBalance != want || ag.InvitesSent != uint32(i+1) {
				t.Fatalf("inviter after %d redemptions: have %+v, want balance %d", i+1, ag, want)
			}
			_, err := invitee.RegisterAgentWithInvite(e.ctx, e.wallet(inviter))
			expectErr(t, "repeat invited register", err, protocol.ErrAgentAlreadyRegistered)
		}
		p, _ := e.admin.Protocol(e.ctx)
		if p.TotalAgents != 3 || p.TotalClipsDistributed != 101+2*(151+50) {
			t.Fatalf("totals: have %+v", p)
		}
	})

	t.Run("InviteRejections", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		alice := e.agent("alice")
		stranger := e.session("stranger")
		newcomer := e.session("newcomer")

		_, err := alice.RegisterAgentWithInvite(e.ctx, e.wallet(alice))
		expectErr(t, "self referral", err, protocol.ErrSelfReferralNotAllowed)
		_, err = newcomer.RegisterAgentWithInvite(e.ctx, e.wallet(stranger))
		expectErr(t, "unregistered inviter", err, protocol.ErrAgentNotRegistered)
		_, err = newcomer.RegisterAgentWithInvite(e.ctx, e.wallet(alice))
		expectErr(t, "inviter without invite", err, protocol.ErrInvalidInviteCode)
		_, err = stranger.CreateInvite(e.ctx)
		expectErr(t, "invite by unregistered", err, protocol.ErrAgentNotRegistered)

		if _, err := alice.CreateInvite(e.ctx); err != nil {
			t.Fatal(err)
		}
		_, err = alice.RegisterAgentWithInvite(e.ctx, e.wallet(alice))
		expectErr(t, "self referral with invite", err, protocol.ErrSelfReferralNotAllowed)
		if ag, _ := newcomer.Agent(e.ctx, e.wallet(newcomer)); ag != nil {
			t.Fatalf("rejected registrations created an agent: %+v", ag)
		}
	})

	t.Run("MathOverflow", func(t *testing.T) {
		e := newEnv(t, factory, math.MaxUint64)
		inviter := e.agent("inviter")
		if _, err := inviter.CreateInvite(e.ctx); err != nil {
			t.Fatal(err)
		}
		invitee := e.session("invitee")
		_, err := invitee.RegisterAgentWithInvite(e.ctx, e.wallet(inviter))
		expectErr(t, "invite reward", err, protocol.ErrMathOverflow)
		_, err = invitee.RegisterAgent(e.ctx)
		expectErr(t, "total distributed", err, protocol.ErrMathOverflow)
		if ag, _ := invitee.Agent(e.ctx, e.wallet(invitee)); ag != nil {
			t.Fatalf("overflowing registration left an agent: %+v", ag)
		}
		inv, _ := inviter.Invite(e.ctx, e.wallet(inviter))
		if inv.InvitesRedeemed != 0 {
			t.Fatalf("overflowing registration redeemed the invite: %+v", inv)
		}
	})

	t.Run("Authority", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		mallory := e.agent("mallory")
		_, err := mallory.CreateTask(e.ctx, &protocol.TaskParams{TaskID: 1, Title: "t", ContentCID: "mock-c", MaxClaims: 1})
		expectErr(t, "create by non-authority", err, protocol.ErrUnauthorized)
		e.createTask(protocol.TaskParams{TaskID: 1, MaxClaims: 1})
		_, err = mallory.DeactivateTask(e.ctx, 1)
		expectErr(t, "deactivate by non-authority", err, protocol.ErrUnauthorized)
		_, err = e.admin.CreateTask(e.ctx, &protocol.TaskParams{TaskID: 2, Title: "t", ContentCID: "mock-c", MaxClaims: 1, Prerequisite: u32(2)})
		expectErr(t, "self prerequisite", err, protocol.ErrInvalidTaskPrerequisite)
		if task, _ := e.admin.Task(e.ctx, 2); task != nil {
			t.Fatalf("rejected task was created: %+v", task)
		}
	})

	t.Run("FullyClaimed", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		const n = 3
		e.createTask(protocol.TaskParams{TaskID: 9, RewardClips: 5, MaxClaims: n})
		names := []string{"a0", "a1", "a2", "a3"}
		for i, name := range names {
			_, err := e.agent(name).SubmitProof(e.ctx, 9, "mock-"+name)
			if i < n && err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
			if i == n {
				expectErr(t, "over capacity", err, protocol.ErrTaskFullyClaimed)
			}
		}
		if have := e.task(9).CurrentClaims; have != n {
			t.Fatalf("current claims: have %d, want %d", have, n)
		}
	})

	t.Run("Prerequisite", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		e.createTask(protocol.TaskParams{TaskID: 1, RewardClips: 1, MaxClaims: 5})
		e.createTask(protocol.TaskParams{TaskID: 2, RewardClips: 1, MaxClaims: 5, Prerequisite: u32(1)})
		a := e.agent("alice")
		_, err := a.SubmitProof(e.ctx, 2, "mock-2")
		expectErr(t, "before prerequisite", err, protocol.ErrMissingRequiredTaskProof)
		if _, err := a.SubmitProof(e.ctx, 1, "mock-1"); err != nil {
			t.Fatal(err)
		}
		if _, err := a.SubmitProof(e.ctx, 2, "mock-2"); err != nil {
			t.Fatalf("after prerequisite: %v", err)
		}
	})

	t.Run("TierTooLow", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		e.createTask(protocol.TaskParams{TaskID: 5, RewardClips: 1, MaxClaims: 5, MinTier: 1})
		_, err := e.agent("alice").SubmitProof(e.ctx, 5, "mock-5")
		expectErr(t, "tier 0 agent", err, protocol.ErrTierTooLow)
	})

	t.Run("Deactivate", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		e.createTask(protocol.TaskParams{TaskID: 3, RewardClips: 1, MaxClaims: 100})
		before := e.task(3)
		if _, err := e.admin.DeactivateTask(e.ctx, 3); err != nil {
			t.Fatal(err)
		}
		after := e.task(3)
		before.IsActive = false
		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("deactivate changed more than the active flag (-want +have):\n%s", diff)
		}
		_, err := e.agent("alice").SubmitProof(e.ctx, 3, "mock-3")
		expectErr(t, "inactive task", err, protocol.ErrTaskInactive)
	})

	t.Run("SubmitCheckOrder", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		e.createTask(protocol.TaskParams{TaskID: 1, RewardClips: 1, MaxClaims: 1})
		e.createTask(protocol.TaskParams{TaskID: 2, RewardClips: 1, MaxClaims: 1, MinTier: 2, Prerequisite: u32(1)})
		e.createTask(protocol.TaskParams{TaskID: 3, RewardClips: 1, MaxClaims: 1, Prerequisite: u32(1)})
		if _, err := e.admin.DeactivateTask(e.ctx, 3); err != nil {
			t.Fatal(err)
		}
		_, err := e.session("ghost").SubmitProof(e.ctx, 2, "mock")
		expectErr(t, "unregistered", err, protocol.ErrAgentNotRegistered)
		a := e.agent("alice")
		_, err = a.SubmitProof(e.ctx, 2, "mock")
		expectErr(t, "tier before prerequisite", err, protocol.ErrTierTooLow)
		_, err = a.SubmitProof(e.ctx, 3, "mock")
		expectErr(t, "prerequisite before active", err, protocol.ErrMissingRequiredTaskProof)
		if _, err := a.SubmitProof(e.ctx, 1, "mock"); err != nil {
			t.Fatal(err)
		}
		_, err = a.SubmitProof(e.ctx, 3, "mock")
		expectErr(t, "inactive", err, protocol.ErrTaskInactive)
		_, err = a.SubmitProof(e.ctx, 1, "mock")
		expectErr(t, "capacity before own claim", err, protocol.ErrTaskFullyClaimed)
	})

	t.Run("AbsentReads", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		nobody := e.wallet(e.session("nobody"))
		if ag, err := e.admin.Agent(e.ctx, nobody); ag != nil || err != nil {
			t.Fatalf("agent: %v %v", ag, err)
		}
		if task, err := e.admin.Task(e.ctx, 42); task != nil || err != nil {
			t.Fatalf("task: %v %v", task, err)
		}
		if c, err := e.admin.Claim(e.ctx, 42, nobody); c != nil || err != nil {
			t.Fatalf("claim: %v %v", c, err)
		}
		if inv, err := e.admin.Invite(e.ctx, nobody); inv != nil || err != nil {
			t.Fatalf("invite: %v %v", inv, err)
		}
		if _, err := e.admin.Agent(e.ctx, "not a wallet"); !errors.Is(err, adapter.ErrInvalidWallet) {
			t.Fatalf("malformed wallet: have %v, want %v", err, adapter.ErrInvalidWallet)
		}
		_, err := e.admin.DoableTasks(e.ctx, nobody)
		expectErr(t, "doable for unregistered", err, protocol.ErrAgentNotRegistered)
	})

	t.Run("ReadOnly", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		e.createTask(protocol.TaskParams{TaskID: 1, MaxClaims: 1})
		ro := e.open(signer.NewReadOnly(nil))
		if _, err := ro.Wallet(e.ctx); !errors.Is(err, signer.ErrNoWallet) {
			t.Fatalf("wallet: have %v, want %v", err, signer.ErrNoWallet)
		}
		tasks, err := ro.ListActiveTasks(e.ctx)
		if err != nil || len(tasks) != 1 {
			t.Fatalf("listing: %v %v", tasks, err)
		}
		if _, err := ro.RegisterAgent(e.ctx); !errors.Is(err, signer.ErrNoWallet) {
			t.Fatalf("register: have %v, want %v", err, signer.ErrNoWallet)
		}
		if _, err := ro.Initialize(e.ctx, 10); !errors.Is(err, signer.ErrNoWallet) {
			t.Fatalf("initialize: have %v, want %v", err, signer.ErrNoWallet)
		}
		alice := Key("alice")
		pub, _ := alice.PublicKey()
		watch := e.open(signer.NewReadOnly(pub))
		if have, want := e.wallet(watch), e.wallet(e.open(alice)); have != want {
			t.Fatalf("watch-only wallet: have %s, want %s", have, want)
		}
		if _, err := watch.SubmitProof(e.ctx, 1, "mock"); !errors.Is(err, signer.ErrNoWallet) {
			t.Fatalf("watch-only submit: have %v, want %v", err, signer.ErrNoWallet)
		}
	})

	t.Run("Listing", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		for id := uint32(1); id <= 6; id++ {
			e.createTask(protocol.TaskParams{TaskID: id * 10, RewardClips: uint64(id), MaxClaims: 1})
		}
		for _, id := range []uint32{20, 50} {
			if _, err := e.admin.DeactivateTask(e.ctx, id); err != nil {
				t.Fatal(err)
			}
		}
		tasks, err := e.admin.ListActiveTasks(e.ctx)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]uint32{10, 30, 40, 60}, taskIDs(tasks)); diff != "" {
			t.Fatalf("active tasks (-want +have):\n%s", diff)
		}
		for _, task := range tasks {
			if diff := cmp.Diff(e.task(task.TaskID), task); diff != "" {
				t.Fatalf("listed task %d differs from point read:\n%s", task.TaskID, diff)
			}
		}
	})

	t.Run("Doable", func(t *testing.T) {
		e := newEnv(t, factory, 10)
		e.createTask(protocol.TaskParams{TaskID: 1, RewardClips: 1, MaxClaims: 5})
		e.createTask(protocol.TaskParams{TaskID: 2, RewardClips: 1, MaxClaims: 5, Prerequisite: u32(1)})
		e.createTask(protocol.TaskParams{TaskID: 3, RewardClips: 1, MaxClaims: 5, MinTier: 1})
		e.createTask(protocol.TaskParams{TaskID: 4, RewardClips: 1, MaxClaims: 1})
		e.createTask(protocol.TaskParams{TaskID: 5, RewardClips: 1, MaxClaims: 5})
		if _, err := e.admin.DeactivateTask(e.ctx, 5); err != nil {
			t.Fatal(err)
		}
		a := e.agent("alice")
		if _, err := e.agent("bob").SubmitProof(e.ctx, 4, "mock"); err != nil {
			t.Fatal(err)
		}
		doable := func(want ...uint32) {
			t.Helper()
			tasks, err := a.DoableTasks(e.ctx, e.wallet(a))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, taskIDs(tasks)); diff != "" {
				t.Fatalf("doable (-want +have):\n%s", diff)
			}
		}
		doable(1)
		if _, err := a.SubmitProof(e.ctx, 1, "mock"); err != nil {
			t.Fatal(err)
		}
		doable(2)
	})

	t.Run("DoableMatchesSubmit", func(t *testing.T) {
		for seed := int64(1); seed <= 4; seed++ {
			testDoableParity(t, factory, seed)
		}
	})
}

// world is a randomized task set together with the claims made on it.
type world struct {
	Tasks [8]struct {
		Reward, Max, Tier, Prereq, Active uint8
	}
	Alice, Bob [8]bool
}

// testDoableParity builds a random ledger state and checks that the doable
// listing is exactly the set of tasks whose submission succeeds.
func testDoableParity(t *testing.T, factory Factory, seed int64) {
	var w world
	fuzz.NewWithSeed(seed).NilChance(0).Fuzz(&w)

	e := newEnv(t, factory, 10)
	alice, bob := e.agent("alice"), e.agent("bob")
	for i, shape := range w.Tasks {
		p := protocol.TaskParams{
			TaskID:      uint32(i + 1),
			RewardClips: uint64(shape.Reward),
			MaxClaims:   uint16(shape.Max%3 + 1),
			MinTier:     shape.Tier % 2,
		}
		if pre := uint32(shape.Prereq%10 + 1); pre <= uint32(len(w.Tasks)) && pre != p.TaskID {
			p.Prerequisite = u32(pre)
		}
		e.createTask(p)
	}
	for i := range w.Tasks {
		id := uint32(i + 1)
		if w.Bob[i] {
			bob.SubmitProof(e.ctx, id, "mock")
		}
		if w.Alice[i] {
			alice.SubmitProof(e.ctx, id, "mock")
		}
	}
	for i, shape := range w.Tasks {
		if shape.Active%4 == 0 {
			if _, err := e.admin.DeactivateTask(e.ctx, uint32(i+1)); err != nil {
				t.Fatal(err)
			}
		}
	}

	wallet := e.wallet(alice)
	ag, _ := alice.Agent(e.ctx, wallet)
	tasks, err := alice.ListActiveTasks(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	claimed := eligibility.NewClaimSet()
	for i := range w.Tasks {
		if c, _ := alice.Claim(e.ctx, uint32(i+1), wallet); c != nil {
			claimed.Add(c.TaskID)
		}
	}
	want := taskIDs(eligibility.Doable(ag.EfficiencyTier, tasks, claimed))
	have, err := alice.DoableTasks(e.ctx, wallet)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, taskIDs(have)); diff != "" {
		t.Fatalf("seed %d: doable mismatch (-want +have):\n%s\nworld: %s", seed, diff, spew.Sdump(w))
	}

	// Every other active task must reject a submission, which leaves the
	// ledger untouched, and then every doable task must accept one.
	doable := eligibility.IDs(have)
	for _, task := range tasks {
		if doable.Contains(task.TaskID) {
			continue
		}
		if _, err := alice.SubmitProof(e.ctx, task.TaskID, "mock-check"); err == nil {
			t.Fatalf("seed %d: task %d is not doable but submit succeeded", seed, task.TaskID)
		}
	}
	for _, task := range have {
		if _, err := alice.SubmitProof(e.ctx, task.TaskID, "mock-check"); err != nil {
			t.Fatalf("seed %d: doable task %d rejected: %v", seed, task.TaskID, err)
		}
	}
}
