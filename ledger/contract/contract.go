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

	"github.com/holiman/uint256"
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/state"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Contract is the contract-form protocol program. It is stateless; all of its
// data lives in the storage words of the hosting chain.
type Contract struct{}

// New creates the contract.
func New() *Contract { return new(Contract) }

// exec is the execution context of one call.
type exec struct {
	store
	env    *core.Env
	caller common.Address
	args   *wordReader
}

func newExec(db *state.StateDB, data []byte) (*exec, *Method, error) {
	m, err := MethodByID(data)
	if err != nil {
		return nil, nil, err
	}
	words, err := splitWords(data[SelectorLength:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", protocol.ErrInvalidInstruction, m.Name, err)
	}
	return &exec{store: store{db}, args: &wordReader{words: words}}, m, nil
}

// Apply implements core.Executor for the mutating functions.
func (c *Contract) Apply(env *core.Env, data []byte) error {
	x, m, err := newExec(env.State, data)
	if err != nil {
		return err
	}
	if !m.Mutating {
		return fmt.Errorf("%w: %s is a view", protocol.ErrInvalidInstruction, m.Name)
	}
	x.env = env
	x.caller = crypto.PubkeyToAddress(env.Signer)

	switch m {
	case MethodInitialize:
		return x.initialize()
	case MethodRegisterAgent:
		return x.registerAgent()
	case MethodRegisterAgentWithInvite:
		return x.registerAgentWithInvite()
	case MethodCreateInvite:
		return x.createInvite()
	case MethodCreateTask:
		return x.createTask()
	case MethodDeactivateTask:
		return x.deactivateTask()
	case MethodSubmitProof:
		return x.submitProof()
	}
	return fmt.Errorf("%w: %s", protocol.ErrInvalidInstruction, m.Name)
}

// argsDone rejects calldata that was malformed or carried extra words.
func (x *exec) argsDone() error {
	if x.args.err == nil && len(x.args.words) != 0 {
		x.args.err = fmt.Errorf("%d trailing words", len(x.args.words))
	}
	if x.args.err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrInvalidInstruction, x.args.err)
	}
	return nil
}

// checkedAdd adds in 256-bit words and fails when the sum does not fit the
// field it is stored in.
func checkedAdd(a, b uint64, bits int) (uint64, error) {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || sum.BitLen() > bits {
		return 0, protocol.ErrMathOverflow
	}
	return sum.Uint64(), nil
}

// inviteeReward is base*3/2 with the product checked against the 64-bit
// balance width before dividing.
func inviteeReward(base uint64) (uint64, error) {
	prod, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(base), uint256.NewInt(3))
	if overflow || prod.BitLen() > 64 {
		return 0, protocol.ErrMathOverflow
	}
	return prod.Uint64() / 2, nil
}

func (x *exec) loadProtocol() (*ProtocolState, error) {
	proto := new(ProtocolState)
	proto.get(x.readStruct(slotHash(0), int(protocolWords)))
	if !proto.Initialized {
		return nil, protocol.ErrNotInitialized
	}
	return proto, nil
}

func (x *exec) storeProtocol(proto *ProtocolState) {
	var w wordWriter
	proto.put(&w)
	x.writeStruct(slotHash(0), w)
}

func (x *exec) load(base common.Hash, n int, rec record) error {
	r := x.readStruct(base, n)
	rec.get(r)
	if r.err != nil {
		return fmt.Errorf("corrupt storage at %x: %v", base, r.err)
	}
	return nil
}

func (x *exec) save(base common.Hash, rec record) {
	var w wordWriter
	rec.put(&w)
	x.writeStruct(base, w)
}

func (x *exec) agent(wallet common.Address) (*AgentRecord, error) {
	a := new(AgentRecord)
	return a, x.load(agentSlot(wallet), agentWords, a)
}

func (x *exec) task(id uint32) (*TaskRecord, error) {
	t := new(TaskRecord)
	return t, x.load(taskSlot(id), taskWords, t)
}

func (x *exec) claimed(id uint32, agent common.Address) bool {
	return x.word(claimSlot(id, agent)) != (common.Hash{})
}

func (x *exec) invite(inviter common.Address) (*InviteRecord, error) {
	i := new(InviteRecord)
	return i, x.load(inviteSlot(inviter), inviteWords, i)
}

func (x *exec) initialize() error {
	base := x.args.uint(64)
	if err := x.argsDone(); err != nil {
		return err
	}
	if x.uint(slotInitialized) != 0 {
		return protocol.ErrAlreadyInitialized
	}
	x.storeProtocol(&ProtocolState{
		Initialized:    true,
		Authority:      x.caller,
		BaseRewardUnit: base,
		LayoutVersion:  protocol.LayoutV1,
	})
	x.env.Emit(protocol.Event{Kind: protocol.EventInitialized, Actor: x.caller.String()})
	return nil
}

func (x *exec) registerAgent() error {
	if err := x.argsDone(); err != nil {
		return err
	}
	proto, err := x.loadProtocol()
	if err != nil {
		return err
	}
	agent, err := x.agent(x.caller)
	if err != nil {
		return err
	}
	if agent.Exists {
		return protocol.ErrAgentAlreadyRegistered
	}
	if proto.TotalAgents, err = checkedAdd32(proto.TotalAgents, 1); err != nil {
		return err
	}
	if proto.TotalClipsDistributed, err = checkedAdd(proto.TotalClipsDistributed, proto.BaseRewardUnit, 64); err != nil {
		return err
	}
	x.save(agentSlot(x.caller), &AgentRecord{
		Exists:        true,
		Wallet:        x.caller,
		ClipsBalance:  proto.BaseRewardUnit,
		RegisteredAt:  x.env.Time,
		LastActiveAt:  x.env.Time,
		LayoutVersion: protocol.LayoutV1,
	})
	x.storeProtocol(proto)
	x.env.Emit(protocol.Event{
		Kind:   protocol.EventAgentRegistered,
		Actor:  x.caller.String(),
		Amount: proto.BaseRewardUnit,
	})
	return nil
}

func (x *exec) registerAgentWithInvite() error {
	inviter := x.args.address()
	if err := x.argsDone(); err != nil {
		return err
	}
	proto, err := x.loadProtocol()
	if err != nil {
		return err
	}
	if inviter == x.caller {
		return protocol.ErrSelfReferralNotAllowed
	}
	inviterAgent, err := x.agent(inviter)
	if err != nil {
		return err
	}
	if !inviterAgent.Exists {
		return protocol.ErrAgentNotRegistered
	}
	invite, err := x.invite(inviter)
	if err != nil {
		return err
	}
	if !invite.Exists || invite.InviteCode != InviteCode(inviter) {
		return protocol.ErrInvalidInviteCode
	}
	if !invite.IsActive {
		return protocol.ErrInviteInactive
	}
	agent, err := x.agent(x.caller)
	if err != nil {
		return err
	}
	if agent.Exists {
		return protocol.ErrAgentAlreadyRegistered
	}
	reward, err := inviteeReward(proto.BaseRewardUnit)
	if err != nil {
		return err
	}
	bonus := protocol.InviterBonus(proto.BaseRewardUnit)

	if inviterAgent.ClipsBalance, err = checkedAdd(inviterAgent.ClipsBalance, bonus, 64); err != nil {
		return err
	}
	if inviterAgent.InvitesSent, err = checkedAdd32(inviterAgent.InvitesSent, 1); err != nil {
		return err
	}
	inviterAgent.LastActiveAt = x.env.Time
	if invite.InvitesRedeemed, err = checkedAdd32(invite.InvitesRedeemed, 1); err != nil {
		return err
	}
	if proto.TotalAgents, err = checkedAdd32(proto.TotalAgents, 1); err != nil {
		return err
	}
	if proto.TotalClipsDistributed, err = checkedAdd(proto.TotalClipsDistributed, reward, 64); err != nil {
		return err
	}
	if proto.TotalClipsDistributed, err = checkedAdd(proto.TotalClipsDistributed, bonus, 64); err != nil {
		return err
	}
	x.save(agentSlot(x.caller), &AgentRecord{
		Exists:          true,
		Wallet:          x.caller,
		ClipsBalance:    reward,
		RegisteredAt:    x.env.Time,
		LastActiveAt:    x.env.Time,
		InvitesRedeemed: 1,
		InvitedBy:       inviter,
		LayoutVersion:   protocol.LayoutV1,
	})
	x.save(agentSlot(inviter), inviterAgent)
	x.save(inviteSlot(inviter), invite)
	x.storeProtocol(proto)
	x.env.Emit(protocol.Event{
		Kind:    protocol.EventAgentRegistered,
		Actor:   x.caller.String(),
		Inviter: inviter.String(),
		Amount:  reward,
	})
	return nil
}

func (x *exec) createInvite() error {
	if err := x.argsDone(); err != nil {
		return err
	}
	if _, err := x.loadProtocol(); err != nil {
		return err
	}
	agent, err := x.agent(x.caller)
	if err != nil {
		return err
	}
	if !agent.Exists {
		return protocol.ErrAgentNotRegistered
	}
	invite, err := x.invite(x.caller)
	if err != nil {
		return err
	}
	if invite.Exists {
		return protocol.ErrInviteAlreadyExists
	}
	x.save(inviteSlot(x.caller), &InviteRecord{
		Exists:        true,
		Inviter:       x.caller,
		InviteCode:    InviteCode(x.caller),
		CreatedAt:     x.env.Time,
		IsActive:      true,
		LayoutVersion: protocol.LayoutV1,
	})
	x.env.Emit(protocol.Event{Kind: protocol.EventInviteCreated, Actor: x.caller.String()})
	return nil
}

func (x *exec) createTask() error {
	task := &TaskRecord{Exists: true, IsActive: true, LayoutVersion: protocol.LayoutV1}
	task.TaskID = uint32(x.args.uint(32))
	x.args.bytes(task.Title[:])
	x.args.bytes(task.ContentCID[:])
	task.RewardClips = x.args.uint(64)
	task.MaxClaims = uint16(x.args.uint(16))
	task.MinTier = uint8(x.args.uint(8))
	task.RequiredTaskID = uint32(x.args.uint(32))
	if err := x.argsDone(); err != nil {
		return err
	}
	proto, err := x.loadProtocol()
	if err != nil {
		return err
	}
	if x.caller != proto.Authority {
		return protocol.ErrUnauthorized
	}
	if task.RequiredTaskID != protocol.NoPrerequisite && task.RequiredTaskID == task.TaskID {
		return protocol.ErrInvalidTaskPrerequisite
	}
	existing, err := x.task(task.TaskID)
	if err != nil {
		return err
	}
	if existing.Exists {
		return protocol.ErrTaskAlreadyExists
	}
	if proto.TotalTasks, err = checkedAdd32(proto.TotalTasks, 1); err != nil {
		return err
	}
	task.Creator = x.caller
	task.CreatedAt = x.env.Time
	x.save(taskSlot(task.TaskID), task)
	x.pushTaskID(task.TaskID)
	x.storeProtocol(proto)

	id := task.TaskID
	x.env.Emit(protocol.Event{Kind: protocol.EventTaskCreated, Actor: x.caller.String(), TaskID: &id})
	return nil
}

func (x *exec) deactivateTask() error {
	id := uint32(x.args.uint(32))
	if err := x.argsDone(); err != nil {
		return err
	}
	proto, err := x.loadProtocol()
	if err != nil {
		return err
	}
	if x.caller != proto.Authority {
		return protocol.ErrUnauthorized
	}
	task, err := x.task(id)
	if err != nil {
		return err
	}
	if !task.Exists {
		return protocol.ErrTaskNotFound
	}
	task.IsActive = false
	x.save(taskSlot(id), task)
	x.env.Emit(protocol.Event{Kind: protocol.EventTaskDeactivated, Actor: x.caller.String(), TaskID: &id})
	return nil
}

func (x *exec) submitProof() error {
	id := uint32(x.args.uint(32))
	var proof [protocol.PointerLength]byte
	x.args.bytes(proof[:])
	if err := x.argsDone(); err != nil {
		return err
	}
	proto, err := x.loadProtocol()
	if err != nil {
		return err
	}
	agent, err := x.agent(x.caller)
	if err != nil {
		return err
	}
	if !agent.Exists {
		return protocol.ErrAgentNotRegistered
	}
	task, err := x.task(id)
	if err != nil {
		return err
	}
	if !task.Exists {
		return protocol.ErrTaskNotFound
	}
	if agent.EfficiencyTier < task.MinTier {
		return protocol.ErrTierTooLow
	}
	if task.RequiredTaskID != protocol.NoPrerequisite && !x.claimed(task.RequiredTaskID, x.caller) {
		return protocol.ErrMissingRequiredTaskProof
	}
	if !task.IsActive {
		return protocol.ErrTaskInactive
	}
	if task.CurrentClaims >= task.MaxClaims {
		return protocol.ErrTaskFullyClaimed
	}
	if x.claimed(id, x.caller) {
		return protocol.ErrAlreadyClaimed
	}
	claims, err := checkedAdd(uint64(task.CurrentClaims), 1, 16)
	if err != nil {
		return err
	}
	task.CurrentClaims = uint16(claims)
	if agent.ClipsBalance, err = checkedAdd(agent.ClipsBalance, task.RewardClips, 64); err != nil {
		return err
	}
	if agent.TasksCompleted, err = checkedAdd32(agent.TasksCompleted, 1); err != nil {
		return err
	}
	agent.LastActiveAt = x.env.Time
	if proto.TotalClipsDistributed, err = checkedAdd(proto.TotalClipsDistributed, task.RewardClips, 64); err != nil {
		return err
	}
	x.save(claimSlot(id, x.caller), &ClaimRecord{
		Exists:        true,
		TaskID:        id,
		Agent:         x.caller,
		ProofCID:      proof,
		ClipsAwarded:  task.RewardClips,
		CompletedAt:   x.env.Time,
		LayoutVersion: protocol.LayoutV1,
	})
	x.save(taskSlot(id), task)
	x.save(agentSlot(x.caller), agent)
	x.storeProtocol(proto)
	x.env.Emit(protocol.Event{
		Kind:   protocol.EventProofSubmitted,
		Actor:  x.caller.String(),
		TaskID: &id,
		Amount: task.RewardClips,
	})
	return nil
}

func checkedAdd32(a, b uint32) (uint32, error) {
	v, err := checkedAdd(uint64(a), uint64(b), 32)
	return uint32(v), err
}
