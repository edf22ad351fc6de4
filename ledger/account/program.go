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
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/common/math"
	"github.com/paperclip-protocol/go-paperclip/core"
	"github.com/paperclip-protocol/go-paperclip/core/state"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Program is the account-form protocol program. Every entity lives at an
// address derived from the program id, so the existence of an account is the
// uniqueness guarantee for what it records.
type Program struct {
	addrs *Addresses
}

// NewProgram creates the program deployed at id.
func NewProgram(id common.Account) *Program {
	return &Program{addrs: NewAddresses(id)}
}

// ID returns the program address.
func (p *Program) ID() common.Account { return p.addrs.Program() }

type record interface {
	Encode() []byte
	Decode([]byte) error
}

// call is the execution context of a single instruction.
type call struct {
	*Program
	env    *core.Env
	state  *state.StateDB
	signer common.Account
	ix     *Instruction
	args   *decoder
}

// Apply implements core.Executor.
func (p *Program) Apply(env *core.Env, data []byte) error {
	ix, err := DecodeInstruction(data)
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrInvalidInstruction, err)
	}
	c := &call{
		Program: p,
		env:     env,
		state:   env.State,
		signer:  crypto.PubkeyToAccount(env.Signer),
		ix:      ix,
		args:    &decoder{buf: ix.Data[DiscriminatorLength:]},
	}
	switch ix.Name() {
	case protocol.InstrInitialize:
		return c.initialize()
	case protocol.InstrRegisterAgent:
		return c.registerAgent()
	case protocol.InstrRegisterAgentWithInvite:
		return c.registerAgentWithInvite()
	case protocol.InstrCreateInvite:
		return c.createInvite()
	case protocol.InstrCreateTask:
		return c.createTask()
	case protocol.InstrDeactivateTask:
		return c.deactivateTask()
	case protocol.InstrSubmitProof:
		return c.submitProof()
	}
	return fmt.Errorf("%w: unknown instruction %x", protocol.ErrInvalidInstruction, ix.Data[:DiscriminatorLength])
}

// account checks that the i-th instruction account is the expected derived
// address.
func (c *call) account(i int, want common.Account) error {
	if i >= len(c.ix.Accounts) || c.ix.Accounts[i] != want {
		return fmt.Errorf("%w: account %d, want %s", protocol.ErrInvalidAccount, i, want.TerminalString())
	}
	return nil
}

// argsDone reports malformed argument data once every argument is read.
func (c *call) argsDone() error {
	if c.args.err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrInvalidInstruction, c.args.err)
	}
	return nil
}

func (c *call) load(addr common.Account, rec record) (bool, error) {
	data := c.state.Get(addr[:])
	if data == nil {
		return false, nil
	}
	if err := rec.Decode(data); err != nil {
		return true, fmt.Errorf("%w: %v", protocol.ErrInvalidAccount, err)
	}
	return true, nil
}

func (c *call) store(addr common.Account, rec record) {
	c.state.Set(addr[:], rec.Encode())
}

// loadProtocol returns the singleton, which must be the first account.
func (c *call) loadProtocol() (common.Account, *ProtocolState, error) {
	addr, _ := c.addrs.Protocol()
	if err := c.account(0, addr); err != nil {
		return addr, nil, err
	}
	proto := new(ProtocolState)
	found, err := c.load(addr, proto)
	if err != nil {
		return addr, nil, err
	}
	if !found {
		return addr, nil, protocol.ErrNotInitialized
	}
	return addr, proto, nil
}

func add64(a, b uint64) (uint64, error) {
	v, overflow := math.SafeAdd(a, b)
	if overflow {
		return 0, protocol.ErrMathOverflow
	}
	return v, nil
}

func add32(a, b uint32) (uint32, error) {
	v, overflow := math.SafeAdd32(a, b)
	if overflow {
		return 0, protocol.ErrMathOverflow
	}
	return v, nil
}

func (c *call) initialize() error {
	base := c.args.u64()
	if err := c.argsDone(); err != nil {
		return err
	}
	addr, bump := c.addrs.Protocol()
	if err := c.account(0, addr); err != nil {
		return err
	}
	if c.state.Exist(addr[:]) {
		return protocol.ErrAlreadyInitialized
	}
	c.store(addr, &ProtocolState{
		Bump:           bump,
		LayoutVersion:  protocol.LayoutV1,
		Authority:      c.signer,
		BaseRewardUnit: base,
	})
	c.env.Emit(protocol.Event{Kind: protocol.EventInitialized, Actor: c.signer.String()})
	return nil
}

func (c *call) registerAgent() error {
	protoAddr, proto, err := c.loadProtocol()
	if err != nil {
		return err
	}
	agentAddr, bump := c.addrs.Agent(c.signer)
	if err := c.account(1, agentAddr); err != nil {
		return err
	}
	if c.state.Exist(agentAddr[:]) {
		return protocol.ErrAgentAlreadyRegistered
	}
	if proto.TotalAgents, err = add32(proto.TotalAgents, 1); err != nil {
		return err
	}
	if proto.TotalClipsDistributed, err = add64(proto.TotalClipsDistributed, proto.BaseRewardUnit); err != nil {
		return err
	}
	c.store(agentAddr, &AgentAccount{
		Bump:          bump,
		LayoutVersion: protocol.LayoutV1,
		Wallet:        c.signer,
		ClipsBalance:  proto.BaseRewardUnit,
		RegisteredAt:  c.env.Time,
		LastActiveAt:  c.env.Time,
	})
	c.store(protoAddr, proto)
	c.env.Emit(protocol.Event{
		Kind:   protocol.EventAgentRegistered,
		Actor:  c.signer.String(),
		Amount: proto.BaseRewardUnit,
	})
	return nil
}

func (c *call) registerAgentWithInvite() error {
	var code [32]byte
	c.args.bytes(code[:])
	if err := c.argsDone(); err != nil {
		return err
	}
	protoAddr, proto, err := c.loadProtocol()
	if err != nil {
		return err
	}
	inviter := common.Account(code)
	agentAddr, bump := c.addrs.Agent(c.signer)
	inviterAddr, _ := c.addrs.Agent(inviter)
	inviteAddr, _ := c.addrs.Invite(inviter)
	for i, want := range []common.Account{agentAddr, inviterAddr, inviteAddr} {
		if err := c.account(i+1, want); err != nil {
			return err
		}
	}
	if inviter == c.signer {
		return protocol.ErrSelfReferralNotAllowed
	}
	inviterAgent := new(AgentAccount)
	if found, err := c.load(inviterAddr, inviterAgent); err != nil {
		return err
	} else if !found {
		return protocol.ErrAgentNotRegistered
	}
	invite := new(InviteRecord)
	if found, err := c.load(inviteAddr, invite); err != nil {
		return err
	} else if !found {
		return protocol.ErrInvalidInviteCode
	}
	if invite.InviterWallet != inviter || invite.InviteCode != code {
		return protocol.ErrInvalidInviteCode
	}
	if !invite.IsActive {
		return protocol.ErrInviteInactive
	}
	if c.state.Exist(agentAddr[:]) {
		return protocol.ErrAgentAlreadyRegistered
	}
	reward, err := protocol.InviteeReward(proto.BaseRewardUnit)
	if err != nil {
		return err
	}
	bonus := protocol.InviterBonus(proto.BaseRewardUnit)

	if inviterAgent.ClipsBalance, err = add64(inviterAgent.ClipsBalance, bonus); err != nil {
		return err
	}
	if inviterAgent.InvitesSent, err = add32(inviterAgent.InvitesSent, 1); err != nil {
		return err
	}
	inviterAgent.LastActiveAt = c.env.Time
	if invite.InvitesRedeemed, err = add32(invite.InvitesRedeemed, 1); err != nil {
		return err
	}
	if proto.TotalAgents, err = add32(proto.TotalAgents, 1); err != nil {
		return err
	}
	if proto.TotalClipsDistributed, err = add64(proto.TotalClipsDistributed, reward); err != nil {
		return err
	}
	if proto.TotalClipsDistributed, err = add64(proto.TotalClipsDistributed, bonus); err != nil {
		return err
	}
	c.store(agentAddr, &AgentAccount{
		Bump:            bump,
		LayoutVersion:   protocol.LayoutV1,
		Wallet:          c.signer,
		ClipsBalance:    reward,
		RegisteredAt:    c.env.Time,
		LastActiveAt:    c.env.Time,
		InvitesRedeemed: 1,
		InvitedBy:       inviter,
	})
	c.store(inviterAddr, inviterAgent)
	c.store(inviteAddr, invite)
	c.store(protoAddr, proto)
	c.env.Emit(protocol.Event{
		Kind:    protocol.EventAgentRegistered,
		Actor:   c.signer.String(),
		Inviter: inviter.String(),
		Amount:  reward,
	})
	return nil
}

func (c *call) createInvite() error {
	if _, _, err := c.loadProtocol(); err != nil {
		return err
	}
	agentAddr, _ := c.addrs.Agent(c.signer)
	inviteAddr, bump := c.addrs.Invite(c.signer)
	if err := c.account(1, agentAddr); err != nil {
		return err
	}
	if err := c.account(2, inviteAddr); err != nil {
		return err
	}
	if !c.state.Exist(agentAddr[:]) {
		return protocol.ErrAgentNotRegistered
	}
	if c.state.Exist(inviteAddr[:]) {
		return protocol.ErrInviteAlreadyExists
	}
	c.store(inviteAddr, &InviteRecord{
		Bump:          bump,
		LayoutVersion: protocol.LayoutV1,
		InviterWallet: c.signer,
		InviteCode:    c.signer,
		CreatedAt:     c.env.Time,
		IsActive:      true,
	})
	c.env.Emit(protocol.Event{Kind: protocol.EventInviteCreated, Actor: c.signer.String()})
	return nil
}

func (c *call) createTask() error {
	task := &TaskRecord{LayoutVersion: protocol.LayoutV1, IsActive: true}
	task.TaskID = c.args.u32()
	c.args.bytes(task.Title[:])
	c.args.bytes(task.ContentCID[:])
	task.RewardClips = c.args.u64()
	task.MaxClaims = c.args.u16()
	task.MinTier = c.args.u8()
	task.RequiredTaskID = c.args.u32()
	if err := c.argsDone(); err != nil {
		return err
	}
	protoAddr, proto, err := c.loadProtocol()
	if err != nil {
		return err
	}
	if c.signer != proto.Authority {
		return protocol.ErrUnauthorized
	}
	if task.RequiredTaskID != protocol.NoPrerequisite && task.RequiredTaskID == task.TaskID {
		return protocol.ErrInvalidTaskPrerequisite
	}
	taskAddr, bump := c.addrs.Task(task.TaskID)
	if err := c.account(1, taskAddr); err != nil {
		return err
	}
	if c.state.Exist(taskAddr[:]) {
		return protocol.ErrTaskAlreadyExists
	}
	if proto.TotalTasks, err = add32(proto.TotalTasks, 1); err != nil {
		return err
	}
	task.Bump = bump
	task.Creator = c.signer
	task.CreatedAt = c.env.Time
	c.store(taskAddr, task)
	c.store(protoAddr, proto)

	id := task.TaskID
	c.env.Emit(protocol.Event{Kind: protocol.EventTaskCreated, Actor: c.signer.String(), TaskID: &id})
	return nil
}

func (c *call) deactivateTask() error {
	id := c.args.u32()
	if err := c.argsDone(); err != nil {
		return err
	}
	_, proto, err := c.loadProtocol()
	if err != nil {
		return err
	}
	if c.signer != proto.Authority {
		return protocol.ErrUnauthorized
	}
	taskAddr, _ := c.addrs.Task(id)
	if err := c.account(1, taskAddr); err != nil {
		return err
	}
	task := new(TaskRecord)
	if found, err := c.load(taskAddr, task); err != nil {
		return err
	} else if !found {
		return protocol.ErrTaskNotFound
	}
	task.IsActive = false
	c.store(taskAddr, task)
	c.env.Emit(protocol.Event{Kind: protocol.EventTaskDeactivated, Actor: c.signer.String(), TaskID: &id})
	return nil
}

func (c *call) submitProof() error {
	id := c.args.u32()
	var proof [protocol.PointerLength]byte
	c.args.bytes(proof[:])
	if err := c.argsDone(); err != nil {
		return err
	}
	protoAddr, proto, err := c.loadProtocol()
	if err != nil {
		return err
	}
	taskAddr, _ := c.addrs.Task(id)
	agentAddr, _ := c.addrs.Agent(c.signer)
	claimAddr, bump := c.addrs.Claim(id, c.signer)
	for i, want := range []common.Account{taskAddr, agentAddr, claimAddr} {
		if err := c.account(i+1, want); err != nil {
			return err
		}
	}
	agent := new(AgentAccount)
	if found, err := c.load(agentAddr, agent); err != nil {
		return err
	} else if !found {
		return protocol.ErrAgentNotRegistered
	}
	task := new(TaskRecord)
	if found, err := c.load(taskAddr, task); err != nil {
		return err
	} else if !found {
		return protocol.ErrTaskNotFound
	}
	if agent.EfficiencyTier < task.MinTier {
		return protocol.ErrTierTooLow
	}
	if task.RequiredTaskID != protocol.NoPrerequisite {
		if err := c.checkPrerequisite(task.RequiredTaskID); err != nil {
			return err
		}
	}
	if !task.IsActive {
		return protocol.ErrTaskInactive
	}
	if task.CurrentClaims >= task.MaxClaims {
		return protocol.ErrTaskFullyClaimed
	}
	if c.state.Exist(claimAddr[:]) {
		return protocol.ErrAlreadyClaimed
	}
	claims, overflow := math.SafeAdd16(task.CurrentClaims, 1)
	if overflow {
		return protocol.ErrMathOverflow
	}
	task.CurrentClaims = claims
	if agent.ClipsBalance, err = add64(agent.ClipsBalance, task.RewardClips); err != nil {
		return err
	}
	if agent.TasksCompleted, err = add32(agent.TasksCompleted, 1); err != nil {
		return err
	}
	agent.LastActiveAt = c.env.Time
	if proto.TotalClipsDistributed, err = add64(proto.TotalClipsDistributed, task.RewardClips); err != nil {
		return err
	}
	c.store(claimAddr, &ClaimRecord{
		Bump:          bump,
		LayoutVersion: protocol.LayoutV1,
		TaskID:        id,
		Agent:         c.signer,
		ProofCID:      proof,
		ClipsAwarded:  task.RewardClips,
		CompletedAt:   c.env.Time,
	})
	c.store(taskAddr, task)
	c.store(agentAddr, agent)
	c.store(protoAddr, proto)
	c.env.Emit(protocol.Event{
		Kind:   protocol.EventProofSubmitted,
		Actor:  c.signer.String(),
		TaskID: &id,
		Amount: task.RewardClips,
	})
	return nil
}

// checkPrerequisite verifies the optional fifth account is the signer's claim
// on the required task.
func (c *call) checkPrerequisite(required uint32) error {
	if len(c.ix.Accounts) < 5 {
		return protocol.ErrMissingRequiredTaskProof
	}
	want, _ := c.addrs.Claim(required, c.signer)
	if c.ix.Accounts[4] != want {
		return protocol.ErrInvalidPrerequisiteAccount
	}
	data := c.state.Get(want[:])
	if data == nil {
		return protocol.ErrMissingRequiredTaskProof
	}
	claim := new(ClaimRecord)
	if err := claim.Decode(data); err != nil {
		return protocol.ErrMissingRequiredTaskProof
	}
	if claim.TaskID != required || claim.Agent != c.signer {
		return protocol.ErrInvalidPrerequisiteAccount
	}
	return nil
}
