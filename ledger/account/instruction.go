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
	"errors"
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// MaxInstructionAccounts bounds the account list of one instruction.
const MaxInstructionAccounts = 8

var errBadInstruction = errors.New("malformed instruction")

// Instruction discriminators.
var (
	InitializeIx              = discriminator("global", protocol.InstrInitialize)
	RegisterAgentIx           = discriminator("global", protocol.InstrRegisterAgent)
	RegisterAgentWithInviteIx = discriminator("global", protocol.InstrRegisterAgentWithInvite)
	CreateInviteIx            = discriminator("global", protocol.InstrCreateInvite)
	CreateTaskIx              = discriminator("global", protocol.InstrCreateTask)
	DeactivateTaskIx          = discriminator("global", protocol.InstrDeactivateTask)
	SubmitProofIx             = discriminator("global", protocol.InstrSubmitProof)
)

var instructionNames = map[Discriminator]string{
	InitializeIx:              protocol.InstrInitialize,
	RegisterAgentIx:           protocol.InstrRegisterAgent,
	RegisterAgentWithInviteIx: protocol.InstrRegisterAgentWithInvite,
	CreateInviteIx:            protocol.InstrCreateInvite,
	CreateTaskIx:              protocol.InstrCreateTask,
	DeactivateTaskIx:          protocol.InstrDeactivateTask,
	SubmitProofIx:             protocol.InstrSubmitProof,
}

// Instruction is a program call: the accounts it touches in a fixed order,
// followed by the discriminator-tagged arguments.
type Instruction struct {
	Accounts []common.Account
	Data     []byte
}

// Name returns the instruction name, empty if the tag is unknown.
func (ix *Instruction) Name() string {
	if len(ix.Data) < DiscriminatorLength {
		return ""
	}
	var d Discriminator
	copy(d[:], ix.Data)
	return instructionNames[d]
}

// Encode serializes the instruction as transaction data.
func (ix *Instruction) Encode() []byte {
	e := newEncoder(1 + len(ix.Accounts)*common.AccountLength + len(ix.Data))
	e.u8(uint8(len(ix.Accounts)))
	for _, acc := range ix.Accounts {
		e.raw(acc[:])
	}
	e.raw(ix.Data)
	return e.buf
}

// DecodeInstruction parses transaction data.
func DecodeInstruction(data []byte) (*Instruction, error) {
	d := &decoder{buf: data}
	n := int(d.u8())
	if n > MaxInstructionAccounts {
		return nil, fmt.Errorf("%w: %d accounts", errBadInstruction, n)
	}
	ix := &Instruction{Accounts: make([]common.Account, n)}
	for i := range ix.Accounts {
		ix.Accounts[i] = d.account()
	}
	if d.err != nil || len(d.buf) < DiscriminatorLength {
		return nil, errBadInstruction
	}
	ix.Data = d.buf
	return ix, nil
}

func args(disc Discriminator) *encoder {
	e := newEncoder(64)
	e.raw(disc[:])
	return e
}

// NewInitialize builds initialize(base_reward_unit).
func NewInitialize(a *Addresses, base uint64) *Instruction {
	proto, _ := a.Protocol()
	e := args(InitializeIx)
	e.u64(base)
	return &Instruction{Accounts: []common.Account{proto}, Data: e.buf}
}

// NewRegisterAgent builds register_agent().
func NewRegisterAgent(a *Addresses, wallet common.Account) *Instruction {
	proto, _ := a.Protocol()
	agent, _ := a.Agent(wallet)
	return &Instruction{Accounts: []common.Account{proto, agent}, Data: args(RegisterAgentIx).buf}
}

// NewRegisterAgentWithInvite builds register_agent_with_invite(invite_code).
func NewRegisterAgentWithInvite(a *Addresses, wallet, inviter common.Account) *Instruction {
	proto, _ := a.Protocol()
	agent, _ := a.Agent(wallet)
	inviterAgent, _ := a.Agent(inviter)
	invite, _ := a.Invite(inviter)
	e := args(RegisterAgentWithInviteIx)
	e.raw(inviter[:])
	return &Instruction{Accounts: []common.Account{proto, agent, inviterAgent, invite}, Data: e.buf}
}

// NewCreateInvite builds create_invite().
func NewCreateInvite(a *Addresses, wallet common.Account) *Instruction {
	proto, _ := a.Protocol()
	agent, _ := a.Agent(wallet)
	invite, _ := a.Invite(wallet)
	return &Instruction{Accounts: []common.Account{proto, agent, invite}, Data: args(CreateInviteIx).buf}
}

// NewCreateTask builds create_task(task_id, title, content, reward,
// max_claims, min_tier, prerequisite).
func NewCreateTask(a *Addresses, p *protocol.TaskParams) (*Instruction, error) {
	title, err := protocol.EncodeTitle(p.Title)
	if err != nil {
		return nil, err
	}
	content, err := protocol.EncodePointer(p.ContentCID)
	if err != nil {
		return nil, err
	}
	proto, _ := a.Protocol()
	task, _ := a.Task(p.TaskID)
	e := args(CreateTaskIx)
	e.u32(p.TaskID)
	e.raw(title[:])
	e.raw(content[:])
	e.u64(p.RewardClips)
	e.u16(p.MaxClaims)
	e.u8(p.MinTier)
	e.u32(protocol.PrerequisiteToWire(p.Prerequisite))
	return &Instruction{Accounts: []common.Account{proto, task}, Data: e.buf}, nil
}

// NewDeactivateTask builds deactivate_task(task_id).
func NewDeactivateTask(a *Addresses, id uint32) *Instruction {
	proto, _ := a.Protocol()
	task, _ := a.Task(id)
	e := args(DeactivateTaskIx)
	e.u32(id)
	return &Instruction{Accounts: []common.Account{proto, task}, Data: e.buf}
}

// NewSubmitProof builds submit_proof(task_id, proof). A gated task needs the
// prerequisite claim account appended; callers pass the task's prerequisite.
func NewSubmitProof(a *Addresses, wallet common.Account, id uint32, proof string, prerequisite *uint32) (*Instruction, error) {
	ptr, err := protocol.EncodePointer(proof)
	if err != nil {
		return nil, err
	}
	proto, _ := a.Protocol()
	task, _ := a.Task(id)
	agent, _ := a.Agent(wallet)
	claim, _ := a.Claim(id, wallet)
	accounts := []common.Account{proto, task, agent, claim}
	if prerequisite != nil {
		pre, _ := a.Claim(*prerequisite, wallet)
		accounts = append(accounts, pre)
	}
	e := args(SubmitProofIx)
	e.u32(id)
	e.raw(ptr[:])
	return &Instruction{Accounts: accounts, Data: e.buf}, nil
}
