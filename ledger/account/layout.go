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
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// DiscriminatorLength is the size of the type tag opening every account.
const DiscriminatorLength = 8

// Discriminator is the 8-byte type tag of an account or instruction.
type Discriminator [DiscriminatorLength]byte

func discriminator(namespace, name string) Discriminator {
	var d Discriminator
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	copy(d[:], sum[:DiscriminatorLength])
	return d
}

// Account type tags.
var (
	ProtocolDiscriminator = discriminator("account", "ProtocolState")
	AgentDiscriminator    = discriminator("account", "AgentAccount")
	TaskDiscriminator     = discriminator("account", "TaskRecord")
	ClaimDiscriminator    = discriminator("account", "ClaimRecord")
	InviteDiscriminator   = discriminator("account", "InviteRecord")
)

// Account sizes, discriminator and reserved tail included.
const (
	ProtocolSize = 8 + 1 + 1 + 32 + 8 + 4 + 4 + 8 + 1 + protocol.ProtocolReservedBytes
	AgentSize    = 8 + 1 + 1 + 32 + 8 + 1 + 4 + 8 + 8 + 4 + 4 + 32 + protocol.AgentReservedBytes
	TaskSize     = 8 + 1 + 1 + 4 + 32 + protocol.TitleLength + protocol.PointerLength + 8 + 2 + 2 + 1 + 8 + 1 + 4 + protocol.TaskReservedBytes
	ClaimSize    = 8 + 1 + 1 + 4 + 32 + protocol.PointerLength + 8 + 8 + protocol.ClaimReservedBytes
	InviteSize   = 8 + 1 + 1 + 32 + 32 + 4 + 8 + 1 + protocol.InviteReservedBytes
)

// Field offsets used by server-side memcmp filters. They are part of the
// on-ledger layout and only change with a layout version bump.
const (
	TaskActiveOffset  = 8 + 1 + 1 + 4 + 32 + protocol.TitleLength + protocol.PointerLength + 8 + 2 + 2
	ClaimTaskOffset   = 8 + 1 + 1
	ClaimAgentOffset  = ClaimTaskOffset + 4
	AgentWalletOffset = 8 + 1 + 1
)

// ProtocolState is the deployment singleton.
type ProtocolState struct {
	Bump                  uint8
	LayoutVersion         uint8
	Authority             common.Account
	BaseRewardUnit        uint64
	TotalAgents           uint32
	TotalTasks            uint32
	TotalClipsDistributed uint64
	Paused                bool
}

func (s *ProtocolState) Encode() []byte {
	e := newEncoder(ProtocolSize)
	e.raw(ProtocolDiscriminator[:])
	e.u8(s.Bump)
	e.u8(s.LayoutVersion)
	e.raw(s.Authority[:])
	e.u64(s.BaseRewardUnit)
	e.u32(s.TotalAgents)
	e.u32(s.TotalTasks)
	e.u64(s.TotalClipsDistributed)
	e.boolean(s.Paused)
	e.zero(protocol.ProtocolReservedBytes)
	return e.buf
}

func (s *ProtocolState) Decode(data []byte) error {
	d, err := open(data, ProtocolDiscriminator, ProtocolSize)
	if err != nil {
		return err
	}
	s.Bump = d.u8()
	s.LayoutVersion = d.u8()
	s.Authority = d.account()
	s.BaseRewardUnit = d.u64()
	s.TotalAgents = d.u32()
	s.TotalTasks = d.u32()
	s.TotalClipsDistributed = d.u64()
	s.Paused = d.boolean()
	return d.err
}

func (s *ProtocolState) View() *protocol.Protocol {
	return &protocol.Protocol{
		Authority:             s.Authority.String(),
		BaseRewardUnit:        s.BaseRewardUnit,
		TotalAgents:           s.TotalAgents,
		TotalTasks:            s.TotalTasks,
		TotalClipsDistributed: s.TotalClipsDistributed,
		Paused:                s.Paused,
	}
}

// AgentAccount is a registered participant.
type AgentAccount struct {
	Bump            uint8
	LayoutVersion   uint8
	Wallet          common.Account
	ClipsBalance    uint64
	EfficiencyTier  uint8
	TasksCompleted  uint32
	RegisteredAt    int64
	LastActiveAt    int64
	InvitesSent     uint32
	InvitesRedeemed uint32
	InvitedBy       common.Account // zero when none
}

func (a *AgentAccount) Encode() []byte {
	e := newEncoder(AgentSize)
	e.raw(AgentDiscriminator[:])
	e.u8(a.Bump)
	e.u8(a.LayoutVersion)
	e.raw(a.Wallet[:])
	e.u64(a.ClipsBalance)
	e.u8(a.EfficiencyTier)
	e.u32(a.TasksCompleted)
	e.i64(a.RegisteredAt)
	e.i64(a.LastActiveAt)
	e.u32(a.InvitesSent)
	e.u32(a.InvitesRedeemed)
	e.raw(a.InvitedBy[:])
	e.zero(protocol.AgentReservedBytes)
	return e.buf
}

func (a *AgentAccount) Decode(data []byte) error {
	d, err := open(data, AgentDiscriminator, AgentSize)
	if err != nil {
		return err
	}
	a.Bump = d.u8()
	a.LayoutVersion = d.u8()
	a.Wallet = d.account()
	a.ClipsBalance = d.u64()
	a.EfficiencyTier = d.u8()
	a.TasksCompleted = d.u32()
	a.RegisteredAt = d.i64()
	a.LastActiveAt = d.i64()
	a.InvitesSent = d.u32()
	a.InvitesRedeemed = d.u32()
	a.InvitedBy = d.account()
	return d.err
}

func (a *AgentAccount) View() *protocol.Agent {
	v := &protocol.Agent{
		Wallet:          a.Wallet.String(),
		ClipsBalance:    a.ClipsBalance,
		EfficiencyTier:  a.EfficiencyTier,
		TasksCompleted:  a.TasksCompleted,
		RegisteredAt:    a.RegisteredAt,
		LastActiveAt:    a.LastActiveAt,
		InvitesSent:     a.InvitesSent,
		InvitesRedeemed: a.InvitesRedeemed,
	}
	if !a.InvitedBy.IsZero() {
		v.InvitedBy = a.InvitedBy.String()
	}
	return v
}

// TaskRecord is a published task.
type TaskRecord struct {
	Bump           uint8
	LayoutVersion  uint8
	TaskID         uint32
	Creator        common.Account
	Title          [protocol.TitleLength]byte
	ContentCID     [protocol.PointerLength]byte
	RewardClips    uint64
	MaxClaims      uint16
	CurrentClaims  uint16
	IsActive       bool
	CreatedAt      int64
	MinTier        uint8
	RequiredTaskID uint32 // protocol.NoPrerequisite when ungated
}

func (t *TaskRecord) Encode() []byte {
	e := newEncoder(TaskSize)
	e.raw(TaskDiscriminator[:])
	e.u8(t.Bump)
	e.u8(t.LayoutVersion)
	e.u32(t.TaskID)
	e.raw(t.Creator[:])
	e.raw(t.Title[:])
	e.raw(t.ContentCID[:])
	e.u64(t.RewardClips)
	e.u16(t.MaxClaims)
	e.u16(t.CurrentClaims)
	e.boolean(t.IsActive)
	e.i64(t.CreatedAt)
	e.u8(t.MinTier)
	e.u32(t.RequiredTaskID)
	e.zero(protocol.TaskReservedBytes)
	return e.buf
}

func (t *TaskRecord) Decode(data []byte) error {
	d, err := open(data, TaskDiscriminator, TaskSize)
	if err != nil {
		return err
	}
	t.Bump = d.u8()
	t.LayoutVersion = d.u8()
	t.TaskID = d.u32()
	t.Creator = d.account()
	d.bytes(t.Title[:])
	d.bytes(t.ContentCID[:])
	t.RewardClips = d.u64()
	t.MaxClaims = d.u16()
	t.CurrentClaims = d.u16()
	t.IsActive = d.boolean()
	t.CreatedAt = d.i64()
	t.MinTier = d.u8()
	t.RequiredTaskID = d.u32()
	return d.err
}

func (t *TaskRecord) View() *protocol.Task {
	return &protocol.Task{
		TaskID:        t.TaskID,
		Creator:       t.Creator.String(),
		Title:         protocol.DecodeTitle(t.Title[:]),
		ContentCID:    protocol.DecodePointer(t.ContentCID[:]),
		RewardClips:   t.RewardClips,
		MaxClaims:     t.MaxClaims,
		CurrentClaims: t.CurrentClaims,
		IsActive:      t.IsActive,
		CreatedAt:     t.CreatedAt,
		MinTier:       t.MinTier,
		Prerequisite:  protocol.PrerequisiteFromWire(t.RequiredTaskID),
	}
}

// ClaimRecord proves an agent completed a task.
type ClaimRecord struct {
	Bump          uint8
	LayoutVersion uint8
	TaskID        uint32
	Agent         common.Account
	ProofCID      [protocol.PointerLength]byte
	ClipsAwarded  uint64
	CompletedAt   int64
}

func (c *ClaimRecord) Encode() []byte {
	e := newEncoder(ClaimSize)
	e.raw(ClaimDiscriminator[:])
	e.u8(c.Bump)
	e.u8(c.LayoutVersion)
	e.u32(c.TaskID)
	e.raw(c.Agent[:])
	e.raw(c.ProofCID[:])
	e.u64(c.ClipsAwarded)
	e.i64(c.CompletedAt)
	e.zero(protocol.ClaimReservedBytes)
	return e.buf
}

func (c *ClaimRecord) Decode(data []byte) error {
	d, err := open(data, ClaimDiscriminator, ClaimSize)
	if err != nil {
		return err
	}
	c.Bump = d.u8()
	c.LayoutVersion = d.u8()
	c.TaskID = d.u32()
	c.Agent = d.account()
	d.bytes(c.ProofCID[:])
	c.ClipsAwarded = d.u64()
	c.CompletedAt = d.i64()
	return d.err
}

func (c *ClaimRecord) View() *protocol.Claim {
	return &protocol.Claim{
		TaskID:       c.TaskID,
		Agent:        c.Agent.String(),
		ProofCID:     protocol.DecodePointer(c.ProofCID[:]),
		ClipsAwarded: c.ClipsAwarded,
		CompletedAt:  c.CompletedAt,
	}
}

// InviteRecord is an agent's referral record. The invite code is the
// inviter's wallet.
type InviteRecord struct {
	Bump            uint8
	LayoutVersion   uint8
	InviterWallet   common.Account
	InviteCode      [32]byte
	InvitesRedeemed uint32
	CreatedAt       int64
	IsActive        bool
}

func (i *InviteRecord) Encode() []byte {
	e := newEncoder(InviteSize)
	e.raw(InviteDiscriminator[:])
	e.u8(i.Bump)
	e.u8(i.LayoutVersion)
	e.raw(i.InviterWallet[:])
	e.raw(i.InviteCode[:])
	e.u32(i.InvitesRedeemed)
	e.i64(i.CreatedAt)
	e.boolean(i.IsActive)
	e.zero(protocol.InviteReservedBytes)
	return e.buf
}

func (i *InviteRecord) Decode(data []byte) error {
	d, err := open(data, InviteDiscriminator, InviteSize)
	if err != nil {
		return err
	}
	i.Bump = d.u8()
	i.LayoutVersion = d.u8()
	i.InviterWallet = d.account()
	d.bytes(i.InviteCode[:])
	i.InvitesRedeemed = d.u32()
	i.CreatedAt = d.i64()
	i.IsActive = d.boolean()
	return d.err
}

func (i *InviteRecord) View() *protocol.Invite {
	return &protocol.Invite{
		Inviter:         i.InviterWallet.String(),
		InvitesRedeemed: i.InvitesRedeemed,
		CreatedAt:       i.CreatedAt,
		IsActive:        i.IsActive,
	}
}

// open checks the type tag and size of account data and positions a decoder
// after the tag.
func open(data []byte, disc Discriminator, size int) (*decoder, error) {
	if len(data) < size {
		return nil, fmt.Errorf("%w: %d bytes, want %d", errShortData, len(data), size)
	}
	if !bytes.Equal(data[:DiscriminatorLength], disc[:]) {
		return nil, fmt.Errorf("account discriminator mismatch: %x", data[:DiscriminatorLength])
	}
	return &decoder{buf: data[DiscriminatorLength:]}, nil
}
