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
	"github.com/paperclip-protocol/go-paperclip/common"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// record is a storage struct. The same word sequence is returned by the view
// functions, so Encode and Decode double as the ABI codec.
type record interface {
	put(w *wordWriter)
	get(r *wordReader)
}

func encodeRecord(rec record) []byte {
	var w wordWriter
	rec.put(&w)
	return w.encode()
}

func decodeRecord(rec record, data []byte) error {
	words, err := splitWords(data)
	if err != nil {
		return err
	}
	r := &wordReader{words: words}
	rec.get(r)
	return r.err
}

// ProtocolState mirrors the contract globals, slots 0 through 7.
type ProtocolState struct {
	Initialized           bool
	Authority             common.Address
	BaseRewardUnit        uint64
	TotalAgents           uint32
	TotalTasks            uint32
	TotalClipsDistributed uint64
	Paused                bool
	LayoutVersion         uint8
}

const protocolWords = slotLayoutVersion + 1

func (s *ProtocolState) put(w *wordWriter) {
	w.boolean(s.Initialized)
	w.address(s.Authority)
	w.uint(s.BaseRewardUnit)
	w.uint(uint64(s.TotalAgents))
	w.uint(uint64(s.TotalTasks))
	w.uint(s.TotalClipsDistributed)
	w.boolean(s.Paused)
	w.uint(uint64(s.LayoutVersion))
}

func (s *ProtocolState) get(r *wordReader) {
	s.Initialized = r.boolean()
	s.Authority = r.address()
	s.BaseRewardUnit = r.uint(64)
	s.TotalAgents = uint32(r.uint(32))
	s.TotalTasks = uint32(r.uint(32))
	s.TotalClipsDistributed = r.uint(64)
	s.Paused = r.boolean()
	s.LayoutVersion = uint8(r.uint(8))
}

func (s *ProtocolState) Encode() []byte           { return encodeRecord(s) }
func (s *ProtocolState) Decode(data []byte) error { return decodeRecord(s, data) }

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

// AgentRecord is the agents mapping value.
type AgentRecord struct {
	Exists          bool
	Wallet          common.Address
	ClipsBalance    uint64
	EfficiencyTier  uint8
	TasksCompleted  uint32
	RegisteredAt    int64
	LastActiveAt    int64
	InvitesSent     uint32
	InvitesRedeemed uint32
	InvitedBy       common.Address
	LayoutVersion   uint8
}

func (a *AgentRecord) put(w *wordWriter) {
	w.boolean(a.Exists)
	w.address(a.Wallet)
	w.uint(a.ClipsBalance)
	w.uint(uint64(a.EfficiencyTier))
	w.uint(uint64(a.TasksCompleted))
	w.int(a.RegisteredAt)
	w.int(a.LastActiveAt)
	w.uint(uint64(a.InvitesSent))
	w.uint(uint64(a.InvitesRedeemed))
	w.address(a.InvitedBy)
	w.uint(uint64(a.LayoutVersion))
}

func (a *AgentRecord) get(r *wordReader) {
	a.Exists = r.boolean()
	a.Wallet = r.address()
	a.ClipsBalance = r.uint(64)
	a.EfficiencyTier = uint8(r.uint(8))
	a.TasksCompleted = uint32(r.uint(32))
	a.RegisteredAt = r.int()
	a.LastActiveAt = r.int()
	a.InvitesSent = uint32(r.uint(32))
	a.InvitesRedeemed = uint32(r.uint(32))
	a.InvitedBy = r.address()
	a.LayoutVersion = uint8(r.uint(8))
}

func (a *AgentRecord) Encode() []byte           { return encodeRecord(a) }
func (a *AgentRecord) Decode(data []byte) error { return decodeRecord(a, data) }

func (a *AgentRecord) View() *protocol.Agent {
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

// TaskRecord is the tasks mapping value.
type TaskRecord struct {
	Exists         bool
	TaskID         uint32
	Creator        common.Address
	Title          [protocol.TitleLength]byte
	ContentCID     [protocol.PointerLength]byte
	RewardClips    uint64
	MaxClaims      uint16
	CurrentClaims  uint16
	IsActive       bool
	CreatedAt      int64
	MinTier        uint8
	RequiredTaskID uint32 // protocol.NoPrerequisite when ungated
	LayoutVersion  uint8
}

func (t *TaskRecord) put(w *wordWriter) {
	w.boolean(t.Exists)
	w.uint(uint64(t.TaskID))
	w.address(t.Creator)
	w.bytes(t.Title[:])
	w.bytes(t.ContentCID[:])
	w.uint(t.RewardClips)
	w.uint(uint64(t.MaxClaims))
	w.uint(uint64(t.CurrentClaims))
	w.boolean(t.IsActive)
	w.int(t.CreatedAt)
	w.uint(uint64(t.MinTier))
	w.uint(uint64(t.RequiredTaskID))
	w.uint(uint64(t.LayoutVersion))
}

func (t *TaskRecord) get(r *wordReader) {
	t.Exists = r.boolean()
	t.TaskID = uint32(r.uint(32))
	t.Creator = r.address()
	r.bytes(t.Title[:])
	r.bytes(t.ContentCID[:])
	t.RewardClips = r.uint(64)
	t.MaxClaims = uint16(r.uint(16))
	t.CurrentClaims = uint16(r.uint(16))
	t.IsActive = r.boolean()
	t.CreatedAt = r.int()
	t.MinTier = uint8(r.uint(8))
	t.RequiredTaskID = uint32(r.uint(32))
	t.LayoutVersion = uint8(r.uint(8))
}

func (t *TaskRecord) Encode() []byte           { return encodeRecord(t) }
func (t *TaskRecord) Decode(data []byte) error { return decodeRecord(t, data) }

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

// ClaimRecord is the claims mapping value. Claims are never rewritten.
type ClaimRecord struct {
	Exists        bool
	TaskID        uint32
	Agent         common.Address
	ProofCID      [protocol.PointerLength]byte
	ClipsAwarded  uint64
	CompletedAt   int64
	LayoutVersion uint8
}

func (c *ClaimRecord) put(w *wordWriter) {
	w.boolean(c.Exists)
	w.uint(uint64(c.TaskID))
	w.address(c.Agent)
	w.bytes(c.ProofCID[:])
	w.uint(c.ClipsAwarded)
	w.int(c.CompletedAt)
	w.uint(uint64(c.LayoutVersion))
}

func (c *ClaimRecord) get(r *wordReader) {
	c.Exists = r.boolean()
	c.TaskID = uint32(r.uint(32))
	c.Agent = r.address()
	r.bytes(c.ProofCID[:])
	c.ClipsAwarded = r.uint(64)
	c.CompletedAt = r.int()
	c.LayoutVersion = uint8(r.uint(8))
}

func (c *ClaimRecord) Encode() []byte           { return encodeRecord(c) }
func (c *ClaimRecord) Decode(data []byte) error { return decodeRecord(c, data) }

func (c *ClaimRecord) View() *protocol.Claim {
	return &protocol.Claim{
		TaskID:       c.TaskID,
		Agent:        c.Agent.String(),
		ProofCID:     protocol.DecodePointer(c.ProofCID[:]),
		ClipsAwarded: c.ClipsAwarded,
		CompletedAt:  c.CompletedAt,
	}
}

// InviteRecord is the invites mapping value.
type InviteRecord struct {
	Exists          bool
	Inviter         common.Address
	InviteCode      common.Hash
	InvitesRedeemed uint32
	CreatedAt       int64
	IsActive        bool
	LayoutVersion   uint8
}

func (i *InviteRecord) put(w *wordWriter) {
	w.boolean(i.Exists)
	w.address(i.Inviter)
	w.raw(i.InviteCode)
	w.uint(uint64(i.InvitesRedeemed))
	w.int(i.CreatedAt)
	w.boolean(i.IsActive)
	w.uint(uint64(i.LayoutVersion))
}

func (i *InviteRecord) get(r *wordReader) {
	i.Exists = r.boolean()
	i.Inviter = r.address()
	i.InviteCode = r.next()
	i.InvitesRedeemed = uint32(r.uint(32))
	i.CreatedAt = r.int()
	i.IsActive = r.boolean()
	i.LayoutVersion = uint8(r.uint(8))
}

func (i *InviteRecord) Encode() []byte           { return encodeRecord(i) }
func (i *InviteRecord) Decode(data []byte) error { return decodeRecord(i, data) }

func (i *InviteRecord) View() *protocol.Invite {
	return &protocol.Invite{
		Inviter:         i.Inviter.String(),
		InvitesRedeemed: i.InvitesRedeemed,
		CreatedAt:       i.CreatedAt,
		IsActive:        i.IsActive,
	}
}

// InviteCode derives the code stored with an inviter's invite.
func InviteCode(inviter common.Address) common.Hash {
	return inviter.Hash()
}
