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

package protocol

// Protocol is the deployment singleton.
type Protocol struct {
	Authority             string `json:"authority"`
	BaseRewardUnit        uint64 `json:"baseRewardUnit"`
	TotalAgents           uint32 `json:"totalAgents"`
	TotalTasks            uint32 `json:"totalTasks"`
	TotalClipsDistributed uint64 `json:"totalClipsDistributed"`
	Paused                bool   `json:"paused"`
}

// Agent is a registered participant. InvitedBy is empty when the agent
// registered without an invite.
type Agent struct {
	Wallet          string `json:"wallet"`
	ClipsBalance    uint64 `json:"clipsBalance"`
	EfficiencyTier  uint8  `json:"efficiencyTier"`
	TasksCompleted  uint32 `json:"tasksCompleted"`
	RegisteredAt    int64  `json:"registeredAt"`
	LastActiveAt    int64  `json:"lastActiveAt"`
	InvitesSent     uint32 `json:"invitesSent"`
	InvitesRedeemed uint32 `json:"invitesRedeemed"`
	InvitedBy       string `json:"invitedBy,omitempty"`
}

// Task is a published unit of work.
type Task struct {
	TaskID        uint32  `json:"taskId"`
	Creator       string  `json:"creator"`
	Title         string  `json:"title"`
	ContentCID    string  `json:"contentCid"`
	RewardClips   uint64  `json:"rewardClips"`
	MaxClaims     uint16  `json:"maxClaims"`
	CurrentClaims uint16  `json:"currentClaims"`
	IsActive      bool    `json:"isActive"`
	CreatedAt     int64   `json:"createdAt"`
	MinTier       uint8   `json:"minTier"`
	Prerequisite  *uint32 `json:"prerequisite,omitempty"`
}

// SlotsRemaining returns how many more claims the task accepts.
func (t *Task) SlotsRemaining() uint16 {
	if t.CurrentClaims >= t.MaxClaims {
		return 0
	}
	return t.MaxClaims - t.CurrentClaims
}

// HasPrerequisite reports whether the task is gated on another task.
func (t *Task) HasPrerequisite() bool {
	return t.Prerequisite != nil
}

// Claim proves that an agent completed a task. Claims are never mutated.
type Claim struct {
	TaskID       uint32 `json:"taskId"`
	Agent        string `json:"agent"`
	ProofCID     string `json:"proofCid"`
	ClipsAwarded uint64 `json:"clipsAwarded"`
	CompletedAt  int64  `json:"completedAt"`
}

// Invite is the per-agent referral record.
type Invite struct {
	Inviter         string `json:"inviter"`
	InvitesRedeemed uint32 `json:"invitesRedeemed"`
	CreatedAt       int64  `json:"createdAt"`
	IsActive        bool   `json:"isActive"`
}

// TaskParams carries the create_task arguments in wire order.
type TaskParams struct {
	TaskID       uint32  `json:"taskId"`
	Title        string  `json:"title"`
	ContentCID   string  `json:"contentCid"`
	RewardClips  uint64  `json:"rewardClips"`
	MaxClaims    uint16  `json:"maxClaims"`
	MinTier      uint8   `json:"minTier"`
	Prerequisite *uint32 `json:"prerequisite,omitempty"`
}

// Validate checks the arguments that can be rejected before reaching a ledger.
func (p *TaskParams) Validate() error {
	if p.Prerequisite != nil && *p.Prerequisite == p.TaskID {
		return ErrInvalidTaskPrerequisite
	}
	if _, err := EncodeTitle(p.Title); err != nil {
		return err
	}
	if _, err := EncodePointer(p.ContentCID); err != nil {
		return err
	}
	return nil
}
