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

// EventKind identifies what a successful instruction did.
type EventKind string

const (
	EventInitialized     EventKind = "initialized"
	EventAgentRegistered EventKind = "agent_registered"
	EventInviteCreated   EventKind = "invite_created"
	EventTaskCreated     EventKind = "task_created"
	EventTaskDeactivated EventKind = "task_deactivated"
	EventProofSubmitted  EventKind = "proof_submitted"
)

// Event is emitted by every successful instruction. Amount carries the Clips
// credited by the instruction, if any.
type Event struct {
	Kind    EventKind `json:"kind"`
	Ledger  Ledger    `json:"ledger"`
	Slot    uint64    `json:"slot"`
	Actor   string    `json:"actor"`
	TaskID  *uint32   `json:"taskId,omitempty"`
	Inviter string    `json:"inviter,omitempty"`
	Amount  uint64    `json:"amount,omitempty"`
	Time    int64     `json:"time"`
}
