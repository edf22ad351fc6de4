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

// Package protocol defines the ledger-independent surface of the Paperclip
// protocol: entity views, instruction names, error codes and field codecs that
// both ledger forms share.
package protocol

import (
	"github.com/paperclip-protocol/go-paperclip/common/math"
)

// Ledger names one of the ledger forms the protocol is deployed on.
type Ledger string

const (
	LedgerAccount  Ledger = "account"  // derived-address account ledger
	LedgerContract Ledger = "contract" // contract storage ledger
)

// Instruction names. Argument order is part of the wire surface.
const (
	InstrInitialize              = "initialize"
	InstrRegisterAgent           = "register_agent"
	InstrRegisterAgentWithInvite = "register_agent_with_invite"
	InstrCreateInvite            = "create_invite"
	InstrCreateTask              = "create_task"
	InstrDeactivateTask          = "deactivate_task"
	InstrSubmitProof             = "submit_proof"
)

// NoPrerequisite is the on-ledger sentinel for "no prerequisite task". It
// never leaves the codecs: Task.Prerequisite is nil instead.
const NoPrerequisite uint32 = 1<<32 - 1

// LayoutV1 is the current record layout version.
const LayoutV1 uint8 = 1

// Reserved tail bytes per entity, kept zeroed so new fields can be appended
// without relayout.
const (
	ProtocolReservedBytes = 64
	AgentReservedBytes    = 88
	TaskReservedBytes     = 128
	ClaimReservedBytes    = 64
	InviteReservedBytes   = 64
)

// InviteeReward is the starting balance of an agent registering through an
// invite: base*3/2, truncating.
func InviteeReward(base uint64) (uint64, error) {
	v, overflow := math.SafeMul(base, 3)
	if overflow {
		return 0, ErrMathOverflow
	}
	return v / 2, nil
}

// InviterBonus is the amount credited to the inviter per redemption.
func InviterBonus(base uint64) uint64 {
	return base / 2
}

// PrerequisiteToWire converts an optional prerequisite to its wire value.
func PrerequisiteToWire(p *uint32) uint32 {
	if p == nil {
		return NoPrerequisite
	}
	return *p
}

// PrerequisiteFromWire converts a wire prerequisite to its optional form.
func PrerequisiteFromWire(v uint32) *uint32 {
	if v == NoPrerequisite {
		return nil
	}
	return &v
}
