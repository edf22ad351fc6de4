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

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	require.Equal(t, uint32(6000), ErrUnauthorized.Code)
	require.Equal(t, uint32(6010), ErrSelfReferralNotAllowed.Code)

	seen := make(map[uint32]bool)
	for _, e := range Errors() {
		require.False(t, seen[e.Code], "duplicate code %d", e.Code)
		seen[e.Code] = true
		require.Same(t, e, ErrorByCode(e.Code))
		require.Same(t, e, ErrorByName(e.Name))
	}
	require.Nil(t, ErrorByCode(5999))
}

func TestErrorIdentityAcrossWire(t *testing.T) {
	wrapped := fmt.Errorf("submit proof: %w", ErrorByCode(ErrAlreadyClaimed.Code))
	require.ErrorIs(t, wrapped, ErrAlreadyClaimed)

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, ErrAlreadyClaimed.Code, code)
}

func TestClassification(t *testing.T) {
	require.True(t, IsAuthorization(ErrUnauthorized))
	require.False(t, IsPrecondition(ErrUnauthorized))
	require.True(t, IsArithmetic(ErrMathOverflow))
	require.False(t, IsPrecondition(ErrMathOverflow))
	for _, e := range []error{ErrAgentNotRegistered, ErrTaskInactive, ErrAlreadyClaimed, ErrTierTooLow} {
		require.True(t, IsPrecondition(e), "%v", e)
		require.False(t, IsTransient(e), "%v", e)
	}
	require.False(t, IsPrecondition(errors.New("dial tcp: refused")))
}

func TestTransient(t *testing.T) {
	base := errors.New("connection reset")
	err := Transient(base)
	require.True(t, IsTransient(err))
	require.ErrorIs(t, err, base)
	require.Equal(t, base.Error(), err.Error())

	// Protocol rejections stay definitive
	require.Same(t, ErrTaskFullyClaimed, Transient(ErrTaskFullyClaimed))
	require.False(t, IsTransient(Transient(ErrTaskFullyClaimed)))
	require.Nil(t, Transient(nil))
	require.Equal(t, err, Transient(err))
}

func TestRewards(t *testing.T) {
	tests := []struct {
		base, invitee, bonus uint64
	}{
		{100, 150, 50},
		{101, 151, 50},
		{1, 1, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		got, err := InviteeReward(tt.base)
		require.NoError(t, err)
		require.Equal(t, tt.invitee, got, "base %d", tt.base)
		require.Equal(t, tt.bonus, InviterBonus(tt.base), "base %d", tt.base)
	}
	_, err := InviteeReward(1 << 63)
	require.ErrorIs(t, err, ErrMathOverflow)
}

func TestPrerequisiteWire(t *testing.T) {
	require.Nil(t, PrerequisiteFromWire(NoPrerequisite))
	require.Equal(t, NoPrerequisite, PrerequisiteToWire(nil))

	p := PrerequisiteFromWire(3)
	require.NotNil(t, p)
	require.Equal(t, uint32(3), PrerequisiteToWire(p))
}

func TestTitleCodec(t *testing.T) {
	enc, err := EncodeTitle("café")
	require.NoError(t, err)
	require.Equal(t, "café", DecodeTitle(enc[:]))

	_, err = EncodeTitle(strings.Repeat("x", TitleLength+1))
	require.ErrorIs(t, err, ErrInvalidInstruction)

	enc, err = EncodeTitle(strings.Repeat("x", TitleLength))
	require.NoError(t, err)
	require.Len(t, DecodeTitle(enc[:]), TitleLength)

	_, err = EncodeTitle("ab\x00cd")
	require.ErrorIs(t, err, ErrInvalidInstruction)
}

func TestPointerCodec(t *testing.T) {
	ptr := "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"
	enc, err := EncodePointer(ptr)
	require.NoError(t, err)
	require.Equal(t, ptr, DecodePointer(enc[:]))

	_, err = EncodePointer(strings.Repeat("q", PointerLength+1))
	require.ErrorIs(t, err, ErrInvalidInstruction)

	_, err = EncodePointer("mock-\x00x")
	require.ErrorIs(t, err, ErrInvalidInstruction)
	require.ErrorIs(t, (&TaskParams{TaskID: 1, ContentCID: "mock\x001"}).Validate(), ErrInvalidInstruction)
}

func TestTaskParams(t *testing.T) {
	self := uint32(4)
	p := TaskParams{TaskID: 4, Title: "t", Prerequisite: &self}
	require.ErrorIs(t, p.Validate(), ErrInvalidTaskPrerequisite)

	other := uint32(1)
	p.Prerequisite = &other
	require.NoError(t, p.Validate())

	task := Task{MaxClaims: 2, CurrentClaims: 1, Prerequisite: &other}
	require.Equal(t, uint16(1), task.SlotsRemaining())
	require.True(t, task.HasPrerequisite())
	task.CurrentClaims = 3
	require.Equal(t, uint16(0), task.SlotsRemaining())
}
