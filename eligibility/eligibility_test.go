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

package eligibility

import (
	"context"
	"errors"
	"testing"

	mapset "github.com/deckarep/golang-set"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

func prereq(id uint32) *uint32 { return &id }

func catalog() []*protocol.Task {
	return []*protocol.Task{
		{TaskID: 1, RewardClips: 50, MaxClaims: 2, IsActive: true},
		{TaskID: 2, RewardClips: 10, MaxClaims: 1, CurrentClaims: 1, IsActive: true},
		{TaskID: 3, RewardClips: 10, MaxClaims: 5, IsActive: false},
		{TaskID: 4, RewardClips: 70, MaxClaims: 5, MinTier: 1, IsActive: true},
		{TaskID: 5, RewardClips: 30, MaxClaims: 5, IsActive: true, Prerequisite: prereq(1)},
		{TaskID: 6, RewardClips: 30, MaxClaims: 5, IsActive: true},
	}
}

func ids(tasks []*protocol.Task) mapset.Set { return IDs(tasks) }

func set(ids ...uint32) mapset.Set {
	s := mapset.NewThreadUnsafeSet()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func TestPrefilter(t *testing.T) {
	got := ids(Prefilter(0, catalog()))
	want := set(1, 5, 6)
	if !got.Equal(want) {
		t.Fatalf("tier 0 prefilter: have %v, want %v", got, want)
	}
	got = ids(Prefilter(1, catalog()))
	want = set(1, 4, 5, 6)
	if !got.Equal(want) {
		t.Fatalf("tier 1 prefilter: have %v, want %v", got, want)
	}
}

func TestDoable(t *testing.T) {
	tests := []struct {
		claimed []uint32
		want    []uint32
	}{
		{nil, []uint32{1, 6}},
		{[]uint32{1}, []uint32{5, 6}},
		{[]uint32{1, 5, 6}, nil},
		{[]uint32{2, 3}, []uint32{1, 6}},
	}
	for i, tt := range tests {
		got := ids(Doable(0, catalog(), NewClaimSet(tt.claimed...)))
		want := set(tt.want...)
		if !got.Equal(want) {
			t.Errorf("test %d: have %v, want %v", i, got, want)
		}
	}
}

type countingClaims struct {
	set   *ClaimSet
	calls map[uint32]int
	fail  bool
}

func (c *countingClaims) HasClaim(ctx context.Context, id uint32) (bool, error) {
	c.calls[id]++
	if c.fail {
		return false, errors.New("rpc down")
	}
	return c.set.HasClaim(ctx, id)
}

func TestResolveMatchesDoable(t *testing.T) {
	claims := &countingClaims{set: NewClaimSet(1), calls: make(map[uint32]int)}
	got, err := Resolve(context.Background(), 0, catalog(), claims)
	if err != nil {
		t.Fatal(err)
	}
	want := Doable(0, catalog(), NewClaimSet(1))
	if !ids(got).Equal(ids(want)) {
		t.Fatalf("resolve mismatch: have %v, want %v", ids(got), ids(want))
	}
	// Closed tasks are never looked up, shared ids are looked up once
	for _, id := range []uint32{2, 3, 4} {
		if claims.calls[id] != 0 {
			t.Errorf("looked up claim for filtered task %d", id)
		}
	}
	if claims.calls[1] != 1 {
		t.Errorf("task 1 looked up %d times, want 1", claims.calls[1])
	}
}

func TestResolveError(t *testing.T) {
	claims := &countingClaims{set: NewClaimSet(), calls: make(map[uint32]int), fail: true}
	if _, err := Resolve(context.Background(), 0, catalog(), claims); err == nil {
		t.Fatal("lookup failure swallowed")
	}
}

func TestSelect(t *testing.T) {
	if Select(nil) != nil {
		t.Fatal("selected from empty list")
	}
	tasks := []*protocol.Task{
		{TaskID: 9, RewardClips: 30, MinTier: 1},
		{TaskID: 7, RewardClips: 30, MinTier: 0},
		{TaskID: 3, RewardClips: 30, MinTier: 0},
		{TaskID: 1, RewardClips: 20},
	}
	if got := Select(tasks); got.TaskID != 3 {
		t.Fatalf("selected task %d, want 3", got.TaskID)
	}
	Sort(tasks)
	for i, want := range []uint32{1, 3, 7, 9} {
		if tasks[i].TaskID != want {
			t.Fatalf("sort position %d: have %d, want %d", i, tasks[i].TaskID, want)
		}
	}
}
