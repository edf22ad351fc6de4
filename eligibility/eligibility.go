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

// Package eligibility decides which published tasks an agent can claim.
//
// The pipeline is applied in a fixed order: active, slots remaining, tier,
// own claim absent, prerequisite claim present. Every function here is pure;
// claim existence is supplied by the caller.
package eligibility

import (
	"context"
	"sort"

	mapset "github.com/deckarep/golang-set"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Claims answers claim existence for a single agent.
type Claims interface {
	HasClaim(ctx context.Context, taskID uint32) (bool, error)
}

// ClaimSet is the set of task ids an agent holds claims for.
type ClaimSet struct {
	set mapset.Set
}

// NewClaimSet creates a claim set from task ids.
func NewClaimSet(ids ...uint32) *ClaimSet {
	s := &ClaimSet{set: mapset.NewThreadUnsafeSet()}
	for _, id := range ids {
		s.set.Add(id)
	}
	return s
}

// Add records a claim on taskID.
func (s *ClaimSet) Add(taskID uint32) {
	s.set.Add(taskID)
}

// Contains reports whether the agent claimed taskID.
func (s *ClaimSet) Contains(taskID uint32) bool {
	return s.set.Contains(taskID)
}

// Len returns the number of claims in the set.
func (s *ClaimSet) Len() int {
	return s.set.Cardinality()
}

// HasClaim implements Claims.
func (s *ClaimSet) HasClaim(_ context.Context, taskID uint32) (bool, error) {
	return s.Contains(taskID), nil
}

// Open reports whether a task passes the claim-independent stages: active,
// slots remaining and tier.
func Open(tier uint8, t *protocol.Task) bool {
	return t.IsActive && t.CurrentClaims < t.MaxClaims && t.MinTier <= tier
}

// Prefilter keeps the tasks that pass the claim-independent stages.
func Prefilter(tier uint8, tasks []*protocol.Task) []*protocol.Task {
	var out []*protocol.Task
	for _, t := range tasks {
		if Open(tier, t) {
			out = append(out, t)
		}
	}
	return out
}

// Doable returns the tasks an agent of the given tier could successfully
// submit, given the set of tasks it already claimed.
func Doable(tier uint8, tasks []*protocol.Task, claimed *ClaimSet) []*protocol.Task {
	var out []*protocol.Task
	for _, t := range Prefilter(tier, tasks) {
		if claimed.Contains(t.TaskID) {
			continue
		}
		if t.Prerequisite != nil && !claimed.Contains(*t.Prerequisite) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Resolve computes the same result as Doable but looks claims up lazily, only
// for tasks that survive the earlier stages. Each task id is looked up at most
// once.
func Resolve(ctx context.Context, tier uint8, tasks []*protocol.Task, claims Claims) ([]*protocol.Task, error) {
	known := make(map[uint32]bool)
	has := func(id uint32) (bool, error) {
		if v, ok := known[id]; ok {
			return v, nil
		}
		v, err := claims.HasClaim(ctx, id)
		if err != nil {
			return false, err
		}
		known[id] = v
		return v, nil
	}
	var out []*protocol.Task
	for _, t := range Prefilter(tier, tasks) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		claimed, err := has(t.TaskID)
		if err != nil {
			return nil, err
		}
		if claimed {
			continue
		}
		if t.Prerequisite != nil {
			ok, err := has(*t.Prerequisite)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// better reports whether a should be worked on before b: highest reward
// first, then lowest minimum tier, then lowest id.
func better(a, b *protocol.Task) bool {
	if a.RewardClips != b.RewardClips {
		return a.RewardClips > b.RewardClips
	}
	if a.MinTier != b.MinTier {
		return a.MinTier < b.MinTier
	}
	return a.TaskID < b.TaskID
}

// Select picks the next task to work on, nil if there is none.
func Select(tasks []*protocol.Task) *protocol.Task {
	var best *protocol.Task
	for _, t := range tasks {
		if best == nil || better(t, best) {
			best = t
		}
	}
	return best
}

// Sort orders tasks by id for display. Listings carry no inherent order.
func Sort(tasks []*protocol.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskID < tasks[j].TaskID })
}

// IDs returns the set of task ids in tasks.
func IDs(tasks []*protocol.Task) mapset.Set {
	ids := mapset.NewThreadUnsafeSet()
	for _, t := range tasks {
		ids.Add(t.TaskID)
	}
	return ids
}
