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

package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/paperclip-protocol/go-paperclip/common/math"
	"github.com/paperclip-protocol/go-paperclip/eligibility"
	"github.com/paperclip-protocol/go-paperclip/objstore"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// ProofFunc produces the proof payload for a task. content is nil for tasks
// with mock content pointers.
type ProofFunc func(ctx context.Context, task *protocol.Task, content json.RawMessage) (json.RawMessage, error)

// Skipped records a task the work loop gave up on.
type Skipped struct {
	TaskID uint32 `json:"taskId"`
	Reason string `json:"reason"`
}

// WorkReport summarizes a work loop run.
type WorkReport struct {
	Completed []*protocol.Claim `json:"completed"`
	Skipped   []Skipped         `json:"skipped"`
	Earned    uint64            `json:"earned"`
}

// skippable reports whether a submission rejection only concerns the task at
// hand, so the loop can move on to the next one.
func skippable(err error) bool {
	return errors.Is(err, protocol.ErrAlreadyClaimed) ||
		errors.Is(err, protocol.ErrTaskFullyClaimed) ||
		errors.Is(err, protocol.ErrTaskInactive)
}

// Work repeatedly picks the best doable task, produces a proof for it and
// submits it, until nothing is left or limit tasks were completed (limit 0
// means no limit). Rejections that concern only one task skip it; any other
// error ends the loop and is returned along with the report so far.
func (c *Client) Work(ctx context.Context, produce ProofFunc, limit int) (*WorkReport, error) {
	report := &WorkReport{Completed: []*protocol.Claim{}, Skipped: []Skipped{}}
	skip := make(map[uint32]bool)
	for limit == 0 || len(report.Completed) < limit {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doable, err := c.Doable(ctx)
		if err != nil {
			return report, err
		}
		var candidates []*protocol.Task
		for _, t := range doable {
			if !skip[t.TaskID] {
				candidates = append(candidates, t)
			}
		}
		task := eligibility.Select(candidates)
		if task == nil {
			break
		}
		content, err := objstore.Resolve(ctx, c.objects, task.ContentCID)
		if err != nil {
			return report, err
		}
		proof, err := produce(ctx, task, content)
		if err != nil {
			return report, err
		}
		claim, err := c.Submit(ctx, task.TaskID, proof)
		switch {
		case skippable(err):
			c.log.Info("Skipping task", "task", task.TaskID, "reason", err)
			skip[task.TaskID] = true
			report.Skipped = append(report.Skipped, Skipped{TaskID: task.TaskID, Reason: err.Error()})
		case err != nil:
			return report, err
		default:
			report.Completed = append(report.Completed, claim)
			earned, overflow := math.SafeAdd(report.Earned, claim.ClipsAwarded)
			if overflow {
				return report, protocol.ErrMathOverflow
			}
			report.Earned = earned
		}
	}
	return report, nil
}
