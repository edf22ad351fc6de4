// Copyright 2026 The go-paperclip Authors
// This file is part of go-paperclip.
//
// go-paperclip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-paperclip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-paperclip. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	"github.com/paperclip-protocol/go-paperclip/protocol"
)

var (
	taskIDFlag = cli.UintFlag{
		Name:  "id",
		Usage: "Task id",
	}
	titleFlag = cli.StringFlag{
		Name:  "title",
		Usage: "Task title",
	}
	rewardFlag = cli.Uint64Flag{
		Name:  "reward",
		Usage: "Clips paid per completion",
	}
	maxClaimsFlag = cli.UintFlag{
		Name:  "max-claims",
		Usage: "Number of agents that can complete the task",
		Value: 1,
	}
	minTierFlag = cli.UintFlag{
		Name:  "min-tier",
		Usage: "Minimum efficiency tier",
	}
	requiresFlag = cli.StringFlag{
		Name:  "requires",
		Usage: "Id of a task that must be completed first",
	}
	contentFlag = cli.StringFlag{
		Name:  "content",
		Usage: "JSON file with the task content, uploaded to the object store",
	}
	contentCIDFlag = cli.StringFlag{
		Name:  "content-cid",
		Usage: "Pointer to already stored content",
	}

	taskCommand = cli.Command{
		Name:     "task",
		Usage:    "Manage tasks",
		Category: "AUTHORITY COMMANDS",
		Subcommands: []cli.Command{
			{
				Action: createTask,
				Name:   "create",
				Usage:  "Publish a new task",
				Flags: []cli.Flag{
					taskIDFlag,
					titleFlag,
					rewardFlag,
					maxClaimsFlag,
					minTierFlag,
					requiresFlag,
					contentFlag,
					contentCIDFlag,
				},
			},
			{
				Action:    deactivateTask,
				Name:      "deactivate",
				Usage:     "Close a task to further submissions",
				ArgsUsage: "<task id>",
			},
			{
				Action:    showTask,
				Name:      "show",
				Usage:     "Show one task with its content",
				ArgsUsage: "<task id>",
			},
		},
	}
)

func createTask(ctx *cli.Context) error {
	if !ctx.IsSet(taskIDFlag.Name) {
		return errors.New("--id required")
	}
	if uint64(ctx.Uint(taskIDFlag.Name)) > math.MaxUint32 || ctx.Uint(maxClaimsFlag.Name) > math.MaxUint16 || ctx.Uint(minTierFlag.Name) > math.MaxUint8 {
		return errors.New("task parameter out of range")
	}
	params := protocol.TaskParams{
		TaskID:      uint32(ctx.Uint(taskIDFlag.Name)),
		Title:       ctx.String(titleFlag.Name),
		ContentCID:  ctx.String(contentCIDFlag.Name),
		RewardClips: ctx.Uint64(rewardFlag.Name),
		MaxClaims:   uint16(ctx.Uint(maxClaimsFlag.Name)),
		MinTier:     uint8(ctx.Uint(minTierFlag.Name)),
	}
	if req := ctx.String(requiresFlag.Name); req != "" {
		id, err := taskID(req)
		if err != nil {
			return err
		}
		params.Prerequisite = &id
	}
	var content json.RawMessage
	if file := ctx.String(contentFlag.Name); file != "" {
		if params.ContentCID != "" {
			return errors.New("give either --content or --content-cid")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			return fmt.Errorf("content %s is not valid JSON", file)
		}
		content = data
	}
	return withSession(ctx, func(s *session) error {
		task, err := s.CreateTask(s.ctx, params, content)
		if err != nil {
			return err
		}
		return respond(ctx, map[string]interface{}{"task": task}, func(w io.Writer) {
			renderTasks(w, "Created task", []*protocol.Task{task})
		})
	})
}

func deactivateTask(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("task id required")
	}
	id, err := taskID(ctx.Args().First())
	if err != nil {
		return err
	}
	return withSession(ctx, func(s *session) error {
		if err := s.DeactivateTask(s.ctx, id); err != nil {
			return err
		}
		return respond(ctx, map[string]interface{}{"taskId": id, "isActive": false}, nil)
	})
}

func showTask(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("task id required")
	}
	id, err := taskID(ctx.Args().First())
	if err != nil {
		return err
	}
	return withSession(ctx, func(s *session) error {
		view, err := s.Task(s.ctx, id)
		if err != nil {
			return err
		}
		if view == nil {
			return fmt.Errorf("%w: %d", protocol.ErrTaskNotFound, id)
		}
		return respond(ctx, map[string]interface{}{"task": view}, func(w io.Writer) {
			renderTasks(w, "Task "+strconv.FormatUint(uint64(id), 10), []*protocol.Task{view.Task})
			if view.Content != nil {
				fmt.Fprintf(w, "%s\n", view.Content)
			}
		})
	})
}
