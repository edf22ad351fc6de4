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

// Package client drives the protocol on behalf of one agent session. It
// resolves content through the object store, serializes the session's
// mutating calls and runs the work loop.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/paperclip-protocol/go-paperclip/adapter"
	"github.com/paperclip-protocol/go-paperclip/eligibility"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/objstore"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"golang.org/x/sync/errgroup"
)

// resolveConcurrency bounds parallel content lookups in listings.
const resolveConcurrency = 8

// Client is one agent session on one ledger.
type Client struct {
	ledger  adapter.Adapter
	objects objstore.Store
	mu      sync.Mutex // serializes mutating calls
	log     log.Logger
}

// New creates a client on an opened adapter.
func New(ledger adapter.Adapter, objects objstore.Store) *Client {
	return &Client{ledger: ledger, objects: objects, log: log.New("ledger", ledger.Ledger())}
}

// Adapter returns the ledger adapter of the session.
func (c *Client) Adapter() adapter.Adapter { return c.ledger }

// read runs a read-only call, retrying once on a transient failure.
func read[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var v T
	err := adapter.Retry(ctx, func(ctx context.Context) (err error) {
		v, err = fn(ctx)
		return err
	})
	return v, err
}

// Wallet returns the session's wallet identity.
func (c *Client) Wallet(ctx context.Context) (string, error) {
	return c.ledger.Wallet(ctx)
}

// Status is a snapshot of the protocol and the session's agent.
type Status struct {
	Ledger   protocol.Ledger    `json:"ledger"`
	Wallet   string             `json:"wallet,omitempty"`
	Protocol *protocol.Protocol `json:"protocol"`
	Agent    *protocol.Agent    `json:"agent"`
	Invite   *protocol.Invite   `json:"invite"`
}

// Status reports the protocol singleton and, if the session has a wallet,
// its agent and invite. Without a wallet only the protocol is reported.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	st := &Status{Ledger: c.ledger.Ledger()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.Protocol, err = read(gctx, c.ledger.Protocol)
		return err
	})
	wallet, err := c.ledger.Wallet(ctx)
	if err == nil {
		st.Wallet = wallet
		g.Go(func() (err error) {
			st.Agent, err = read(gctx, func(ctx context.Context) (*protocol.Agent, error) {
				return c.ledger.Agent(ctx, wallet)
			})
			return err
		})
		g.Go(func() (err error) {
			st.Invite, err = read(gctx, func(ctx context.Context) (*protocol.Invite, error) {
				return c.ledger.Invite(ctx, wallet)
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

func (c *Client) self(ctx context.Context) (string, error) {
	return c.ledger.Wallet(ctx)
}

// Register registers the session's wallet, through inviter's invite when
// inviter is not empty, and returns the new agent.
func (c *Client) Register(ctx context.Context, inviter string) (*protocol.Agent, error) {
	wallet, err := c.self(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if inviter == "" {
		_, err = c.ledger.RegisterAgent(ctx)
	} else {
		_, err = c.ledger.RegisterAgentWithInvite(ctx, inviter)
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.log.Info("Registered agent", "wallet", wallet, "inviter", inviter)
	return read(ctx, func(ctx context.Context) (*protocol.Agent, error) { return c.ledger.Agent(ctx, wallet) })
}

// CreateInvite opens the session's invite. Invitees redeem it by naming
// the session's wallet.
func (c *Client) CreateInvite(ctx context.Context) (*protocol.Invite, error) {
	wallet, err := c.self(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	_, err = c.ledger.CreateInvite(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return read(ctx, func(ctx context.Context) (*protocol.Invite, error) { return c.ledger.Invite(ctx, wallet) })
}

// TaskView is a task with its resolved content.
type TaskView struct {
	*protocol.Task
	Content      json.RawMessage `json:"content"`
	ContentError string          `json:"contentError,omitempty"`
}

func (c *Client) resolve(ctx context.Context, tasks []*protocol.Task) []*TaskView {
	views := make([]*TaskView, len(tasks))
	var g errgroup.Group
	g.SetLimit(resolveConcurrency)
	for i, task := range tasks {
		views[i] = &TaskView{Task: task}
		g.Go(func() error {
			content, err := objstore.Resolve(ctx, c.objects, task.ContentCID)
			if err != nil {
				c.log.Warn("Can't resolve task content", "task", task.TaskID, "cid", task.ContentCID, "err", err)
				views[i].ContentError = err.Error()
				return nil
			}
			views[i].Content = content
			return nil
		})
	}
	g.Wait()
	return views
}

// Tasks lists the active tasks by id, with their content.
func (c *Client) Tasks(ctx context.Context) ([]*TaskView, error) {
	tasks, err := read(ctx, c.ledger.ListActiveTasks)
	if err != nil {
		return nil, err
	}
	eligibility.Sort(tasks)
	return c.resolve(ctx, tasks), nil
}

// Task returns one task with its content, nil if it does not exist.
func (c *Client) Task(ctx context.Context, id uint32) (*TaskView, error) {
	task, err := read(ctx, func(ctx context.Context) (*protocol.Task, error) { return c.ledger.Task(ctx, id) })
	if err != nil || task == nil {
		return nil, err
	}
	return c.resolve(ctx, []*protocol.Task{task})[0], nil
}

// Doable lists the tasks the session's agent can submit, by id.
func (c *Client) Doable(ctx context.Context) ([]*protocol.Task, error) {
	wallet, err := c.self(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := read(ctx, func(ctx context.Context) ([]*protocol.Task, error) {
		return c.ledger.DoableTasks(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}
	eligibility.Sort(tasks)
	return tasks, nil
}

// Submit uploads proof and submits its pointer for a task, returning the
// claim.
func (c *Client) Submit(ctx context.Context, id uint32, proof json.RawMessage) (*protocol.Claim, error) {
	pointer, err := objstore.Upload(ctx, c.objects, proof)
	if err != nil {
		return nil, fmt.Errorf("upload proof: %w", err)
	}
	return c.SubmitPointer(ctx, id, pointer)
}

// SubmitPointer submits an already stored proof.
func (c *Client) SubmitPointer(ctx context.Context, id uint32, pointer string) (*protocol.Claim, error) {
	wallet, err := c.self(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	_, err = c.ledger.SubmitProof(ctx, id, pointer)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	claim, err := read(ctx, func(ctx context.Context) (*protocol.Claim, error) { return c.ledger.Claim(ctx, id, wallet) })
	if err != nil {
		return nil, err
	}
	c.log.Info("Submitted proof", "task", id, "proof", pointer, "clips", claim.ClipsAwarded)
	return claim, nil
}

// Initialize sets up the protocol with the session's wallet as authority.
func (c *Client) Initialize(ctx context.Context, baseRewardUnit uint64) (*protocol.Protocol, error) {
	c.mu.Lock()
	_, err := c.ledger.Initialize(ctx, baseRewardUnit)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return read(ctx, c.ledger.Protocol)
}

// CreateTask publishes a task. Unless params already carries a content
// pointer, content is uploaded and its pointer used.
func (c *Client) CreateTask(ctx context.Context, params protocol.TaskParams, content json.RawMessage) (*protocol.Task, error) {
	if params.ContentCID == "" {
		if content == nil {
			return nil, errors.New("task needs content or a content pointer")
		}
		pointer, err := objstore.Upload(ctx, c.objects, content)
		if err != nil {
			return nil, fmt.Errorf("upload content: %w", err)
		}
		params.ContentCID = pointer
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	_, err := c.ledger.CreateTask(ctx, &params)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return read(ctx, func(ctx context.Context) (*protocol.Task, error) { return c.ledger.Task(ctx, params.TaskID) })
}

// DeactivateTask closes a task to further submissions.
func (c *Client) DeactivateTask(ctx context.Context, id uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.ledger.DeactivateTask(ctx, id)
	return err
}
