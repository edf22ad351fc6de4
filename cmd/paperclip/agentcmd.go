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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/paperclip-protocol/go-paperclip/client"
	"github.com/paperclip-protocol/go-paperclip/node"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

var (
	baseRewardFlag = cli.Uint64Flag{
		Name:  "base",
		Usage: "Base reward unit in clips",
		Value: 100,
	}
	inviteFlag = cli.StringFlag{
		Name:  "invite",
		Usage: "Wallet of the inviter whose invite to redeem",
	}
	proofCIDFlag = cli.StringFlag{
		Name:  "proof-cid",
		Usage: "Submit an already stored proof pointer instead of a proof file",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "Stop after this many completed tasks, 0 works until nothing is left",
	}

	initCommand = cli.Command{
		Action:    initProtocol,
		Name:      "init",
		Usage:     "Initialize the protocol with this wallet as authority",
		ArgsUsage: "",
		Flags:     []cli.Flag{baseRewardFlag},
		Category:  "AUTHORITY COMMANDS",
	}
	registerCommand = cli.Command{
		Action:   register,
		Name:     "register",
		Usage:    "Register this wallet as an agent",
		Flags:    []cli.Flag{inviteFlag},
		Category: "AGENT COMMANDS",
		Description: `
Registers the wallet and credits the base reward. With --invite the
registration redeems that inviter's invite, paying the invitee bonus and
the inviter's referral reward.`,
	}
	inviteCommand = cli.Command{
		Action:   createInvite,
		Name:     "invite",
		Usage:    "Create this agent's invite",
		Category: "AGENT COMMANDS",
	}
	statusCommand = cli.Command{
		Action:   status,
		Name:     "status",
		Usage:    "Show the protocol and this agent",
		Category: "AGENT COMMANDS",
	}
	tasksCommand = cli.Command{
		Action:   listTasks,
		Name:     "tasks",
		Usage:    "List active tasks with their content",
		Category: "AGENT COMMANDS",
	}
	doableCommand = cli.Command{
		Action:   listDoable,
		Name:     "doable",
		Usage:    "List the tasks this agent can complete",
		Category: "AGENT COMMANDS",
	}
	submitCommand = cli.Command{
		Action:    submit,
		Name:      "submit",
		Usage:     "Submit a proof for a task",
		ArgsUsage: "<task id> [<proof file> | -]",
		Flags:     []cli.Flag{proofCIDFlag},
		Category:  "AGENT COMMANDS",
		Description: `
The proof is a JSON document read from a file, or from standard input when
the file is "-". It is uploaded to the object store and its pointer
submitted.`,
	}
	workCommand = cli.Command{
		Action:   work,
		Name:     "work",
		Usage:    "Complete doable tasks, best reward first",
		Flags:    []cli.Flag{limitFlag},
		Category: "AGENT COMMANDS",
	}
)

// session is a client bound to the command line configuration. Profiles
// without a URL run against a node opened in-process on the data directory.
type session struct {
	*client.Client
	ctx   context.Context
	stop  context.CancelFunc
	local *node.Node
}

func openSession(ctx *cli.Context) (*session, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := cfg.Server()
	if err != nil {
		return nil, err
	}
	sctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	s := &session{ctx: sctx, stop: stop}
	if profile.URL == "" {
		if s.local, err = node.New(cfg.Node, cfg.Objects); err != nil {
			stop()
			return nil, err
		}
	}
	signer, err := client.OpenSigner(sctx, cfg.Signer)
	if err == nil {
		s.Client, err = client.Open(sctx, cfg, signer, s.local)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() {
	if s.local != nil {
		s.local.Stop()
	}
	s.stop()
}

// withSession runs fn against a freshly opened session.
func withSession(ctx *cli.Context, fn func(s *session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func taskID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return uint32(id), nil
}

func initProtocol(ctx *cli.Context) error {
	return withSession(ctx, func(s *session) error {
		p, err := s.Initialize(s.ctx, ctx.Uint64(baseRewardFlag.Name))
		if err != nil {
			return err
		}
		return respond(ctx, map[string]interface{}{"protocol": p}, func(w io.Writer) {
			renderPairs(w, "Protocol", protocolPairs(p))
		})
	})
}

func register(ctx *cli.Context) error {
	return withSession(ctx, func(s *session) error {
		agent, err := s.Register(s.ctx, ctx.String(inviteFlag.Name))
		if err != nil {
			return err
		}
		return respond(ctx, map[string]interface{}{"agent": agent}, func(w io.Writer) {
			renderPairs(w, "Agent", agentPairs(agent))
		})
	})
}

func createInvite(ctx *cli.Context) error {
	return withSession(ctx, func(s *session) error {
		invite, err := s.CreateInvite(s.ctx)
		if err != nil {
			return err
		}
		return respond(ctx, map[string]interface{}{"invite": invite}, func(w io.Writer) {
			renderPairs(w, "Invite", [][2]string{
				{"Inviter", invite.Inviter},
				{"Redeemed", strconv.FormatUint(uint64(invite.InvitesRedeemed), 10)},
				{"Created", formatTime(invite.CreatedAt)},
			})
		})
	})
}

func status(ctx *cli.Context) error {
	return withSession(ctx, func(s *session) error {
		st, err := s.Status(s.ctx)
		if err != nil {
			return err
		}
		return respond(ctx, st, func(w io.Writer) {
			pairs := [][2]string{{"Ledger", string(st.Ledger)}, {"Wallet", st.Wallet}}
			if st.Protocol != nil {
				pairs = append(pairs, protocolPairs(st.Protocol)...)
			} else {
				pairs = append(pairs, [2]string{"Protocol", "not initialized"})
			}
			renderPairs(w, "Protocol", pairs)
			if st.Agent != nil {
				renderPairs(w, "Agent", agentPairs(st.Agent))
			}
		})
	})
}

func listTasks(ctx *cli.Context) error {
	return withSession(ctx, func(s *session) error {
		views, err := s.Tasks(s.ctx)
		if err != nil {
			return err
		}
		tasks := make([]*protocol.Task, len(views))
		for i, v := range views {
			tasks[i] = v.Task
		}
		return respond(ctx, map[string]interface{}{"tasks": views}, func(w io.Writer) {
			renderTasks(w, "Active tasks", tasks)
		})
	})
}

func listDoable(ctx *cli.Context) error {
	return withSession(ctx, func(s *session) error {
		tasks, err := s.Doable(s.ctx)
		if err != nil {
			return err
		}
		return respond(ctx, map[string]interface{}{"tasks": tasks}, func(w io.Writer) {
			renderTasks(w, "Doable tasks", tasks)
		})
	})
}

// readProof loads a JSON proof document, "-" reads standard input.
func readProof(file string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("proof %s is not valid JSON", file)
	}
	return data, nil
}

func submit(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("task id required")
	}
	id, err := taskID(ctx.Args().First())
	if err != nil {
		return err
	}
	pointer := ctx.String(proofCIDFlag.Name)
	var proof json.RawMessage
	switch {
	case pointer != "" && ctx.NArg() > 1:
		return errors.New("give either a proof file or --proof-cid")
	case pointer == "" && ctx.NArg() < 2:
		return errors.New("proof file required")
	case pointer == "":
		if proof, err = readProof(ctx.Args().Get(1)); err != nil {
			return err
		}
	}
	return withSession(ctx, func(s *session) error {
		var claim *protocol.Claim
		if pointer != "" {
			claim, err = s.SubmitPointer(s.ctx, id, pointer)
		} else {
			claim, err = s.Submit(s.ctx, id, proof)
		}
		if err != nil {
			return err
		}
		return respond(ctx, map[string]interface{}{"claim": claim}, func(w io.Writer) {
			renderClaims(w, "Claim", []*protocol.Claim{claim})
		})
	})
}

// completionProof is the proof the work loop submits: a receipt naming the
// task, the agent and the content it worked from.
type completionProof struct {
	TaskID  uint32          `json:"taskId"`
	Title   string          `json:"title"`
	Agent   string          `json:"agent"`
	Content json.RawMessage `json:"content,omitempty"`
}

func work(ctx *cli.Context) error {
	return withSession(ctx, func(s *session) error {
		wallet, err := s.Wallet(s.ctx)
		if err != nil {
			return err
		}
		produce := func(_ context.Context, task *protocol.Task, content json.RawMessage) (json.RawMessage, error) {
			return json.Marshal(&completionProof{TaskID: task.TaskID, Title: task.Title, Agent: wallet, Content: content})
		}
		report, err := s.Work(s.ctx, produce, ctx.Int(limitFlag.Name))
		if err != nil {
			return fmt.Errorf("work stopped after %d tasks: %w", len(report.Completed), err)
		}
		return respond(ctx, report, func(w io.Writer) {
			renderClaims(w, fmt.Sprintf("Completed %d tasks, earned %d clips", len(report.Completed), report.Earned), report.Completed)
			for _, sk := range report.Skipped {
				fmt.Fprintf(w, "skipped task %d: %s\n", sk.TaskID, sk.Reason)
			}
		})
	})
}

func protocolPairs(p *protocol.Protocol) [][2]string {
	return [][2]string{
		{"Authority", p.Authority},
		{"Base reward", strconv.FormatUint(p.BaseRewardUnit, 10)},
		{"Agents", strconv.FormatUint(uint64(p.TotalAgents), 10)},
		{"Tasks", strconv.FormatUint(uint64(p.TotalTasks), 10)},
		{"Clips distributed", strconv.FormatUint(p.TotalClipsDistributed, 10)},
		{"Paused", strconv.FormatBool(p.Paused)},
	}
}

func agentPairs(a *protocol.Agent) [][2]string {
	pairs := [][2]string{
		{"Wallet", a.Wallet},
		{"Clips", strconv.FormatUint(a.ClipsBalance, 10)},
		{"Tier", strconv.Itoa(int(a.EfficiencyTier))},
		{"Tasks completed", strconv.FormatUint(uint64(a.TasksCompleted), 10)},
		{"Registered", formatTime(a.RegisteredAt)},
		{"Last active", formatTime(a.LastActiveAt)},
		{"Invites redeemed", strconv.FormatUint(uint64(a.InvitesRedeemed), 10)},
	}
	if a.InvitedBy != "" {
		pairs = append(pairs, [2]string{"Invited by", a.InvitedBy})
	}
	return pairs
}
