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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	datadir string
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, datadir: t.TempDir()}
}

func (c *harness) path(name string) string { return filepath.Join(c.datadir, name) }

func (c *harness) write(name, content string) string {
	file := c.path(name)
	require.NoError(c.t, os.WriteFile(file, []byte(content), 0600))
	return file
}

// run executes a command against an in-process node on the test datadir.
func (c *harness) run(key string, args ...string) (string, int) {
	argv := []string{"paperclip", "--verbosity", "0", "--local", "--datadir", c.datadir}
	if key != "" {
		argv = append(argv, "--key", c.path(key))
	}
	var out bytes.Buffer
	code := run(append(argv, args...), &out)
	return out.String(), code
}

// ok runs a command that must succeed and decodes its envelope into v.
func (c *harness) ok(v interface{}, key string, args ...string) {
	c.t.Helper()
	out, code := c.run(key, args...)
	if code != 0 {
		c.t.Fatalf("%v failed: %s", args, out)
	}
	var env struct {
		OK bool `json:"ok"`
	}
	require.NoError(c.t, json.Unmarshal([]byte(out), &env))
	require.True(c.t, env.OK, out)
	if v != nil {
		require.NoError(c.t, json.Unmarshal([]byte(out), v))
	}
}

type failure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *harness) fail(key string, args ...string) failure {
	c.t.Helper()
	out, code := c.run(key, args...)
	if code != 1 {
		c.t.Fatalf("%v: exit code %d, want 1: %s", args, code, out)
	}
	var f failure
	require.NoError(c.t, json.Unmarshal([]byte(out), &f))
	require.False(c.t, f.OK)
	require.NotEmpty(c.t, f.Error)
	return f
}

func TestAgentFlow(t *testing.T) {
	c := newHarness(t)

	var authority walletIdentity
	c.ok(&authority, "authority.key", "wallet", "new")
	require.True(t, strings.HasPrefix(authority.Account, "clip1"), authority.Account)
	require.True(t, strings.HasPrefix(authority.Address, "0x"), authority.Address)

	var initialized struct {
		Protocol struct {
			Authority      string `json:"authority"`
			BaseRewardUnit uint64 `json:"baseRewardUnit"`
		} `json:"protocol"`
	}
	c.ok(&initialized, "authority.key", "init", "--base", "100")
	require.Equal(t, authority.Account, initialized.Protocol.Authority)
	require.Equal(t, uint64(100), initialized.Protocol.BaseRewardUnit)

	content := c.write("content.json", `{"instructions": "say hello"}`)
	c.ok(nil, "authority.key", "task", "create", "--id", "1", "--title", "Hello", "--reward", "50", "--max-claims", "2", "--content", content)
	c.ok(nil, "authority.key", "task", "create", "--id", "2", "--title", "Follow up", "--reward", "80", "--requires", "1", "--content", content)

	c.ok(nil, "agent.key", "wallet", "new", "--mnemonic")
	var registered struct {
		Agent struct {
			ClipsBalance uint64 `json:"clipsBalance"`
		} `json:"agent"`
	}
	c.ok(&registered, "agent.key", "register")
	require.Equal(t, uint64(100), registered.Agent.ClipsBalance)

	var tasks struct {
		Tasks []struct {
			TaskID  uint32          `json:"taskId"`
			Content json.RawMessage `json:"content"`
		} `json:"tasks"`
	}
	c.ok(&tasks, "agent.key", "tasks")
	require.Len(t, tasks.Tasks, 2)
	require.JSONEq(t, `{"instructions": "say hello"}`, string(tasks.Tasks[0].Content))

	var doable struct {
		Tasks []struct {
			TaskID uint32 `json:"taskId"`
		} `json:"tasks"`
	}
	c.ok(&doable, "agent.key", "doable")
	require.Len(t, doable.Tasks, 1)
	require.Equal(t, uint32(1), doable.Tasks[0].TaskID)

	if f := c.fail("agent.key", "submit", "2", c.write("early.json", `{}`)); f.Code != "MissingRequiredTaskProof" {
		t.Fatalf("submit before prerequisite: code %q, want MissingRequiredTaskProof", f.Code)
	}

	var submitted struct {
		Claim struct {
			TaskID       uint32 `json:"taskId"`
			ProofCID     string `json:"proofCid"`
			ClipsAwarded uint64 `json:"clipsAwarded"`
		} `json:"claim"`
	}
	c.ok(&submitted, "agent.key", "submit", "1", c.write("proof.json", `{"answer": "hello"}`))
	require.Equal(t, uint64(50), submitted.Claim.ClipsAwarded)
	require.NotEmpty(t, submitted.Claim.ProofCID)

	if f := c.fail("agent.key", "submit", "1", c.path("proof.json")); f.Code != "AlreadyClaimed" {
		t.Fatalf("second submission: code %q, want AlreadyClaimed", f.Code)
	}

	var report struct {
		Completed []struct {
			TaskID uint32 `json:"taskId"`
		} `json:"completed"`
		Earned uint64 `json:"earned"`
	}
	c.ok(&report, "agent.key", "work")
	require.Len(t, report.Completed, 1)
	require.Equal(t, uint32(2), report.Completed[0].TaskID)
	require.Equal(t, uint64(80), report.Earned)

	var status struct {
		Wallet   string `json:"wallet"`
		Protocol struct {
			TotalAgents           uint32 `json:"totalAgents"`
			TotalTasks            uint32 `json:"totalTasks"`
			TotalClipsDistributed uint64 `json:"totalClipsDistributed"`
		} `json:"protocol"`
		Agent struct {
			ClipsBalance   uint64 `json:"clipsBalance"`
			TasksCompleted uint32 `json:"tasksCompleted"`
		} `json:"agent"`
	}
	c.ok(&status, "agent.key", "status")
	require.Equal(t, uint32(1), status.Protocol.TotalAgents)
	require.Equal(t, uint32(2), status.Protocol.TotalTasks)
	require.Equal(t, uint64(230), status.Protocol.TotalClipsDistributed)
	require.Equal(t, uint64(230), status.Agent.ClipsBalance)
	require.Equal(t, uint32(2), status.Agent.TasksCompleted)

	c.ok(nil, "authority.key", "task", "deactivate", "1")
	c.ok(&tasks, "agent.key", "tasks")
	require.Len(t, tasks.Tasks, 1)
}

func TestInviteFlow(t *testing.T) {
	c := newHarness(t)
	c.ok(nil, "authority.key", "wallet", "new")
	c.ok(nil, "authority.key", "init", "--base", "100")

	var inviter walletIdentity
	c.ok(&inviter, "inviter.key", "wallet", "new")
	c.ok(nil, "inviter.key", "register")
	c.ok(nil, "inviter.key", "invite")

	c.ok(nil, "invitee.key", "wallet", "new")
	var registered struct {
		Agent struct {
			ClipsBalance uint64 `json:"clipsBalance"`
			InvitedBy    string `json:"invitedBy"`
		} `json:"agent"`
	}
	c.ok(&registered, "invitee.key", "register", "--invite", inviter.Account)
	require.Equal(t, uint64(150), registered.Agent.ClipsBalance)
	require.Equal(t, inviter.Account, registered.Agent.InvitedBy)

	c.ok(nil, "stranger.key", "wallet", "new")
	c.fail("stranger.key", "register", "--invite", "clip1nope")
	if f := c.fail("invitee.key", "register"); f.Code != "AgentAlreadyRegistered" {
		t.Fatalf("second registration: code %q, want AgentAlreadyRegistered", f.Code)
	}
}

func TestReadOnlyWithoutKey(t *testing.T) {
	c := newHarness(t)
	c.ok(nil, "authority.key", "wallet", "new")
	c.ok(nil, "authority.key", "init")

	var status struct {
		Wallet string          `json:"wallet"`
		Agent  json.RawMessage `json:"agent"`
	}
	c.ok(&status, "", "status")
	require.Empty(t, status.Wallet)
	require.Equal(t, "null", string(status.Agent))

	c.fail("missing.key", "register")
}

func TestWalletNeverOverwritten(t *testing.T) {
	c := newHarness(t)
	var first, again walletIdentity
	c.ok(&first, "agent.key", "wallet", "new", "--mnemonic")
	require.Len(t, strings.Fields(first.Mnemonic), 24)
	c.fail("agent.key", "wallet", "new")

	c.ok(&again, "agent.key", "wallet", "show")
	require.Equal(t, first.Account, again.Account)

	c.ok(&again, "recovered.key", "wallet", "new", "--recover", first.Mnemonic)
	require.Equal(t, first.Address, again.Address)
}

func TestTableOutput(t *testing.T) {
	c := newHarness(t)
	c.ok(nil, "authority.key", "wallet", "new")
	c.ok(nil, "authority.key", "init")
	content := c.write("content.json", `{"n": 1}`)
	c.ok(nil, "authority.key", "task", "create", "--id", "7", "--title", "Table task", "--reward", "5", "--content", content)

	out, code := c.run("authority.key", "--table", "tasks")
	if code != 0 {
		t.Fatalf("tasks --table failed: %s", out)
	}
	require.Contains(t, out, "Active tasks")
	require.Contains(t, out, "Table task")
	require.NotContains(t, out, `"ok"`)
}

func TestDumpConfig(t *testing.T) {
	c := newHarness(t)
	var buf bytes.Buffer
	code := run([]string{"paperclip", "--verbosity", "0", "--profile", "devnet-contract", "--rpc", "http://node:8645", "dumpconfig"}, &buf)
	require.Equal(t, 0, code, buf.String())
	require.Contains(t, buf.String(), `Profile = "devnet-contract"`)
	require.Contains(t, buf.String(), `URL = "http://node:8645"`)

	file := c.write("paperclip.toml", buf.String())
	buf.Reset()
	code = run([]string{"paperclip", "--verbosity", "0", "--config", file, "dumpconfig"}, &buf)
	require.Equal(t, 0, code, buf.String())
	require.Contains(t, buf.String(), `Profile = "devnet-contract"`)
}

func TestUsageErrors(t *testing.T) {
	c := newHarness(t)
	c.fail("", "submit")
	c.fail("", "submit", "x", "proof.json")
	c.fail("", "submit", "--proof-cid", "mock-1", "1", c.write("proof.json", "{}"))
	c.fail("", "task", "create", "--title", "no id")
	c.fail("", "--profile", "nope", "status")
}
