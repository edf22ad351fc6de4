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

package contract

import (
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/core/state"
	"github.com/paperclip-protocol/go-paperclip/eligibility"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Call executes a view function against db and returns its ABI-encoded
// result. Views never write.
func (c *Contract) Call(db *state.StateDB, data []byte) ([]byte, error) {
	x, m, err := newExec(db, data)
	if err != nil {
		return nil, err
	}
	if m.Mutating {
		return nil, fmt.Errorf("%w: %s must be sent as a transaction", protocol.ErrInvalidInstruction, m.Name)
	}
	var ret []byte
	switch m {
	case MethodGetProtocol:
		ret, err = x.viewProtocol()
	case MethodGetAgent:
		ret, err = x.viewAgent()
	case MethodGetTask:
		ret, err = x.viewTask()
	case MethodGetClaim:
		ret, err = x.viewClaim()
	case MethodHasClaimed:
		ret, err = x.viewHasClaimed()
	case MethodGetInvite:
		ret, err = x.viewInvite()
	case MethodTaskCount:
		ret, err = x.viewTaskCount()
	case MethodTaskIDAt:
		ret, err = x.viewTaskIDAt()
	case MethodGetDoableTasks:
		ret, err = x.viewDoableTasks()
	default:
		err = fmt.Errorf("%w: %s", protocol.ErrInvalidInstruction, m.Name)
	}
	if err == nil {
		err = db.Error()
	}
	return ret, err
}

func (x *exec) viewProtocol() ([]byte, error) {
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	proto := new(ProtocolState)
	if err := x.load(slotHash(0), int(protocolWords), proto); err != nil {
		return nil, err
	}
	return proto.Encode(), nil
}

func (x *exec) viewAgent() ([]byte, error) {
	wallet := x.args.address()
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	agent, err := x.agent(wallet)
	if err != nil {
		return nil, err
	}
	return agent.Encode(), nil
}

func (x *exec) viewTask() ([]byte, error) {
	id := uint32(x.args.uint(32))
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	task, err := x.task(id)
	if err != nil {
		return nil, err
	}
	return task.Encode(), nil
}

func (x *exec) viewClaim() ([]byte, error) {
	id := uint32(x.args.uint(32))
	agent := x.args.address()
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	claim := new(ClaimRecord)
	if err := x.load(claimSlot(id, agent), claimWords, claim); err != nil {
		return nil, err
	}
	return claim.Encode(), nil
}

func (x *exec) viewHasClaimed() ([]byte, error) {
	id := uint32(x.args.uint(32))
	agent := x.args.address()
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	var w wordWriter
	w.boolean(x.claimed(id, agent))
	return w.encode(), nil
}

func (x *exec) viewInvite() ([]byte, error) {
	inviter := x.args.address()
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	invite, err := x.invite(inviter)
	if err != nil {
		return nil, err
	}
	return invite.Encode(), nil
}

func (x *exec) viewTaskCount() ([]byte, error) {
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	var w wordWriter
	w.uint(x.taskIDCount())
	return w.encode(), nil
}

func (x *exec) viewTaskIDAt() ([]byte, error) {
	i := x.args.uint(64)
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	if i >= x.taskIDCount() {
		return nil, protocol.ErrTaskNotFound
	}
	var w wordWriter
	w.uint(uint64(x.taskIDAt(i)))
	return w.encode(), nil
}

// viewDoableTasks runs the eligibility pipeline inside the contract over
// every task id, in array order.
func (x *exec) viewDoableTasks() ([]byte, error) {
	wallet := x.args.address()
	if err := x.argsDone(); err != nil {
		return nil, err
	}
	agent, err := x.agent(wallet)
	if err != nil {
		return nil, err
	}
	if !agent.Exists {
		return nil, protocol.ErrAgentNotRegistered
	}
	var (
		n      = x.taskIDCount()
		tasks  = make([]*protocol.Task, 0, n)
		claims = eligibility.NewClaimSet()
	)
	for i := uint64(0); i < n; i++ {
		task, err := x.task(x.taskIDAt(i))
		if err != nil {
			return nil, err
		}
		view := task.View()
		tasks = append(tasks, view)
		if x.claimed(task.TaskID, wallet) {
			claims.Add(task.TaskID)
		}
		if view.Prerequisite != nil && x.claimed(*view.Prerequisite, wallet) {
			claims.Add(*view.Prerequisite)
		}
	}
	doable := eligibility.Doable(agent.EfficiencyTier, tasks, claims)
	ids := make([]uint32, len(doable))
	for i, task := range doable {
		ids[i] = task.TaskID
	}
	return packUint32s(ids), nil
}
