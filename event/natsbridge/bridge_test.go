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

package natsbridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/paperclip-protocol/go-paperclip/event"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/stretchr/testify/require"
)

type message struct {
	subj string
	data []byte
}

type recorder struct {
	mu   sync.Mutex
	msgs []message
	done chan struct{}
}

func (r *recorder) Publish(subj string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message{subj, data})
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
	return nil
}

func TestSubject(t *testing.T) {
	ev := protocol.Event{Kind: protocol.EventProofSubmitted, Ledger: protocol.LedgerContract}
	require.Equal(t, "paperclip.contract.proof_submitted", Subject(DefaultPrefix, ev))
	require.Equal(t, "x.contract.proof_submitted", Subject("x", ev))
}

func TestRunForwardsEvents(t *testing.T) {
	var feed event.Feed
	sub := feed.Subscribe(4)
	rec := &recorder{done: make(chan struct{})}
	bridge := New(rec, "")

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		bridge.Run(ctx, sub)
		close(finished)
	}()

	id := uint32(9)
	feed.Send(protocol.Event{Kind: protocol.EventTaskCreated, Ledger: protocol.LedgerAccount, TaskID: &id, Slot: 3})
	<-rec.done
	cancel()
	<-finished

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.msgs, 1)
	require.Equal(t, "paperclip.account.task_created", rec.msgs[0].subj)

	var got protocol.Event
	require.NoError(t, json.Unmarshal(rec.msgs[0].data, &got))
	require.Equal(t, uint64(3), got.Slot)
	require.Equal(t, uint32(9), *got.TaskID)
}
