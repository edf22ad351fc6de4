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

package event

import (
	"testing"

	"github.com/paperclip-protocol/go-paperclip/protocol"
)

func TestFeedDelivery(t *testing.T) {
	var feed Feed
	a, b := feed.Subscribe(1), feed.Subscribe(1)

	if n := feed.Send(protocol.Event{Kind: protocol.EventTaskCreated, Slot: 1}); n != 2 {
		t.Fatalf("delivered to %d subscribers, want 2", n)
	}
	for _, sub := range []*Subscription{a, b} {
		ev := <-sub.Chan()
		if ev.Kind != protocol.EventTaskCreated || ev.Slot != 1 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	}
	b.Unsubscribe()
	b.Unsubscribe()
	if _, ok := <-b.Chan(); ok {
		t.Fatal("unsubscribed channel still open")
	}
	if n := feed.Send(protocol.Event{Kind: protocol.EventProofSubmitted}); n != 1 {
		t.Fatalf("delivered to %d subscribers after unsubscribe, want 1", n)
	}
}

func TestFeedNonBlocking(t *testing.T) {
	var feed Feed
	sub := feed.Subscribe(1)
	defer sub.Unsubscribe()

	feed.Send(protocol.Event{Slot: 1})
	if n := feed.Send(protocol.Event{Slot: 2}); n != 0 {
		t.Fatalf("full subscriber counted as delivered")
	}
	if ev := <-sub.Chan(); ev.Slot != 1 {
		t.Fatalf("kept the wrong event: slot %d", ev.Slot)
	}
}
