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

// Package event fans protocol events out to in-process subscribers.
package event

import (
	"sync"

	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Feed delivers every sent event to all current subscribers. Delivery never
// blocks the sender: a subscriber whose buffer is full misses the event.
//
// The zero value is ready to use.
type Feed struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription is a registered receiver of feed events.
type Subscription struct {
	feed *Feed
	ch   chan protocol.Event
	once sync.Once
}

// Subscribe registers a new receiver with the given channel buffer.
func (f *Feed) Subscribe(buffer int) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs == nil {
		f.subs = make(map[*Subscription]struct{})
	}
	sub := &Subscription{feed: f, ch: make(chan protocol.Event, buffer)}
	f.subs[sub] = struct{}{}
	return sub
}

// Chan returns the delivery channel. It is closed by Unsubscribe.
func (s *Subscription) Chan() <-chan protocol.Event {
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel. It is safe to
// call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.ch)
	})
}

// Send delivers ev to all subscribers and returns how many received it.
func (f *Feed) Send(ev protocol.Event) (nsent int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for sub := range f.subs {
		select {
		case sub.ch <- ev:
			nsent++
		default:
			log.Warn("Dropped event for slow subscriber", "kind", ev.Kind, "slot", ev.Slot)
		}
	}
	return nsent
}
