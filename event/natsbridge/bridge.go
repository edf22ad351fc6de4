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

// Package natsbridge republishes ledger events on a NATS subject tree so that
// processes outside the node can follow protocol activity.
package natsbridge

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/paperclip-protocol/go-paperclip/event"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// DefaultPrefix is the root of the subject tree.
const DefaultPrefix = "paperclip"

// Publisher is the part of *nats.Conn the bridge needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Bridge forwards feed events to a publisher.
type Bridge struct {
	pub    Publisher
	prefix string
	log    log.Logger
}

// Dial connects to a NATS server, reconnecting forever on connection loss.
func Dial(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("paperclip-node"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS connection lost", "err", err)
			}
		}),
	)
}

// New creates a bridge publishing under prefix.
func New(pub Publisher, prefix string) *Bridge {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Bridge{pub: pub, prefix: prefix, log: log.New("bridge", prefix)}
}

// Subject returns the subject an event is published on:
// <prefix>.<ledger>.<kind>.
func Subject(prefix string, ev protocol.Event) string {
	return strings.Join([]string{prefix, string(ev.Ledger), string(ev.Kind)}, ".")
}

// Publish encodes and publishes a single event.
func (b *Bridge) Publish(ev protocol.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.pub.Publish(Subject(b.prefix, ev), data)
}

// Run forwards events from sub until the context is cancelled or the
// subscription is closed. Publish failures are logged and skipped.
func (b *Bridge) Run(ctx context.Context, sub *event.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Chan():
			if !ok {
				return
			}
			if err := b.Publish(ev); err != nil {
				b.log.Warn("Failed to publish event", "kind", ev.Kind, "slot", ev.Slot, "err", err)
			}
		}
	}
}
