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

// Package wsfeed streams ledger events to WebSocket subscribers.
package wsfeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paperclip-protocol/go-paperclip/event"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Path is where nodes mount the event stream.
const Path = "/events"

const (
	subscriptionBuffer = 128
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = pongWait * 9 / 10
)

var errUnknownLedger = errors.New("unknown ledger")

// Source opens a subscription on one ledger's event feed.
type Source func(buffer int) *event.Subscription

// Server upgrades requests to WebSocket connections and writes every event
// of the requested ledgers as a JSON text message.
type Server struct {
	sources  map[protocol.Ledger]Source
	upgrader websocket.Upgrader
	log      log.Logger

	closed context.Context
	close  context.CancelFunc
}

// NewServer creates a stream over sources. origins lists the allowed
// browser origins, "*" allows any, none restricts to same-origin requests.
func NewServer(sources map[protocol.Ledger]Source, origins []string) *Server {
	s := &Server{sources: sources, log: log.New("service", "events")}
	s.closed, s.close = context.WithCancel(context.Background())
	if len(origins) > 0 {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[strings.ToLower(o)] = true
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[strings.ToLower(origin)]
		}
	}
	return s
}

// selected returns the sources named by the ledger query parameter, all of
// them when it is absent.
func (s *Server) selected(r *http.Request) ([]Source, error) {
	name := r.URL.Query().Get("ledger")
	if name == "" {
		all := make([]Source, 0, len(s.sources))
		for _, src := range s.sources {
			all = append(all, src)
		}
		return all, nil
	}
	src, ok := s.sources[protocol.Ledger(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownLedger, name)
	}
	return []Source{src}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sources, err := s.selected(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Subscribe before the handshake completes, so a client never misses
	// events emitted after Subscribe returns.
	subs := make([]*event.Subscription, len(sources))
	for i, src := range sources {
		subs[i] = src(subscriptionBuffer)
		defer subs[i].Unsubscribe()
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	defer context.AfterFunc(s.closed, cancel)()

	// Merge the selected feeds into one channel for the single writer.
	var (
		events = make(chan protocol.Event, subscriptionBuffer)
		wg     sync.WaitGroup
	)
	for _, sub := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-sub.Chan():
					if !ok {
						return
					}
					select {
					case events <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	// The reader only notices close frames and keeps the pong deadline.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	s.log.Debug("Event subscriber connected", "remote", r.RemoteAddr, "ledgers", len(sources))
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("Event subscriber gone", "remote", r.RemoteAddr, "err", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Close disconnects all subscribers.
func (s *Server) Close() {
	s.close()
}

// Stream is the client end of an event subscription.
type Stream struct {
	conn *websocket.Conn
}

// URL turns a node's HTTP endpoint into its event stream URL.
func URL(endpoint string, ledger protocol.Ledger) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + Path
	if ledger != "" {
		u.RawQuery = url.Values{"ledger": {string(ledger)}}.Encode()
	}
	return u.String(), nil
}

// Subscribe connects to the event stream of the node at endpoint. An empty
// ledger follows both ledger forms.
func Subscribe(ctx context.Context, endpoint string, ledger protocol.Ledger) (*Stream, error) {
	target, err := URL(endpoint, ledger)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%v (HTTP %d)", err, resp.StatusCode)
		}
		return nil, protocol.Transient(err)
	}
	return &Stream{conn: conn}, nil
}

// Next blocks until the next event arrives.
func (s *Stream) Next() (protocol.Event, error) {
	var ev protocol.Event
	err := s.conn.ReadJSON(&ev)
	return ev, err
}

// Close ends the subscription.
func (s *Stream) Close() error {
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return s.conn.Close()
}
