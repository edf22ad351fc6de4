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

package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// maxObjectSize bounds uploads and downloads through the gateway.
const maxObjectSize = 4 * 1024 * 1024

// Gateway stores objects through an HTTP pinning service and reads them back
// through its gateway path:
//
//	PUT <url>/objects/<pointer>   pin
//	GET <url>/ipfs/<pointer>      fetch
type Gateway struct {
	url    string
	client *http.Client
}

// NewGateway creates a client for the gateway at url.
func NewGateway(url string) *Gateway {
	return &Gateway{url: strings.TrimRight(url, "/"), client: &http.Client{Timeout: 30 * time.Second}}
}

func (g *Gateway) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.url+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, protocol.Transient(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectSize+1))
	if err != nil {
		return nil, protocol.Transient(err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, protocol.Transient(fmt.Errorf("gateway: %s", resp.Status))
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("gateway: %s: %s", resp.Status, bytes.TrimSpace(data))
	case len(data) > maxObjectSize:
		return nil, fmt.Errorf("gateway: object exceeds %d bytes", maxObjectSize)
	}
	return data, nil
}

func (g *Gateway) Put(ctx context.Context, pointer string, data []byte) error {
	_, err := g.do(ctx, http.MethodPut, "/objects/"+pointer, data)
	return err
}

func (g *Gateway) Get(ctx context.Context, pointer string) ([]byte, error) {
	data, err := g.do(ctx, http.MethodGet, "/ipfs/"+pointer, nil)
	if err != nil {
		return nil, err
	}
	if err := Verify(pointer, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Handler serves the gateway protocol from a backing store.
func Handler(s Store) http.Handler {
	router := httprouter.New()
	router.PUT("/objects/:cid", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxObjectSize+1))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(data) > maxObjectSize {
			http.Error(w, "object too large", http.StatusRequestEntityTooLarge)
			return
		}
		if err := s.Put(r.Context(), ps.ByName("cid"), data); err != nil {
			log.Debug("Rejected object upload", "cid", ps.ByName("cid"), "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	router.GET("/ipfs/:cid", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		data, err := s.Get(r.Context(), ps.ByName("cid"))
		switch {
		case err == ErrNotFound:
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrInvalidCID):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case err != nil:
			log.Warn("Object lookup failed", "cid", ps.ByName("cid"), "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write(data)
		}
	})
	return router
}
