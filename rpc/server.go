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

package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// maxRequestContentLength bounds a single request body.
const maxRequestContentLength = 1024 * 1024 * 5

// Server is an RPC server.
type Server struct {
	services serviceRegistry
	run      int32

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter // namespace -> request ceiling
}

// NewServer creates a new server instance with no registered handlers.
func NewServer() *Server {
	return &Server{run: 1, limiters: make(map[string]*rate.Limiter)}
}

// RegisterName creates a service for the given receiver type under the given
// name. When no methods on the given receiver match the criteria to be either
// a RPC method or a subscription an error is returned.
func (s *Server) RegisterName(name string, receiver interface{}) error {
	return s.services.registerName(name, receiver)
}

// RegisterAPIs registers every api under its namespace.
func (s *Server) RegisterAPIs(apis []API) error {
	for _, api := range apis {
		if err := s.RegisterName(api.Namespace, api.Service); err != nil {
			return err
		}
		log.Debug("Registered RPC namespace", "namespace", api.Namespace, "version", api.Version)
	}
	return nil
}

// SetRateLimit caps the request rate of a namespace. Calls above the ceiling
// are refused with HTTP 429. A zero limit removes the ceiling.
func (s *Server) SetRateLimit(namespace string, limit rate.Limit, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit == 0 {
		delete(s.limiters, namespace)
		return
	}
	s.limiters[namespace] = rate.NewLimiter(limit, burst)
}

// Stop makes the server refuse further requests.
func (s *Server) Stop() {
	if atomic.CompareAndSwapInt32(&s.run, 1, 0) {
		log.Debug("RPC server shutting down")
	}
}

func (s *Server) allow(namespace string) bool {
	s.mu.RLock()
	lim := s.limiters[namespace]
	s.mu.RUnlock()
	return lim == nil || lim.Allow()
}

// ServeHTTP serves JSON-RPC requests over HTTP.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&s.run) == 0 {
		http.Error(w, "server is stopping", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestContentLength))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var msg jsonrpcMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		writeJSON(w, errorMessage(nil, &jsonError{Code: errcodeParse, Message: err.Error()}))
		return
	}
	if !s.allow(namespaceOf(msg.Method)) {
		http.Error(w, ErrRateLimited.Error(), http.StatusTooManyRequests)
		return
	}
	writeJSON(w, s.handle(r.Context(), &msg))
}

func (s *Server) handle(ctx context.Context, msg *jsonrpcMessage) *jsonrpcMessage {
	cb := s.services.callback(msg.Method)
	if cb == nil {
		return errorMessage(msg.ID, &jsonError{Code: errcodeMethodNotFound, Message: "the method " + msg.Method + " does not exist/is not available"})
	}
	args, err := cb.parseArgs(msg.Params)
	if err != nil {
		return errorMessage(msg.ID, &jsonError{Code: errcodeInvalidParams, Message: err.Error()})
	}
	res, err := cb.call(ctx, msg.Method, args)
	if err != nil {
		return errorMessage(msg.ID, err)
	}
	enc, err := json.Marshal(res)
	if err != nil {
		return errorMessage(msg.ID, &jsonError{Code: errcodeInternal, Message: err.Error()})
	}
	return &jsonrpcMessage{Version: vsn, ID: msg.ID, Result: enc}
}

func errorMessage(id json.RawMessage, err error) *jsonrpcMessage {
	je := &jsonError{Code: errcodeDefault, Message: err.Error()}
	if ec, ok := err.(Error); ok {
		je.Code = ec.ErrorCode()
	}
	return &jsonrpcMessage{Version: vsn, ID: id, Error: je}
}

func writeJSON(w http.ResponseWriter, msg *jsonrpcMessage) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Debug("Failed to write RPC response", "err", err)
	}
}

// NewHTTPHandler routes JSON-RPC calls to srv and answers health probes. An
// empty origin list disables cross-origin requests.
func NewHTTPHandler(srv *Server, corsOrigins []string) http.Handler {
	router := httprouter.New()
	router.Handler(http.MethodPost, "/", srv)
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if atomic.LoadInt32(&srv.run) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	if len(corsOrigins) == 0 {
		return router
	}
	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(router)
}
