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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type testService struct {
	calls int
}

type echoResult struct {
	String string `json:"string"`
	Int    int    `json:"int"`
}

func (s *testService) Echo(str string, i int) echoResult {
	return echoResult{str, i}
}

func (s *testService) EchoWithCtx(ctx context.Context, str string) (string, error) {
	s.calls++
	return str, nil
}

func (s *testService) Reject(ctx context.Context) error {
	return protocol.ErrTierTooLow
}

func (s *testService) Fail(ctx context.Context) (int, error) {
	return 0, errors.New("disk on fire")
}

func (s *testService) Crash(ctx context.Context) error {
	panic("boom")
}

func (s *testService) Nothing(ctx context.Context) (*echoResult, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	srv := NewServer()
	require.NoError(t, srv.RegisterName("test", new(testService)))
	return srv, DialInProc(NewHTTPHandler(srv, nil))
}

func TestClientCall(t *testing.T) {
	_, client := newTestServer(t)
	defer client.Close()

	var res echoResult
	require.NoError(t, client.Call(context.Background(), &res, "test_echo", "hello", 10))
	require.Equal(t, echoResult{"hello", 10}, res)

	var str string
	require.NoError(t, client.Call(context.Background(), &str, "test_echoWithCtx", "world"))
	require.Equal(t, "world", str)

	// Missing trailing arguments are zero.
	require.NoError(t, client.Call(context.Background(), &res, "test_echo"))
	require.Equal(t, echoResult{}, res)

	out := &echoResult{String: "stale"}
	require.NoError(t, client.Call(context.Background(), &out, "test_nothing"))
	require.Nil(t, out)
}

func TestClientErrors(t *testing.T) {
	_, client := newTestServer(t)

	err := client.Call(context.Background(), nil, "test_reject")
	require.True(t, errors.Is(err, protocol.ErrTierTooLow), "got %v", err)
	require.False(t, protocol.IsTransient(err))

	err = client.Call(context.Background(), nil, "test_fail")
	require.True(t, protocol.IsTransient(err), "got %v", err)
	require.Contains(t, err.Error(), "disk on fire")

	err = client.Call(context.Background(), nil, "test_crash")
	require.True(t, protocol.IsTransient(err), "got %v", err)

	err = client.Call(context.Background(), nil, "test_missing")
	require.Error(t, err)
	require.False(t, protocol.IsTransient(err))
	var rpcErr Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, errcodeMethodNotFound, rpcErr.ErrorCode())

	err = client.Call(context.Background(), nil, "test_echo", "a", 1, "extra")
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, errcodeInvalidParams, rpcErr.ErrorCode())

	var notPtr echoResult
	require.Error(t, client.Call(context.Background(), notPtr, "test_echo"))
}

func TestRateLimit(t *testing.T) {
	srv, client := newTestServer(t)
	srv.SetRateLimit("test", rate.Limit(0.001), 1)

	require.NoError(t, client.Call(context.Background(), nil, "test_echoWithCtx", "a"))
	err := client.Call(context.Background(), nil, "test_echoWithCtx", "b")
	require.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
	require.True(t, protocol.IsTransient(err))

	srv.SetRateLimit("test", 0, 0)
	require.NoError(t, client.Call(context.Background(), nil, "test_echoWithCtx", "c"))
}

func TestCanceledContext(t *testing.T) {
	_, client := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Call(ctx, nil, "test_echoWithCtx", "a")
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	require.False(t, protocol.IsTransient(err))
}

func TestHTTPTransport(t *testing.T) {
	srv := NewServer()
	require.NoError(t, srv.RegisterName("test", new(testService)))
	ts := httptest.NewServer(NewHTTPHandler(srv, []string{"*"}))
	defer ts.Close()

	client, err := DialHTTP(ts.URL)
	require.NoError(t, err)
	var str string
	require.NoError(t, client.Call(context.Background(), &str, "test_echoWithCtx", "over the wire"))
	require.Equal(t, "over the wire", str)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	srv.Stop()
	err = client.Call(context.Background(), &str, "test_echoWithCtx", "late")
	var httpErr HTTPError
	require.True(t, errors.As(err, &httpErr), "got %v", err)
	require.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	require.True(t, protocol.IsTransient(err))
}

func TestRegisterNameRejectsEmpty(t *testing.T) {
	srv := NewServer()
	require.Error(t, srv.RegisterName("", new(testService)))
	require.Error(t, srv.RegisterName("empty", struct{}{}))
}
