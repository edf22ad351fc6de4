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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/stretchr/testify/require"
)

var payloads = []string{
	`{"title":"Summarize the docs","steps":["read","write"],"reward":{"clips":50}}`,
	`{"proof": "https://example.com/pr/1", "notes": null, "ok": true, "score": 0.75}`,
	`[1, 2, {"nested": {"deep": ["x"]}}]`,
	`"just a string"`,
}

func testRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	for _, payload := range payloads {
		pointer, err := Upload(ctx, s, []byte(payload))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(pointer, "bafk"), "pointer %s is not a raw CIDv1", pointer)
		require.LessOrEqual(t, len(pointer), protocol.PointerLength)

		data, err := Resolve(ctx, s, pointer)
		require.NoError(t, err)
		var want, have interface{}
		require.NoError(t, json.Unmarshal([]byte(payload), &want))
		require.NoError(t, json.Unmarshal(data, &have))
		if diff := cmp.Diff(want, have); diff != "" {
			t.Fatalf("payload changed in store (-want +have):\n%s", diff)
		}
	}
}

func TestLocalRoundTrip(t *testing.T) {
	l := NewLocal(memorydb.New(), 1<<20)
	testRoundTrip(t, l)
	l.Reset()
	testRoundTrip(t, l)
}

func TestGatewayRoundTrip(t *testing.T) {
	srv := httptest.NewServer(Handler(NewLocal(memorydb.New(), 1<<20)))
	defer srv.Close()
	testRoundTrip(t, NewGateway(srv.URL+"/"))
}

func TestSamePayloadSamePointer(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(memorydb.New(), 1<<20)
	a, err := Upload(ctx, s, []byte(`{"a": 1,  "b": [1, 2]}`))
	require.NoError(t, err)
	b, err := Upload(ctx, s, []byte("{\"a\":1,\n\"b\":[1,2]}"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestMockPointer(t *testing.T) {
	var s Store // never touched
	data, err := Resolve(context.Background(), s, "mock-content-1")
	require.NoError(t, err)
	require.Nil(t, data)

	var v map[string]interface{}
	ok, err := ResolveValue(context.Background(), s, "mock-proof", &v)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, v)
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(memorydb.New(), 1<<20)
	if _, err := Resolve(ctx, s, "bnot!base32"); !errors.Is(err, ErrInvalidCID) {
		t.Fatalf("have %v, want %v", err, ErrInvalidCID)
	}
	pointer, _ := Pointer([]byte(`{"never":"stored"}`))
	if _, err := Resolve(ctx, s, pointer); err != ErrNotFound {
		t.Fatalf("have %v, want %v", err, ErrNotFound)
	}
	if err := s.Put(ctx, pointer, []byte(`{"other":1}`)); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("mismatched put: have %v, want %v", err, ErrCorrupted)
	}
	if _, err := Upload(ctx, s, []byte(`{not json`)); !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("invalid payload: have %v, want %v", err, ErrInvalidJSON)
	}
}

func TestGatewayVerifiesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tampered":true}`))
	}))
	defer srv.Close()
	pointer, _ := Pointer([]byte(`{"original":true}`))
	if _, err := NewGateway(srv.URL).Get(context.Background(), pointer); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("have %v, want %v", err, ErrCorrupted)
	}
}

func TestGatewayRetriesOnce(t *testing.T) {
	backing := NewLocal(memorydb.New(), 1<<20)
	inner := Handler(backing)
	var requests, down int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&down) == 1 {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		if atomic.AddInt32(&requests, 1)%2 == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	g := NewGateway(srv.URL)
	pointer, err := Upload(ctx, g, []byte(`{"x":1}`))
	require.NoError(t, err)
	_, err = Resolve(ctx, g, pointer)
	require.NoError(t, err)
	require.EqualValues(t, 4, atomic.LoadInt32(&requests))

	// Two failures in a row surface as transient.
	atomic.StoreInt32(&down, 1)
	_, err = Resolve(ctx, g, pointer)
	require.True(t, protocol.IsTransient(err), "have %v", err)
}

func TestOpen(t *testing.T) {
	s, err := Open(DefaultConfig, memorydb.New())
	require.NoError(t, err)
	require.IsType(t, &Local{}, s)

	_, err = Open(Config{Backend: BackendLocal}, nil)
	require.Error(t, err)

	s, err = Open(Config{Backend: BackendGateway, GatewayURL: "http://localhost:1"}, nil)
	require.NoError(t, err)
	require.IsType(t, &Gateway{}, s)

	_, err = Open(Config{Backend: BackendAzure, Azure: AzureConfig{Account: "acct", Token: "%%not-base64%%"}}, nil)
	require.Error(t, err)

	_, err = Open(Config{Backend: "tape"}, nil)
	require.ErrorIs(t, err, errUnknownStore)
}
