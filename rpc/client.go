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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/paperclip-protocol/go-paperclip/protocol"
)

const defaultDialTimeout = 30 * time.Second

var errNoResult = errors.New("no result in JSON-RPC response")

// Client represents a connection to an RPC server.
type Client struct {
	url    string
	client *http.Client
	idCtr  uint32
}

// DialHTTP creates a new RPC client that connects to an RPC server over HTTP.
func DialHTTP(endpoint string) (*Client, error) {
	return DialHTTPWithClient(endpoint, &http.Client{Timeout: defaultDialTimeout})
}

// DialHTTPWithClient creates a new RPC client that connects to an RPC server
// over HTTP using the provided HTTP Client.
func DialHTTPWithClient(endpoint string, client *http.Client) (*Client, error) {
	req, err := http.NewRequest(http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return &Client{url: req.URL.String(), client: client}, nil
}

// DialInProc attaches a client to an in-process handler, typically the one
// built by NewHTTPHandler.
func DialInProc(handler http.Handler) *Client {
	return &Client{url: "http://inproc/", client: &http.Client{Transport: inprocTransport{handler}}}
}

type inprocTransport struct{ h http.Handler }

func (t inprocTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	t.h.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

func (c *Client) nextID() json.RawMessage {
	id := atomic.AddUint32(&c.idCtr, 1)
	return strconv.AppendUint(nil, uint64(id), 10)
}

// Call performs a JSON-RPC call with the given arguments and unmarshals into
// result if no error occurred.
//
// Protocol rejections come back as the matching protocol sentinel. Failures
// of the transport itself are wrapped with protocol.Transient, except for
// cancellation of ctx which is returned as is.
func (c *Client) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if result != nil && reflect.TypeOf(result).Kind() != reflect.Ptr {
		return fmt.Errorf("call result parameter must be pointer or nil interface: %v", result)
	}
	params, err := json.Marshal(args)
	if err != nil {
		return err
	}
	if args == nil {
		params = []byte("[]")
	}
	body, err := json.Marshal(&jsonrpcMessage{Version: vsn, ID: c.nextID(), Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return protocol.Transient(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.Transient(err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return protocol.Transient(ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return protocol.Transient(HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: payload})
	}
	var msg jsonrpcMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return protocol.Transient(err)
	}
	if msg.Error != nil {
		return decodeError(msg.Error)
	}
	if len(msg.Result) == 0 {
		return protocol.Transient(errNoResult)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(msg.Result, result)
}

// decodeError turns a wire error back into the error the server returned.
func decodeError(je *jsonError) error {
	if je.Code >= protocol.ErrorCodeOffset {
		if perr := protocol.ErrorByCode(uint32(je.Code)); perr != nil {
			return perr
		}
	}
	if je.Code == errcodeDefault || je.Code == errcodeInternal {
		return protocol.Transient(je)
	}
	return je
}
