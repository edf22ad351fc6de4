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

// Package objstore keeps task content and proof payloads off-ledger. Payloads
// are opaque JSON blobs addressed by their CIDv1 (raw codec, sha2-256); the
// ledgers only ever see the pointer string.
package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// MockPrefix marks test pointers. They resolve to no content without I/O.
const MockPrefix = "mock-"

var (
	ErrNotFound     = errors.New("object not found")
	ErrInvalidCID   = errors.New("invalid content pointer")
	ErrCorrupted    = errors.New("object does not match its content pointer")
	ErrInvalidJSON  = errors.New("object is not valid JSON")
	errUnknownStore = errors.New("unknown object store backend")
)

var prefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   multihash.SHA2_256,
	MhLength: -1,
}

// Store persists blobs under their content pointer.
type Store interface {
	// Put stores data at pointer, which the caller derived with Pointer.
	Put(ctx context.Context, pointer string, data []byte) error

	// Get returns the blob behind pointer, ErrNotFound if it is unknown.
	Get(ctx context.Context, pointer string) ([]byte, error)
}

// Pointer computes the content pointer of data.
func Pointer(data []byte) (string, error) {
	c, err := prefix.Sum(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// IsMock reports whether pointer is a mock pointer.
func IsMock(pointer string) bool {
	return strings.HasPrefix(pointer, MockPrefix)
}

func parse(pointer string) (cid.Cid, error) {
	c, err := cid.Decode(pointer)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w %q: %v", ErrInvalidCID, pointer, err)
	}
	return c, nil
}

// Verify checks that data hashes to pointer.
func Verify(pointer string, data []byte) error {
	want, err := parse(pointer)
	if err != nil {
		return err
	}
	have, err := want.Prefix().Sum(data)
	if err != nil {
		return err
	}
	if !have.Equals(want) {
		return fmt.Errorf("%w: have %s, want %s", ErrCorrupted, have, want)
	}
	return nil
}

func retry(ctx context.Context, fn func() error) error {
	err := fn()
	if protocol.IsTransient(err) && ctx.Err() == nil {
		log.Debug("Retrying object store request", "err", err)
		err = fn()
	}
	return err
}

// Upload stores a JSON payload and returns its pointer. The payload is
// compacted first, so equal documents share a pointer.
func Upload(ctx context.Context, s Store, payload []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	data := buf.Bytes()
	pointer, err := Pointer(data)
	if err != nil {
		return "", err
	}
	if len(pointer) > protocol.PointerLength {
		return "", fmt.Errorf("pointer %s exceeds %d bytes", pointer, protocol.PointerLength)
	}
	if err := retry(ctx, func() error { return s.Put(ctx, pointer, data) }); err != nil {
		return "", err
	}
	return pointer, nil
}

// UploadValue marshals v and uploads it.
func UploadValue(ctx context.Context, s Store, v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Upload(ctx, s, payload)
}

// Resolve fetches the JSON payload behind pointer. Mock pointers resolve to
// nil. The payload is verified against the pointer.
func Resolve(ctx context.Context, s Store, pointer string) (json.RawMessage, error) {
	if IsMock(pointer) {
		return nil, nil
	}
	if _, err := parse(pointer); err != nil {
		return nil, err
	}
	var data []byte
	err := retry(ctx, func() (err error) {
		data, err = s.Get(ctx, pointer)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := Verify(pointer, data); err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	return data, nil
}

// ResolveValue resolves pointer into v. It reports false, leaving v
// untouched, for mock pointers.
func ResolveValue(ctx context.Context, s Store, pointer string, v interface{}) (bool, error) {
	data, err := Resolve(ctx, s, pointer)
	if err != nil || data == nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}
