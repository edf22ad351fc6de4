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

	"github.com/VictoriaMetrics/fastcache"
	"github.com/golang/snappy"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
)

var objectPrefix = []byte("o") // objectPrefix + cid bytes -> snappy(data)

// Local keeps objects in a key-value store, snappy-compressed, with a
// fastcache of recently used payloads in front.
type Local struct {
	db    kvdb.KeyValueStore
	cache *fastcache.Cache
}

// NewLocal creates a store on db with a hot cache of cacheBytes.
func NewLocal(db kvdb.KeyValueStore, cacheBytes int) *Local {
	return &Local{db: db, cache: fastcache.New(cacheBytes)}
}

func objectKey(pointer string) ([]byte, error) {
	c, err := parse(pointer)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, objectPrefix...), c.Bytes()...), nil
}

func (l *Local) Put(ctx context.Context, pointer string, data []byte) error {
	if err := Verify(pointer, data); err != nil {
		return err
	}
	key, err := objectKey(pointer)
	if err != nil {
		return err
	}
	if err := l.db.Put(key, snappy.Encode(nil, data)); err != nil {
		return err
	}
	l.cache.Set(key, data)
	return nil
}

func (l *Local) Get(ctx context.Context, pointer string) ([]byte, error) {
	key, err := objectKey(pointer)
	if err != nil {
		return nil, err
	}
	if data, ok := l.cache.HasGet(nil, key); ok {
		return data, nil
	}
	enc, err := l.db.Get(key)
	if err != nil {
		if ok, _ := l.db.Has(key); !ok {
			return nil, ErrNotFound
		}
		return nil, err
	}
	data, err := snappy.Decode(nil, enc)
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, data)
	return data, nil
}

// Reset drops the hot cache.
func (l *Local) Reset() { l.cache.Reset() }
