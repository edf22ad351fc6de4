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

package kvdb

// table prefixes every key with a fixed namespace so independent ledgers can
// share one physical store.
type table struct {
	db     KeyValueStore
	prefix string
}

// NewTable returns a database object that prefixes all keys with a given string.
func NewTable(db KeyValueStore, prefix string) KeyValueStore {
	return &table{db: db, prefix: prefix}
}

// Close is a noop to implement the Database interface.
func (t *table) Close() error { return nil }

func (t *table) key(key []byte) []byte {
	return append([]byte(t.prefix), key...)
}

func (t *table) Has(key []byte) (bool, error) { return t.db.Has(t.key(key)) }

func (t *table) Get(key []byte) ([]byte, error) { return t.db.Get(t.key(key)) }

func (t *table) Put(key []byte, value []byte) error { return t.db.Put(t.key(key), value) }

func (t *table) Delete(key []byte) error { return t.db.Delete(t.key(key)) }

// NewIterator creates an iterator over the table's namespace only.
func (t *table) NewIterator(prefix []byte, start []byte) Iterator {
	inner := t.db.NewIterator(t.key(prefix), start)
	return &tableIterator{iter: inner, prefix: len(t.prefix)}
}

func (t *table) NewBatch() Batch {
	return &tableBatch{batch: t.db.NewBatch(), prefix: t.prefix}
}

// tableBatch reports sizes in unprefixed terms.
type tableBatch struct {
	batch  Batch
	prefix string
	size   int
}

func (b *tableBatch) Put(key, value []byte) error {
	b.size += len(key) + len(value)
	return b.batch.Put(append([]byte(b.prefix), key...), value)
}

func (b *tableBatch) Delete(key []byte) error {
	b.size += len(key)
	return b.batch.Delete(append([]byte(b.prefix), key...))
}

func (b *tableBatch) ValueSize() int { return b.size }
func (b *tableBatch) Write() error   { return b.batch.Write() }

func (b *tableBatch) Reset() {
	b.batch.Reset()
	b.size = 0
}

type tableIterator struct {
	iter   Iterator
	prefix int
}

func (it *tableIterator) Next() bool    { return it.iter.Next() }
func (it *tableIterator) Error() error  { return it.iter.Error() }
func (it *tableIterator) Value() []byte { return it.iter.Value() }
func (it *tableIterator) Release()      { it.iter.Release() }

func (it *tableIterator) Key() []byte {
	key := it.iter.Key()
	if key == nil {
		return nil
	}
	return key[it.prefix:]
}

// tableWriter prefixes keys written through an arbitrary writer, typically a
// batch shared with writes outside the table.
type tableWriter struct {
	w      KeyValueWriter
	prefix string
}

// NewTableWriter returns a writer that prefixes all keys with a given string.
func NewTableWriter(w KeyValueWriter, prefix string) KeyValueWriter {
	return &tableWriter{w: w, prefix: prefix}
}

func (t *tableWriter) Put(key []byte, value []byte) error {
	return t.w.Put(append([]byte(t.prefix), key...), value)
}

func (t *tableWriter) Delete(key []byte) error {
	return t.w.Delete(append([]byte(t.prefix), key...))
}
