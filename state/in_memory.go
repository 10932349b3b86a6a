// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/database"
)

var (
	_ Mutable   = (*InMemoryStore)(nil)
	_ Immutable = (*InMemoryStore)(nil)
)

// InMemoryStore is a map-backed implementation of [Mutable] used by tests
// and the in-process runtime. The host only serializes instructions per
// derived address, so instructions for different owners commit
// concurrently; the store guards the map itself.
type InMemoryStore struct {
	lock    sync.RWMutex
	storage map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		storage: make(map[string][]byte),
	}
}

func (i *InMemoryStore) GetValue(_ context.Context, key []byte) ([]byte, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()

	val, ok := i.storage[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return val, nil
}

func (i *InMemoryStore) Insert(_ context.Context, key []byte, value []byte) error {
	i.lock.Lock()
	defer i.lock.Unlock()

	i.storage[string(key)] = value
	return nil
}

func (i *InMemoryStore) Remove(_ context.Context, key []byte) error {
	i.lock.Lock()
	defer i.lock.Unlock()

	delete(i.storage, string(key))
	return nil
}

// Len reports the number of stored records.
func (i *InMemoryStore) Len() int {
	i.lock.RLock()
	defer i.lock.RUnlock()

	return len(i.storage)
}
