// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"

	"github.com/lodestone-hq/countervm/state"
)

var _ state.Mutable = (*scopedState)(nil)

type change struct {
	value  []byte
	remove bool
}

// scopedState is the view an instruction executes against. Reads and
// writes are checked against the action's declared keys, and writes are
// buffered so the backing store is only touched when the instruction
// succeeds as a whole.
type scopedState struct {
	inner   state.Immutable
	keys    state.Keys
	changes map[string]*change
}

func newScopedState(inner state.Immutable, keys state.Keys) *scopedState {
	return &scopedState{
		inner:   inner,
		keys:    keys,
		changes: make(map[string]*change),
	}
}

func (s *scopedState) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	if !s.keys[string(key)].Has(state.Read) {
		return nil, ErrInvalidKeyOrPermission
	}
	if c, ok := s.changes[string(key)]; ok {
		if c.remove {
			return nil, database.ErrNotFound
		}
		return c.value, nil
	}
	return s.inner.GetValue(ctx, key)
}

func (s *scopedState) Insert(ctx context.Context, key []byte, value []byte) error {
	required := state.Write
	exists, err := s.exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		required = state.Allocate
	}
	if !s.keys[string(key)].Has(required) {
		return ErrInvalidKeyOrPermission
	}
	s.changes[string(key)] = &change{value: value}
	return nil
}

func (s *scopedState) Remove(_ context.Context, key []byte) error {
	if !s.keys[string(key)].Has(state.Write) {
		return ErrInvalidKeyOrPermission
	}
	s.changes[string(key)] = &change{remove: true}
	return nil
}

func (s *scopedState) exists(ctx context.Context, key []byte) (bool, error) {
	if c, ok := s.changes[string(key)]; ok {
		return !c.remove, nil
	}
	_, err := s.inner.GetValue(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// commit applies the buffered changes to [mu] in one pass.
func (s *scopedState) commit(ctx context.Context, mu state.Mutable) error {
	for key, c := range s.changes {
		if c.remove {
			if err := mu.Remove(ctx, []byte(key)); err != nil {
				return err
			}
			continue
		}
		if err := mu.Insert(ctx, []byte(key), c.value); err != nil {
			return err
		}
	}
	return nil
}
