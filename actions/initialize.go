// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"

	"github.com/lodestone-hq/countervm/auth"
	"github.com/lodestone-hq/countervm/consts"
	"github.com/lodestone-hq/countervm/pda"
	"github.com/lodestone-hq/countervm/state"
	"github.com/lodestone-hq/countervm/storage"
)

var _ Action = (*Initialize)(nil)

// Initialize allocates the actor's counter record at its derived address
// and sets the count to 0. It carries no arguments; everything it needs is
// recomputed from the actor identity.
type Initialize struct{}

func (*Initialize) GetTypeID() uint8 {
	return consts.InitializeID
}

func (*Initialize) StateKeys(_ auth.PublicKey, target pda.Address) state.Keys {
	keys := make(state.Keys)
	keys.Add(string(storage.CounterKey(target)), state.Read|state.Allocate)
	return keys
}

func (*Initialize) Execute(
	ctx context.Context,
	mu state.Mutable,
	actor auth.PublicKey,
	target pda.Address,
) (Result, error) {
	expected, _, err := storage.CounterAddress(actor)
	if err != nil {
		return nil, err
	}
	if expected != target {
		return nil, ErrAddressMismatch
	}
	if err := storage.CreateCounter(ctx, mu, target); err != nil {
		return nil, err
	}
	return &InitializeResult{Count: 0}, nil
}

var _ Result = (*InitializeResult)(nil)

type InitializeResult struct {
	Count uint64 `json:"count"`
}

func (*InitializeResult) GetTypeID() uint8 {
	return consts.InitializeID
}
