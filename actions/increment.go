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

var _ Action = (*Increment)(nil)

// Increment adds one to the actor's counter with checked addition. The
// record must already exist; at the unsigned 64-bit maximum the action
// fails and the stored count is unchanged.
type Increment struct{}

func (*Increment) GetTypeID() uint8 {
	return consts.IncrementID
}

func (*Increment) StateKeys(_ auth.PublicKey, target pda.Address) state.Keys {
	keys := make(state.Keys)
	keys.Add(string(storage.CounterKey(target)), state.Read|state.Write)
	return keys
}

func (*Increment) Execute(
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
	ncount, err := storage.IncrementCounter(ctx, mu, target)
	if err != nil {
		return nil, err
	}
	return &IncrementResult{Count: ncount}, nil
}

var _ Result = (*IncrementResult)(nil)

type IncrementResult struct {
	Count uint64 `json:"count"`
}

func (*IncrementResult) GetTypeID() uint8 {
	return consts.IncrementID
}
