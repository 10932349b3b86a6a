// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"
	"errors"

	"github.com/lodestone-hq/countervm/auth"
	"github.com/lodestone-hq/countervm/pda"
	"github.com/lodestone-hq/countervm/state"
)

var ErrAddressMismatch = errors.New("target address does not match derivation")

// Action is a single atomic unit of work against the counter program.
// Execute either fully applies its state transition or returns an error
// having written nothing; all preconditions are checked before any write.
type Action interface {
	GetTypeID() uint8

	// StateKeys declares every state key Execute may touch, with the
	// required permissions. The runtime scopes state access to exactly
	// these keys.
	StateKeys(actor auth.PublicKey, target pda.Address) state.Keys

	Execute(
		ctx context.Context,
		mu state.Mutable,
		actor auth.PublicKey,
		target pda.Address,
	) (Result, error)
}

// Result is the typed output of a successful action.
type Result interface {
	GetTypeID() uint8
}
