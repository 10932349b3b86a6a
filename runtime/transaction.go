// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/near/borsh-go"

	"github.com/lodestone-hq/countervm/auth"
	"github.com/lodestone-hq/countervm/consts"
	"github.com/lodestone-hq/countervm/pda"
	"github.com/lodestone-hq/countervm/storage"
)

// Envelope is the signed instruction frame a caller submits. The runtime
// re-derives [Target] and [Bump] from [Owner] before dispatch, so a caller
// cannot point an instruction at an address it did not derive.
type Envelope struct {
	Program ids.ID
	Kind    uint8
	Owner   auth.PublicKey
	Target  pda.Address
	Bump    uint8
}

// Bytes is the canonical borsh encoding of the envelope, which is also the
// signed message.
func (e *Envelope) Bytes() ([]byte, error) {
	return borsh.Serialize(*e)
}

type Transaction struct {
	Envelope  Envelope
	Signature auth.Signature
}

// NewTransaction assembles and signs an instruction of [kind] for the
// counter owned by [owner].
func NewTransaction(kind uint8, owner auth.PrivateKey) (*Transaction, error) {
	pub := owner.PublicKey()
	target, bump, err := storage.CounterAddress(pub)
	if err != nil {
		return nil, err
	}
	env := Envelope{
		Program: consts.ID,
		Kind:    kind,
		Owner:   pub,
		Target:  target,
		Bump:    bump,
	}
	msg, err := env.Bytes()
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Envelope:  env,
		Signature: auth.Sign(msg, owner),
	}, nil
}
