// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "context"

// Immutable and Mutable are the injected key-value store the counter
// program executes against. The hosting runtime guarantees each call is
// atomic and that calls touching the same key are externally serialized;
// implementations assume nothing beyond that.
type Immutable interface {
	GetValue(ctx context.Context, key []byte) (value []byte, err error)
}

type Mutable interface {
	Immutable

	Insert(ctx context.Context, key []byte, value []byte) error
	Remove(ctx context.Context, key []byte) error
}
