// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/database"

	"github.com/lodestone-hq/countervm/auth"
	"github.com/lodestone-hq/countervm/consts"
	"github.com/lodestone-hq/countervm/pda"
	"github.com/lodestone-hq/countervm/state"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

// State
// 0x0/ (counter)
//   -> [derived address] => [8-byte discriminator][8-byte count, little-endian]

const counterPrefix byte = 0x0

// counterDiscriminator is the opaque record-type tag reserved at the front
// of every record. The program writes it on allocation and never parses it.
var counterDiscriminator []byte

func init() {
	h := sha256.Sum256([]byte("account:Counter"))
	counterDiscriminator = h[:consts.DiscriminatorLen]
}

// CounterAddress derives the storage address holding [owner]'s counter.
// The result is stable for a fixed owner; any holder of the public key can
// recompute it.
func CounterAddress(owner auth.PublicKey) (pda.Address, uint8, error) {
	return pda.Derive(
		[][]byte{[]byte(consts.CounterSeed), owner[:]},
		consts.ID,
		pda.OffCurve,
	)
}

// [counterPrefix] + [address]
func CounterKey(addr pda.Address) []byte {
	k := make([]byte, 1+pda.AddressLen)
	k[0] = counterPrefix
	copy(k[1:], addr[:])
	return k
}

// GetCounter returns the count stored at [addr] and whether a record
// exists there.
func GetCounter(
	ctx context.Context,
	im state.Immutable,
	addr pda.Address,
) (uint64, bool, error) {
	_, count, exists, err := getCounter(ctx, im, addr)
	return count, exists, err
}

func getCounter(
	ctx context.Context,
	im state.Immutable,
	addr pda.Address,
) ([]byte, uint64, bool, error) {
	k := CounterKey(addr)
	v, err := im.GetValue(ctx, k)
	if errors.Is(err, database.ErrNotFound) {
		return k, 0, false, nil
	}
	if err != nil {
		return k, 0, false, err
	}
	if len(v) != consts.CounterRecordLen {
		return k, 0, false, ErrInvalidRecord
	}
	return k, binary.LittleEndian.Uint64(v[consts.DiscriminatorLen:]), true, nil
}

// CreateCounter allocates the fixed 16-byte record at [addr] with count 0.
// Re-initialization of an existing record is rejected, never a no-op.
func CreateCounter(
	ctx context.Context,
	mu state.Mutable,
	addr pda.Address,
) error {
	k, _, exists, err := getCounter(ctx, mu, addr)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	return setCounter(ctx, mu, k, 0)
}

// SetCounter overwrites the count at [addr]. The record must already exist.
func SetCounter(
	ctx context.Context,
	mu state.Mutable,
	addr pda.Address,
	count uint64,
) error {
	k, _, exists, err := getCounter(ctx, mu, addr)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRecordNotFound
	}
	return setCounter(ctx, mu, k, count)
}

// IncrementCounter adds one to the count at [addr] with checked addition
// and returns the new value. Nothing is written on failure.
func IncrementCounter(
	ctx context.Context,
	mu state.Mutable,
	addr pda.Address,
) (uint64, error) {
	k, count, exists, err := getCounter(ctx, mu, addr)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrRecordNotFound
	}
	ncount, err := smath.Add64(count, 1)
	if err != nil {
		return 0, ErrOverflow
	}
	if err := setCounter(ctx, mu, k, ncount); err != nil {
		return 0, err
	}
	return ncount, nil
}

func setCounter(
	ctx context.Context,
	mu state.Mutable,
	key []byte,
	count uint64,
) error {
	v := make([]byte, 0, consts.CounterRecordLen)
	v = append(v, counterDiscriminator...)
	v = binary.LittleEndian.AppendUint64(v, count)
	return mu.Insert(ctx, key, v)
}
