// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pda

import (
	"crypto/sha256"
	"errors"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/mr-tron/base58"
	"github.com/oasisprotocol/curve25519-voi/curve"
)

const (
	AddressLen = sha256.Size

	// marker domain-separates derived addresses from other sha256 uses.
	marker = "ProgramDerivedAddress"

	maxBump = 255
)

var (
	ErrDerivationExhausted = errors.New("address derivation exhausted")

	EmptyAddress = Address{}
)

// Address is a deterministically derived storage location. It is never
// persisted; every operation recomputes it from the owning identity.
type Address [AddressLen]byte

func (a Address) String() string {
	return base58.Encode(a[:])
}

// Predicate reports whether a candidate address is acceptable to the
// hosting platform. It is supplied by the caller so derivation stays a
// pure function over byte sequences.
type Predicate func(Address) bool

// OffCurve accepts addresses that do not decompress as ed25519 curve
// points, so no private key can ever exist for a derived address.
func OffCurve(a Address) bool {
	var compressed curve.CompressedEdwardsY
	if _, err := compressed.SetBytes(a[:]); err != nil {
		return true
	}
	var point curve.EdwardsPoint
	_, err := point.SetCompressedY(&compressed)
	return err != nil
}

// Derive maps [seeds] and [program] to a storage address plus the bump that
// made it acceptable. Bumps are searched descending from 255 so the result
// is the highest valid candidate; the mapping is stable for fixed inputs.
func Derive(seeds [][]byte, program ids.ID, valid Predicate) (Address, uint8, error) {
	for bump := maxBump; bump >= 0; bump-- {
		candidate := DeriveWithBump(seeds, uint8(bump), program)
		if valid(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return EmptyAddress, 0, ErrDerivationExhausted
}

// DeriveWithBump computes the candidate address for a known bump. Callers
// holding a previously resolved bump use this to verify an address without
// repeating the search.
func DeriveWithBump(seeds [][]byte, bump uint8, program ids.ID) Address {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(program[:])
	h.Write([]byte(marker))
	return Address(h.Sum(nil))
}
