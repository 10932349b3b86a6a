// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/version"
)

const (
	Name = "countervm"

	// CounterSeed is the namespace tag prepended to the owner's public key
	// when deriving the address of that owner's counter record.
	CounterSeed = "counter"

	// Persisted record layout: an 8-byte record-type discriminator reserved
	// for the hosting runtime followed by the 8-byte little-endian count.
	DiscriminatorLen = 8
	CounterValueLen  = 8
	CounterRecordLen = DiscriminatorLen + CounterValueLen
)

// ID is the program identity all counter addresses are derived against.
var ID ids.ID

func init() {
	b := make([]byte, ids.IDLen)
	copy(b, []byte(Name))
	programID, err := ids.ToID(b)
	if err != nil {
		panic(err)
	}
	ID = programID
}

var Version = &version.Semantic{
	Major: 0,
	Minor: 0,
	Patch: 1,
}
