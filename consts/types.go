// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	InitializeID uint8 = 0
	IncrementID  uint8 = 1
)
