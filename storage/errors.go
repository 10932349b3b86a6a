// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	ErrAlreadyInitialized = errors.New("counter already initialized")
	ErrRecordNotFound     = errors.New("counter record not found")
	ErrOverflow           = errors.New("counter overflow")
	ErrInvalidRecord      = errors.New("invalid counter record")
)
