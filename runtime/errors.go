// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import "errors"

var (
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrWrongProgram           = errors.New("envelope names a different program")
	ErrUnknownInstruction     = errors.New("unknown instruction")
	ErrInvalidKeyOrPermission = errors.New("undeclared key or insufficient permission")
)
