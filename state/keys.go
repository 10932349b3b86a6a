// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

// Permissions describe the accesses an action declares for a state key
// before it executes. The runtime scopes the action's view of state to
// exactly these declarations.
type Permissions byte

const (
	Read     Permissions = 1
	Allocate Permissions = 1<<1 | Write
	Write    Permissions = 1 << 2

	None Permissions = 0
	All  Permissions = Read | Allocate | Write
)

// Has returns whether [p] grants every permission in [require].
func (p Permissions) Has(require Permissions) bool {
	return p&require == require
}

// Keys maps declared state keys to their permissions.
type Keys map[string]Permissions

// Add grants [permission] on [key], merging with any prior grant.
func (k Keys) Add(key string, permission Permissions) {
	k[key] |= permission
}
