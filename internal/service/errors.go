// Package service implements the business operations behind the HTTP API:
// login and registration, account administration with its role invariants,
// and task management.
package service

import "errors"

// Invariant errors for privileged account mutations. These protect the system
// from reaching a state with no administrator, or from an admin silently
// removing its own privileges.
var (
	ErrSelfRoleChange    = errors.New("an admin cannot change their own role")
	ErrSelfDeletion      = errors.New("an account cannot delete itself")
	ErrLastAdminDemotion = errors.New("cannot demote the last admin")
	ErrLastAdminDeletion = errors.New("cannot delete the last admin")

	// ErrInvalidCredentials is returned by login for an unknown login or a
	// wrong password; the two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
