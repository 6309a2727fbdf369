package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an account role for authorization purposes.
type Role string

const (
	// RoleAdmin has full access to all operations.
	RoleAdmin Role = "ADMIN"
	// RoleUser has standard access to read operations and its own profile.
	RoleUser Role = "USER"
)

// IsValid returns true if the role is a known valid role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// Account represents a persisted identity record. The login is unique and
// case-sensitive; the password is stored only as an argon2id hash.
type Account struct {
	ID           uuid.UUID
	Login        string
	PasswordHash string
	Role         Role

	CreatedAt time.Time
	UpdatedAt time.Time
}
