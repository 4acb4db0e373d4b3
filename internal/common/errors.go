// Package common defines shared constants and sentinel errors used across
// client and server layers of teamkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors (access control).
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Validation / uniqueness errors.
	ErrValidation     = errors.New("validation error")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrDuplicateTeam  = errors.New("duplicate team")

	// Auth errors. ErrInvalidCredentials covers both an unknown email and a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")

	// Roster errors.
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyMember = errors.New("already a member")
	ErrNotAMember    = errors.New("not a member")
	ErrOwnerRemoval  = errors.New("owner cannot be removed")
)
