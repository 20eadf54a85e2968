package auth

import "errors"

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrOrganizationMismatch indicates the lot belongs to a different organization.
	ErrOrganizationMismatch = errors.New("auth: organization mismatch")
	// ErrNotFound indicates the lot does not exist.
	ErrNotFound = errors.New("auth: resource not found")
)
