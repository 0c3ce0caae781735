package errors

import "errors"

var (
	ErrForbidden             = errors.New("caller does not hold the administrator capability")
	ErrInvalidUserID         = errors.New("user id must not be empty")
	ErrAdministratorNotFound = errors.New("administrator not found")
	ErrAdministratorExists   = errors.New("user already holds the administrator capability")
	ErrCannotRevokeLastAdmin = errors.New("cannot revoke the last remaining administrator")
)
