package service

import "errors"

var (
	// ErrInvalidCredentials is the single login failure: the caller cannot
	// tell an unknown username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidRefreshToken collapses expired, revoked and never-issued
	// tokens into one outcome.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUserExists          = errors.New("user already exists")
	ErrValidation          = errors.New("validation failed")
)

// ValidationError carries the field -> messages map for the HTTP layer.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
