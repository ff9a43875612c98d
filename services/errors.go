package services

import (
	"errors"
	"fmt"

	"github.com/snap-point/social-api/store"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrUnauthorized       = errors.New("authentication required")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrAlreadyExists      = errors.New("already exists")
)

// translate maps store errors onto the service taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, store.ErrSelfReference):
		return fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrAlreadyExists, what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
