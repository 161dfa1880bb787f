package service

import (
	"errors"
	"fmt"

	"github.com/mithrel/muse/internal/db"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid input")
)

// invalid wraps a validation failure so both ErrInvalid and the underlying
// ozzo-validation errors stay reachable through errors.Is / errors.As.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

// storeErr maps repository sentinels to service sentinels.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, db.ErrConflict):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	case errors.Is(err, db.ErrInvalidCursor):
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return err
}
