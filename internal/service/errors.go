package service

import (
	"errors"
	"fmt"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"

	"gorm.io/gorm"
)

// Error taxonomy returned by every service. Callers match with errors.Is.
var (
	ErrValidation    = model.ErrValidation
	ErrCapability    = model.ErrCapability
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not authorized")
	ErrConflict      = errors.New("conflict")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func authorizationError(what string) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, what)
}

// storeError translates repository errors into the taxonomy. Record-not-found
// becomes ErrNotFound for what; entity validation errors pass through.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundError(what)
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrCapability):
		return err
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
