package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource (title, item index or user).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrShapeMismatch signals that similarity partitions do not line up with the catalog.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrEnrichmentUnavailable signals that metadata for a single item could not be fetched.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	// ErrStorageUnavailable signals a failing credential store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrReservedUsername signals an attempt to create, edit or delete the admin account
	// through a generic path.
	ErrReservedUsername = errors.New("reserved username")
	// ErrInvalidCredentials signals a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput signals malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
)

// ShapeMismatchError carries the dimensions that failed validation.
type ShapeMismatchError struct {
	What     string
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: expected %d, got %d", ErrShapeMismatch.Error(), e.What, e.Expected, e.Got)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// NewShapeMismatch creates a shape mismatch error.
func NewShapeMismatch(what string, expected, got int) error {
	return &ShapeMismatchError{What: what, Expected: expected, Got: got}
}
