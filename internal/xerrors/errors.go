// Package xerrors defines the public error taxonomy the engine surfaces to
// callers, plus Translate, which normalizes internal package errors
// (hnsw.*, collection.*) into it at the engine boundary.
package xerrors

import (
	"errors"
	"fmt"

	"github.com/lucelabs/vessel/hnsw"
)

// ErrCollectionExists is returned by CreateCollection when name is taken.
var ErrCollectionExists = errors.New("vessel: collection already exists")

// ErrCollectionNotFound is returned when name does not name a collection.
var ErrCollectionNotFound = errors.New("vessel: collection not found")

// ErrInvalidArgument covers an empty name or an unrecognized metric/indexType.
var ErrInvalidArgument = errors.New("vessel: invalid argument")

// ErrInvalidVector is returned for a missing or non-numeric vector.
var ErrInvalidVector = errors.New("vessel: invalid vector")

// ErrInvalidTTL is returned for an unparseable TTL value.
var ErrInvalidTTL = errors.New("vessel: invalid ttl")

// ErrFilterError is the taxonomy's sentinel for a malformed filter
// condition. Filter parsing reports malformed filters as
// *metadata.ErrFilterError, which Translate passes through unchanged; it is
// not mapped onto this value.
var ErrFilterError = errors.New("vessel: invalid filter")

// ErrTenancyRequired is returned when the Engine's own Insert/Query/Delete
// are called directly against a collection created with
// RequireTenant: true; only a TenantScope may access it.
var ErrTenancyRequired = errors.New("vessel: collection requires a tenant scope")

// ErrDimensionMismatch is returned when an insert or search vector's length
// does not equal the collection's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vessel: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is lets errors.Is(err, &ErrDimensionMismatch{}) match any instance, mainly
// for tests that don't care about the exact dimensions involved.
func (e *ErrDimensionMismatch) Is(target error) bool {
	_, ok := target.(*ErrDimensionMismatch)
	return ok
}

// Translate normalizes an internal package error into the public taxonomy.
// Errors already in the public taxonomy pass through unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrCollectionExists),
		errors.Is(err, ErrCollectionNotFound),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidVector),
		errors.Is(err, ErrInvalidTTL),
		errors.Is(err, ErrFilterError),
		errors.Is(err, ErrTenancyRequired):
		return err
	}

	var dim *ErrDimensionMismatch
	if errors.As(err, &dim) {
		return err
	}

	if errors.Is(err, hnsw.ErrDuplicateID) {
		return fmt.Errorf("vessel: %w", err)
	}

	return err
}
