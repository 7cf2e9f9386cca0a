package data

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no eligible row.
var ErrNotFound = errors.New("not found")

// DataAccessError wraps a failure reported by the store. The underlying driver
// error is kept intact and reachable through errors.As / errors.Unwrap.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &DataAccessError{Op: op, Err: err}
}

// lookupErr converts sql.ErrNoRows into ErrNotFound for the named resource.
func lookupErr(op, resource, slug string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", resource, slug, ErrNotFound)
	}
	return storeErr(op, err)
}
