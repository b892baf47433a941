package store

import (
	"errors"
	"fmt"
)

// ErrMissingField is wrapped by StorageError when a reading lacks a measurement.
var ErrMissingField = errors.New("missing required field")

// StorageError is returned for every failed query or rejected write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err came from the data-access layer.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
