package storage

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrEditConflict = errors.New("edit conflict")

	// ErrInvalidReference is returned when a row points at a parent that does not exist.
	ErrInvalidReference = errors.New("invalid reference")
)
