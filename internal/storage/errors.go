package storage

import "errors"

var (
	// ErrDuplicateKey is returned when a transaction hash already exists.
	ErrDuplicateKey = errors.New("duplicate key: transaction hash already stored")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a transaction fails basic checks.
	ErrInvalidInput = errors.New("invalid input")
)
