package storage

import "errors"

var (
	ErrNotFound   = errors.New("storage: not found")
	ErrInvalidKey = errors.New("storage: invalid content key")
	ErrIDMismatch = errors.New("storage: content id mismatch")
	ErrImmutable  = errors.New("storage: immutable content mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
