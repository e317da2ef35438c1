package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNotAssociated = errors.New("not associated with a saved parent")
	ErrNoQuestions   = errors.New("no questions")
	ErrImmutable     = errors.New("saved sessions cannot be changed")

	// ErrUnavailable marks a backend failure (lost connection, unreadable
	// storage) as opposed to a rejected operation. Only these errors move the
	// hybrid store to its fallback.
	ErrUnavailable = errors.New("storage unavailable")
)

var errClosed = errors.New("store is closed")

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
