package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// Invalid builds a validation error carrying a user-facing message.
func Invalid(operation, message string) error {
	return WrapError(ErrInvalidInput, operation, errors.New(message))
}

// NotFound builds a not-found error for the given entity and identifier.
func NotFound(operation, entity, id string) error {
	return WrapError(ErrNotFound, operation, fmt.Errorf("%s id=%s", entity, id))
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
