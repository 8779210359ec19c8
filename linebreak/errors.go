package linebreak

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the arguments of Layout cannot describe
	// a paragraph. No layout is attempted.
	ErrInvalidInput = errors.New("linebreak: invalid input")

	// ErrUnbreakableRemainder is returned together with a partial result when
	// a character is wider than the line on its own.
	ErrUnbreakableRemainder = errors.New("linebreak: character wider than line")
)

// InputError describes which argument of Layout was rejected.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("linebreak: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InputError) Unwrap() error { return ErrInvalidInput }
