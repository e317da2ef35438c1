package quiz

import (
	"errors"
	"strings"
)

var (
	ErrEmptySelection = errors.New("no answer selected")
	ErrInvalidAnswer  = errors.New("answer does not belong to question")
)

// ValidationError reports the first rule an entity breaks. Its message is meant
// to be shown to the user as is.
type ValidationError struct {
	Entity string
	Field  string
	Msg    string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Entity, e.Field, e.Msg} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
