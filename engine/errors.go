package engine

import (
	"errors"
	"fmt"
)

// ErrInputShape is matched by every InputShapeError via errors.Is.
// Input shape errors are fatal: callers abort and surface them.
var ErrInputShape = errors.New("invalid input shape")

// InputShapeError reports a missing or mistyped field in the input relation.
// Row is the 1-based data row, or 0 when the error concerns the relation
// as a whole (e.g. a missing column).
type InputShapeError struct {
	Row    int
	Field  string
	Reason string
}

func (e *InputShapeError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: field %q: %s", ErrInputShape, e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrInputShape, e.Field, e.Reason)
}

// Is reports whether target is ErrInputShape.
func (e *InputShapeError) Is(target error) bool {
	return target == ErrInputShape
}

// NewInputShapeError builds an InputShapeError.
func NewInputShapeError(row int, field, reason string) *InputShapeError {
	return &InputShapeError{Row: row, Field: field, Reason: reason}
}
