package merge

import (
	"fmt"
	"strings"
)

// HeaderMismatchError is returned when the baseline and recent files do not
// share exactly the same columns in the same order.
type HeaderMismatchError struct {
	Baseline []string
	Recent   []string
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("header mismatch between baseline [%s] and recent [%s]",
		strings.Join(e.Baseline, ","), strings.Join(e.Recent, ","))
}

// MissingColumnError is returned when a required column is absent from a header.
type MissingColumnError struct {
	Column string
	Header []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing %q column in header [%s]", e.Column, strings.Join(e.Header, ","))
}
