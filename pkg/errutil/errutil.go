// Package errutil contains utilities for combining errors.
package errutil

import "strings"

// Multi combines errors from cleanup steps that all run regardless of each
// other's failures. Nil arguments are dropped; if nothing is left, Multi
// returns nil, and a single remaining error is returned unchanged. Nested
// results of Multi are flattened.
func Multi(errs ...error) error {
	var nonNil multiError
	for _, err := range errs {
		switch err := err.(type) {
		case nil:
		case multiError:
			nonNil = append(nonNil, err...)
		default:
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return nonNil
	}
}

type multiError []error

func (me multiError) Error() string {
	msgs := make([]string, len(me))
	for i, e := range me {
		msgs[i] = e.Error()
	}
	return "multiple errors: " + strings.Join(msgs, "; ")
}

// Unwrap supports errors.Is and errors.As on the combined errors.
func (me multiError) Unwrap() []error { return me }
