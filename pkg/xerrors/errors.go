// Package xerrors defines the error kinds shared across the preparation
// pipeline, following the WrapErrorf/typed-cause pattern the rest of the
// navigatorx stack leans on for its service-layer errors.
package xerrors

import (
	"errors"
	"fmt"
)

// Kind classifies the cause of a pipeline failure so the top-level
// cmd driver can log one line and pick an exit code, without the
// caller having to string-match error messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindFormat
	KindProfile
	KindData
	KindIO
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindFormat:
		return "format"
	case KindProfile:
		return "profile"
	case KindData:
		return "data"
	case KindIO:
		return "io"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error wraps a lower-level cause with a Kind and a human-readable
// message. Callers should prefer WrapErrorf over constructing Error
// directly.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// WrapErrorf wraps err with a Kind and a formatted message. err may be
// nil, in which case the returned Error still carries Kind/Message so it
// can be used to construct fresh failures (e.g. configuration errors
// with no underlying cause).
func WrapErrorf(err error, kind Kind, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// KindOf reports the Kind of err if it (or something it wraps) is an
// *Error, and KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
