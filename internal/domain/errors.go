package domain

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes journal errors.
type ErrorCode string

const (
	// CodeValidation marks rejected input: empty names, out-of-range sliders,
	// malformed tags, forbidden lifecycle transitions.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeNoActiveProfile marks a profile-scoped mutation with no active profile.
	CodeNoActiveProfile ErrorCode = "NO_ACTIVE_PROFILE"

	// CodeNotFound marks an update that targets a missing profile or session.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodePersistence marks a durable storage failure.
	CodePersistence ErrorCode = "PERSISTENCE"

	// CodeExternalService marks an insight service transport or parse failure.
	CodeExternalService ErrorCode = "EXTERNAL_SERVICE"
)

// Error is the single error type surfaced by the journal core.
//
// Op names the operation that failed ("add session"), Field the offending
// input when there is one. Err carries the underlying cause for
// persistence and external service failures.
type Error struct {
	Code    ErrorCode
	Op      string
	Field   string
	Message string
	Err     error
}

// Sentinels for errors.Is matching on code alone.
var (
	ErrValidation      = &Error{Code: CodeValidation}
	ErrNoActiveProfile = &Error{Code: CodeNoActiveProfile}
	ErrNotFound        = &Error{Code: CodeNotFound}
	ErrPersistence     = &Error{Code: CodePersistence}
	ErrExternalService = &Error{Code: CodeExternalService}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Validation builds a VALIDATION error for the given field.
func Validation(op, field, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Op: op, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NoActiveProfile builds a NO_ACTIVE_PROFILE error.
func NoActiveProfile(op string) *Error {
	return &Error{Code: CodeNoActiveProfile, Op: op, Message: "no active profile selected"}
}

// NotFound builds a NOT_FOUND error naming the missing entity.
func NotFound(op, kind, id string) *Error {
	return &Error{Code: CodeNotFound, Op: op, Message: fmt.Sprintf("%s %q not found", kind, id)}
}

// Persistence wraps a storage failure.
func Persistence(op string, err error) *Error {
	return &Error{Code: CodePersistence, Op: op, Message: "storage write failed", Err: err}
}

// ExternalService wraps an insight service failure.
func ExternalService(op string, err error) *Error {
	return &Error{Code: CodeExternalService, Op: op, Message: "insight service failed", Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a VALIDATION error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNoActiveProfile reports whether err is a NO_ACTIVE_PROFILE error.
func IsNoActiveProfile(err error) bool { return CodeOf(err) == CodeNoActiveProfile }

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsPersistence reports whether err is a PERSISTENCE error.
func IsPersistence(err error) bool { return CodeOf(err) == CodePersistence }

// IsExternalService reports whether err is an EXTERNAL_SERVICE error.
func IsExternalService(err error) bool { return CodeOf(err) == CodeExternalService }
