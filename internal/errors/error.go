package errors

import (
	"errors"
)

var (
	ErrEmptyAuth       = errors.New("missing authorization")
	ErrEmptySubject    = errors.New("missing subject")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrFailedHashToken = errors.New("failed hashing token")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)

// Kinds of failure surfaced to callers of the cart and order layers.
var (
	ErrValidation   = errors.New("validation error")
	ErrAuthRequired = errors.New("authentication required")
	ErrTimeout      = errors.New("request timed out")
	ErrServer       = errors.New("server error")
	ErrUnknown      = errors.New("unknown error")
)

const (
	MessageAuthRequired = "Please sign in to continue."
	MessageTimeout      = "The request timed out. Please try again."
	MessageUnknown      = "Something went wrong. Please try again later."
)

// Error is the single human readable error type handed to the presentation
// layer. Kind is one of the Err* kinds above and is matched with errors.Is.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func New(kind error, message string, cause error) *Error {
	if message == "" {
		message = kind.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string, cause error) *Error {
	return New(ErrValidation, message, cause)
}

func AuthRequired(cause error) *Error {
	return New(ErrAuthRequired, MessageAuthRequired, cause)
}

func Timeout(cause error) *Error {
	return New(ErrTimeout, MessageTimeout, cause)
}

func Server(message string, cause error) *Error {
	return New(ErrServer, message, cause)
}

func Unknown(cause error) *Error {
	return New(ErrUnknown, MessageUnknown, cause)
}

// Message returns the text meant for end users.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Kind reports which failure kind err belongs to, ErrUnknown when none match.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrAuthRequired, ErrTimeout, ErrServer} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrUnknown
}
