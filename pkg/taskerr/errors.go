// Package taskerr defines the error taxonomy surfaced to the management platform.
// Every error carries a short user-facing message and a longer diagnostic detail.
package taskerr

import (
	"errors"
	"fmt"
)

// Kind classifies a task failure
type Kind int

const (
	// Unexpected is the catch-all kind
	Unexpected Kind = iota
	// InstallationFailed means a prerequisite package install exited non-zero
	InstallationFailed
	// IneligibleSystem means the distribution or release is not supported
	IneligibleSystem
	// ConfigurationError means the operation mode selector is invalid
	ConfigurationError
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case InstallationFailed:
		return "InstallationFailed"
	case IneligibleSystem:
		return "IneligibleSystem"
	case ConfigurationError:
		return "ConfigurationError"
	default:
		return "Unexpected"
	}
}

// UnexpectedMessage is shown to the user when the failure has no known kind
const UnexpectedMessage = "An unexpected error occurred. Expand the row for more details."

// Error is a classified task failure
type Error struct {
	Kind Kind
	// UserMessage is the short cause shown in the payload "message" field
	UserMessage string
	// Detail is the diagnostic text shown in the payload "report" field
	Detail string
	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Installation creates an InstallationFailed error
func Installation(message, detail string) *Error {
	return &Error{Kind: InstallationFailed, UserMessage: message, Detail: detail}
}

// Ineligible creates an IneligibleSystem error
func Ineligible(message, detail string) *Error {
	return &Error{Kind: IneligibleSystem, UserMessage: message, Detail: detail}
}

// Configuration creates a ConfigurationError error
func Configuration(message, detail string) *Error {
	return &Error{Kind: ConfigurationError, UserMessage: message, Detail: detail}
}

// Wrap classifies an arbitrary error as Unexpected. Errors that are already
// classified are returned unchanged.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Kind: Unexpected, UserMessage: UnexpectedMessage, Detail: err.Error(), Err: err}
}

// FromPanic classifies a recovered panic value
func FromPanic(v any) *Error {
	if err, ok := v.(error); ok {
		return Wrap(err)
	}
	return Wrap(fmt.Errorf("%v", v))
}

// KindOf returns the kind of err, or Unexpected when err is not classified
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return Unexpected
}
