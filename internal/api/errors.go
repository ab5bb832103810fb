package api

import (
	"errors"
	"fmt"
)

// ErrAuthentication means the stored token is missing or rejected by the
// platform. It is fatal for the whole operation and never retried.
var ErrAuthentication = errors.New("authentication failed")

// NotFoundError means the platform explicitly reported the entity as
// unresolvable. Callers record the id in the not-found set and never retry
// it without a full reset.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// MalformedError means an otherwise successful response was missing a
// required field or could not be decoded. It aborts construction of that
// single entity only.
type MalformedError struct {
	Kind   string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Kind, e.Reason)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}
