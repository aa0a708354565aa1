package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can tell a rejected
// request from a classifier outage from a store failure.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation_error"
	KindGateway     ErrorKind = "gateway_error"
	KindPersistence ErrorKind = "persistence_error"
	KindNotFound    ErrorKind = "not_found"
	KindConflict    ErrorKind = "conflict"
)

// Error carries a kind alongside the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and operation name.
func E(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef builds a kinded error from a format string.
func Ef(kind ErrorKind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind from err, defaulting to persistence for plain
// errors surfaced by the store.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}
