// Package errors provides sentinel errors that may wrap a cause,
// so callers can match on the sentinel with errors.Is while still
// reporting the offending identifier.
package errors

import (
	stderr "errors"
	"fmt"

	"go.uber.org/zap"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is a sentinel error, optionally wrapping a cause.
//
// Wrapping returns a copy: the package-level sentinel is never mutated.
type Error struct {
	msg    string
	detail string
	err    error
	root   *Error
}

// Error message
func (e *Error) Error() string {
	msg := e.msg
	if e.detail != "" {
		msg += ": " + e.detail
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err
	return c
}

// Wrapf attaches a formatted detail, such as the offending identifier.
func (e *Error) Wrapf(format string, args ...interface{}) *Error {
	c := e.clone()
	if c.detail != "" {
		c.detail += ": "
	}
	c.detail += fmt.Sprintf(format, args...)
	return c
}

// WrapWithLog wraps a nested error and logs the result at error level.
func (e *Error) WrapWithLog(l *zap.Logger, err error, fields ...zap.Field) *Error {
	c := e.Wrap(err)
	if l != nil {
		l.Error(c.Error(), append(fields, zap.Error(err))...)
	}
	return c
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return e.err == target
	}
	return e == t || e.sentinel() == t.sentinel()
}

func (e *Error) sentinel() *Error {
	if e.root != nil {
		return e.root
	}
	return e
}

func (e *Error) clone() *Error {
	return &Error{msg: e.msg, detail: e.detail, err: e.err, root: e.sentinel()}
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
