// Package errors declares the root errors of the ledger node and the class
// each of them belongs to.
//
// Every error returned by a service wraps exactly one registered root error.
// The class of the root error tells the caller how to react: authorization
// errors are never retried, state conflicts mean the transition already
// happened, validation errors require different input and not-found errors
// reference entities that do not exist.
package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Class groups root errors by how a caller should react to them.
type Class uint8

const (
	ClassInternal Class = iota
	ClassAuthorization
	ClassStateConflict
	ClassValidation
	ClassNotFound
)

func (c Class) String() string {
	var str = "internal"
	switch c {
	case ClassAuthorization:
		str = "authorization"
	case ClassStateConflict:
		str = "state_conflict"
	case ClassValidation:
		str = "validation"
	case ClassNotFound:
		str = "not_found"
	}
	return str
}

var (
	// ErrNotASigner is returned when the caller is not a member of the
	// active signer set.
	ErrNotASigner = Register(2, ClassAuthorization, "not a signer")

	// ErrUnauthorized is returned when the caller is not the principal
	// bound to a privileged entry point.
	ErrUnauthorized = Register(3, ClassAuthorization, "unauthorized")

	// ErrUpgradeNotAuthorized is returned when code replacement is invoked
	// outside of an executed operation.
	ErrUpgradeNotAuthorized = Register(4, ClassAuthorization, "upgrade not authorized")

	ErrAlreadyConfirmed = Register(10, ClassStateConflict, "already confirmed")
	ErrAlreadyExecuted  = Register(11, ClassStateConflict, "already executed")
	ErrAlreadyFinalized = Register(12, ClassStateConflict, "already finalized")
	ErrNotConfirmed     = Register(13, ClassStateConflict, "not confirmed")

	// ErrReentrantCall is returned when the registry is entered again while
	// an operation target is executing.
	ErrReentrantCall = Register(14, ClassStateConflict, "reentrant call")

	ErrInvalidThreshold    = Register(20, ClassValidation, "invalid threshold")
	ErrFeeValueMismatch    = Register(21, ClassValidation, "fee value mismatch")
	ErrInsufficientBalance = Register(22, ClassValidation, "insufficient balance")
	ErrAccountFrozen       = Register(23, ClassValidation, "account frozen")
	ErrInsufficientFee     = Register(24, ClassValidation, "insufficient fee")
	ErrFeeTokenNotAccepted = Register(25, ClassValidation, "fee token not accepted")
	ErrDuplicateSigner     = Register(26, ClassValidation, "duplicate signer")
	ErrInvalidInput        = Register(27, ClassValidation, "invalid input")
	ErrInvalidAmount       = Register(28, ClassValidation, "invalid amount")
	ErrUnknownMethod       = Register(29, ClassValidation, "unknown method")

	// ErrBadRequest is returned when a request cannot be read or does not
	// pass validation of its form.
	ErrBadRequest = Register(30, ClassValidation, "bad request")

	ErrUnknownOperation = Register(40, ClassNotFound, "unknown operation")
	ErrUnknownRequest   = Register(41, ClassNotFound, "unknown request")

	// ErrUnknownSigner is the not-found flavour of ErrNotASigner, returned
	// when a signer that is not a member is removed.
	ErrUnknownSigner = Register(42, ClassNotFound, "not a signer")

	ErrDatabase = Register(50, ClassInternal, "database")
	ErrInternal = Register(51, ClassInternal, "internal")
)

// Register returns an error instance that should be used as the base for
// creating error instances during runtime.
//
// No two root errors may share a code. Attempt to reuse a code panics, so
// call this function only during program startup.
func Register(code uint32, class Class, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{
		code:  code,
		class: class,
		desc:  description,
	}
	usedCodes[err.code] = err
	return err
}

// Code 1 is reserved for errors that do not wrap a registered root error.
var usedCodes = map[uint32]*Error{
	1: nil,
}

// Error represents a root error.
type Error struct {
	code  uint32
	class Class
	desc  string
}

func (e Error) Error() string {
	return e.desc
}

func (e Error) Code() uint32 {
	return e.code
}

func (e Error) Class() Class {
	return e.class
}

// New returns a new error wrapping this root error. Below two lines are equal
//   e.New("my description")
//   Wrap(e, "my description")
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is New with formatting capabilities.
func (e *Error) Newf(description string, args ...interface{}) error {
	return e.New(fmt.Sprintf(description, args...))
}

// Is checks if given error instance is of this kind. This involves
// unwrapping given error using the Cause method if available.
func (kind *Error) Is(err error) bool {
	// Reflect usage is necessary to correctly compare with
	// a nil implementation of an error.
	if kind == nil {
		if err == nil {
			return true
		}
		return reflect.ValueOf(err).IsNil()
	}

	for {
		if err == kind {
			return true
		}

		if err = unwrap(err); err == nil {
			return false
		}
	}
}

// Wrap extends given error with an additional information.
//
// If err is nil, this returns nil, avoiding the need for an if statement when
// wrapping a error returned at the end of a function.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}

	// Attach the stacktrace only once, at the most inner wrap.
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	return &wrappedError{
		parent: err,
		msg:    description,
	}
}

// Wrapf extends given error with an additional formatted information.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Root returns the registered root error wrapped by err, or nil.
func Root(err error) *Error {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		err = unwrap(err)
	}
	return nil
}

// ClassOf returns the class of the root error wrapped by err. Errors that do
// not wrap a registered root error are internal.
func ClassOf(err error) Class {
	if root := Root(err); root != nil {
		return root.class
	}
	return ClassInternal
}

// CodeOf returns the code of the root error wrapped by err, 1 when there is
// none.
func CodeOf(err error) uint32 {
	if root := Root(err); root != nil {
		return root.code
	}
	return 1
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

func (e *wrappedError) Unwrap() error {
	return e.parent
}

type causer interface {
	Cause() error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func stackTrace(err error) errors.StackTrace {
	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		if err = unwrap(err); err == nil {
			return nil
		}
	}
}

// unwrap steps one level down the chain, preferring Cause so that
// github.com/pkg/errors wrappers and fmt.Errorf("%w") both work.
func unwrap(err error) error {
	switch e := err.(type) {
	case causer:
		return e.Cause()
	case interface{ Unwrap() error }:
		return e.Unwrap()
	}
	return nil
}
