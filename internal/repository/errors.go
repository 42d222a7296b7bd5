// Package repository contains the document-store and ledger access code.
// Sentinel errors defined here let handlers distinguish missing documents,
// duplicate keys and transport failures without inspecting driver errors.
package repository

import "errors"

// ErrUserNotFound is returned when no user document matches an email.
var ErrUserNotFound = errors.New("user not found")

// ErrClassNotFound is returned when no class document matches an id.
var ErrClassNotFound = errors.New("class not found")

// ErrUserExists is returned by registration when the email is taken.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidID is returned when a class id is not a valid object id.
var ErrInvalidID = errors.New("invalid id")

// ErrStoreUnavailable wraps every transport or database failure.  Handlers
// translate it into a 500 response.
var ErrStoreUnavailable = errors.New("store unavailable")

// storeError keeps the driver error in the chain so callers, including the
// transaction retry loop, can still read its labels.
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string {
	return ErrStoreUnavailable.Error() + ": " + e.op + ": " + e.err.Error()
}

func (e *storeError) Unwrap() error { return e.err }

func (e *storeError) Is(target error) bool { return target == ErrStoreUnavailable }

func storeErr(op string, err error) error {
	return &storeError{op: op, err: err}
}
