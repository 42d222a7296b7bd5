// Package service implements the enrollment workflow, the catalogue and
// ranking reads, and the role/status administration on top of the store
// interfaces declared in stores.go.
package service

import "errors"

// ErrValidation marks malformed input.  Wrapped errors carry the detail.
var ErrValidation = errors.New("validation error")

// ErrClassFull is returned by Enroll when no seat is left.
var ErrClassFull = errors.New("class is full")

// ErrAlreadyEnrolled is returned by Select for a class the user already
// attends.
var ErrAlreadyEnrolled = errors.New("already enrolled")
