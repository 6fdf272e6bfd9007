// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  Handlers
// translate it into an HTTP 404 (or, for credentials, fold it into the
// generic unauthorized response so missing accounts are not enumerable).
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned by UserRepo.Create when the username
// uniqueness constraint rejects the insert.
var ErrUsernameTaken = errors.New("username already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
