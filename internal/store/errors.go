package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotOwned is returned when an owner-filtered mutation affects
// zero rows. The filter matches id and creator in one statement, so
// a missing record and a record owned by someone else are not
// distinguishable here.
var ErrNotOwned = errors.New("not owned")

// ErrDuplicateEmail is returned when a user create violates the
// unique email index.
var ErrDuplicateEmail = errors.New("email already registered")
