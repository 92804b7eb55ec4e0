package auth

import "errors"

var (
	// ErrUnauthenticated covers bad credentials and missing, expired or
	// mismatched tokens alike.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound is returned when a record does not exist or the caller has
	// no membership that reaches it. Stores return it for lookup misses too.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned for mutations by read-only members.
	ErrForbidden = errors.New("forbidden")
)
