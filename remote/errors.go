package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for writes against a document that no longer exists
	ErrNotFound = errors.New("document not found")

	// ErrUnauthorized means the store rejected the current identity
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccountExists is the distinguishable sign-up failure callers fall back on
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials is returned by SignIn for an unknown email or wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Op names a store write
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// StoreWriteError wraps a failed create, update or delete
type StoreWriteError struct {
	Op  Op
	ID  string
	Err error
}

func (e *StoreWriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// SubscriptionError is carried by a snapshot when the live query fails.
// The view stays as it was until a later snapshot arrives.
type SubscriptionError struct {
	Owner string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for %s failed: %v", e.Owner, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response without a more specific mapping
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}
