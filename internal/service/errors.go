// Package service holds the business rules for listings, rental
// requests and accounts.  Services talk to storage through small
// interfaces so they can be exercised without a database.
package service

import (
	"errors"
	"strings"
)

// Messages shown to landlords when the listing form is incomplete.
const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgRoomTypes      = "Please add at least one room type with pricing"
	MsgImages         = "Please upload at least one property image"
)

// ValidationError is a problem with the caller's input found before
// any I/O took place.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

var (
	// ErrUpload means at least one image could not be stored.  Nothing
	// was written to the database.
	ErrUpload = errors.New("Image upload failed. Please try again.")

	// ErrNotAuthenticated is returned when the caller has no profile.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// TableError records a profile table that could not be cleaned up.
type TableError struct {
	Table string `json:"table"`
	Error string `json:"error"`
}

// AccountDeletionError is returned when the auth identity itself could
// not be removed.  Details lists the profile cleanup failures seen
// before that.
type AccountDeletionError struct {
	Err     error
	Details []TableError
}

func (e *AccountDeletionError) Error() string {
	if len(e.Details) == 0 {
		return "delete account: " + e.Err.Error()
	}
	tables := make([]string, len(e.Details))
	for i, d := range e.Details {
		tables[i] = d.Table
	}
	return "delete account: " + e.Err.Error() + " (also failed: " + strings.Join(tables, ", ") + ")"
}

func (e *AccountDeletionError) Unwrap() error { return e.Err }
