// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrNotFound indicates a lookup target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoTransactions indicates a detection run with nothing to analyze.
	ErrNoTransactions = errors.New("no expense transactions to analyze")

	// ErrInvalidConfig indicates a configuration value that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(err error, message string) *UserError {
	return &UserError{
		Err:         err,
		UserMessage: message,
	}
}
