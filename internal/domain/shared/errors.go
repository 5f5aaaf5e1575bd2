// Package shared holds the error kinds and domain events shared by the
// roulette, matching and notification packages. It has no dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds. Every DomainError carries one of them so callers can
// branch with errors.Is without knowing the concrete error.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidState: the operation is not allowed yet, e.g. voting is still open.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyProcessed: another writer got there first.
	ErrAlreadyProcessed = errors.New("already processed")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "roulette", "user", "matching"
	Op      string // Operation that failed, e.g., "Create", "Finalize"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user with this email already exists")
	ErrInvalidUserName   = NewDomainError("user", "Validate", ErrEmptyValue, "user name is required")
)

// Roulette domain errors
var (
	ErrRouletteNotFound         = NewDomainError("roulette", "Find", ErrNotFound, "roulette not found")
	ErrRouletteAlreadyFinalized = NewDomainError("roulette", "Finalize", ErrAlreadyProcessed, "matches for this roulette were already finalized")
	ErrVotingNotFinished        = NewDomainError("roulette", "Finalize", ErrInvalidState, "voting deadline has not passed yet")
	ErrInvalidDeadlines         = NewDomainError("roulette", "Validate", ErrInvalidInput, "vote deadline must be before coffee deadline")
	ErrVotesLocked              = NewDomainError("roulette", "Vote", ErrInvalidState, "votes cannot be changed after matches were finalized")
	ErrInvalidVoteChoice        = NewDomainError("roulette", "Vote", ErrInvalidInput, "invalid vote choice")
)

// Matching domain errors
var (
	ErrUserInMultipleGroups = NewDomainError("matching", "Validate", ErrInvalidInput, "user appears in more than one group")
	ErrEmptySubmission      = NewDomainError("matching", "Validate", ErrEmptyValue, "no groups submitted")
	ErrProposalNotFound     = NewDomainError("matching", "LoadProposal", ErrNotFound, "no generated proposal for this roulette")
	ErrDuplicateUser        = NewDomainError("matching", "BuildGraph", ErrInvalidInput, "user listed twice")
	ErrUserNotInGraph       = NewDomainError("matching", "Evaluate", ErrInvalidInput, "user is not in the matching graph")
	ErrInvalidPenalty       = NewDomainError("matching", "Validate", ErrValueOutOfRange, "penalty must be a finite number")
)

// Group domain errors
var (
	ErrGroupNotFound = NewDomainError("group", "Find", ErrNotFound, "group not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidState checks if the operation is not allowed in the current state.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrAlreadyProcessed)
}

// IsConflict reports errors caused by a competing writer, such as a
// second finalization of the same roulette.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}
