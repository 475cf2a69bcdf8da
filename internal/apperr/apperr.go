// Package apperr defines the error taxonomy shared by the season engine.
//
// Every error returned by the engine packages for a caller mistake is one of
// the four types below. Anything else (a failed query, a closed connection)
// is an infrastructure failure and is wrapped with fmt.Errorf as usual.
package apperr

import (
	"errors"
	"fmt"
)

// Conflict codes carried by StateConflictError.
const (
	CodeSubBudgetExhausted = "sub_budget_exhausted"
	CodeInvalidOutPlayer   = "invalid_out_player"
	CodeInvalidInPlayer    = "invalid_in_player"
	CodeSecondGoalkeeper   = "second_goalkeeper"
	CodeMatchdayNotInSave  = "matchday_not_in_save"
	CodeMatchdayNotPlayed  = "matchday_not_played"
	CodeMatchdayPlayed     = "matchday_played"
	CodeStateExists        = "state_exists"
	CodeScheduleExists     = "schedule_exists"
)

// ValidationError reports malformed input, e.g. a fixture list with the wrong team count.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing save, match, matchday or team.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StateConflictError reports an operation that is well-formed but not allowed
// in the current state.
type StateConflictError struct {
	Code    string
	Message string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict (%s): %s", e.Code, e.Message)
}

// NoActiveStateError reports an operation on a match that has no live MatchState.
type NoActiveStateError struct {
	MatchID int
}

func (e *NoActiveStateError) Error() string {
	return fmt.Sprintf("no active match state for match %d", e.MatchID)
}

// Validation creates a ValidationError.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a NotFoundError. The id is formatted with %v.
func NotFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// Conflict creates a StateConflictError.
func Conflict(code, format string, args ...interface{}) error {
	return &StateConflictError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NoActiveState creates a NoActiveStateError.
func NoActiveState(matchID int) error {
	return &NoActiveStateError{MatchID: matchID}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsStateConflict reports whether err wraps a StateConflictError.
func IsStateConflict(err error) bool {
	var target *StateConflictError
	return errors.As(err, &target)
}

// IsNoActiveState reports whether err wraps a NoActiveStateError.
func IsNoActiveState(err error) bool {
	var target *NoActiveStateError
	return errors.As(err, &target)
}

// ConflictCode returns the code of a wrapped StateConflictError, or "".
func ConflictCode(err error) string {
	var target *StateConflictError
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}
