package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// MissingDate is returned when a commuting ride operation needs a date.
func MissingDate() error {
	return ValidationError{Field: "ride_date", Msg: "a ride date is required for commuting rides"}
}

type InsufficientSeatsError struct {
	RideID    uint
	Date      string
	Requested int
	Available int
}

func (e InsufficientSeatsError) Error() string {
	return fmt.Sprintf("only %d seat(s) available on %s for ride %d, %d requested", e.Available, e.Date, e.RideID, e.Requested)
}

type NotFoundError struct {
	Resource string
	ID       uint
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ForbiddenError struct {
	Action string
}

func (e ForbiddenError) Error() string {
	if e.Action == "" {
		return "access denied"
	}
	return fmt.Sprintf("access denied: %s", e.Action)
}

type NotOwnerError struct {
	Resource string
	ID       uint
}

func (e NotOwnerError) Error() string {
	return fmt.Sprintf("%s %d does not belong to the current user", e.Resource, e.ID)
}

type InvalidStateError struct {
	Resource string
	State    string
	Action   string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %s", e.Action, e.Resource, e.State)
}

// DataIntegrityError marks stored state that contradicts itself. It is a
// defect, not a user error.
type DataIntegrityError struct {
	Msg string
	Err error
}

func (e DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data integrity fault: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("data integrity fault: %s", e.Msg)
}

func (e DataIntegrityError) Unwrap() error { return e.Err }

type ConcurrencyConflictError struct {
	RideID   uint
	Attempts int
}

func (e ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("ride %d was modified concurrently, gave up after %d attempt(s)", e.RideID, e.Attempts)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsInsufficientSeats(err error) bool {
	var target InsufficientSeatsError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsNotOwner(err error) bool {
	var target NotOwnerError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}

func IsDataIntegrity(err error) bool {
	var target DataIntegrityError
	return errors.As(err, &target)
}

func IsConcurrencyConflict(err error) bool {
	var target ConcurrencyConflictError
	return errors.As(err, &target)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsForbidden(err), IsNotOwner(err):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInsufficientSeats(err), IsInvalidState(err):
		return http.StatusConflict
	case IsConcurrencyConflict(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Code(err error) string {
	switch {
	case IsValidation(err):
		return "validation_error"
	case IsForbidden(err):
		return "forbidden"
	case IsNotOwner(err):
		return "not_owner"
	case IsNotFound(err):
		return "not_found"
	case IsInsufficientSeats(err):
		return "insufficient_seats"
	case IsInvalidState(err):
		return "invalid_state"
	case IsConcurrencyConflict(err):
		return "concurrency_conflict"
	case IsDataIntegrity(err):
		return "data_integrity_fault"
	default:
		return "internal_error"
	}
}
