// Package simerr defines the error kinds surfaced by the simulation engine.
//
// Every engine failure carries one of the sentinel kinds below so callers can
// tell bad input (ErrConfiguration) apart from engine defects
// (ErrInvariantViolation) with errors.Is.
package simerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds for engine errors.
var (
	ErrConfiguration      = errors.New("configuration error")
	ErrNumericalDomain    = errors.New("numerical domain error")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrCancelled          = errors.New("simulation cancelled")
)

// noDay marks errors raised before the day loop started.
const noDay = -1

// Error annotates a kind with the operation and, for mid-run failures, the day index.
type Error struct {
	Op   string
	Kind error
	Day  int
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Day >= 0 {
		return fmt.Sprintf("%s: day %d: %s", e.Op, e.Day, msg)
	}
	return e.Op + ": " + msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind builds an error of the given kind with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind, Day: noDay}
}

// WrapKind attaches a kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Day: noDay, Err: err}
}

// Invalid is a shorthand for configuration errors with a formatted reason.
func Invalid(op, format string, args ...any) error {
	return WrapKind(op, ErrConfiguration, fmt.Errorf(format, args...))
}

// AtDay tags err with the day on which it happened. If err already carries
// a kind, that kind is kept.
func AtDay(op string, day int, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return &Error{Op: op, Kind: se.Kind, Day: day, Err: se.Err}
	}
	return &Error{Op: op, Kind: ErrNumericalDomain, Day: day, Err: err}
}

// DayOf returns the day index recorded on err, if any.
func DayOf(err error) (int, bool) {
	var se *Error
	if errors.As(err, &se) && se.Day >= 0 {
		return se.Day, true
	}
	return 0, false
}

// KindOf returns the sentinel kind of err, or nil for foreign errors.
func KindOf(err error) error {
	for _, k := range []error{ErrConfiguration, ErrNumericalDomain, ErrInvariantViolation, ErrCancelled} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Label returns a short metric/log label for the kind of err.
func Label(err error) string {
	switch KindOf(err) {
	case ErrConfiguration:
		return "configuration"
	case ErrNumericalDomain:
		return "numerical_domain"
	case ErrInvariantViolation:
		return "invariant_violation"
	case ErrCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
