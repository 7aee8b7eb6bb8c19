// Package apperr defines the failure taxonomy shared by the cleaning,
// analysis and forecasting stages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is reported for errors that carry no classification.
	KindUnknown Kind = iota
	// KindInput covers malformed or missing files, bad timestamps and missing columns.
	KindInput
	// KindValidation covers series where no record survives cleaning.
	KindValidation
	// KindFitting covers statistical models that lack enough data points.
	KindFitting
	// KindComputation covers numerical failures inside a fit.
	KindComputation
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindValidation:
		return "validation"
	case KindFitting:
		return "fitting"
	case KindComputation:
		return "computation"
	default:
		return "unknown"
	}
}

// ErrEmptyResult is wrapped by validation errors raised when nothing survives cleaning.
var ErrEmptyResult = errors.New("no records survived cleaning")

// Error is a classified failure of one unit of work.
type Error struct {
	Kind  Kind
	Unit  string // domain, analysis or model name
	Stage string // step inside the unit, e.g. "load", "interpolate", "fit"
	Err   error
}

// Error formats the kind, unit, stage and cause.
func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s error in %s (%s): %v", e.Kind, e.Unit, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Unit, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, unit, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Unit: unit, Stage: stage, Err: err}
}

// Input wraps err as an input failure.
func Input(unit, stage string, err error) error {
	return newError(KindInput, unit, stage, err)
}

// Validation wraps err as a validation failure.
func Validation(unit, stage string, err error) error {
	return newError(KindValidation, unit, stage, err)
}

// Fitting wraps err as a fitting failure.
func Fitting(unit, stage string, err error) error {
	return newError(KindFitting, unit, stage, err)
}

// Computation wraps err as a computation failure.
func Computation(unit, stage string, err error) error {
	return newError(KindComputation, unit, stage, err)
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Recovered converts a recovered panic value into a computation error.
func Recovered(unit, stage string, r any) error {
	if err, ok := r.(error); ok {
		return Computation(unit, stage, fmt.Errorf("panic: %w", err))
	}
	return Computation(unit, stage, fmt.Errorf("panic: %v", r))
}
