package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data integrity errors
	ErrEmptyInput       = errors.New("empty input: nothing to model")
	ErrSingleClass      = errors.New("degenerate target: only one class observed")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Schema errors
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	ErrUnknownColumn  = errors.New("unknown feature column")

	// Fitting errors
	ErrNotConverged = errors.New("model fitting did not converge")
	ErrFitFailed    = errors.New("model fitting failed")
)

// Error constructors with context

func NewSchemaMismatchError(detail string) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, detail)
}

func NewFitError(family string, err error) error {
	return fmt.Errorf("%w [%s]: %w", ErrFitFailed, family, err)
}

func NewSingleClassError(class string) error {
	return fmt.Errorf("%w: every row is labeled %q", ErrSingleClass, class)
}

// Error checking helpers

func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrSingleClass) ||
		errors.Is(err, ErrInsufficientData)
}

func IsSchemaMismatchError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) || errors.Is(err, ErrUnknownColumn)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrFitFailed) || errors.Is(err, ErrNotConverged)
}
