package model

import "errors"

// Validation failures raised by the simulation core and its callers.
// Wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrShapeMismatch reports series of the wrong length or misaligned hours.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrEmptySeries reports a zero-length input series.
	ErrEmptySeries = errors.New("empty series")
	// ErrInvalidEfficiency reports an efficiency outside (0, 1].
	ErrInvalidEfficiency = errors.New("efficiency must be in (0, 1]")
	// ErrInvalidArgument reports a negative capacity, cost or delay.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIncompleteDay reports a day without 24 aligned hourly prices.
	ErrIncompleteDay = errors.New("incomplete day")
)
