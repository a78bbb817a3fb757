package model

import "errors"

var (
	// ErrInvalidInput marks malformed or out-of-domain caller input:
	// negative emissions, a registration date after the evaluation date,
	// a fuel type outside the enum, inverted recommendation thresholds.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData marks a market-value estimation attempt with
	// zero comparable listings.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDivisionUndefined marks a margin-percentage computation over a
	// non-positive total cost.
	ErrDivisionUndefined = errors.New("division undefined")
)
