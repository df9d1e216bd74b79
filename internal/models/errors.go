package models

import "errors"

// Input validation errors. A symbol whose series fails one of these checks
// is recorded as a failure marker by the orchestrator; it never aborts the
// rest of the batch.
var (
	ErrEmptySeries    = errors.New("empty price series")
	ErrInvalidPrice   = errors.New("price fields must be positive")
	ErrNegativeVolume = errors.New("volume must be non-negative")
	ErrUnorderedDates = errors.New("bar dates must be strictly increasing")
	ErrMissingField   = errors.New("missing required OHLCV field")
)
