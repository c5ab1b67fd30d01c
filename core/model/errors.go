package model

import "errors"

var (
	// ErrMalformedRecord marks an arrival record with an unparsable or missing field.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnknownCategory marks a category outside fire, police, medical and other.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmptyTopology is returned when no station or no unit is configured.
	ErrEmptyTopology = errors.New("empty topology")
	// ErrOutOfOrder is returned when a record is older than the last processed tick.
	ErrOutOfOrder = errors.New("record out of order")
	// ErrInvalidTransition is returned by state machine methods called in the wrong state.
	ErrInvalidTransition = errors.New("invalid state transition")
)
