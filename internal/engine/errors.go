package engine

import (
	"errors"
	"fmt"
)

// PlaybackError reports a rejected engine call. None of them are fatal: the
// engine logs the error, leaves its state unchanged (or, for
// ErrCodeSubstepCap, stops consuming delta early) and returns it.
type PlaybackError struct {
	// Code identifies the error category.
	Code PlaybackErrorCode

	// Message is a human-readable description.
	Message string

	// GroupID and GroupName identify the session's group, when there is one.
	GroupID   int
	GroupName string
}

// PlaybackErrorCode categorizes playback errors.
type PlaybackErrorCode string

const (
	// ErrCodeNilGroup indicates Start was called without a group.
	ErrCodeNilGroup PlaybackErrorCode = "NIL_GROUP"

	// ErrCodeInvalidDuration indicates the group's max duration is <= 0, so
	// time cannot advance.
	ErrCodeInvalidDuration PlaybackErrorCode = "INVALID_DURATION"

	// ErrCodeNonFiniteDelta indicates Advance received NaN or ±Inf.
	ErrCodeNonFiniteDelta PlaybackErrorCode = "NON_FINITE_DELTA"

	// ErrCodeNonFiniteSpeed indicates SetSpeed received NaN or ±Inf.
	ErrCodeNonFiniteSpeed PlaybackErrorCode = "NON_FINITE_SPEED"

	// ErrCodeSubstepCap indicates Advance stopped at the configured substep
	// limit and discarded the rest of the delta.
	ErrCodeSubstepCap PlaybackErrorCode = "SUBSTEP_CAP"
)

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	if e.GroupName != "" {
		return fmt.Sprintf("%s: %s (group=%d %q)", e.Code, e.Message, e.GroupID, e.GroupName)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if err reports a bad group handed to the
// engine (nil group or non-positive max duration).
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var pe *PlaybackError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeNilGroup || pe.Code == ErrCodeInvalidDuration
	}
	return false
}

// IsSubstepCapError returns true if Advance stopped early at the substep cap.
func IsSubstepCapError(err error) bool {
	var pe *PlaybackError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeSubstepCap
	}
	return false
}
