package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrStitchInvariant means the pending buffer already contained a
	// closing brace when another fragment had to be stitched onto it.
	ErrStitchInvariant = errors.New("stitch invariant violated")

	// ErrChannelClosed means the consumer of an [Output] hung up.
	ErrChannelClosed = errors.New("output channel closed")
)

// TransportError wraps a failure of the byte stream itself.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StitchError is returned when a fragment cannot be stitched because the
// pending buffer is already balanced. It matches [ErrStitchInvariant].
type StitchError struct {
	Pending  []byte
	Fragment []byte
}

func (e *StitchError) Error() string {
	return fmt.Sprintf(
		"%s: pending %q already holds '}', cannot append %q",
		ErrStitchInvariant, e.Pending, e.Fragment,
	)
}

// Is implements errors.Is.
func (e *StitchError) Is(target error) bool {
	return target == ErrStitchInvariant
}

// FramingError describes a fragment that was dropped. It is recorded in the
// diagnostics sink, never returned from [Parse].
type FramingError struct {
	State    ParseState
	Fragment []byte
	Reason   string
	Err      error
}

func (e *FramingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("framing anomaly in %s: %s: %q", e.State, e.Reason, e.Fragment)
	}
	return fmt.Sprintf("framing anomaly in %s: %s: %q: %v", e.State, e.Reason, e.Fragment, e.Err)
}

func (e *FramingError) Unwrap() error { return e.Err }
