package tracemux

import (
	"errors"
	"fmt"
)

// ErrAgain is returned by MuxerIterator, when an upstream reports PullAgain or
// SeekAgain, to mean "no data yet, retry later". It is not a fatal error:
// state is left untouched and the call may be repeated.
var ErrAgain = errors.New("again")

// ErrEmptyBatch is returned when an upstream violates the contract that a
// successful Pull must deliver at least one message.
var ErrEmptyBatch = errors.New("upstream delivered an empty batch on a successful pull")

// UpstreamError wraps an error returned by an upstream iterator's Pull or
// SeekBeginning. It is always fatal to the MuxerIterator call that observed it.
type UpstreamError struct {
	Port string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream iterator on port %q: %s", e.Port, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ClockIncompatibleError is returned when a clock class observed on some
// upstream does not match the expectation locked by ClockPolicy on first
// observation.
type ClockIncompatibleError struct {
	Expected      ClockExpectation
	ObservedName  string
	ObservedUUID  *ClockClassUUID
	ObservedEpoch bool
	StreamClassID string
}

func (e *ClockIncompatibleError) Error() string {
	msg := fmt.Sprintf("clock class %q incompatible with expectation %s (origin-is-unix-epoch=%t",
		e.ObservedName, e.Expected, e.ObservedEpoch)
	if e.ObservedUUID != nil {
		msg += fmt.Sprintf(", uuid=%s", e.ObservedUUID)
	}
	msg += ")"
	if e.StreamClassID != "" {
		msg += fmt.Sprintf(" [stream-class-id=%s]", e.StreamClassID)
	}
	return msg
}

// NonMonotonicTimestampError is returned when the timestamp chosen for the
// next message to emit is strictly smaller than the last one emitted. The
// muxer assumes upstreams are individually monotonic; it never self-heals
// from a violation.
type NonMonotonicTimestampError struct {
	Prev int64
	Next int64
}

func (e *NonMonotonicTimestampError) Error() string {
	return fmt.Sprintf("non-monotonic timestamp: next %d is before last returned %d", e.Next, e.Prev)
}

// TimestampExtractionError wraps a failure converting a clock snapshot to
// nanoseconds from origin.
type TimestampExtractionError struct {
	Err error
}

func (e *TimestampExtractionError) Error() string {
	return fmt.Sprintf("cannot extract timestamp from clock snapshot: %s", e.Err)
}

func (e *TimestampExtractionError) Unwrap() error { return e.Err }

// ConfigInvalidError is returned for a malformed configuration parameter or a
// recursive MuxerIterator construction.
type ConfigInvalidError struct {
	Reason string
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("invalid muxer configuration: %s", e.Reason)
}
