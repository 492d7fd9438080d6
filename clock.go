package tracemux

import (
	"fmt"

	"github.com/google/uuid"
)

// ClockClassUUID identifies a clock's time axis. It is the muxer's analogue
// of a 16-byte clock-class UUID.
type ClockClassUUID = uuid.UUID

// ClockClass names a time axis: whether it counts from the Unix epoch, and
// optionally a UUID distinguishing it from other non-epoch axes that happen
// to share a name.
type ClockClass struct {
	Name              string
	UUID              *ClockClassUUID
	OriginIsUnixEpoch bool
}

// ClockSnapshotState tells whether a stream-activity message's clock
// snapshot is meaningful or was never captured.
type ClockSnapshotState int

const (
	ClockSnapshotUnknown ClockSnapshotState = iota
	ClockSnapshotKnown
)

// ClockSnapshot is a point-in-time reading against a ClockClass. Converting
// it to nanoseconds-from-origin is delegated to the snapshot itself, since
// only the upstream that produced the raw value knows its frequency.
type ClockSnapshot struct {
	Class *ClockClass
	value int64
	conv  func(value int64) (int64, error)
}

// NewClockSnapshot builds a snapshot whose NanosecondsFromOrigin conversion is
// identity (value is already expressed in nanoseconds from origin). Tests and
// simple upstream implementations can use this directly.
func NewClockSnapshot(class *ClockClass, nsFromOrigin int64) *ClockSnapshot {
	return &ClockSnapshot{Class: class, value: nsFromOrigin}
}

// NewClockSnapshotWithConversion builds a snapshot whose raw value must be
// converted through conv to obtain nanoseconds from origin, for upstreams
// whose clock ticks at a different frequency.
func NewClockSnapshotWithConversion(class *ClockClass, rawValue int64, conv func(int64) (int64, error)) *ClockSnapshot {
	return &ClockSnapshot{Class: class, value: rawValue, conv: conv}
}

// NanosecondsFromOrigin converts the snapshot's raw value to nanoseconds from
// the clock class's origin. A conversion failure is always fatal to the
// caller (see TimestampExtractionError).
func (s *ClockSnapshot) NanosecondsFromOrigin() (int64, error) {
	if s.conv == nil {
		return s.value, nil
	}
	return s.conv(s.value)
}

// ClockExpectation is the locked regime a MuxerIterator's ClockPolicy settles
// into after its first observation. It never regresses once set away from
// ClockExpectAny.
type ClockExpectation struct {
	kind clockExpectKind
	uuid ClockClassUUID
}

type clockExpectKind int

const (
	clockExpectAny clockExpectKind = iota
	clockExpectNone
	clockExpectAbsolute
	clockExpectRelativeWithUUID
	clockExpectRelativeNoUUID
)

var (
	// ClockExpectAny is the initial, unlocked state.
	ClockExpectAny = ClockExpectation{kind: clockExpectAny}
	// ClockExpectNone means streams carry no clock class at all; timestamps
	// degenerate to arrival order.
	ClockExpectNone = ClockExpectation{kind: clockExpectNone}
	// ClockExpectAbsolute means every clock class must have OriginIsUnixEpoch.
	ClockExpectAbsolute = ClockExpectation{kind: clockExpectAbsolute}
	// ClockExpectRelativeNoUUID means every clock class is non-epoch and
	// carries no UUID.
	ClockExpectRelativeNoUUID = ClockExpectation{kind: clockExpectRelativeNoUUID}
)

// ClockExpectRelativeWithUUID means every clock class is non-epoch and must
// carry exactly this UUID.
func ClockExpectRelativeWithUUID(id ClockClassUUID) ClockExpectation {
	return ClockExpectation{kind: clockExpectRelativeWithUUID, uuid: id}
}

func (e ClockExpectation) String() string {
	switch e.kind {
	case clockExpectAny:
		return "any"
	case clockExpectNone:
		return "none"
	case clockExpectAbsolute:
		return "absolute"
	case clockExpectRelativeWithUUID:
		return fmt.Sprintf("relative(uuid=%s)", e.uuid)
	case clockExpectRelativeNoUUID:
		return "relative(no-uuid)"
	default:
		return "unknown"
	}
}
