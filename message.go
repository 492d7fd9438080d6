package tracemux

// MessageType discriminates the closed set of message variants the muxer
// understands. Modeled as a sealed sum type (one concrete struct per variant,
// a Type() method as discriminator) rather than a tagged union with virtual
// dispatch per field access.
type MessageType int

const (
	MessageTypeStreamBeginning MessageType = iota
	MessageTypeStreamEnd
	MessageTypePacketBeginning
	MessageTypePacketEnd
	MessageTypeEvent
	MessageTypeDiscardedEvents
	MessageTypeDiscardedPackets
	MessageTypeStreamActivityBeginning
	MessageTypeStreamActivityEnd
	MessageTypeIteratorInactivity
	MessageTypeOther
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeStreamBeginning:
		return "StreamBeginning"
	case MessageTypeStreamEnd:
		return "StreamEnd"
	case MessageTypePacketBeginning:
		return "PacketBeginning"
	case MessageTypePacketEnd:
		return "PacketEnd"
	case MessageTypeEvent:
		return "Event"
	case MessageTypeDiscardedEvents:
		return "DiscardedEvents"
	case MessageTypeDiscardedPackets:
		return "DiscardedPackets"
	case MessageTypeStreamActivityBeginning:
		return "StreamActivityBeginning"
	case MessageTypeStreamActivityEnd:
		return "StreamActivityEnd"
	case MessageTypeIteratorInactivity:
		return "MessageIteratorInactivity"
	default:
		return "Other"
	}
}

// Stream is the opaque stream reference a StreamBeginning message carries.
// Only what ClockPolicy needs to validate is modeled here: the stream's
// class default clock class and an identifier for error payloads.
type Stream struct {
	ClassID           string
	DefaultClockClass *ClockClass
}

// Message is the sealed interface every muxed value implements. The muxer
// never type-switches beyond what Timestamper and ClockPolicy require.
type Message interface {
	Type() MessageType
}

// StreamBeginningMessage marks the start of a stream.
type StreamBeginningMessage struct {
	Stream *Stream
}

func (m *StreamBeginningMessage) Type() MessageType { return MessageTypeStreamBeginning }

// StreamEndMessage marks the end of a stream. It carries no meaningful
// timestamp of its own: it always sticks to lastTimestampNs.
type StreamEndMessage struct {
	Stream *Stream
}

func (m *StreamEndMessage) Type() MessageType { return MessageTypeStreamEnd }

// PacketBeginningMessage marks the start of a packet within a stream.
type PacketBeginningMessage struct {
	Snapshot *ClockSnapshot
}

func (m *PacketBeginningMessage) Type() MessageType { return MessageTypePacketBeginning }

// PacketEndMessage marks the end of a packet within a stream.
type PacketEndMessage struct {
	Snapshot *ClockSnapshot
}

func (m *PacketEndMessage) Type() MessageType { return MessageTypePacketEnd }

// EventMessage carries a single trace event.
type EventMessage struct {
	Snapshot *ClockSnapshot
}

func (m *EventMessage) Type() MessageType { return MessageTypeEvent }

// DiscardedEventsMessage reports a gap of discarded events; only its
// beginning snapshot matters for ordering.
type DiscardedEventsMessage struct {
	BeginningSnapshot *ClockSnapshot
}

func (m *DiscardedEventsMessage) Type() MessageType { return MessageTypeDiscardedEvents }

// DiscardedPacketsMessage reports a gap of discarded packets; only its
// beginning snapshot matters for ordering.
type DiscardedPacketsMessage struct {
	BeginningSnapshot *ClockSnapshot
}

func (m *DiscardedPacketsMessage) Type() MessageType { return MessageTypeDiscardedPackets }

// StreamActivityBeginningMessage bounds the live portion of a stream. Its
// snapshot may be unknown, in which case it sticks to lastTimestampNs.
type StreamActivityBeginningMessage struct {
	State    ClockSnapshotState
	Snapshot *ClockSnapshot
}

func (m *StreamActivityBeginningMessage) Type() MessageType {
	return MessageTypeStreamActivityBeginning
}

// StreamActivityEndMessage bounds the live portion of a stream. Its snapshot
// may be unknown, in which case it sticks to lastTimestampNs.
type StreamActivityEndMessage struct {
	State    ClockSnapshotState
	Snapshot *ClockSnapshot
}

func (m *StreamActivityEndMessage) Type() MessageType { return MessageTypeStreamActivityEnd }

// IteratorInactivityMessage is synthesized by an upstream to report it has no
// data yet but still wants to advance a shared clock; its snapshot, when
// present, is validated by ClockPolicy like any other clock observation.
type IteratorInactivityMessage struct {
	Snapshot *ClockSnapshot
}

func (m *IteratorInactivityMessage) Type() MessageType { return MessageTypeIteratorInactivity }

// OtherMessage is the catch-all for message variants the muxer does not
// special-case; it always sticks to lastTimestampNs.
type OtherMessage struct {
	Label string
}

func (m *OtherMessage) Type() MessageType { return MessageTypeOther }
