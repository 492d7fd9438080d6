package tracemux

// timestampOf computes the comparable nanosecond timestamp for msg given the
// clock regime locked in clockExpect and the last timestamp emitted by the
// iterator. It never mutates iterator state; callers decide what to do with
// the result.
//
// Rule 1: under ClockExpectNone there is no time axis at all, so every
// message sticks to lastTimestampNs and ordering degenerates to arrival
// order (a stable tie break on the selecting side keeps it deterministic).
//
// Rule 2: otherwise the timestamp comes from the message's own snapshot
// where one exists, and from lastTimestampNs where it doesn't.
func timestampOf(msg Message, clockExpect ClockExpectation, lastTimestampNs int64) (int64, error) {
	if clockExpect == ClockExpectNone {
		return lastTimestampNs, nil
	}

	var snapshot *ClockSnapshot

	switch m := msg.(type) {
	case *EventMessage:
		snapshot = m.Snapshot
	case *PacketBeginningMessage:
		snapshot = m.Snapshot
	case *PacketEndMessage:
		snapshot = m.Snapshot
	case *DiscardedEventsMessage:
		snapshot = m.BeginningSnapshot
	case *DiscardedPacketsMessage:
		snapshot = m.BeginningSnapshot
	case *IteratorInactivityMessage:
		snapshot = m.Snapshot
	case *StreamActivityBeginningMessage:
		if m.State != ClockSnapshotKnown {
			return lastTimestampNs, nil
		}
		snapshot = m.Snapshot
	case *StreamActivityEndMessage:
		if m.State != ClockSnapshotKnown {
			return lastTimestampNs, nil
		}
		snapshot = m.Snapshot
	default:
		// StreamBeginning, StreamEnd, OtherMessage and any future variant:
		// all higher priority messages stick to the current time so they are
		// emitted immediately before any later message.
		return lastTimestampNs, nil
	}

	if snapshot == nil {
		return lastTimestampNs, nil
	}

	ns, err := snapshot.NanosecondsFromOrigin()
	if err != nil {
		return 0, &TimestampExtractionError{Err: err}
	}

	return ns, nil
}
