package tracemux

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var absoluteClass = &ClockClass{Name: "monotonic", OriginIsUnixEpoch: true}

func eventAt(ns int64) Message {
	return &EventMessage{Snapshot: NewClockSnapshot(absoluteClass, ns)}
}

// scriptedUpstream turns a flat list of messages into successive PullOk
// batches of one message each, then PullEnd.
func scriptedUpstream(msgs ...Message) *fakeUpstream {
	up := &fakeUpstream{canSeek: true, seekStatus: SeekOk}
	for _, m := range msgs {
		up.batches = append(up.batches, []Message{m})
		up.statuses = append(up.statuses, PullOk)
	}
	return up
}

func drainAll(t *testing.T, it *MuxerIterator) []Message {
	t.Helper()
	var all []Message
	buf := make([]Message, 8)
	for {
		n, err := it.Next(context.Background(), buf)
		all = append(all, buf[:n]...)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			return all
		}
	}
}

func timestampsOf(t *testing.T, msgs []Message) []int64 {
	t.Helper()
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		ts, err := timestampOf(m, ClockExpectAbsolute, math.MinInt64)
		require.NoError(t, err)
		out[i] = ts
	}
	return out
}

func TestMuxerIterator_TwoStreamsInterleaved(t *testing.T) {
	a := scriptedUpstream(eventAt(10), eventAt(30), eventAt(50))
	b := scriptedUpstream(eventAt(20), eventAt(40), eventAt(60))

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a, "in1": b}, false)

	got := drainAll(t, it)
	require.Equal(t, []int64{10, 20, 30, 40, 50, 60}, timestampsOf(t, got))
}

func TestMuxerIterator_UnevenStreamLengthsDrainWithoutPanic(t *testing.T) {
	a := scriptedUpstream(eventAt(10), eventAt(20))
	b := scriptedUpstream(eventAt(15), eventAt(25), eventAt(35), eventAt(45))

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a, "in1": b}, false)

	got := drainAll(t, it)
	require.Equal(t, []int64{10, 15, 20, 25, 35, 45}, timestampsOf(t, got))
}

func TestMuxerIterator_TieOnTimestampFirstAddedWins(t *testing.T) {
	aTen := eventAt(10)
	bTen := eventAt(10)
	a := scriptedUpstream(aTen, eventAt(30))
	b := scriptedUpstream(bTen, eventAt(20))

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a, "in1": b}, false)
	// Force deterministic iteration order: in0 (A) must be seen first.
	it.active = []*upstreamCursor{newUpstreamCursor("in0", a), newUpstreamCursor("in1", b)}

	buf := make([]Message, 1)
	n, err := it.Next(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Same(t, aTen, buf[0])

	n, err = it.Next(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Same(t, bTen, buf[0])
}

func TestMuxerIterator_ClockIncompatible(t *testing.T) {
	id := clockUUIDFixture()
	a := scriptedUpstream(
		&StreamBeginningMessage{Stream: &Stream{ClassID: "sc-a", DefaultClockClass: absoluteClass}},
		eventAt(10),
	)
	relativeClass := &ClockClass{Name: "tsc", UUID: &id}
	b := scriptedUpstream(
		&StreamBeginningMessage{Stream: &Stream{ClassID: "sc-b", DefaultClockClass: relativeClass}},
	)

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a, "in1": b}, false)
	it.active = []*upstreamCursor{newUpstreamCursor("in0", a), newUpstreamCursor("in1", b)}

	_, err := drainUntilError(it)
	var mismatch *ClockIncompatibleError
	require.ErrorAs(t, err, &mismatch)
}

func TestMuxerIterator_ClockIncompatible_AssumeAbsoluteSkipsCheck(t *testing.T) {
	id := clockUUIDFixture()
	a := scriptedUpstream(
		&StreamBeginningMessage{Stream: &Stream{ClassID: "sc-a", DefaultClockClass: absoluteClass}},
		eventAt(10),
	)
	relativeClass := &ClockClass{Name: "tsc", UUID: &id}
	b := scriptedUpstream(
		&StreamBeginningMessage{Stream: &Stream{ClassID: "sc-b", DefaultClockClass: relativeClass}},
		eventAt(5),
	)

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a, "in1": b}, true)
	it.active = []*upstreamCursor{newUpstreamCursor("in0", a), newUpstreamCursor("in1", b)}

	got := drainAll(t, it)
	require.Len(t, got, 4)
}

func TestMuxerIterator_AgainPropagatesBeforeSelection(t *testing.T) {
	a := &fakeUpstream{statuses: []PullStatus{PullAgain}}
	b := scriptedUpstream(eventAt(5))

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a, "in1": b}, false)

	buf := make([]Message, 1)
	_, err := it.Next(context.Background(), buf)
	require.ErrorIs(t, err, ErrAgain)
	require.Equal(t, int64(math.MinInt64), it.lastTimestampNs)
}

func TestMuxerIterator_SeekRoundTripProducesIdenticalSequence(t *testing.T) {
	a := scriptedUpstream(eventAt(10), eventAt(30))
	b := scriptedUpstream(eventAt(20), eventAt(40))

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a, "in1": b}, false)
	first := drainAll(t, it)

	a.callIndex = 0
	b.callIndex = 0
	require.True(t, it.CanSeekBeginning())
	require.NoError(t, it.SeekBeginning(context.Background()))
	require.Equal(t, int64(math.MinInt64), it.lastTimestampNs)
	require.Empty(t, it.ended)

	second := drainAll(t, it)
	require.Equal(t, first, second)
}

func TestMuxerIterator_StreamActivityWithUnknownClockEmitsFirst(t *testing.T) {
	a := scriptedUpstream(
		&StreamActivityBeginningMessage{State: ClockSnapshotUnknown},
		eventAt(100),
	)

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a}, false)

	buf := make([]Message, 2)
	n, err := it.Next(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.IsType(t, &StreamActivityBeginningMessage{}, buf[0])
	require.IsType(t, &EventMessage{}, buf[1])
}

func TestMuxerIterator_ZeroInputsEndsImmediately(t *testing.T) {
	it := NewMuxerIterator(map[string]UpstreamIterator{}, false)
	buf := make([]Message, 1)
	n, err := it.Next(context.Background(), buf)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestMuxerIterator_NonMonotonicUpstreamIsFatal(t *testing.T) {
	a := scriptedUpstream(eventAt(50), eventAt(10))

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a}, false)
	buf := make([]Message, 1)

	_, err := it.Next(context.Background(), buf)
	require.NoError(t, err)

	_, err = it.Next(context.Background(), buf)
	var nonMonotonic *NonMonotonicTimestampError
	require.ErrorAs(t, err, &nonMonotonic)
}

func TestMuxerIterator_PendingErrDeliveredOnFollowingCall(t *testing.T) {
	a := scriptedUpstream(eventAt(50), eventAt(10))

	it := NewMuxerIterator(map[string]UpstreamIterator{"in0": a}, false)
	buf := make([]Message, 2)

	n, err := it.Next(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = it.Next(context.Background(), buf)
	require.Equal(t, 0, n)
	var nonMonotonic *NonMonotonicTimestampError
	require.ErrorAs(t, err, &nonMonotonic)
}

func drainUntilError(it *MuxerIterator) ([]Message, error) {
	var all []Message
	buf := make([]Message, 1)
	for i := 0; i < 1000; i++ {
		n, err := it.Next(context.Background(), buf)
		all = append(all, buf[:n]...)
		if err != nil {
			return all, err
		}
	}
	return all, errors.New("no progress after 1000 calls")
}

func clockUUIDFixture() ClockClassUUID {
	return ClockClassUUID{0x01, 0x02, 0x03, 0x04}
}
