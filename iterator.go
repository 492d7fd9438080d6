package tracemux

import (
	"context"
	"io"
	"math"

	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

// MuxerIterator performs the k-way merge over every connected upstream: it
// keeps cursors in two sets (active, ended), validates clock classes as new
// streams and inactivity snapshots are observed, and pops messages in
// non-decreasing timestamp order.
type MuxerIterator struct {
	active []*upstreamCursor
	ended  []*upstreamCursor

	lastTimestampNs int64
	policy          *clockPolicy

	pendingErr error

	logger *zap.Logger
	tracer logging.Tracer
	stats  *Stats
}

// NewMuxerIterator builds a MuxerIterator over the given upstreams, one
// cursor per (port, iterator) pair. assumeAbsoluteClocks disables clock
// compatibility enforcement after the first observation, matching the
// assume-absolute-clock-classes configuration parameter.
func NewMuxerIterator(upstreams map[string]UpstreamIterator, assumeAbsoluteClocks bool, opts ...IteratorOption) *MuxerIterator {
	it := &MuxerIterator{
		lastTimestampNs: math.MinInt64,
		logger:          zlog,
		tracer:          tracer,
	}

	for port, upstream := range upstreams {
		it.active = append(it.active, newUpstreamCursor(port, upstream))
	}

	for _, opt := range opts {
		opt(it)
	}

	it.policy = newClockPolicy(assumeAbsoluteClocks, it.logger)

	if it.stats == nil {
		it.stats = newStats(it.logger)
	}

	return it
}

// Next fills up to len(out) messages by repeatedly calling nextOne. It stops
// at the first non-nil error; if messages were already produced this call,
// that error is buffered in pendingErr and surfaced (with count == 0) on the
// following call instead of being lost or duplicated.
func (it *MuxerIterator) Next(ctx context.Context, out []Message) (count int, err error) {
	if it.pendingErr != nil {
		err = it.pendingErr
		it.pendingErr = nil
		return 0, err
	}

	for count < len(out) {
		msg, err := it.nextOne(ctx)
		if err != nil {
			if count > 0 {
				it.pendingErr = err
				return count, nil
			}
			return 0, err
		}
		out[count] = msg
		count++
	}

	return count, nil
}

// nextOne produces exactly one message, or a terminal/fatal error.
func (it *MuxerIterator) nextOne(ctx context.Context) (Message, error) {
	if err := it.fillActiveCursors(ctx); err != nil {
		return nil, err
	}

	if len(it.active) == 0 {
		return nil, io.EOF
	}

	winner, ts, err := it.selectYoungest()
	if err != nil {
		return nil, err
	}

	if ts < it.lastTimestampNs {
		return nil, &NonMonotonicTimestampError{Prev: it.lastTimestampNs, Next: ts}
	}

	it.lastTimestampNs = ts
	msg := winner.pop()

	if it.tracer.Enabled() {
		it.logger.Debug("muxed message",
			zap.String("port", winner.port),
			zap.Stringer("type", msg.Type()),
			zap.Int64("timestamp_ns", ts),
		)
	}
	it.stats.recordMuxed(ts)

	return msg, nil
}

// fillActiveCursors pulls every empty active cursor once. pull reports PullOk
// on the very call where the upstream first runs dry (it only starts
// returning PullEnd afterwards), so retirement is decided by the cursor's own
// ended/empty state after a successful pull, not by the returned status. A
// cursor reporting PullAgain aborts the whole call with no partial progress.
func (it *MuxerIterator) fillActiveCursors(ctx context.Context) error {
	for i := 0; i < len(it.active); {
		cursor := it.active[i]
		if !cursor.empty() {
			i++
			continue
		}

		status, err := cursor.pull(ctx)
		if err != nil {
			return err
		}

		if status == PullAgain {
			it.stats.recordAgain()
			return ErrAgain
		}

		if cursor.ended() && cursor.empty() {
			it.active[i] = it.active[len(it.active)-1]
			it.active = it.active[:len(it.active)-1]
			it.ended = append(it.ended, cursor)
			continue
		}

		i++
	}

	return nil
}

// selectYoungest scans active cursors for the smallest Timestamper value,
// validating clock classes on the way. Ties go to the first-seen cursor in
// active's iteration order, matching the stable tie-break documented for
// concrete scenario 2.
func (it *MuxerIterator) selectYoungest() (*upstreamCursor, int64, error) {
	var winner *upstreamCursor
	var winnerTs int64

	for _, cursor := range it.active {
		head := cursor.peek()

		if err := it.validateHead(head); err != nil {
			return nil, 0, err
		}

		ts, err := timestampOf(head, it.policy.expect, it.lastTimestampNs)
		if err != nil {
			return nil, 0, err
		}

		if winner == nil || ts < winnerTs {
			winner, winnerTs = cursor, ts
		}
	}

	return winner, winnerTs, nil
}

// validateHead invokes ClockPolicy on the two message variants that carry
// clock-class information the policy must see: a new stream's default clock
// class, and an inactivity snapshot's clock class.
func (it *MuxerIterator) validateHead(head Message) error {
	var err error
	switch m := head.(type) {
	case *StreamBeginningMessage:
		err = it.policy.validateNewStream(m.Stream)
	case *IteratorInactivityMessage:
		if m.Snapshot != nil {
			err = it.policy.validateClockClass("", m.Snapshot.Class)
		}
	}

	if _, mismatch := err.(*ClockIncompatibleError); mismatch {
		it.stats.recordClockMismatch()
	}

	return err
}

// CanSeekBeginning reports whether every cursor, active or ended, can seek
// its upstream back to the beginning.
func (it *MuxerIterator) CanSeekBeginning() bool {
	for _, cursor := range it.active {
		if !cursor.canSeekBeginning() {
			return false
		}
	}
	for _, cursor := range it.ended {
		if !cursor.canSeekBeginning() {
			return false
		}
	}
	return true
}

// SeekBeginning rewinds every upstream to its beginning: ended cursors first,
// then active ones. On success every cursor is moved back into active and the
// iterator's clock/timestamp state is reset. On failure the iterator is left
// in the post-failure mix of sought and unsought cursors; the only safe
// recourse is to discard it.
func (it *MuxerIterator) SeekBeginning(ctx context.Context) error {
	for _, cursor := range it.ended {
		status, err := cursor.seekBeginning(ctx)
		if err != nil {
			return err
		}
		if status != SeekOk {
			return ErrAgain
		}
	}
	for _, cursor := range it.active {
		status, err := cursor.seekBeginning(ctx)
		if err != nil {
			return err
		}
		if status != SeekOk {
			return ErrAgain
		}
	}

	it.active = append(it.active, it.ended...)
	it.ended = nil

	it.lastTimestampNs = math.MinInt64
	it.policy.reset()

	return nil
}

// Close flushes and shuts down the ambient stats goroutine. Upstream
// iterators are owned by whatever built them and are not touched here.
func (it *MuxerIterator) Close() {
	it.stats.Close()
}
