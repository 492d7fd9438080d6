package tracemux

import (
	"context"
	"fmt"
)

// PullStatus is the result of an upstream iterator's Next call, as consumed
// by UpstreamCursor.Pull.
type PullStatus int

const (
	PullOk PullStatus = iota
	PullAgain
	PullEnd
)

// SeekStatus is the result of an upstream iterator's SeekBeginning call.
type SeekStatus int

const (
	SeekOk SeekStatus = iota
	SeekAgain
)

// UpstreamIterator is the contract the muxer consumes from whatever produces
// a connected input port's messages. It is deliberately minimal: the live
// viewer protocol client, CTF decoding, and graph wiring that build a real
// instance of this interface are out of scope here.
type UpstreamIterator interface {
	// Next fills out with up to len(out) messages. On PullOk, count is >= 1.
	// On PullAgain or PullEnd, count is 0 and out is untouched.
	Next(ctx context.Context, out []Message) (count int, status PullStatus, err error)
	CanSeekBeginning() bool
	SeekBeginning(ctx context.Context) (SeekStatus, error)
}

// upstreamCursor wraps one upstream iterator plus a FIFO of buffered
// messages. The upstream handle is kept alive for the cursor's entire
// lifetime, including after PullEnd: SeekBeginning and CanSeekBeginning must
// still reach it once the muxer has retired the cursor to its ended set, so
// end-of-stream is tracked with isEnded rather than by releasing iter.
type upstreamCursor struct {
	port    string
	iter    UpstreamIterator
	queue   []Message
	isEnded bool
}

func newUpstreamCursor(port string, iter UpstreamIterator) *upstreamCursor {
	return &upstreamCursor{port: port, iter: iter}
}

func (c *upstreamCursor) ended() bool {
	return c.isEnded
}

func (c *upstreamCursor) empty() bool {
	return len(c.queue) == 0
}

// pull invokes the upstream's batch-next when the queue is empty. It never
// retries internally: PullAgain propagates verbatim to the caller.
func (c *upstreamCursor) pull(ctx context.Context) (PullStatus, error) {
	if c.isEnded {
		return PullEnd, nil
	}

	buf := make([]Message, pullBatchSize)
	count, status, err := c.iter.Next(ctx, buf)
	if err != nil {
		return PullOk, &UpstreamError{Port: c.port, Err: err}
	}

	switch status {
	case PullOk:
		if count < 1 {
			return PullOk, fmt.Errorf("port %q: %w", c.port, ErrEmptyBatch)
		}
		c.queue = append(c.queue, buf[:count]...)
		return PullOk, nil
	case PullAgain:
		return PullAgain, nil
	case PullEnd:
		c.isEnded = true
		return PullOk, nil
	default:
		return PullOk, fmt.Errorf("port %q: unsupported pull status %d", c.port, status)
	}
}

// peek returns the head of the queue without removing it. The caller must
// never invoke it on an empty queue.
func (c *upstreamCursor) peek() Message {
	return c.queue[0]
}

// pop removes and returns the head of the queue. The caller must never invoke
// it on an empty queue.
func (c *upstreamCursor) pop() Message {
	msg := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return msg
}

// seekBeginning asks the upstream to rewind to its beginning; on success the
// queue is emptied, discarding any buffered-but-unread messages, and a
// previously-ended cursor becomes active again.
func (c *upstreamCursor) seekBeginning(ctx context.Context) (SeekStatus, error) {
	status, err := c.iter.SeekBeginning(ctx)
	if err != nil {
		return status, &UpstreamError{Port: c.port, Err: err}
	}
	if status == SeekOk {
		c.queue = nil
		c.isEnded = false
	}
	return status, nil
}

// canSeekBeginning is valid to call whether or not the cursor has ended: a
// cursor already retired to the muxer's ended set must still answer it.
func (c *upstreamCursor) canSeekBeginning() bool {
	return c.iter.CanSeekBeginning()
}

// pullBatchSize bounds how many messages upstreamCursor.pull asks an
// upstream for in one call. Upstreams are always free to return fewer.
const pullBatchSize = 64
