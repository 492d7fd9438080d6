package tracemux

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

// IteratorOption configures a MuxerIterator at construction time using the
// functional-options pattern.
type IteratorOption func(it *MuxerIterator)

// WithLogger overrides the package default zap logger.
func WithLogger(logger *zap.Logger) IteratorOption {
	return func(it *MuxerIterator) {
		it.logger = logger
	}
}

// WithTracer overrides the package default trace guard.
func WithTracer(t logging.Tracer) IteratorOption {
	return func(it *MuxerIterator) {
		it.tracer = t
	}
}

// WithStats lets a caller share one Stats instance (and its periodic
// logger/metrics) across multiple MuxerIterator instances.
func WithStats(stats *Stats) IteratorOption {
	return func(it *MuxerIterator) {
		it.stats = stats
	}
}
