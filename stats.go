package tracemux

import (
	"time"

	"github.com/streamingfast/dmetrics"
	"github.com/streamingfast/shutter"
	"go.uber.org/zap"
)

// Stats is the ambient periodic-logging/metrics component a MuxerIterator
// owns. It is the only part of the module that spawns a goroutine, and that
// goroutine never sits on the muxing hot path.
type Stats struct {
	*shutter.Shutter

	msgRate  *dmetrics.AvgRatePromCounter
	jitterNs *AverageInt64

	headTimestampNs int64
	haveHead        bool
	logger          *zap.Logger
}

func newStats(logger *zap.Logger) *Stats {
	return &Stats{
		Shutter: shutter.New(),

		msgRate:  dmetrics.MustNewAvgRateFromPromCounter(MessagesMuxedCount, 1*time.Second, 30*time.Second, "msg"),
		jitterNs: NewAverageInt64("timestamp_gap_ns"),

		logger: logger,
	}
}

// recordMuxed is called from the hot path: it never logs.
func (s *Stats) recordMuxed(timestampNs int64) {
	if s.haveHead {
		s.jitterNs.Add(timestampNs - s.headTimestampNs)
	}
	s.headTimestampNs = timestampNs
	s.haveHead = true
	MessagesMuxedCount.Inc()
	HeadTimestampNs.SetUint64(uint64(timestampNs))
}

func (s *Stats) recordAgain() {
	AgainCount.Inc()
}

func (s *Stats) recordClockMismatch() {
	ClockMismatchCount.Inc()
}

// Start begins the periodic stats logger. It panics if called after
// Shutdown.
func (s *Stats) Start(each time.Duration) {
	if s.IsTerminating() || s.IsTerminated() {
		panic("already shutdown, refusing to start again")
	}

	go func() {
		ticker := time.NewTicker(each)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.LogNow()
			case <-s.Terminating():
				return
			}
		}
	}()
}

func (s *Stats) LogNow() {

	// Logging fields order is important as it affects the final rendering, we carefully ordered
	// them so the development logs looks nicer.
	s.logger.Info("muxer stats",
		zap.Stringer("msg_rate", s.msgRate),
		zap.Int64("head_timestamp_ns", s.headTimestampNs),
		zap.Stringer("timestamp_gap", s.jitterNs),
	)
}

func (s *Stats) Close() {
	s.msgRate.SyncNow()
	s.LogNow()

	s.Shutdown(nil)
	s.msgRate.Stop()
}
