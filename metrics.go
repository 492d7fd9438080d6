package tracemux

import "github.com/streamingfast/dmetrics"

func RegisterMetrics() {
	metrics.Register()
}

var metrics = dmetrics.NewSet()

// HeadTimestampNs reuses the set's head-number gauge helper to track the
// latest nanosecond timestamp muxed, the timestamp analogue of a head block
// number.
var HeadTimestampNs = metrics.NewHeadBlockNumber("tracemux")

var MessagesMuxedCount = metrics.NewCounter("tracemux_messages_muxed", "The number of messages emitted by the muxer's Next")
var AgainCount = metrics.NewCounter("tracemux_again", "The number of times an upstream pull returned Again")
var ClockMismatchCount = metrics.NewCounter("tracemux_clock_mismatch", "The number of times ClockPolicy rejected an observed clock class")
