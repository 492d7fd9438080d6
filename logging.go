package tracemux

import "github.com/streamingfast/logging"

// zlog and tracer are this package's default logger and trace guard.
// Callers override either via WithLogger/WithTracer.
var zlog, tracer = logging.RootLogger("tracemux", "github.com/efficios-go/tracemux")
