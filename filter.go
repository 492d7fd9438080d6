package tracemux

import (
	"fmt"

	"github.com/bobg/go-generics/v2/slices"
	"go.uber.org/zap"
)

// OutputPortName is the muxer's single, fixed output port.
const OutputPortName = "out"

// UpstreamIteratorFactory builds the UpstreamIterator backing a connected
// input port. It is injected by whatever graph-wiring layer owns component
// construction; MuxerFilter only calls it once per connected port, during
// MessageIteratorInit.
type UpstreamIteratorFactory func(port string) (UpstreamIterator, error)

// MuxerFilter owns configuration and the dynamic input-port set, and builds
// a MuxerIterator when the output port is subscribed to.
type MuxerFilter struct {
	assumeAbsoluteClocks bool

	nextPortID     int
	connectedPorts []string

	building bool

	logger *zap.Logger
}

// NewMuxerFilter builds a filter with its initial port, "in0", already
// present as the one spare input port.
func NewMuxerFilter() *MuxerFilter {
	return &MuxerFilter{
		nextPortID: 1,
		logger:     zlog,
	}
}

// Init reads the recognized configuration keys. Unknown keys are ignored; a
// non-bool value for assume-absolute-clock-classes is a fatal
// ConfigInvalidError.
func (f *MuxerFilter) Init(params map[string]any) error {
	raw, ok := params["assume-absolute-clock-classes"]
	if !ok {
		return nil
	}

	assumeAbsolute, ok := raw.(bool)
	if !ok {
		return &ConfigInvalidError{Reason: fmt.Sprintf("assume-absolute-clock-classes must be a bool, got %T", raw)}
	}

	f.assumeAbsoluteClocks = assumeAbsolute
	f.logger.Debug("muxer filter configured", zap.Bool("assume_absolute_clock_classes", assumeAbsolute))

	return nil
}

// InitialInputPort is the name of the one input port that exists before any
// OnInputPortConnected call: "in0".
func (f *MuxerFilter) InitialInputPort() string {
	return "in0"
}

// OnInputPortConnected adds a new spare input port, preserving the invariant
// that exactly one unconnected input port is always available. port must
// already have been validated by the caller as the name of a port this
// filter owns.
func (f *MuxerFilter) OnInputPortConnected(port string) (newPort string, err error) {
	if slices.Contains(f.connectedPorts, port) {
		return "", fmt.Errorf("port %q already connected", port)
	}

	f.connectedPorts = append(f.connectedPorts, port)

	newPort = fmt.Sprintf("in%d", f.nextPortID)
	f.nextPortID++

	f.logger.Debug("input port connected",
		zap.String("port", port),
		zap.String("spare_port", newPort),
	)

	return newPort, nil
}

// MessageIteratorInit builds a MuxerIterator over every connected input
// port, invoking factory once per port to obtain its upstream. A recursive
// construction (the filter asked to build a second iterator while the first
// construction is still in progress) is a fatal ConfigInvalidError.
func (f *MuxerFilter) MessageIteratorInit(factory UpstreamIteratorFactory, opts ...IteratorOption) (*MuxerIterator, error) {
	if f.building {
		return nil, &ConfigInvalidError{Reason: "recursive muxer iterator construction"}
	}
	f.building = true
	defer func() { f.building = false }()

	upstreams := make(map[string]UpstreamIterator, len(f.connectedPorts))
	for _, port := range f.connectedPorts {
		iter, err := factory(port)
		if err != nil {
			return nil, fmt.Errorf("build upstream iterator for port %q: %w", port, err)
		}
		upstreams[port] = iter
	}

	return NewMuxerIterator(upstreams, f.assumeAbsoluteClocks, opts...), nil
}

// Finalize releases filter-owned resources. The filter itself owns none
// beyond its configuration and port bookkeeping; iterators it has built are
// independently closed by their caller.
func (f *MuxerFilter) Finalize() {}
